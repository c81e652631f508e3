// Package utils holds small helpers shared across fel packages.
package utils

import (
	"regexp"
	"strings"
)

// MaxBranchNameByteLength caps derived ref names well under git's ref
// length limit, leaving room for the remote prefix.
const MaxBranchNameByteLength = 234

var (
	invalidRefChars = regexp.MustCompile(`[^-_/.a-zA-Z0-9]+`)
	trailingJunk    = regexp.MustCompile(`[/.]*$`)
	hyphenRuns      = regexp.MustCompile(`-+`)
)

// SanitizeBranchName makes a string safe to embed in a git ref name. Stack
// names come from local branch names and branch prefixes from GitHub
// logins, neither of which is guaranteed to be ref-safe.
func SanitizeBranchName(name string) string {
	name = trailingJunk.ReplaceAllString(name, "")
	name = invalidRefChars.ReplaceAllString(name, "-")
	name = hyphenRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if len(name) > MaxBranchNameByteLength {
		name = strings.TrimSuffix(name[:MaxBranchNameByteLength], "-")
	}
	return name
}
