package github

import (
	"fmt"
	"strings"
)

// ParseRemoteURL extracts the owner and repository name from a git remote
// URL. It understands the ssh, scp-like and https forms GitHub hands out.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	path := url
	switch {
	case strings.HasPrefix(url, "git@"):
		_, path, _ = strings.Cut(url, ":")
	case strings.HasPrefix(url, "ssh://"):
		trimmed := strings.TrimPrefix(url, "ssh://")
		_, path, _ = strings.Cut(trimmed, "/")
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
		trimmed := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
		_, path, _ = strings.Cut(trimmed, "/")
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from remote URL %q", url)
	}
	return parts[0], parts[1], nil
}
