// Package meta implements the commit-message trailer block that fel uses to
// attach bookkeeping metadata to the commits it manages. The trailer is a
// literal "---" line followed by "key: value" lines appended to the commit
// message body. Encoding and decoding are pure and round-trip stable.
package meta

import (
	"fmt"
	"strconv"
	"strings"

	felerrors "fel.dev/fel/internal/errors"
)

// Delimiter separates the free-text commit message from the trailer block.
const Delimiter = "\n---\n"

// Known trailer keys.
const (
	KeyStack       = "fel-stack"
	KeyStackIndex  = "fel-stack-index"
	KeyPR          = "fel-pr"
	KeyBranch      = "fel-branch"
	KeyAmendedFrom = "fel-amended-from"
	KeyVersion     = "fel-version"
)

// Metadata is the typed record stored in a commit's trailer block. Integer
// fields are pointers so that an absent key is distinguishable from zero;
// a stack index of 0 marks the stack root.
type Metadata struct {
	Stack       string
	StackIndex  *int
	PR          *int
	Branch      string
	AmendedFrom string
	Version     string
}

// IsZero reports whether no metadata keys are set.
func (m Metadata) IsZero() bool {
	return m.Stack == "" && m.StackIndex == nil && m.PR == nil &&
		m.Branch == "" && m.AmendedFrom == "" && m.Version == ""
}

// Submitted reports whether the commit has an associated pull request.
// Absence of fel-pr/fel-branch means "not yet submitted".
func (m Metadata) Submitted() bool {
	return m.PR != nil && m.Branch != ""
}

// Annotated reports whether the commit has a stack identity assigned.
func (m Metadata) Annotated() bool {
	return m.Stack != "" && m.StackIndex != nil
}

// Decode splits a commit message into its free-text body and trailer
// metadata. A message without the delimiter yields empty metadata. More than
// one delimiter occurrence, an unknown key, or a malformed value is an error.
func Decode(message string) (string, Metadata, error) {
	sections := strings.Split(message, Delimiter)
	if len(sections) == 1 {
		return message, Metadata{}, nil
	}
	if len(sections) > 2 {
		return "", Metadata{}, fmt.Errorf("message contains %d trailer delimiters, expected at most 1", len(sections)-1)
	}

	var md Metadata
	for _, line := range strings.Split(strings.TrimSpace(sections[1]), "\n") {
		// Values may themselves contain ": ", so only the first
		// occurrence separates key from value.
		key, value, found := strings.Cut(line, ": ")
		if !found {
			return "", Metadata{}, fmt.Errorf("malformed trailer line %q", line)
		}

		switch key {
		case KeyStack:
			md.Stack = value
		case KeyStackIndex:
			n, err := strconv.Atoi(value)
			if err != nil {
				return "", Metadata{}, fmt.Errorf("invalid %s value %q: %w", KeyStackIndex, value, err)
			}
			md.StackIndex = &n
		case KeyPR:
			n, err := strconv.Atoi(value)
			if err != nil {
				return "", Metadata{}, fmt.Errorf("invalid %s value %q: %w", KeyPR, value, err)
			}
			md.PR = &n
		case KeyBranch:
			md.Branch = value
		case KeyAmendedFrom:
			md.AmendedFrom = value
		case KeyVersion:
			md.Version = value
		default:
			return "", Metadata{}, felerrors.NewMetadataKeyError(key)
		}
	}

	return sections[0], md, nil
}

// Encode appends the trailer block to a commit message body. Keys are
// written in a fixed order so that encoding is deterministic; empty metadata
// returns the body unchanged.
func Encode(body string, md Metadata) string {
	if md.IsZero() {
		return body
	}

	var sb strings.Builder
	sb.WriteString(body)
	sb.WriteString("\n---")

	write := func(key, value string) {
		sb.WriteString("\n")
		sb.WriteString(key)
		sb.WriteString(": ")
		sb.WriteString(value)
	}

	if md.Stack != "" {
		write(KeyStack, md.Stack)
	}
	if md.StackIndex != nil {
		write(KeyStackIndex, strconv.Itoa(*md.StackIndex))
	}
	if md.PR != nil {
		write(KeyPR, strconv.Itoa(*md.PR))
	}
	if md.Branch != "" {
		write(KeyBranch, md.Branch)
	}
	if md.AmendedFrom != "" {
		write(KeyAmendedFrom, md.AmendedFrom)
	}
	if md.Version != "" {
		write(KeyVersion, md.Version)
	}

	return sb.String()
}

// Int returns a pointer to n, for building Metadata literals.
func Int(n int) *int {
	return &n
}
