// Package errors provides sentinel errors and custom error types for the fel application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrMergeCommit indicates that a merge commit was found in managed history
	ErrMergeCommit = errors.New("merge commits are not supported")

	// ErrNotAncestor indicates that an ancestry query was made between unrelated commits
	ErrNotAncestor = errors.New("not an ancestor")

	// ErrMultipleMergeBases indicates that two refs have more than one merge base
	ErrMultipleMergeBases = errors.New("multiple merge bases")

	// ErrNoDivergence indicates that a branch does not diverge from its upstream
	ErrNoDivergence = errors.New("branch does not diverge from upstream")

	// ErrRebaseConflict indicates that a rebase operation encountered a conflict
	ErrRebaseConflict = errors.New("rebase conflict")

	// ErrUnknownMetadataKey indicates that a commit trailer contains an unrecognized key
	ErrUnknownMetadataKey = errors.New("unknown metadata key")

	// ErrUnsubmittedCommit indicates an operation that requires a pull request
	// was attempted on a commit that was never submitted
	ErrUnsubmittedCommit = errors.New("commit has not been submitted")

	// ErrInvalidOperation indicates the caller violated an operation's contract
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrBranchNotFound indicates that a branch does not exist
	ErrBranchNotFound = errors.New("branch not found")

	// ErrNotMergeable indicates that a pull request is blocked from merging
	ErrNotMergeable = errors.New("pull request is not mergeable")
)

// BranchNotFoundError represents an error when a branch is not found
type BranchNotFoundError struct {
	BranchName string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %s does not exist", e.BranchName)
}

// Is returns true if the target error is ErrBranchNotFound
func (e *BranchNotFoundError) Is(target error) bool {
	return target == ErrBranchNotFound
}

// NewBranchNotFoundError creates a new BranchNotFoundError
func NewBranchNotFoundError(branchName string) *BranchNotFoundError {
	return &BranchNotFoundError{BranchName: branchName}
}

// NotAncestorError reports that descendant cannot reach ancestor by
// single-parent walks.
type NotAncestorError struct {
	Ancestor   string
	Descendant string
}

func (e *NotAncestorError) Error() string {
	return fmt.Sprintf("%s is not an ancestor of %s", e.Ancestor, e.Descendant)
}

// Is returns true if the target error is ErrNotAncestor
func (e *NotAncestorError) Is(target error) bool {
	return target == ErrNotAncestor
}

// NewNotAncestorError creates a new NotAncestorError
func NewNotAncestorError(ancestor, descendant string) *NotAncestorError {
	return &NotAncestorError{Ancestor: ancestor, Descendant: descendant}
}

// MergeCommitError reports a commit with more than one parent in managed history
type MergeCommitError struct {
	Commit string
}

func (e *MergeCommitError) Error() string {
	return fmt.Sprintf("commit %s has more than one parent", e.Commit)
}

// Is returns true if the target error is ErrMergeCommit
func (e *MergeCommitError) Is(target error) bool {
	return target == ErrMergeCommit
}

// NewMergeCommitError creates a new MergeCommitError
func NewMergeCommitError(commit string) *MergeCommitError {
	return &MergeCommitError{Commit: commit}
}

// GraftConflictError represents a conflict while grafting a subtree. The
// graft engine never resolves conflicts; the whole operation is fatal.
type GraftConflictError struct {
	BranchName string
	Onto       string
}

func (e *GraftConflictError) Error() string {
	return fmt.Sprintf("conflict while grafting branch %s onto %s", e.BranchName, e.Onto)
}

// Is returns true if the target error is ErrRebaseConflict
func (e *GraftConflictError) Is(target error) bool {
	return target == ErrRebaseConflict
}

// NewGraftConflictError creates a new GraftConflictError
func NewGraftConflictError(branchName, onto string) *GraftConflictError {
	return &GraftConflictError{BranchName: branchName, Onto: onto}
}

// MetadataKeyError reports an unrecognized key in a commit message trailer
type MetadataKeyError struct {
	Key string
}

func (e *MetadataKeyError) Error() string {
	return fmt.Sprintf("unknown metadata key %q", e.Key)
}

// Is returns true if the target error is ErrUnknownMetadataKey
func (e *MetadataKeyError) Is(target error) bool {
	return target == ErrUnknownMetadataKey
}

// NewMetadataKeyError creates a new MetadataKeyError
func NewMetadataKeyError(key string) *MetadataKeyError {
	return &MetadataKeyError{Key: key}
}

// NotMergeableError reports why a pull request is blocked from merging
type NotMergeableError struct {
	PRNumber int
	Reason   string
}

func (e *NotMergeableError) Error() string {
	return fmt.Sprintf("PR #%d is not mergeable: %s", e.PRNumber, e.Reason)
}

// Is returns true if the target error is ErrNotMergeable
func (e *NotMergeableError) Is(target error) bool {
	return target == ErrNotMergeable
}

// NewNotMergeableError creates a new NotMergeableError
func NewNotMergeableError(prNumber int, reason string) *NotMergeableError {
	return &NotMergeableError{PRNumber: prNumber, Reason: reason}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
