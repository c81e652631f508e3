// Package github provides the client surface fel needs from the code review
// host: pull request CRUD, review/check/protection queries, and ref
// deletion. The Client interface decouples the orchestrators from go-github
// so tests can substitute an in-memory host.
package github

import (
	"context"
	"time"
)

// PullRequestInfo contains information about a pull request.
// This is a simplified struct to avoid coupling to the go-github library.
type PullRequestInfo struct {
	Number         int
	Title          string
	Body           string
	State          string
	Base           string
	Head           string
	HeadSHA        string
	Merged         bool
	Mergeable      *bool
	MergeableState string
	UpdatedAt      time.Time
}

// Review represents a single pull request review.
type Review struct {
	State string // APPROVED, CHANGES_REQUESTED, COMMENTED, ...
}

// CheckRun represents one CI check run on a commit.
type CheckRun struct {
	Name       string
	Status     string // queued, in_progress, completed
	Conclusion string // success, failure, neutral, ...
}

// BranchProtection describes the protection rules of a branch. A branch
// with no protection at all reports Protected == false, which fel treats as
// zero required approvals and zero required checks.
type BranchProtection struct {
	Protected         bool
	RequiredApprovals int
	RequiredChecks    []string
}

// CreatePROptions contains options for creating a pull request
type CreatePROptions struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// UpdatePROptions contains options for updating a pull request. Nil fields
// are left unchanged.
type UpdatePROptions struct {
	Title *string
	Body  *string
	Base  *string
}

// Client is an interface for the code review host.
type Client interface {
	// AuthenticatedUser returns the login of the authenticated user.
	AuthenticatedUser(ctx context.Context) (string, error)

	// CreatePullRequest creates a new pull request
	CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequestInfo, error)

	// GetPullRequest fetches a pull request by number
	GetPullRequest(ctx context.Context, number int) (*PullRequestInfo, error)

	// UpdatePullRequest updates an existing pull request
	UpdatePullRequest(ctx context.Context, number int, opts UpdatePROptions) error

	// HighestPRNumber returns the number of the most recently created
	// pull request in the repository, across all states.
	HighestPRNumber(ctx context.Context) (int, error)

	// MergePullRequest squash-merges a pull request and returns whether
	// the host reports it merged.
	MergePullRequest(ctx context.Context, number int, admin bool) (bool, error)

	// ListReviews lists the reviews on a pull request
	ListReviews(ctx context.Context, number int) ([]Review, error)

	// ListCheckRuns lists the check runs for a commit sha
	ListCheckRuns(ctx context.Context, sha string) ([]CheckRun, error)

	// GetBranchProtection returns the protection rules for a branch
	GetBranchProtection(ctx context.Context, branch string) (*BranchProtection, error)

	// DeleteBranchRef deletes a remote branch ref. Deleting a ref that is
	// already gone is success, not failure.
	DeleteBranchRef(ctx context.Context, branch string) error
}
