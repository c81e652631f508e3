package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fel.dev/fel/internal/github"
)

// FakeHost is an in-memory github.Client. Pull requests merge cleanly by
// default; tests arrange reviews, checks and protection per scenario.
type FakeHost struct {
	mu sync.Mutex

	Login      string
	NextNumber int

	PRs        map[int]*github.PullRequestInfo
	Reviews    map[int][]github.Review
	Checks     map[string][]github.CheckRun
	Protection map[string]*github.BranchProtection

	// MergedPRs records merge calls in order; AdminMerges the ones that
	// used the override.
	MergedPRs       []int
	AdminMerges     []int
	DeletedBranches []string

	// OnMerge, when set, is called before a merge is recorded. It lets a
	// test simulate the upstream branch advancing on the remote.
	OnMerge func(pr *github.PullRequestInfo) error
}

var _ github.Client = (*FakeHost)(nil)

// NewFakeHost returns a host with no pull requests and an unprotected
// default branch.
func NewFakeHost() *FakeHost {
	return &FakeHost{
		Login:      "tester",
		NextNumber: 1,
		PRs:        make(map[int]*github.PullRequestInfo),
		Reviews:    make(map[int][]github.Review),
		Checks:     make(map[string][]github.CheckRun),
		Protection: make(map[string]*github.BranchProtection),
	}
}

func (f *FakeHost) AuthenticatedUser(_ context.Context) (string, error) {
	return f.Login, nil
}

func (f *FakeHost) CreatePullRequest(_ context.Context, opts github.CreatePROptions) (*github.PullRequestInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pr := &github.PullRequestInfo{
		Number:         f.NextNumber,
		Title:          opts.Title,
		Body:           opts.Body,
		State:          "open",
		Base:           opts.Base,
		Head:           opts.Head,
		MergeableState: "clean",
		UpdatedAt:      time.Now().Add(-time.Minute),
	}
	f.PRs[pr.Number] = pr
	f.NextNumber++
	return copyPR(pr), nil
}

func (f *FakeHost) GetPullRequest(_ context.Context, number int) (*github.PullRequestInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pr, ok := f.PRs[number]
	if !ok {
		return nil, fmt.Errorf("no such pull request: %d", number)
	}
	return copyPR(pr), nil
}

func (f *FakeHost) UpdatePullRequest(_ context.Context, number int, opts github.UpdatePROptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pr, ok := f.PRs[number]
	if !ok {
		return fmt.Errorf("no such pull request: %d", number)
	}
	if opts.Title != nil {
		pr.Title = *opts.Title
	}
	if opts.Body != nil {
		pr.Body = *opts.Body
	}
	if opts.Base != nil {
		pr.Base = *opts.Base
	}
	pr.UpdatedAt = time.Now()
	return nil
}

func (f *FakeHost) HighestPRNumber(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.NextNumber - 1, nil
}

func (f *FakeHost) MergePullRequest(_ context.Context, number int, admin bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pr, ok := f.PRs[number]
	if !ok {
		return false, fmt.Errorf("no such pull request: %d", number)
	}
	if pr.Merged {
		return false, fmt.Errorf("pull request %d already merged", number)
	}

	if f.OnMerge != nil {
		if err := f.OnMerge(pr); err != nil {
			return false, err
		}
	}

	pr.Merged = true
	pr.State = "closed"
	f.MergedPRs = append(f.MergedPRs, number)
	if admin {
		f.AdminMerges = append(f.AdminMerges, number)
	}
	return true, nil
}

func (f *FakeHost) ListReviews(_ context.Context, number int) ([]github.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]github.Review(nil), f.Reviews[number]...), nil
}

func (f *FakeHost) ListCheckRuns(_ context.Context, sha string) ([]github.CheckRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]github.CheckRun(nil), f.Checks[sha]...), nil
}

func (f *FakeHost) GetBranchProtection(_ context.Context, branch string) (*github.BranchProtection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if protection, ok := f.Protection[branch]; ok {
		p := *protection
		return &p, nil
	}
	return &github.BranchProtection{}, nil
}

func (f *FakeHost) DeleteBranchRef(_ context.Context, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeletedBranches = append(f.DeletedBranches, branch)
	return nil
}

func copyPR(pr *github.PullRequestInfo) *github.PullRequestInfo {
	c := *pr
	return &c
}
