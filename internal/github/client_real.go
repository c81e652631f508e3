package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// RealClient implements Client using the GitHub REST API.
type RealClient struct {
	client *github.Client
	owner  string
	repo   string
}

// NewRealClient creates a GitHub API client authenticated with the given token.
func NewRealClient(ctx context.Context, token, owner, repo string) *RealClient {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	return &RealClient{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}
}

// NewRealClientWithHTTP creates a client on top of an existing HTTP client,
// pointed at an alternate API base URL. Used against mock servers in tests.
func NewRealClientWithHTTP(httpClient *http.Client, baseURL, owner, repo string) (*RealClient, error) {
	client := github.NewClient(httpClient)
	var err error
	client, err = client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to set API base URL: %w", err)
	}

	return &RealClient{client: client, owner: owner, repo: repo}, nil
}

// AuthenticatedUser returns the login of the authenticated user.
func (c *RealClient) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	return strings.ToLower(user.GetLogin()), nil
}

func toPullRequestInfo(pr *github.PullRequest) *PullRequestInfo {
	info := &PullRequestInfo{
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		Body:           pr.GetBody(),
		State:          pr.GetState(),
		Base:           pr.GetBase().GetRef(),
		Head:           pr.GetHead().GetRef(),
		HeadSHA:        pr.GetHead().GetSHA(),
		Merged:         pr.GetMerged(),
		MergeableState: pr.GetMergeableState(),
		UpdatedAt:      pr.GetUpdatedAt().Time,
	}
	if pr.Mergeable != nil {
		mergeable := *pr.Mergeable
		info.Mergeable = &mergeable
	}
	return info
}

// CreatePullRequest creates a new pull request
func (c *RealClient) CreatePullRequest(ctx context.Context, opts CreatePROptions) (*PullRequestInfo, error) {
	pr := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Head:  github.String(opts.Head),
		Base:  github.String(opts.Base),
	}
	if opts.Body != "" {
		pr.Body = github.String(opts.Body)
	}

	created, _, err := c.client.PullRequests.Create(ctx, c.owner, c.repo, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	return toPullRequestInfo(created), nil
}

// GetPullRequest fetches a pull request by number
func (c *RealClient) GetPullRequest(ctx context.Context, number int) (*PullRequestInfo, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request #%d: %w", number, err)
	}
	return toPullRequestInfo(pr), nil
}

// UpdatePullRequest updates an existing pull request
func (c *RealClient) UpdatePullRequest(ctx context.Context, number int, opts UpdatePROptions) error {
	update := &github.PullRequest{}
	if opts.Title != nil {
		update.Title = opts.Title
	}
	if opts.Body != nil {
		update.Body = opts.Body
	}
	if opts.Base != nil {
		update.Base = &github.PullRequestBranch{Ref: opts.Base}
	}

	_, _, err := c.client.PullRequests.Edit(ctx, c.owner, c.repo, number, update)
	if err != nil {
		return fmt.Errorf("failed to update pull request #%d: %w", number, err)
	}
	return nil
}

// HighestPRNumber returns the number of the most recently created pull
// request across all states, or 0 when the repository has none.
func (c *RealClient) HighestPRNumber(ctx context.Context) (int, error) {
	prs, _, err := c.client.PullRequests.List(ctx, c.owner, c.repo, &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list pull requests: %w", err)
	}
	if len(prs) == 0 {
		return 0, nil
	}
	return prs[0].GetNumber(), nil
}

// MergePullRequest squash-merges a pull request. The REST merge endpoint has
// no admin-override parameter; an admin merge is the same call made by a user
// whose protections are not enforced for administrators.
func (c *RealClient) MergePullRequest(ctx context.Context, number int, _ bool) (bool, error) {
	opts := &github.PullRequestOptions{MergeMethod: "squash"}
	result, _, err := c.client.PullRequests.Merge(ctx, c.owner, c.repo, number, "", opts)
	if err != nil {
		return false, fmt.Errorf("failed to merge pull request #%d: %w", number, err)
	}
	return result.GetMerged(), nil
}

// ListReviews lists the reviews on a pull request
func (c *RealClient) ListReviews(ctx context.Context, number int) ([]Review, error) {
	var reviews []Review
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.client.PullRequests.ListReviews(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews for #%d: %w", number, err)
		}
		for _, review := range page {
			reviews = append(reviews, Review{State: review.GetState()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return reviews, nil
}

// ListCheckRuns lists the check runs for a commit sha
func (c *RealClient) ListCheckRuns(ctx context.Context, sha string) ([]CheckRun, error) {
	var runs []CheckRun
	opts := &github.ListCheckRunsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		page, resp, err := c.client.Checks.ListCheckRunsForRef(ctx, c.owner, c.repo, sha, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list check runs for %s: %w", sha, err)
		}
		for _, run := range page.CheckRuns {
			runs = append(runs, CheckRun{
				Name:       run.GetName(),
				Status:     run.GetStatus(),
				Conclusion: run.GetConclusion(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}
	return runs, nil
}

// GetBranchProtection returns the protection rules for a branch. A 404 from
// the host means the branch is simply not protected.
func (c *RealClient) GetBranchProtection(ctx context.Context, branch string) (*BranchProtection, error) {
	protection, resp, err := c.client.Repositories.GetBranchProtection(ctx, c.owner, c.repo, branch)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return &BranchProtection{}, nil
		}
		return nil, fmt.Errorf("failed to get branch protection for %s: %w", branch, err)
	}

	result := &BranchProtection{Protected: true}
	if reviews := protection.GetRequiredPullRequestReviews(); reviews != nil {
		result.RequiredApprovals = reviews.RequiredApprovingReviewCount
	}
	if checks := protection.GetRequiredStatusChecks(); checks != nil && checks.Contexts != nil {
		result.RequiredChecks = append(result.RequiredChecks, *checks.Contexts...)
	}
	return result, nil
}

// DeleteBranchRef deletes a remote branch ref. A ref that is already gone
// satisfies the goal, so 404 and 422 responses are success.
func (c *RealClient) DeleteBranchRef(ctx context.Context, branch string) error {
	resp, err := c.client.Git.DeleteRef(ctx, c.owner, c.repo, "heads/"+branch)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity) {
			return nil
		}
		return fmt.Errorf("failed to delete ref heads/%s: %w", branch, err)
	}
	return nil
}
