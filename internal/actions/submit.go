// Package actions implements the fel commands: submitting a stack as pull
// requests, landing them, and reporting their status.
package actions

import (
	"context"
	"fmt"
	"strings"

	"fel.dev/fel/internal/engine"
	felerrors "fel.dev/fel/internal/errors"
	"fel.dev/fel/internal/git"
	"fel.dev/fel/internal/github"
	"fel.dev/fel/internal/meta"
	"fel.dev/fel/internal/output"
)

// Submitter recursively ensures every commit below a given commit has a
// pull request, bottom-up.
type Submitter struct {
	Repo     *git.Repo
	Client   github.Client
	Upstream string
	Remote   string
	Prefix   string

	// UpdateOnly makes submitting a never-submitted commit a contract
	// violation instead of creating a pull request. Used when correcting
	// bases after a land.
	UpdateOnly bool

	Splog *output.Splog
}

// Submit ensures sha and every local ancestor of sha has an up-to-date pull
// request. It returns the remote branch a child of sha should base its pull
// request on, plus the accumulated map of commits rewritten along the way.
func (s *Submitter) Submit(ctx context.Context, sha string) (string, engine.RebaseMap, error) {
	upstreamTip, err := s.Repo.BranchTip(s.Upstream)
	if err != nil {
		return "", nil, err
	}

	// Commits already upstream need nothing; children base on upstream.
	onUpstream, err := s.Repo.IsAncestor(sha, upstreamTip)
	if err != nil {
		return "", nil, err
	}
	if onUpstream {
		s.Splog.Debug("skipping upstream commit %s", sha)
		return s.Upstream, engine.RebaseMap{}, nil
	}

	commit, err := s.Repo.ReadCommit(sha)
	if err != nil {
		return "", nil, err
	}
	if len(commit.Parents) != 1 {
		return "", nil, felerrors.NewMergeCommitError(sha)
	}

	// The parent must be submitted first; its branch is our base. The
	// parent step may have rewritten us, so chase our own hash through
	// its map before doing anything else.
	baseBranch, inherited, err := s.Submit(ctx, commit.Parents[0])
	if err != nil {
		return "", nil, err
	}

	if resolved := inherited.Resolve(sha); resolved != sha {
		sha = resolved
		if commit, err = s.Repo.ReadCommit(sha); err != nil {
			return "", nil, err
		}
	}

	body, md, err := meta.Decode(commit.Message)
	if err != nil {
		return "", nil, fmt.Errorf("commit %s: %w", commit.ShortHash(), err)
	}

	if md.Submitted() {
		branch, err := s.update(ctx, sha, md, baseBranch)
		return branch, inherited, err
	}

	if s.UpdateOnly {
		return "", nil, fmt.Errorf("submitting unsubmitted commit %s with update-only: %w",
			commit.ShortHash(), felerrors.ErrInvalidOperation)
	}

	return s.create(ctx, commit, body, md, baseBranch, inherited)
}

// update refreshes the remote branch and base of an already-submitted
// commit's pull request.
func (s *Submitter) update(ctx context.Context, sha string, md meta.Metadata, baseBranch string) (string, error) {
	if err := s.Repo.UpdateBranchRef(ctx, md.Branch, sha); err != nil {
		return "", err
	}

	upToDate, err := s.Repo.PushBranch(ctx, s.Remote, md.Branch, true)
	if err != nil {
		return "", err
	}

	pr, err := s.Client.GetPullRequest(ctx, *md.PR)
	if err != nil {
		return "", err
	}

	// Keep the remote base chain consistent as lower commits are
	// replaced. Editing the base churns the PR even when the value is
	// unchanged, so only do it when needed.
	if pr.Base != baseBranch {
		if err := s.Client.UpdatePullRequest(ctx, *md.PR, github.UpdatePROptions{Base: &baseBranch}); err != nil {
			return "", err
		}
	}

	if !upToDate {
		s.Splog.Info("Updated PR #%d to %s", *md.PR, sha[:8])
	}

	return md.Branch, nil
}

// create opens a pull request for a commit that has never been submitted,
// stamps the assigned number into the commit's metadata, and restacks every
// descendant onto the amended commit.
//
// There is no way to create a PR without a branch, so when the branch name
// has to carry the PR number we guess what the next number will be and
// create the PR immediately, before anyone steals it. A wrong guess does
// not matter: the commit is amended with the actual number afterwards, and
// descendants are only anchored to the amended commit.
func (s *Submitter) create(ctx context.Context, commit *git.Commit, body string, md meta.Metadata, baseBranch string, inherited engine.RebaseMap) (string, engine.RebaseMap, error) {
	branch := md.Branch
	if branch == "" {
		highest, err := s.Client.HighestPRNumber(ctx)
		if err != nil {
			return "", nil, err
		}
		branch = fmt.Sprintf("%s/%d", s.Prefix, highest+1)
	}

	s.Splog.Info("Submitting PR for %s", commit.ShortHash())

	if err := s.Repo.UpdateBranchRef(ctx, branch, commit.Hash); err != nil {
		return "", nil, err
	}
	if _, err := s.Repo.PushBranch(ctx, s.Remote, branch, true); err != nil {
		return "", nil, err
	}
	if err := s.Repo.SetTrackingBranch(ctx, branch, s.Remote); err != nil {
		return "", nil, err
	}

	title, prBody, _ := strings.Cut(body, "\n")
	prBody = strings.TrimSpace(prBody)
	if template := s.Repo.PullRequestTemplate(ctx); template != "" {
		prBody = strings.TrimSpace(prBody + "\n\n" + template)
	}

	pr, err := s.Client.CreatePullRequest(ctx, github.CreatePROptions{
		Title: title,
		Body:  prBody,
		Head:  branch,
		Base:  baseBranch,
	})
	if err != nil {
		return "", nil, err
	}

	// The actual number is now known; make the commit carry it before any
	// descendant is anchored to this commit.
	md.PR = meta.Int(pr.Number)
	md.Branch = branch

	amended, err := s.Repo.AmendMessage(ctx, commit.Hash, meta.Encode(body, md))
	if err != nil {
		return "", nil, err
	}

	if err := s.Repo.UpdateBranchRef(ctx, branch, amended); err != nil {
		return "", nil, err
	}
	if _, err := s.Repo.PushBranch(ctx, s.Remote, branch, true); err != nil {
		return "", nil, err
	}

	// Restack everything above onto the amended, numbered commit.
	fresh, err := engine.Graft(ctx, s.Repo, commit.Hash, amended, true)
	if err != nil {
		return "", nil, err
	}

	return branch, engine.Merge(inherited, fresh), nil
}
