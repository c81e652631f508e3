package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"fel.dev/fel/internal/engine"
	felerrors "fel.dev/fel/internal/errors"
	"fel.dev/fel/internal/git"
	"fel.dev/fel/internal/github"
	"fel.dev/fel/internal/meta"
	"fel.dev/fel/internal/output"
)

// Lander recursively merges the pull requests below a commit, bottom-up,
// rebasing whatever remains stacked on top after each merge.
type Lander struct {
	Repo     *git.Repo
	Client   github.Client
	Upstream string
	Remote   string
	Prefix   string

	// Admin merges even when the mergeability evaluator reports blocked.
	// It must be requested explicitly by the operator.
	Admin bool

	// Wait polls a blocked pull request while the blocking condition is
	// retryable instead of failing immediately.
	Wait         bool
	PollInterval time.Duration

	Splog *output.Splog
}

// Land merges sha's pull request and those of all its local ancestors,
// oldest first, returning the map of every commit rewritten along the way.
// Any blocked merge aborts the whole operation: a partially-landed stack is
// re-runnable, a force-merged one is not.
func (l *Lander) Land(ctx context.Context, sha string) (engine.RebaseMap, error) {
	upstreamTip, err := l.Repo.BranchTip(l.Upstream)
	if err != nil {
		return nil, err
	}

	onUpstream, err := l.Repo.IsAncestor(sha, upstreamTip)
	if err != nil {
		return nil, err
	}
	if onUpstream {
		l.Splog.Debug("skipping upstream commit %s", sha)
		return engine.RebaseMap{}, nil
	}

	commit, err := l.Repo.ReadCommit(sha)
	if err != nil {
		return nil, err
	}
	if len(commit.Parents) != 1 {
		return nil, felerrors.NewMergeCommitError(sha)
	}

	inherited, err := l.Land(ctx, commit.Parents[0])
	if err != nil {
		return nil, err
	}

	if resolved := inherited.Resolve(sha); resolved != sha {
		sha = resolved
		if commit, err = l.Repo.ReadCommit(sha); err != nil {
			return nil, err
		}
	}

	_, md, err := meta.Decode(commit.Message)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", commit.ShortHash(), err)
	}
	if !md.Submitted() {
		return nil, fmt.Errorf("cannot land commit %s: %w", commit.ShortHash(), felerrors.ErrUnsubmittedCommit)
	}

	if err := l.ensureMergeable(ctx, *md.PR); err != nil {
		return nil, err
	}

	merged, err := l.Client.MergePullRequest(ctx, *md.PR, l.Admin)
	if err != nil {
		return nil, err
	}
	if !merged {
		return nil, fmt.Errorf("host did not merge PR #%d", *md.PR)
	}

	// The remote branch stays for now: deleting it before dependent PRs
	// are rebased would auto-close them. Only the local ref goes.
	if err := l.Repo.DeleteBranch(ctx, md.Branch); err != nil {
		l.Splog.Debug("local branch %s already gone: %v", md.Branch, err)
	}

	if err := l.Repo.Fetch(ctx, l.Remote, false); err != nil {
		return nil, err
	}
	newTip, err := l.Repo.AdvanceUpstream(ctx, l.Upstream, l.Remote)
	if err != nil {
		return nil, err
	}

	l.Splog.Info("Landed PR #%d on %s as %s", *md.PR, l.Upstream, newTip[:8])

	// Everything still stacked on top moves to the real post-merge
	// upstream.
	fresh, err := engine.Graft(ctx, l.Repo, sha, newTip, true)
	if err != nil {
		return nil, err
	}

	// Rewritten commits need their pull request bases corrected.
	// Commits that were never submitted are expected here and skipped;
	// anything else is a real fault.
	if err := l.resubmit(ctx, fresh); err != nil {
		return nil, err
	}

	if err := l.Client.DeleteBranchRef(ctx, md.Branch); err != nil {
		return nil, err
	}

	return engine.Merge(inherited, fresh), nil
}

// ensureMergeable blocks the land until the pull request is safe to merge,
// or fails. The admin override proceeds regardless, but still reports what
// it is overriding.
func (l *Lander) ensureMergeable(ctx context.Context, prNumber int) error {
	var verdict github.Verdict
	var err error

	if l.Wait {
		verdict, err = github.WaitForChecks(ctx, l.Client, prNumber, l.Upstream, l.PollInterval, func(reason string) {
			l.Splog.Info("PR #%d: %s", prNumber, reason)
		})
	} else {
		verdict, err = github.CheckMergeability(ctx, l.Client, prNumber, l.Upstream)
	}
	if err != nil {
		return err
	}

	if verdict.Mergeable {
		return nil
	}
	if l.Admin {
		l.Splog.Warn("PR #%d is blocked (%s); merging with admin override", prNumber, verdict.Reason)
		return nil
	}
	return felerrors.NewNotMergeableError(prNumber, verdict.Reason)
}

// resubmit pushes every commit rewritten by a graft back to its pull
// request in update-only mode.
func (l *Lander) resubmit(ctx context.Context, rewritten engine.RebaseMap) error {
	submitter := &Submitter{
		Repo:       l.Repo,
		Client:     l.Client,
		Upstream:   l.Upstream,
		Remote:     l.Remote,
		Prefix:     l.Prefix,
		UpdateOnly: true,
		Splog:      l.Splog,
	}

	// Deterministic order; Submit recurses bottom-up on its own, so any
	// order is correct.
	commits := make([]string, 0, len(rewritten))
	for _, newSha := range rewritten {
		commits = append(commits, newSha)
	}
	sort.Strings(commits)

	for _, newSha := range commits {
		if _, _, err := submitter.Submit(ctx, newSha); err != nil {
			if errors.Is(err, felerrors.ErrInvalidOperation) {
				continue
			}
			return err
		}
	}
	return nil
}
