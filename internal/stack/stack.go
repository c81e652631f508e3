// Package stack models the ordered sequence of not-yet-upstream commits on
// the current branch, assigns each a stable stack identity, and maintains
// the one-remote-branch-per-commit mapping.
package stack

import (
	"context"
	"errors"
	"fmt"

	"fel.dev/fel/internal/engine"
	felerrors "fel.dev/fel/internal/errors"
	"fel.dev/fel/internal/git"
	"fel.dev/fel/internal/meta"
	"fel.dev/fel/internal/utils"
)

// Stack is the commits strictly between the merge base with upstream and
// the current branch tip, oldest first.
type Stack struct {
	repo     *git.Repo
	name     string
	upstream string
	prefix   string
	version  string
}

// New creates a stack model for the currently checked-out branch. prefix is
// the operator-configured remote branch prefix, version the tool version
// stamped into metadata.
func New(ctx context.Context, repo *git.Repo, upstream, prefix, version string) (*Stack, error) {
	name, err := repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	if name == upstream {
		return nil, fmt.Errorf("cannot stack on the upstream branch %s itself", upstream)
	}

	return &Stack{
		repo:     repo,
		name:     name,
		upstream: upstream,
		prefix:   prefix,
		version:  version,
	}, nil
}

// Name returns the local branch the stack was derived from; it doubles as
// the stack name in metadata.
func (s *Stack) Name() string {
	return s.name
}

// Upstream returns the upstream branch name.
func (s *Stack) Upstream() string {
	return s.upstream
}

// BranchName derives the remote branch name for a stack position. The
// stack name comes from a local branch and is sanitized before use.
func BranchName(prefix, stackName string, index int) string {
	return fmt.Sprintf("%s/%s/%d", prefix, utils.SanitizeBranchName(stackName), index)
}

// Commits returns the stack commits oldest first, root through tip. The
// list is recomputed from the commit graph on every call so it can never go
// stale across rewrites. A branch that does not diverge from upstream has
// an empty stack.
func (s *Stack) Commits(ctx context.Context) ([]*git.Commit, error) {
	tip, err := s.repo.BranchTip(s.name)
	if err != nil {
		return nil, err
	}
	upstreamTip, err := s.repo.BranchTip(s.upstream)
	if err != nil {
		return nil, err
	}

	first, _, err := s.repo.FirstUniqueCommit(tip, upstreamTip)
	if err != nil {
		if errors.Is(err, felerrors.ErrNoDivergence) {
			return nil, nil
		}
		return nil, err
	}

	return s.repo.AncestryPath(first.Hash, tip)
}

// Annotate assigns a stack identity to every stack commit that lacks one,
// oldest first, and rewrites those commits in a single pass over the range
// so that each descendant observes its already-rewritten ancestor. The
// stack root gets index 0; other commits get their parent's index plus one
// when the parent is in the same stack, and 0 otherwise. Rewritten commits
// record the hash they were amended from. Returns the old->new map; calling
// Annotate again immediately is a no-op.
func (s *Stack) Annotate(ctx context.Context) (engine.RebaseMap, error) {
	commits, err := s.Commits(ctx)
	if err != nil {
		return nil, err
	}

	rewritten := engine.RebaseMap{}
	var parent *meta.Metadata

	for i, commit := range commits {
		if len(commit.Parents) != 1 {
			return nil, felerrors.NewMergeCommitError(commit.Hash)
		}

		body, md, err := meta.Decode(commit.Message)
		if err != nil {
			return nil, fmt.Errorf("commit %s: %w", commit.ShortHash(), err)
		}

		newParent := rewritten.Resolve(commit.Parents[0])
		parentMoved := newParent != commit.Parents[0]

		if md.Annotated() && !parentMoved {
			parent = &md
			continue
		}

		if !md.Annotated() {
			md.Stack = s.name
			index := 0
			if i > 0 && parent != nil && parent.Stack == md.Stack {
				index = *parent.StackIndex + 1
			}
			md.StackIndex = meta.Int(index)
			md.Branch = BranchName(s.prefix, md.Stack, index)
			md.Version = s.version
			md.AmendedFrom = commit.Hash
		}

		reparent := ""
		if parentMoved {
			reparent = newParent
		}
		newHash, err := s.repo.RewriteCommit(ctx, commit.Hash, reparent, meta.Encode(body, md))
		if err != nil {
			return nil, err
		}

		rewritten[commit.Hash] = newHash
		parent = &md
	}

	if len(rewritten) > 0 {
		tip := commits[len(commits)-1].Hash
		if err := s.repo.UpdateBranchRef(ctx, s.name, rewritten.Resolve(tip)); err != nil {
			return nil, err
		}
	}

	return rewritten, nil
}

// Push creates or force-moves one local branch per stack commit at its
// derived name, force-pushes them all as a single batch, and binds each to
// its remote counterpart. fel always force-pushes: it deliberately rewrites
// the history it owns, so any non-fast-forward rejection is a hard failure.
func (s *Stack) Push(ctx context.Context, remote string) error {
	commits, err := s.Commits(ctx)
	if err != nil {
		return err
	}

	var branchNames []string
	for _, commit := range commits {
		_, md, err := meta.Decode(commit.Message)
		if err != nil {
			return fmt.Errorf("commit %s: %w", commit.ShortHash(), err)
		}
		if md.Branch == "" {
			return fmt.Errorf("commit %s has no derived branch; annotate the stack first: %w",
				commit.ShortHash(), felerrors.ErrInvalidOperation)
		}

		if err := s.repo.UpdateBranchRef(ctx, md.Branch, commit.Hash); err != nil {
			return err
		}
		branchNames = append(branchNames, md.Branch)
	}

	if err := s.repo.ForcePushBranches(ctx, remote, branchNames); err != nil {
		return err
	}

	for _, name := range branchNames {
		if err := s.repo.SetTrackingBranch(ctx, name, remote); err != nil {
			return err
		}
	}

	return nil
}
