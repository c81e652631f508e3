package engine

import (
	"context"
	"fmt"

	felerrors "fel.dev/fel/internal/errors"
	"fel.dev/fel/internal/git"
)

// Graft rewrites history so that every branch descended from root is
// replayed as if root's parent were onto. With skipRoot, root itself is
// replaced by onto without being replayed (used after an amend or a land,
// where onto already carries root's change).
//
// Branches are processed in the deterministic order returned by Subtree.
// Each branch reuses the replacements cached by earlier branches for any
// shared path prefix, so total rebase work is proportional to total path
// length rather than path length times branch count.
//
// The returned map holds every old->new commit pairing. The checked-out
// branch is restored on both success and failure.
func Graft(ctx context.Context, repo *git.Repo, root, onto string, skipRoot bool) (RebaseMap, error) {
	effectiveRoot := root
	if !skipRoot {
		commit, err := repo.ReadCommit(root)
		if err != nil {
			return nil, err
		}
		if len(commit.Parents) != 1 {
			return nil, felerrors.NewMergeCommitError(root)
		}
		effectiveRoot = commit.Parents[0]
	}

	_, branches, err := repo.Subtree(root)
	if err != nil {
		return nil, err
	}

	// The rebase runs on detached HEADs; put the original branch back no
	// matter how we exit.
	originalBranch, err := repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = repo.Checkout(context.WithoutCancel(ctx), originalBranch)
	}()

	cache := RebaseMap{effectiveRoot: onto}

	for _, branch := range branches {
		path, err := repo.AncestryPath(effectiveRoot, branch.Tip)
		if err != nil {
			return nil, err
		}

		// Find the most recent commit on this path that has already
		// been rewritten. Shared prefixes with previously processed
		// branches resolve here, which is what makes multi-branch
		// grafting correct.
		newest := effectiveRoot
		for _, commit := range path {
			if _, ok := cache[commit.Hash]; ok {
				newest = commit.Hash
			}
		}

		newTip, err := repo.RebaseOnto(ctx, branch.Name, cache[newest], newest)
		if err != nil {
			return nil, err
		}

		newPath, err := repo.AncestryPath(onto, newTip)
		if err != nil {
			return nil, err
		}
		if len(newPath) != len(path) {
			return nil, fmt.Errorf("graft of %s changed the length of branch %s (%d commits became %d)",
				root, branch.Name, len(path), len(newPath))
		}

		for i := range path {
			cache[path[i].Hash] = newPath[i].Hash
		}
	}

	// The seed was never a rewritten commit.
	delete(cache, effectiveRoot)

	return cache, nil
}
