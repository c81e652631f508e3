package git

import (
	"context"
	"os"
	"path/filepath"

	felerrors "fel.dev/fel/internal/errors"
)

// RebaseOnto replays the commits of branchName after from onto onto, then
// force-moves the branch ref to the result. The rebase runs on a detached
// HEAD so the caller's checked-out branch is never consumed; the caller is
// responsible for restoring HEAD afterwards. A conflict aborts the rebase
// and returns an error satisfying errors.Is(err, ErrRebaseConflict).
func (r *Repo) RebaseOnto(ctx context.Context, branchName, onto, from string) (string, error) {
	branchRev, err := r.BranchTip(branchName)
	if err != nil {
		return "", err
	}

	if _, err := r.runner.Run(ctx, "rebase", "--onto", onto, from, branchRev); err != nil {
		if r.isRebaseInProgress(ctx) {
			_, _ = r.runner.Run(ctx, "rebase", "--abort")
			return "", felerrors.NewGraftConflictError(branchName, onto)
		}
		_, _ = r.runner.Run(ctx, "rebase", "--abort")
		return "", err
	}

	newRev, err := r.RevParse(ctx, "HEAD")
	if err != nil {
		return "", err
	}

	if err := r.UpdateBranchRef(ctx, branchName, newRev); err != nil {
		return "", err
	}

	return newRev, nil
}

// isRebaseInProgress checks for the rebase state directories, which is more
// reliable than REBASE_HEAD since that can persist after a rebase.
func (r *Repo) isRebaseInProgress(ctx context.Context) bool {
	gitDir, err := r.runner.Run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return false
	}

	if _, err := os.Stat(filepath.Join(gitDir, "rebase-merge")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(gitDir, "rebase-apply")); err == nil {
		return true
	}
	return false
}
