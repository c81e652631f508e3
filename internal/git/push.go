package git

import (
	"context"
	"strings"
)

// PushBranch pushes a single local branch to the remote. It returns true
// when the remote was already up to date. Force is used for branches whose
// history fel rewrites.
func (r *Repo) PushBranch(ctx context.Context, remote, branchName string, force bool) (upToDate bool, err error) {
	args := []string{"push", "--porcelain"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, remote, "refs/heads/"+branchName+":refs/heads/"+branchName)

	lines, err := r.runner.RunLines(ctx, args...)
	if err != nil {
		return false, err
	}

	// Porcelain ref lines start with a flag character; '=' means the
	// remote already had this commit.
	for _, line := range lines {
		if strings.HasPrefix(line, "=") {
			return true, nil
		}
	}
	return false, nil
}

// ForcePushBranches pushes all of the given branches in a single batch,
// overwriting the remote refs. Any rejection is a hard failure: fel owns
// these branches and always rewrites their history deliberately.
func (r *Repo) ForcePushBranches(ctx context.Context, remote string, branchNames []string) error {
	if len(branchNames) == 0 {
		return nil
	}

	args := []string{"push", "--force", remote}
	for _, name := range branchNames {
		args = append(args, "refs/heads/"+name+":refs/heads/"+name)
	}

	_, err := r.runner.Run(ctx, args...)
	return err
}

// Fetch updates remote-tracking refs from the remote.
func (r *Repo) Fetch(ctx context.Context, remote string, prune bool) error {
	args := []string{"fetch", remote}
	if prune {
		args = append(args, "--prune")
	}
	_, err := r.runner.Run(ctx, args...)
	return err
}

// AdvanceUpstream moves the local upstream branch ref to its remote-tracking
// tip after a fetch.
func (r *Repo) AdvanceUpstream(ctx context.Context, upstream, remote string) (string, error) {
	tip, err := r.RemoteTip(upstream, remote)
	if err != nil {
		return "", err
	}
	if err := r.UpdateBranchRef(ctx, upstream, tip); err != nil {
		return "", err
	}
	return tip, nil
}
