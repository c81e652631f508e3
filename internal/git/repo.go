package git

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	felerrors "fel.dev/fel/internal/errors"
)

// Repo is a handle to a local repository. Read-only graph queries go through
// go-git's object model; mutating operations go through the git binary.
type Repo struct {
	dir    string
	runner *CommandRunner
	gg     *gogit.Repository
}

// Open opens the repository at dir, detecting the .git directory the same
// way the git binary does.
func Open(dir string) (*Repo, error) {
	gg, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}

	return &Repo{
		dir:    dir,
		runner: NewCommandRunner(dir),
		gg:     gg,
	}, nil
}

// Dir returns the directory the repository was opened at.
func (r *Repo) Dir() string {
	return r.dir
}

// Runner returns the command runner for this repository.
func (r *Repo) Runner() *CommandRunner {
	return r.runner
}

// CurrentBranch returns the name of the checked-out branch, or an error if
// HEAD is detached.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	name, err := r.runner.Run(ctx, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("HEAD is not on a branch: %w", err)
	}
	return name, nil
}

// Checkout checks out the named branch.
func (r *Repo) Checkout(ctx context.Context, branchName string) error {
	_, err := r.runner.Run(ctx, "checkout", branchName)
	return err
}

// RevParse resolves a revision to a commit hash.
func (r *Repo) RevParse(ctx context.Context, rev string) (string, error) {
	return r.runner.Run(ctx, "rev-parse", "--verify", rev+"^{commit}")
}

// BranchTip returns the commit hash the named local branch points at.
func (r *Repo) BranchTip(branchName string) (string, error) {
	ref, err := r.gg.Reference(plumbing.NewBranchReferenceName(branchName), true)
	if err != nil {
		return "", felerrors.NewBranchNotFoundError(branchName)
	}
	return ref.Hash().String(), nil
}

// UpdateBranchRef force-moves a local branch ref to the given commit without
// touching the working tree.
func (r *Repo) UpdateBranchRef(ctx context.Context, branchName, sha string) error {
	_, err := r.runner.Run(ctx, "update-ref", "refs/heads/"+branchName, sha)
	return err
}

// DeleteBranch deletes a local branch ref.
func (r *Repo) DeleteBranch(ctx context.Context, branchName string) error {
	_, err := r.runner.Run(ctx, "branch", "-D", branchName)
	return err
}

// SetTrackingBranch binds a local branch to its remote counterpart.
func (r *Repo) SetTrackingBranch(ctx context.Context, branchName, remote string) error {
	_, err := r.runner.Run(ctx, "branch", "--set-upstream-to", remote+"/"+branchName, branchName)
	return err
}

// RemoteTip returns the commit hash of a remote-tracking ref.
func (r *Repo) RemoteTip(branchName, remote string) (string, error) {
	ref, err := r.gg.Reference(plumbing.NewRemoteReferenceName(remote, branchName), true)
	if err != nil {
		return "", felerrors.NewBranchNotFoundError(remote + "/" + branchName)
	}
	return ref.Hash().String(), nil
}

// RemoteURL returns the fetch URL of a remote.
func (r *Repo) RemoteURL(remote string) (string, error) {
	rem, err := r.gg.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("failed to read remote %s: %w", remote, err)
	}
	urls := rem.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", remote)
	}
	return urls[0], nil
}

// PullRequestTemplate returns the contents of the repository's pull request
// template at HEAD, or "" if there is none.
func (r *Repo) PullRequestTemplate(ctx context.Context) string {
	content, err := r.runner.Run(ctx, "show", "HEAD:.github/pull_request_template.md")
	if err != nil {
		return ""
	}
	return content
}

// LocalBranchNames returns the names of all local branches, sorted for
// deterministic iteration.
func (r *Repo) LocalBranchNames() ([]string, error) {
	iter, err := r.gg.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, strings.TrimPrefix(ref.Name().String(), "refs/heads/"))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}
