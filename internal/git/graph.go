package git

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	felerrors "fel.dev/fel/internal/errors"
)

// Branch pairs a local branch name with its tip commit.
type Branch struct {
	Name string
	Tip  string
}

func (r *Repo) commitObject(sha string) (*object.Commit, error) {
	obj, err := r.gg.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", sha, err)
	}
	return obj, nil
}

// IsAncestor reports whether a is reachable from b.
func (r *Repo) IsAncestor(a, b string) (bool, error) {
	if a == b {
		return true, nil
	}

	ca, err := r.commitObject(a)
	if err != nil {
		return false, err
	}
	cb, err := r.commitObject(b)
	if err != nil {
		return false, err
	}

	return ca.IsAncestor(cb)
}

// AncestryPath returns the commits from ancestor to descendant inclusive,
// oldest first, walking single parents only. A commit with more than one
// parent on the path is an error, as is a descendant that cannot reach the
// ancestor.
func (r *Repo) AncestryPath(ancestor, descendant string) ([]*Commit, error) {
	var lineage []*Commit

	current := descendant
	for {
		commit, err := r.ReadCommit(current)
		if err != nil {
			return nil, err
		}
		lineage = append(lineage, commit)

		if current == ancestor {
			break
		}

		switch len(commit.Parents) {
		case 1:
			current = commit.Parents[0]
		case 0:
			return nil, felerrors.NewNotAncestorError(ancestor, descendant)
		default:
			return nil, felerrors.NewMergeCommitError(current)
		}
	}

	// Walked newest to oldest; flip to oldest-first.
	for i, j := 0, len(lineage)-1; i < j; i, j = i+1, j-1 {
		lineage[i], lineage[j] = lineage[j], lineage[i]
	}
	return lineage, nil
}

// MergeBase returns the single merge base of two commits. More than one
// merge base breaks the linear-history assumption and is a hard failure;
// none means the commits are unrelated.
func (r *Repo) MergeBase(a, b string) (string, error) {
	ca, err := r.commitObject(a)
	if err != nil {
		return "", err
	}
	cb, err := r.commitObject(b)
	if err != nil {
		return "", err
	}

	bases, err := ca.MergeBase(cb)
	if err != nil {
		return "", fmt.Errorf("failed to compute merge base of %s and %s: %w", a, b, err)
	}
	switch len(bases) {
	case 1:
		return bases[0].Hash.String(), nil
	case 0:
		return "", felerrors.NewNotAncestorError(a, b)
	default:
		return "", fmt.Errorf("%s and %s: %w", a, b, felerrors.ErrMultipleMergeBases)
	}
}

// FirstUniqueCommit returns the oldest commit on branchTip that is not on
// upstream, along with the merge base of the two. It fails with
// ErrNoDivergence when branchTip does not extend past the merge base.
func (r *Repo) FirstUniqueCommit(branchTip, upstream string) (first *Commit, mergeBase string, err error) {
	mergeBase, err = r.MergeBase(branchTip, upstream)
	if err != nil {
		return nil, "", err
	}

	path, err := r.AncestryPath(mergeBase, branchTip)
	if err != nil {
		return nil, "", err
	}
	if len(path) < 2 {
		return nil, "", fmt.Errorf("%s and %s: %w", branchTip, upstream, felerrors.ErrNoDivergence)
	}

	return path[1], mergeBase, nil
}

// Subtree returns every commit strictly after root that is reachable from a
// local branch descended from root, plus those branches in deterministic
// (name) order. A branch whose tip is root itself counts as descended.
func (r *Repo) Subtree(root string) (map[string]*Commit, []Branch, error) {
	names, err := r.LocalBranchNames()
	if err != nil {
		return nil, nil, err
	}

	commits := make(map[string]*Commit)
	var branches []Branch

	for _, name := range names {
		tip, err := r.BranchTip(name)
		if err != nil {
			return nil, nil, err
		}

		descended, err := r.IsAncestor(root, tip)
		if err != nil {
			return nil, nil, err
		}
		if !descended {
			continue
		}

		branches = append(branches, Branch{Name: name, Tip: tip})

		path, err := r.AncestryPath(root, tip)
		if err != nil {
			return nil, nil, err
		}
		for _, commit := range path[1:] {
			commits[commit.Hash] = commit
		}
	}

	return commits, branches, nil
}
