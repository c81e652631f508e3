package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// Commit is an immutable snapshot of a commit object.
type Commit struct {
	Hash    string
	Parents []string
	Tree    string
	Message string
}

// Summary returns the first line of the commit message.
func (c *Commit) Summary() string {
	summary, _, _ := strings.Cut(c.Message, "\n")
	return summary
}

// ShortHash returns the abbreviated commit hash.
func (c *Commit) ShortHash() string {
	if len(c.Hash) < 8 {
		return c.Hash
	}
	return c.Hash[:8]
}

// ReadCommit loads a commit object by hash.
func (r *Repo) ReadCommit(sha string) (*Commit, error) {
	obj, err := r.gg.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", sha, err)
	}

	parents := make([]string, 0, obj.NumParents())
	for _, p := range obj.ParentHashes {
		parents = append(parents, p.String())
	}

	return &Commit{
		Hash:    obj.Hash.String(),
		Parents: parents,
		Tree:    obj.TreeHash.String(),
		// Stored messages end with a newline; strip it so that message
		// rewrites and comparisons are stable.
		Message: strings.TrimRight(obj.Message, "\n"),
	}, nil
}

// AmendMessage creates a new commit with the same tree, parent, and author
// as sha but a different message, and returns the new commit's hash. The
// original commit is left in place; no refs are moved.
func (r *Repo) AmendMessage(ctx context.Context, sha, message string) (string, error) {
	return r.RewriteCommit(ctx, sha, "", message)
}

// RewriteCommit creates a new commit carrying sha's tree and author but a
// new message and, when newParent is non-empty, a new single parent. The
// original commit is left in place; no refs are moved. This is the
// primitive under both metadata amends and the annotate range rewrite.
func (r *Repo) RewriteCommit(ctx context.Context, sha, newParent, message string) (string, error) {
	commit, err := r.ReadCommit(sha)
	if err != nil {
		return "", err
	}

	// Preserve the original authorship on the rewritten commit.
	ident, err := r.runner.Run(ctx, "log", "-1", "--format=%an%n%ae%n%aI", sha)
	if err != nil {
		return "", err
	}
	identLines := strings.SplitN(ident, "\n", 3)
	if len(identLines) != 3 {
		return "", fmt.Errorf("unexpected author info for %s: %q", sha, ident)
	}
	env := []string{
		"GIT_AUTHOR_NAME=" + identLines[0],
		"GIT_AUTHOR_EMAIL=" + identLines[1],
		"GIT_AUTHOR_DATE=" + identLines[2],
	}

	parents := commit.Parents
	if newParent != "" {
		parents = []string{newParent}
	}

	args := []string{"commit-tree", commit.Tree}
	for _, parent := range parents {
		args = append(args, "-p", parent)
	}

	return r.runner.RunWithInputAndEnv(ctx, message+"\n", env, args...)
}
