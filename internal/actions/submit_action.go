package actions

import (
	"fmt"

	"fel.dev/fel/internal/runtime"
	"fel.dev/fel/internal/stack"
)

// SubmitOptions contains options for the submit command
type SubmitOptions struct {
	// UpdateOnly refuses to open new pull requests, only refreshing
	// existing ones.
	UpdateOnly bool
}

// SubmitAction annotates the current stack, pushes its branches, and opens
// or updates one pull request per commit, oldest first.
func SubmitAction(ctx *runtime.Context, opts SubmitOptions) error {
	splog := ctx.Splog

	st, err := stack.New(ctx.Context, ctx.Repo, ctx.Config.Upstream, ctx.BranchPrefix, ctx.Version)
	if err != nil {
		return err
	}

	if _, err := st.Annotate(ctx.Context); err != nil {
		return fmt.Errorf("failed to annotate stack: %w", err)
	}

	// One batched force-push for the whole stack; the per-commit pushes
	// during submission then see up-to-date branches.
	if err := st.Push(ctx.Context, ctx.Config.Remote); err != nil {
		return fmt.Errorf("failed to push stack branches: %w", err)
	}

	commits, err := st.Commits(ctx.Context)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		splog.Info("Nothing to submit: %s matches %s.", st.Name(), st.Upstream())
		return nil
	}

	submitter := &Submitter{
		Repo:       ctx.Repo,
		Client:     ctx.Client,
		Upstream:   ctx.Config.Upstream,
		Remote:     ctx.Config.Remote,
		Prefix:     ctx.BranchPrefix,
		UpdateOnly: opts.UpdateOnly,
		Splog:      splog,
	}

	tip := commits[len(commits)-1]
	if _, _, err := submitter.Submit(ctx.Context, tip.Hash); err != nil {
		return fmt.Errorf("failed to submit stack: %w", err)
	}

	// Re-read the stack: submission rewrites commits. The footer on
	// every PR lists the whole stack, so it is refreshed last.
	st, err = stack.New(ctx.Context, ctx.Repo, ctx.Config.Upstream, ctx.BranchPrefix, ctx.Version)
	if err != nil {
		return err
	}
	if err := UpdateBodies(ctx.Context, ctx.Client, st, splog); err != nil {
		return fmt.Errorf("failed to update pull request bodies: %w", err)
	}

	return nil
}
