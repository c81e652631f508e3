package actions

import (
	"fmt"
	"strings"

	"fel.dev/fel/internal/meta"
	"fel.dev/fel/internal/output"
	"fel.dev/fel/internal/runtime"
	"fel.dev/fel/internal/stack"
)

// StatusOptions contains options for the status command
type StatusOptions struct{}

// StatusAction prints the current stack with the live mergeability of each
// submitted pull request.
func StatusAction(ctx *runtime.Context, _ StatusOptions) error {
	st, err := stack.New(ctx.Context, ctx.Repo, ctx.Config.Upstream, ctx.BranchPrefix, ctx.Version)
	if err != nil {
		return err
	}

	statuses, err := StackStatus(ctx.Context, ctx.Client, st)
	if err != nil {
		return fmt.Errorf("failed to read stack status: %w", err)
	}
	if len(statuses) == 0 {
		ctx.Splog.Info("Stack %s has no commits above %s.", st.Name(), st.Upstream())
		return nil
	}

	ctx.Splog.Page(RenderStatus(statuses, st.Upstream()))
	return nil
}

// StackOptions contains options for the stack command
type StackOptions struct{}

// StackAction prints the current stack from local state only, without
// contacting the host.
func StackAction(ctx *runtime.Context, _ StackOptions) error {
	st, err := stack.New(ctx.Context, ctx.Repo, ctx.Config.Upstream, ctx.BranchPrefix, ctx.Version)
	if err != nil {
		return err
	}

	commits, err := st.Commits(ctx.Context)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		ctx.Splog.Info("Stack %s has no commits above %s.", st.Name(), st.Upstream())
		return nil
	}

	var sb strings.Builder
	for i := len(commits) - 1; i >= 0; i-- {
		commit := commits[i]
		_, md, err := meta.Decode(commit.Message)
		if err != nil {
			return fmt.Errorf("commit %s: %w", commit.ShortHash(), err)
		}

		state := output.ColorYellow("not submitted")
		if md.Submitted() {
			state = fmt.Sprintf("%s %s", output.ColorGreen(fmt.Sprintf("#%d", *md.PR)), output.ColorCyan(md.Branch))
		}
		sb.WriteString(fmt.Sprintf("◯ %s %s (%s)\n", commit.ShortHash(), commit.Summary(), state))
	}
	sb.WriteString(fmt.Sprintf("◯ %s\n", output.ColorCyan(st.Upstream())))

	ctx.Splog.Page(sb.String())
	return nil
}
