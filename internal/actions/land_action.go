package actions

import (
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"

	felerrors "fel.dev/fel/internal/errors"
	"fel.dev/fel/internal/meta"
	"fel.dev/fel/internal/runtime"
	"fel.dev/fel/internal/stack"
)

// LandOptions contains options for the land command
type LandOptions struct {
	// Admin merges blocked pull requests with an admin override.
	Admin bool

	// Wait polls pull requests whose checks are still running instead
	// of failing.
	Wait bool

	// Force skips the admin override confirmation.
	Force bool

	PollInterval time.Duration
}

// LandAction merges every pull request on the current stack into the
// upstream branch, oldest first, rebasing the remainder after each merge.
func LandAction(ctx *runtime.Context, opts LandOptions) error {
	splog := ctx.Splog

	if opts.Admin && !opts.Force {
		prompt := &survey.Confirm{
			Message: "Merge with admin override, bypassing branch protections?",
			Default: false,
		}
		confirmed := false
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			return fmt.Errorf("canceled")
		}
		if !confirmed {
			splog.Info("Land canceled.")
			return nil
		}
	}

	st, err := stack.New(ctx.Context, ctx.Repo, ctx.Config.Upstream, ctx.BranchPrefix, ctx.Version)
	if err != nil {
		return err
	}

	commits, err := st.Commits(ctx.Context)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		splog.Info("Nothing to land: %s matches %s.", st.Name(), st.Upstream())
		return nil
	}

	// Validate the whole stack before merging anything: failing on an
	// unsubmitted commit halfway up would leave the stack partially
	// landed for no good reason.
	for _, commit := range commits {
		_, md, err := meta.Decode(commit.Message)
		if err != nil {
			return fmt.Errorf("commit %s: %w", commit.ShortHash(), err)
		}
		if !md.Submitted() {
			return fmt.Errorf("cannot land commit %s: %w", commit.ShortHash(), felerrors.ErrUnsubmittedCommit)
		}
	}

	lander := &Lander{
		Repo:         ctx.Repo,
		Client:       ctx.Client,
		Upstream:     ctx.Config.Upstream,
		Remote:       ctx.Config.Remote,
		Prefix:       ctx.BranchPrefix,
		Admin:        opts.Admin,
		Wait:         opts.Wait,
		PollInterval: opts.PollInterval,
		Splog:        splog,
	}

	tip := commits[len(commits)-1]
	if _, err := lander.Land(ctx.Context, tip.Hash); err != nil {
		return fmt.Errorf("failed to land stack: %w", err)
	}

	// Prune remote-tracking refs for the branches deleted on the host.
	if err := ctx.Repo.Fetch(ctx.Context, ctx.Config.Remote, true); err != nil {
		splog.Debug("post-land prune fetch failed: %v", err)
	}

	splog.Info("Landed %d commit(s) on %s.", len(commits), ctx.Config.Upstream)
	return nil
}
