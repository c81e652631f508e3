package cli

import (
	"time"

	"github.com/spf13/cobra"

	"fel.dev/fel/internal/actions"
)

// newLandCmd creates the land command
func newLandCmd(version string) *cobra.Command {
	var (
		admin bool
		wait  bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "land",
		Short: "Merge the current stack's pull requests into the upstream branch",
		Long: `Merge every pull request on the current stack into the upstream branch,
oldest first. After each merge the rest of the stack is rebased onto the
new upstream tip and its pull requests are retargeted. A pull request that
is not mergeable aborts the land; rerunning continues where it stopped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := newRuntimeContext(cmd.Context(), version)
			if err != nil {
				return err
			}
			defer ctx.Splog.Close()

			return actions.LandAction(ctx, actions.LandOptions{
				Admin:        admin,
				Wait:         wait,
				Force:        force,
				PollInterval: 5 * time.Second,
			})
		},
	}

	cmd.Flags().BoolVar(&admin, "admin", false, "Merge with an admin override, bypassing branch protections.")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for running checks instead of failing.")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the admin override confirmation.")

	return cmd
}
