package cli

import (
	"github.com/spf13/cobra"

	"fel.dev/fel/internal/actions"
)

// newSubmitCmd creates the submit command
func newSubmitCmd(version string) *cobra.Command {
	var updateOnly bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Push the current stack and open or update one pull request per commit",
		Long: `Annotate every commit on the current stack, force push its branches, and
open or update a pull request for each commit, oldest first. Each pull
request is based on the branch of the commit below it. Running submit again
is safe: existing pull requests are updated in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := newRuntimeContext(cmd.Context(), version)
			if err != nil {
				return err
			}
			defer ctx.Splog.Close()

			return actions.SubmitAction(ctx, actions.SubmitOptions{
				UpdateOnly: updateOnly,
			})
		},
	}

	cmd.Flags().BoolVarP(&updateOnly, "update-only", "u", false, "Only update commits that already have pull requests.")

	return cmd
}
