package cli

import (
	"github.com/spf13/cobra"

	"fel.dev/fel/internal/actions"
)

// newStatusCmd creates the status command
func newStatusCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current stack with the mergeability of each pull request",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := newRuntimeContext(cmd.Context(), version)
			if err != nil {
				return err
			}
			defer ctx.Splog.Close()

			return actions.StatusAction(ctx, actions.StatusOptions{})
		},
	}

	return cmd
}

// newStackCmd creates the stack command
func newStackCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Show the current stack from local state only",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := newRuntimeContext(cmd.Context(), version)
			if err != nil {
				return err
			}
			defer ctx.Splog.Close()

			return actions.StackAction(ctx, actions.StackOptions{})
		},
	}

	return cmd
}
