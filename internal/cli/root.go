// Package cli wires the fel commands to cobra. Each command assembles its
// runtime context (repository, host client, config) in its RunE and hands
// off to the matching action.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "fel",
		Short:   "Fel turns a branch of commits into a stack of dependent pull requests",
		Version: version,
		Long: `Fel turns a branch of commits into a stack of dependent pull requests,
one pull request per commit, each based on the one below it. Submitting is
idempotent, and landing merges the stack bottom-up while rebasing whatever
remains on top.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newSubmitCmd(version))
	rootCmd.AddCommand(newLandCmd(version))
	rootCmd.AddCommand(newStatusCmd(version))
	rootCmd.AddCommand(newStackCmd(version))
	rootCmd.AddCommand(newVersionCmd(version))

	return rootCmd
}
