// Package runtime provides the execution context for fel commands: the
// repository handle, host client, configuration, and logger that actions
// need. Dependencies are explicit so tests can substitute doubles for the
// repository and the host.
package runtime

import (
	"context"

	"fel.dev/fel/internal/config"
	"fel.dev/fel/internal/git"
	"fel.dev/fel/internal/github"
	"fel.dev/fel/internal/output"
)

// Context provides access to the repository, host client and output for
// commands.
type Context struct {
	Context context.Context
	Repo    *git.Repo
	Client  github.Client
	Config  *config.Config
	Splog   *output.Splog

	// BranchPrefix is the resolved prefix for derived branch names,
	// either configured or derived from the authenticated login.
	BranchPrefix string

	// Version is the fel build version, stamped into commit metadata.
	Version string
}

// NewContext assembles a command context.
func NewContext(ctx context.Context, repo *git.Repo, client github.Client, cfg *config.Config) *Context {
	splog, err := output.NewSplogWithFile(config.LogFilePath())
	if err != nil {
		splog = output.NewSplog()
	}

	return &Context{
		Context: ctx,
		Repo:    repo,
		Client:  client,
		Config:  cfg,
		Splog:   splog,
	}
}
