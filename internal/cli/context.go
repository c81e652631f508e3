package cli

import (
	"context"
	"fmt"

	"fel.dev/fel/internal/config"
	"fel.dev/fel/internal/git"
	"fel.dev/fel/internal/github"
	"fel.dev/fel/internal/runtime"
	"fel.dev/fel/internal/utils"
)

// newRuntimeContext loads the config, opens the repository at the working
// directory, and builds an authenticated host client from the remote URL.
func newRuntimeContext(ctx context.Context, version string) (*runtime.Context, error) {
	configPath, err := config.DefaultPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	repo, err := git.Open(".")
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	remoteURL, err := repo.RemoteURL(cfg.Remote)
	if err != nil {
		return nil, err
	}
	owner, name, err := github.ParseRemoteURL(remoteURL)
	if err != nil {
		return nil, err
	}

	client := github.NewRealClient(ctx, cfg.GHToken, owner, name)

	rtx := runtime.NewContext(ctx, repo, client, cfg)
	rtx.Version = version

	rtx.BranchPrefix = cfg.BranchPrefix
	if rtx.BranchPrefix == "" {
		login, err := client.AuthenticatedUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve branch prefix: %w", err)
		}
		rtx.BranchPrefix = "fel/" + utils.SanitizeBranchName(login)
	}

	return rtx, nil
}
