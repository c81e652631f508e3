// Package config loads the fel user configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultUpstream is the branch stacks are built against when the config
// does not name one.
const DefaultUpstream = "master"

// DefaultRemote is the remote stacks are pushed to when the config does not
// name one.
const DefaultRemote = "origin"

// Config is the user configuration, read from ~/.fel.toml.
type Config struct {
	// GHToken is the GitHub API token. Required.
	GHToken string `toml:"gh_token"`

	// Upstream is the branch every stack eventually lands on.
	Upstream string `toml:"upstream"`

	// Remote is the git remote branches are pushed to.
	Remote string `toml:"remote"`

	// BranchPrefix namespaces the branches fel creates. When empty it is
	// derived from the authenticated GitHub login as "fel/<login>".
	BranchPrefix string `toml:"branch_prefix"`
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".fel.toml"), nil
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open config file: %w", err)
	}

	config := &Config{
		Upstream: DefaultUpstream,
		Remote:   DefaultRemote,
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if config.GHToken == "" {
		return nil, fmt.Errorf("missing required config field gh_token in %s", path)
	}

	return config, nil
}

// LogFilePath returns the path of the rotating debug log.
func LogFilePath() string {
	if path := os.Getenv("FEL_LOG_FILE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fel", "fel.log")
}
