package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fel.dev/fel/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".fel.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		path := writeConfig(t, `gh_token = "token123"`)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		require.Equal(t, "token123", cfg.GHToken)
		require.Equal(t, "master", cfg.Upstream)
		require.Equal(t, "origin", cfg.Remote)
		require.Empty(t, cfg.BranchPrefix)
	})

	t.Run("explicit fields override defaults", func(t *testing.T) {
		path := writeConfig(t, `
gh_token = "token123"
upstream = "main"
remote = "upstream"
branch_prefix = "fel/alice"
`)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		require.Equal(t, "main", cfg.Upstream)
		require.Equal(t, "upstream", cfg.Remote)
		require.Equal(t, "fel/alice", cfg.BranchPrefix)
	})

	t.Run("missing token is an error", func(t *testing.T) {
		path := writeConfig(t, `upstream = "main"`)

		_, err := config.Load(path)
		require.ErrorContains(t, err, "gh_token")
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
		require.Error(t, err)
	})
}
