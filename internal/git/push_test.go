package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fel.dev/fel/internal/git"
	"fel.dev/fel/testhelpers"
)

func remoteRepo(t *testing.T) (*testhelpers.GitRepo, *git.Repo, string) {
	t.Helper()
	fixture, err := testhelpers.NewGitRepo(t.TempDir())
	require.NoError(t, err)
	_, err = fixture.Commit("a.txt", "a\n", "initial commit")
	require.NoError(t, err)

	bareDir, err := fixture.AddBareRemote("origin")
	require.NoError(t, err)

	repo, err := git.Open(fixture.Dir)
	require.NoError(t, err)
	return fixture, repo, bareDir
}

func TestPushBranch(t *testing.T) {
	ctx := context.Background()
	fixture, repo, _ := remoteRepo(t)

	upToDate, err := repo.PushBranch(ctx, "origin", "master", true)
	require.NoError(t, err)
	require.False(t, upToDate)

	t.Run("second push reports up to date", func(t *testing.T) {
		upToDate, err := repo.PushBranch(ctx, "origin", "master", true)
		require.NoError(t, err)
		require.True(t, upToDate)
	})

	t.Run("new commit pushes again", func(t *testing.T) {
		_, err := fixture.Commit("a.txt", "a v2\n", "second commit")
		require.NoError(t, err)

		upToDate, err := repo.PushBranch(ctx, "origin", "master", true)
		require.NoError(t, err)
		require.False(t, upToDate)
	})
}

func TestForcePushBranches(t *testing.T) {
	ctx := context.Background()
	fixture, repo, _ := remoteRepo(t)

	first, err := fixture.Head()
	require.NoError(t, err)
	second, err := fixture.Commit("b.txt", "b\n", "second commit")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateBranchRef(ctx, "part/0", first))
	require.NoError(t, repo.UpdateBranchRef(ctx, "part/1", second))

	require.NoError(t, repo.ForcePushBranches(ctx, "origin", []string{"part/0", "part/1"}))

	for branch, want := range map[string]string{"part/0": first, "part/1": second} {
		got, err := repo.RemoteTip(branch, "origin")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, repo.ForcePushBranches(ctx, "origin", nil))
	})
}

func TestFetchAndAdvanceUpstream(t *testing.T) {
	ctx := context.Background()
	fixture, repo, bareDir := remoteRepo(t)
	require.NoError(t, fixture.Git("push", "origin", "master"))

	// Another clone advances the remote master behind our back.
	other, err := testhelpers.CloneGitRepo(t.TempDir(), bareDir)
	require.NoError(t, err)
	advanced, err := other.Commit("b.txt", "b\n", "remote-side commit")
	require.NoError(t, err)
	require.NoError(t, other.Git("push", "origin", "master"))

	// Work from a side branch so master is just a ref to move.
	require.NoError(t, fixture.CheckoutNew("feature"))

	require.NoError(t, repo.Fetch(ctx, "origin", false))
	tip, err := repo.AdvanceUpstream(ctx, "master", "origin")
	require.NoError(t, err)
	require.Equal(t, advanced, tip)

	local, err := repo.BranchTip("master")
	require.NoError(t, err)
	require.Equal(t, advanced, local)
}
