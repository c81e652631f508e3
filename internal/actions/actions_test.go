package actions_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fel.dev/fel/internal/actions"
	"fel.dev/fel/internal/config"
	felerrors "fel.dev/fel/internal/errors"
	"fel.dev/fel/internal/git"
	"fel.dev/fel/internal/github"
	"fel.dev/fel/internal/meta"
	"fel.dev/fel/internal/output"
	"fel.dev/fel/internal/runtime"
	"fel.dev/fel/internal/stack"
	"fel.dev/fel/testhelpers"
)

// harness is a feature branch with three commits above master, a bare
// origin, and a fake host wired to squash-merge through a control clone the
// way the real host would.
type harness struct {
	fixture *testhelpers.GitRepo
	repo    *git.Repo
	host    *testhelpers.FakeHost
	ctx     *runtime.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	fixture, err := testhelpers.NewGitRepo(t.TempDir())
	require.NoError(t, err)

	_, err = fixture.Commit("base.txt", "base\n", "initial commit")
	require.NoError(t, err)

	bareDir, err := fixture.AddBareRemote("origin")
	require.NoError(t, err)
	require.NoError(t, fixture.Git("push", "origin", "master"))

	require.NoError(t, fixture.CheckoutNew("feature"))
	for _, name := range []string{"one", "two", "three"} {
		_, err = fixture.Commit(name+".txt", name+"\n", "add "+name+"\n\ndetails about "+name)
		require.NoError(t, err)
	}

	repo, err := git.Open(fixture.Dir)
	require.NoError(t, err)

	host := testhelpers.NewFakeHost()

	ops, err := testhelpers.CloneGitRepo(t.TempDir(), bareDir)
	require.NoError(t, err)
	host.OnMerge = func(pr *github.PullRequestInfo) error {
		for _, args := range [][]string{
			{"fetch", "origin"},
			{"merge", "--squash", "origin/" + pr.Head},
			{"commit", "-m", pr.Title},
			{"push", "origin", "master"},
		} {
			if err := ops.Git(args...); err != nil {
				return err
			}
		}
		return nil
	}

	rtx := &runtime.Context{
		Context:      context.Background(),
		Repo:         repo,
		Client:       host,
		Config:       &config.Config{GHToken: "token", Upstream: "master", Remote: "origin"},
		Splog:        output.NewSplog(),
		BranchPrefix: "fel/tester",
		Version:      "0.1.0",
	}

	return &harness{fixture: fixture, repo: repo, host: host, ctx: rtx}
}

func (h *harness) stackMetadata(t *testing.T) []meta.Metadata {
	t.Helper()
	st, err := stack.New(h.ctx.Context, h.repo, "master", "fel/tester", "0.1.0")
	require.NoError(t, err)
	commits, err := st.Commits(h.ctx.Context)
	require.NoError(t, err)

	mds := make([]meta.Metadata, len(commits))
	for i, commit := range commits {
		_, md, err := meta.Decode(commit.Message)
		require.NoError(t, err)
		mds[i] = md
	}
	return mds
}

func TestSubmitCreatesStackedPullRequests(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))

	require.Len(t, h.host.PRs, 3)

	mds := h.stackMetadata(t)
	require.Len(t, mds, 3)

	st, err := stack.New(h.ctx.Context, h.repo, "master", "fel/tester", "0.1.0")
	require.NoError(t, err)
	commits, err := st.Commits(h.ctx.Context)
	require.NoError(t, err)

	wantBases := []string{"master", "fel/tester/feature/0", "fel/tester/feature/1"}
	for i, md := range mds {
		require.True(t, md.Submitted(), "commit %d not submitted", i)
		require.Equal(t, stack.BranchName("fel/tester", "feature", i), md.Branch)

		pr := h.host.PRs[*md.PR]
		require.NotNil(t, pr)
		require.Equal(t, md.Branch, pr.Head)
		require.Equal(t, wantBases[i], pr.Base)

		// Remote branch matches the commit the PR tracks.
		remote, err := h.repo.RemoteTip(md.Branch, "origin")
		require.NoError(t, err)
		require.Equal(t, commits[i].Hash, remote)
	}

	// The titles come from the commit summaries and the bodies carry the
	// stack footer.
	require.Equal(t, "add one", h.host.PRs[*mds[0].PR].Title)
	for _, md := range mds {
		body := h.host.PRs[*md.PR].Body
		require.Contains(t, body, actions.BodyDelimiter)
		require.Contains(t, body, "details about")
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))
	firstTip, err := h.repo.BranchTip("feature")
	require.NoError(t, err)

	bodies := map[int]string{}
	for number, pr := range h.host.PRs {
		bodies[number] = pr.Body
	}

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))

	require.Len(t, h.host.PRs, 3)
	secondTip, err := h.repo.BranchTip("feature")
	require.NoError(t, err)
	require.Equal(t, firstTip, secondTip)

	for number, pr := range h.host.PRs {
		require.Equal(t, bodies[number], pr.Body, "PR #%d body churned", number)
	}
}

func TestSubmitUpdatesAfterAmend(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))
	mds := h.stackMetadata(t)

	// Amend the tip commit's content; --no-edit keeps the stamped
	// metadata in the message.
	require.NoError(t, h.fixture.Git("checkout", "feature"))
	require.NoError(t, writeAndStage(h.fixture, "three.txt", "three, revised\n"))
	require.NoError(t, h.fixture.Git("commit", "--amend", "--no-edit"))

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))

	// No new PRs: the amended commit keeps its stack position, and its
	// remote branch now tracks the new content.
	require.Len(t, h.host.PRs, 3)

	newMds := h.stackMetadata(t)
	require.Equal(t, *mds[2].PR, *newMds[2].PR)

	tip, err := h.repo.BranchTip("feature")
	require.NoError(t, err)
	remote, err := h.repo.RemoteTip("fel/tester/feature/2", "origin")
	require.NoError(t, err)
	require.Equal(t, tip, remote)
}

func writeAndStage(repo *testhelpers.GitRepo, file, content string) error {
	if err := os.WriteFile(filepath.Join(repo.Dir, file), []byte(content), 0o644); err != nil {
		return err
	}
	return repo.Git("add", file)
}

func TestSubmitUpdateOnlyRefusesNewPRs(t *testing.T) {
	h := newHarness(t)

	err := actions.SubmitAction(h.ctx, actions.SubmitOptions{UpdateOnly: true})
	require.Error(t, err)
	require.Empty(t, h.host.PRs)
}

func TestLandMergesStackBottomUp(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))
	mds := h.stackMetadata(t)

	require.NoError(t, actions.LandAction(h.ctx, actions.LandOptions{Force: true}))

	wantOrder := []int{*mds[0].PR, *mds[1].PR, *mds[2].PR}
	require.Equal(t, wantOrder, h.host.MergedPRs)
	require.Empty(t, h.host.AdminMerges)

	// Remote branches were deleted after their PRs merged, oldest first.
	require.Equal(t, []string{
		"fel/tester/feature/0", "fel/tester/feature/1", "fel/tester/feature/2",
	}, h.host.DeletedBranches)

	// Local master followed the remote through all three merges and has
	// the stack's content.
	masterTip, err := h.repo.BranchTip("master")
	require.NoError(t, err)
	remoteTip, err := h.repo.RemoteTip("master", "origin")
	require.NoError(t, err)
	require.Equal(t, remoteTip, masterTip)

	for _, file := range []string{"one.txt", "two.txt", "three.txt"} {
		_, err := h.fixture.GitOutput("cat-file", "-e", fmt.Sprintf("master:%s", file))
		require.NoError(t, err)
	}

	// Nothing is left above master.
	featureTip, err := h.repo.BranchTip("feature")
	require.NoError(t, err)
	require.Equal(t, masterTip, featureTip)
}

func TestLandRetargetsSurvivingPullRequests(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))
	mds := h.stackMetadata(t)

	// Land only the bottom commit.
	st, err := stack.New(h.ctx.Context, h.repo, "master", "fel/tester", "0.1.0")
	require.NoError(t, err)
	commits, err := st.Commits(h.ctx.Context)
	require.NoError(t, err)

	lander := &actions.Lander{
		Repo:     h.repo,
		Client:   h.host,
		Upstream: "master",
		Remote:   "origin",
		Prefix:   "fel/tester",
		Splog:    h.ctx.Splog,
	}
	_, err = lander.Land(h.ctx.Context, commits[0].Hash)
	require.NoError(t, err)

	require.Equal(t, []int{*mds[0].PR}, h.host.MergedPRs)

	// The next PR up now bases on master directly.
	require.Equal(t, "master", h.host.PRs[*mds[1].PR].Base)
	require.Equal(t, "fel/tester/feature/1", h.host.PRs[*mds[2].PR].Base)

	// Two commits remain on the stack, still submitted.
	remaining := h.stackMetadata(t)
	require.Len(t, remaining, 2)
	require.Equal(t, *mds[1].PR, *remaining[0].PR)
	require.Equal(t, *mds[2].PR, *remaining[1].PR)
}

func TestLandRefusesUnsubmittedCommit(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))

	// A fresh commit on top of the stack has no PR yet.
	require.NoError(t, h.fixture.Git("checkout", "feature"))
	_, err := h.fixture.Commit("four.txt", "four\n", "add four")
	require.NoError(t, err)

	err = actions.LandAction(h.ctx, actions.LandOptions{Force: true})
	require.Error(t, err)

	// Nothing merged: the whole land aborts before touching the host.
	require.Empty(t, h.host.MergedPRs)
}

func TestLandBlockedByProtection(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))

	h.host.Protection["master"] = &github.BranchProtection{
		Protected:         true,
		RequiredApprovals: 1,
	}

	err := actions.LandAction(h.ctx, actions.LandOptions{Force: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Review required")
	require.Empty(t, h.host.MergedPRs)
}

func TestLandAdminOverridesProtection(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))
	mds := h.stackMetadata(t)

	h.host.Protection["master"] = &github.BranchProtection{
		Protected:         true,
		RequiredApprovals: 1,
	}

	require.NoError(t, actions.LandAction(h.ctx, actions.LandOptions{Admin: true, Force: true}))
	require.Len(t, h.host.MergedPRs, 3)
	require.Equal(t, []int{*mds[0].PR, *mds[1].PR, *mds[2].PR}, h.host.AdminMerges)
}

func TestStackStatusReportsVerdicts(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))
	mds := h.stackMetadata(t)

	h.host.Reviews[*mds[1].PR] = []github.Review{{State: "CHANGES_REQUESTED"}}

	st, err := stack.New(h.ctx.Context, h.repo, "master", "fel/tester", "0.1.0")
	require.NoError(t, err)
	statuses, err := actions.StackStatus(h.ctx.Context, h.host, st)
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	require.True(t, statuses[0].Verdict.Mergeable)
	require.False(t, statuses[1].Verdict.Mergeable)
	require.Equal(t, "Changes requested", statuses[1].Verdict.Reason)
	require.True(t, statuses[2].Verdict.Mergeable)

	rendered := actions.RenderStatus(statuses, "master")
	require.Contains(t, rendered, "add one")
	require.Contains(t, rendered, "Changes requested")
	require.Contains(t, rendered, "master")
}

// gatedHost holds every pull request lookup until released, exposing
// whether StackStatus waits for in-flight lookups before returning.
type gatedHost struct {
	*testhelpers.FakeHost
	gate chan struct{}
}

func (h *gatedHost) GetPullRequest(ctx context.Context, number int) (*github.PullRequestInfo, error) {
	<-h.gate
	return h.FakeHost.GetPullRequest(ctx, number)
}

func TestStackStatusJoinsLookupsOnDecodeFailure(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))

	// A commit with an unrecognized trailer key on top of the stack.
	require.NoError(t, h.fixture.Git("checkout", "feature"))
	_, err := h.fixture.Commit("four.txt", "four\n", "add four\n---\nfel-bogus: true")
	require.NoError(t, err)

	st, err := stack.New(h.ctx.Context, h.repo, "master", "fel/tester", "0.1.0")
	require.NoError(t, err)

	gated := &gatedHost{FakeHost: h.host, gate: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		_, err := actions.StackStatus(context.Background(), gated, st)
		done <- err
	}()

	// The decode failure must not short-circuit past the lookups still
	// blocked inside the host.
	select {
	case err := <-done:
		t.Fatalf("returned while host lookups were in flight: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(gated.gate)
	require.ErrorIs(t, <-done, felerrors.ErrUnknownMetadataKey)
}

func TestLandUpstreamCommitIsNoOp(t *testing.T) {
	h := newHarness(t)

	masterTip, err := h.repo.BranchTip("master")
	require.NoError(t, err)

	lander := &actions.Lander{
		Repo:     h.repo,
		Client:   h.host,
		Upstream: "master",
		Remote:   "origin",
		Prefix:   "fel/tester",
		Splog:    h.ctx.Splog,
	}
	rm, err := lander.Land(h.ctx.Context, masterTip)
	require.NoError(t, err)
	require.Empty(t, rm)
	require.Empty(t, h.host.MergedPRs)
}

func TestUpdateBodiesIsIdempotent(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, actions.SubmitAction(h.ctx, actions.SubmitOptions{}))
	mds := h.stackMetadata(t)

	// Simulate the host's DOS line endings; the comparison must still
	// detect the bodies as current.
	for _, md := range mds {
		pr := h.host.PRs[*md.PR]
		pr.Body = strings.ReplaceAll(pr.Body, "\n", "\r\n")
	}

	before := map[int]string{}
	for number, pr := range h.host.PRs {
		before[number] = pr.Body
	}

	st, err := stack.New(h.ctx.Context, h.repo, "master", "fel/tester", "0.1.0")
	require.NoError(t, err)
	require.NoError(t, actions.UpdateBodies(h.ctx.Context, h.host, st, h.ctx.Splog))

	for number, pr := range h.host.PRs {
		require.Equal(t, before[number], pr.Body, "PR #%d body churned", number)
	}
}
