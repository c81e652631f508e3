package github_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fel.dev/fel/internal/github"
)

func boolPtr(b bool) *bool { return &b }

// cleanState returns a PR with no reviews, no protection, no conflicts and
// no checks, which should evaluate as mergeable.
func cleanState() github.MergeState {
	return github.MergeState{
		PR: &github.PullRequestInfo{
			Number:    1,
			Mergeable: boolPtr(true),
			UpdatedAt: time.Now().Add(-time.Hour),
		},
		Protection: &github.BranchProtection{},
		FreshState: "clean",
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Now()

	t.Run("clean PR is mergeable", func(t *testing.T) {
		verdict := github.Evaluate(cleanState(), now)
		require.Equal(t, github.Verdict{Mergeable: true}, verdict)
	})

	t.Run("merge conflicts block and are not retryable", func(t *testing.T) {
		state := cleanState()
		state.PR.Mergeable = boolPtr(false)

		verdict := github.Evaluate(state, now)
		require.Equal(t, github.Verdict{Reason: "Merge conflicts"}, verdict)
	})

	t.Run("changes requested block and are not retryable", func(t *testing.T) {
		state := cleanState()
		state.Reviews = []github.Review{{State: "CHANGES_REQUESTED"}}

		verdict := github.Evaluate(state, now)
		require.Equal(t, github.Verdict{Reason: "Changes requested"}, verdict)
	})

	t.Run("changes requested wins over missing approvals", func(t *testing.T) {
		state := cleanState()
		state.Reviews = []github.Review{{State: "CHANGES_REQUESTED"}, {State: "APPROVED"}}
		state.Protection = &github.BranchProtection{Protected: true, RequiredApprovals: 2}

		verdict := github.Evaluate(state, now)
		require.Equal(t, "Changes requested", verdict.Reason)
	})

	t.Run("protected branch without enough approvals requires review", func(t *testing.T) {
		state := cleanState()
		state.Protection = &github.BranchProtection{Protected: true, RequiredApprovals: 1}

		verdict := github.Evaluate(state, now)
		require.Equal(t, github.Verdict{Reason: "Review required"}, verdict)
	})

	t.Run("protected branch with enough approvals is mergeable", func(t *testing.T) {
		state := cleanState()
		state.Reviews = []github.Review{{State: "APPROVED"}}
		state.Protection = &github.BranchProtection{Protected: true, RequiredApprovals: 1}

		verdict := github.Evaluate(state, now)
		require.True(t, verdict.Mergeable)
	})

	t.Run("missing required checks on a fresh PR are retryable", func(t *testing.T) {
		state := cleanState()
		state.PR.UpdatedAt = now.Add(-2 * time.Second)
		state.Protection = &github.BranchProtection{Protected: true, RequiredChecks: []string{"ci"}}

		verdict := github.Evaluate(state, now)
		require.Equal(t, github.Verdict{Reason: "Missing required checks", Retryable: true}, verdict)
	})

	t.Run("missing required checks past the grace window are terminal", func(t *testing.T) {
		state := cleanState()
		state.PR.UpdatedAt = now.Add(-time.Minute)
		state.Protection = &github.BranchProtection{Protected: true, RequiredChecks: []string{"ci"}}

		verdict := github.Evaluate(state, now)
		require.Equal(t, github.Verdict{Reason: "Missing required checks"}, verdict)
	})

	t.Run("pending checks are retryable", func(t *testing.T) {
		state := cleanState()
		state.Checks = []github.CheckRun{{Name: "ci", Status: "in_progress"}}

		verdict := github.Evaluate(state, now)
		require.Equal(t, github.Verdict{Reason: "Waiting for checks (0 / 1)", Retryable: true}, verdict)
	})

	t.Run("failed checks are terminal", func(t *testing.T) {
		state := cleanState()
		state.Checks = []github.CheckRun{{Name: "ci", Status: "completed", Conclusion: "failure"}}

		verdict := github.Evaluate(state, now)
		require.Equal(t, github.Verdict{Reason: "Checks failed (0 / 1)"}, verdict)
	})

	t.Run("passing required checks are mergeable", func(t *testing.T) {
		state := cleanState()
		state.Protection = &github.BranchProtection{Protected: true, RequiredChecks: []string{"ci"}}
		state.Checks = []github.CheckRun{{Name: "ci", Status: "completed", Conclusion: "success"}}

		verdict := github.Evaluate(state, now)
		require.True(t, verdict.Mergeable)
	})

	t.Run("unexplained non-clean state is Unknown", func(t *testing.T) {
		state := cleanState()
		state.FreshState = "blocked"

		verdict := github.Evaluate(state, now)
		require.Equal(t, github.Verdict{Reason: "Unknown"}, verdict)
	})
}
