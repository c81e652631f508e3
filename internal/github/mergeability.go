package github

import (
	"context"
	"fmt"
	"time"
)

// MissingChecksGrace is how long after a pull request update missing
// required checks are still considered "not started yet" rather than never
// coming.
const MissingChecksGrace = 10 * time.Second

// DefaultPollInterval is the interval WaitForChecks polls on.
const DefaultPollInterval = 5 * time.Second

// MergeState is a snapshot of everything mergeability is derived from. The
// host does not expose "safe to merge" directly, so fel reconstructs it from
// these primitives.
type MergeState struct {
	PR         *PullRequestInfo
	Reviews    []Review
	Checks     []CheckRun
	Protection *BranchProtection

	// FreshState is the PR's mergeable_state from a re-fetch performed
	// after all other data was gathered, the last word when nothing else
	// explains a blocked merge.
	FreshState string
}

// Verdict is the outcome of a mergeability evaluation. Retryable means the
// blocking condition can resolve on its own and is worth polling for.
type Verdict struct {
	Mergeable bool
	Reason    string
	Retryable bool
}

// Evaluate classifies a pull request's readiness to merge. The first
// blocking condition in precedence order wins. now is the evaluation time,
// used for the missing-checks grace window.
func Evaluate(state MergeState, now time.Time) Verdict {
	pr := state.PR

	// Host-reported conflicts block everything else.
	if pr.Mergeable != nil && !*pr.Mergeable {
		return Verdict{Reason: "Merge conflicts"}
	}

	changesRequested := 0
	approved := 0
	for _, review := range state.Reviews {
		switch review.State {
		case "CHANGES_REQUESTED":
			changesRequested++
		case "APPROVED":
			approved++
		}
	}
	if changesRequested > 0 {
		return Verdict{Reason: "Changes requested"}
	}

	// No protection at all means zero required approvals and checks.
	protection := state.Protection
	if protection == nil {
		protection = &BranchProtection{}
	}

	if approved < protection.RequiredApprovals {
		return Verdict{Reason: "Review required"}
	}

	// Required contexts that have no check run at all may mean the stack
	// is not close enough to upstream for the checks to trigger, or that
	// they simply have not started yet. Only a recently updated PR gets
	// the benefit of the doubt.
	missing := map[string]bool{}
	for _, name := range protection.RequiredChecks {
		missing[name] = true
	}

	total := 0
	pending := 0
	failed := 0
	for _, check := range state.Checks {
		delete(missing, check.Name)
		total++

		if check.Status != "completed" {
			pending++
			continue
		}
		if check.Conclusion == "failure" {
			failed++
		}
	}

	if len(missing) > 0 {
		retryable := now.Sub(pr.UpdatedAt) < MissingChecksGrace
		return Verdict{Reason: "Missing required checks", Retryable: retryable}
	}

	if pending > 0 {
		return Verdict{
			Reason:    fmt.Sprintf("Waiting for checks (%d / %d)", total-pending, total),
			Retryable: true,
		}
	}

	if failed > 0 {
		return Verdict{Reason: fmt.Sprintf("Checks failed (%d / %d)", total-failed, total)}
	}

	// Everything we can derive says mergeable; if the host still does not
	// report clean, something we cannot see is blocking.
	if state.FreshState != "clean" {
		return Verdict{Reason: "Unknown"}
	}

	return Verdict{Mergeable: true}
}

// FetchMergeState gathers all the primitive state Evaluate needs.
// protectedBranch is the branch whose protection rules apply: the upstream
// branch the whole stack eventually merges into, not the PR's immediate
// base.
func FetchMergeState(ctx context.Context, client Client, prNumber int, protectedBranch string) (MergeState, error) {
	pr, err := client.GetPullRequest(ctx, prNumber)
	if err != nil {
		return MergeState{}, err
	}

	reviews, err := client.ListReviews(ctx, prNumber)
	if err != nil {
		return MergeState{}, err
	}

	protection, err := client.GetBranchProtection(ctx, protectedBranch)
	if err != nil {
		return MergeState{}, err
	}

	checks, err := client.ListCheckRuns(ctx, pr.HeadSHA)
	if err != nil {
		return MergeState{}, err
	}

	// Re-fetch for the final state check so it reflects everything the
	// host learned while we were gathering the rest.
	fresh, err := client.GetPullRequest(ctx, prNumber)
	if err != nil {
		return MergeState{}, err
	}

	return MergeState{
		PR:         pr,
		Reviews:    reviews,
		Checks:     checks,
		Protection: protection,
		FreshState: fresh.MergeableState,
	}, nil
}

// CheckMergeability fetches the merge state for a pull request and
// classifies it.
func CheckMergeability(ctx context.Context, client Client, prNumber int, protectedBranch string) (Verdict, error) {
	state, err := FetchMergeState(ctx, client, prNumber, protectedBranch)
	if err != nil {
		return Verdict{}, err
	}
	return Evaluate(state, time.Now()), nil
}

// WaitForChecks polls mergeability while the blocking condition is
// retryable, reporting the latest reason through report each iteration. It
// returns the terminal verdict: either mergeable or blocked for a reason
// that will not resolve on its own.
func WaitForChecks(ctx context.Context, client Client, prNumber int, protectedBranch string, interval time.Duration, report func(reason string)) (Verdict, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	for {
		verdict, err := CheckMergeability(ctx, client, prNumber, protectedBranch)
		if err != nil {
			return Verdict{}, err
		}
		if verdict.Mergeable || !verdict.Retryable {
			return verdict, nil
		}

		if report != nil {
			report(verdict.Reason)
		}

		select {
		case <-ctx.Done():
			return Verdict{}, ctx.Err()
		case <-time.After(interval):
		}
	}
}
