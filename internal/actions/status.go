package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"fel.dev/fel/internal/git"
	"fel.dev/fel/internal/github"
	"fel.dev/fel/internal/meta"
	"fel.dev/fel/internal/output"
	"fel.dev/fel/internal/stack"
)

// CommitStatus is the rendered state of one stack entry.
type CommitStatus struct {
	Commit  *git.Commit
	Meta    meta.Metadata
	Verdict *github.Verdict
}

// StackStatus reads every commit on the current stack and, for submitted
// ones, asks the host whether its pull request could merge right now. The
// per-commit lookups run concurrently; all failures, decode and host alike,
// are collected after every lookup has finished rather than the first one
// winning the race.
func StackStatus(ctx context.Context, client github.Client, st *stack.Stack) ([]CommitStatus, error) {
	commits, err := st.Commits(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]CommitStatus, len(commits))
	verdicts := make(map[int]github.Verdict)

	var mu sync.Mutex
	var wg sync.WaitGroup
	errs := make([]error, len(commits))

	for i, commit := range commits {
		statuses[i] = CommitStatus{Commit: commit}

		_, md, err := meta.Decode(commit.Message)
		if err != nil {
			// Recorded, not returned: workers already launched for
			// earlier commits must still be joined below.
			errs[i] = fmt.Errorf("commit %s: %w", commit.ShortHash(), err)
			continue
		}
		statuses[i].Meta = md

		if !md.Submitted() {
			continue
		}

		wg.Add(1)
		go func(i, prNumber int) {
			defer wg.Done()
			verdict, err := github.CheckMergeability(ctx, client, prNumber, st.Upstream())
			if err != nil {
				errs[i] = fmt.Errorf("PR #%d: %w", prNumber, err)
				return
			}
			mu.Lock()
			verdicts[i] = verdict
			mu.Unlock()
		}(i, *md.PR)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for i := range statuses {
		if verdict, ok := verdicts[i]; ok {
			v := verdict
			statuses[i].Verdict = &v
		}
	}
	return statuses, nil
}

// RenderStatus formats the stack newest-first, one line per commit.
func RenderStatus(statuses []CommitStatus, upstream string) string {
	var sb strings.Builder
	for i := len(statuses) - 1; i >= 0; i-- {
		sb.WriteString(statusLine(statuses[i]))
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("◯ %s\n", output.ColorCyan(upstream)))
	return sb.String()
}

func statusLine(s CommitStatus) string {
	marker := "◯"
	state := output.ColorYellow("not submitted")

	switch {
	case s.Verdict == nil:
	case s.Verdict.Mergeable:
		marker = output.ColorGreen("●")
		state = fmt.Sprintf("#%d %s", *s.Meta.PR, output.ColorGreen("mergeable"))
	case s.Verdict.Retryable:
		marker = output.ColorYellow("●")
		state = fmt.Sprintf("#%d %s", *s.Meta.PR, output.ColorYellow(s.Verdict.Reason))
	default:
		marker = output.ColorRed("●")
		state = fmt.Sprintf("#%d %s", *s.Meta.PR, output.ColorRed(s.Verdict.Reason))
	}

	return fmt.Sprintf("%s %s %s (%s)", marker, s.Commit.ShortHash(), s.Commit.Summary(), state)
}
