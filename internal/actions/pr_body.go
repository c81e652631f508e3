package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fel.dev/fel/internal/github"
	"fel.dev/fel/internal/meta"
	"fel.dev/fel/internal/output"
	"fel.dev/fel/internal/stack"
)

// BodyDelimiter separates a pull request's hand-written description from
// the generated stack footer. Everything after it belongs to us.
const BodyDelimiter = "[#]:fel"

// SplitBody returns the hand-written part of a pull request body, with the
// generated footer removed.
func SplitBody(body string) string {
	if idx := strings.Index(body, BodyDelimiter); idx >= 0 {
		return strings.TrimSpace(body[:idx])
	}
	return body
}

// JoinBody appends the generated stack footer to a description.
func JoinBody(body, footer string) string {
	return fmt.Sprintf("%s\n\n%s\n\n%s", body, BodyDelimiter, footer)
}

// RenderFooter builds the footer shared by every pull request in a stack:
// a link list of all its entries, newest first.
func RenderFooter(entries []StackEntry) string {
	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString("This diff is part of a [fel stack](https://github.com/zabot/fel)\n")
	sb.WriteString("<pre>\n")
	for i := len(entries) - 1; i >= 0; i-- {
		sb.WriteString(fmt.Sprintf("<a href=\"%d\">#%d %s</a>\n", entries[i].PR, entries[i].PR, entries[i].Title))
	}
	sb.WriteString("</pre>\n")
	return sb.String()
}

// StackEntry is one submitted commit as it appears in the footer.
type StackEntry struct {
	PR    int
	Title string
}

// UpdateBodies rewrites the footer of every submitted pull request on the
// stack. Bodies that already carry the current footer are left alone; the
// host stores DOS line endings, so the comparison normalizes them first.
// Unsubmitted commits are skipped. All failures are reported together.
func UpdateBodies(ctx context.Context, client github.Client, st *stack.Stack, splog *output.Splog) error {
	commits, err := st.Commits(ctx)
	if err != nil {
		return err
	}

	var entries []StackEntry
	var prNumbers []int
	for _, commit := range commits {
		_, md, err := meta.Decode(commit.Message)
		if err != nil {
			return fmt.Errorf("commit %s: %w", commit.ShortHash(), err)
		}
		if !md.Submitted() {
			splog.Debug("skipping unsubmitted commit %s", commit.ShortHash())
			continue
		}
		entries = append(entries, StackEntry{PR: *md.PR, Title: commit.Summary()})
		prNumbers = append(prNumbers, *md.PR)
	}

	footer := RenderFooter(entries)

	var errs []error
	for _, prNumber := range prNumbers {
		pr, err := client.GetPullRequest(ctx, prNumber)
		if err != nil {
			errs = append(errs, fmt.Errorf("PR #%d: %w", prNumber, err))
			continue
		}

		// The host stores DOS line endings; normalize before splitting
		// so the comparison converges instead of churning every run.
		normalized := strings.ReplaceAll(pr.Body, "\r\n", "\n")
		newBody := JoinBody(SplitBody(normalized), footer)
		if normalized == newBody {
			splog.Debug("PR #%d body up to date", prNumber)
			continue
		}

		if err := client.UpdatePullRequest(ctx, prNumber, github.UpdatePROptions{Body: &newBody}); err != nil {
			errs = append(errs, fmt.Errorf("PR #%d: %w", prNumber, err))
			continue
		}
		splog.Info("Updated body of PR #%d", prNumber)
	}
	return errors.Join(errs...)
}
