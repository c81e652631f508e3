package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"fel.dev/fel/internal/utils"
)

func TestSanitizeBranchName(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
		want string
	}{
		{"clean names pass through", "fel/alice/feature", "fel/alice/feature"},
		{"spaces become hyphens", "my branch name", "my-branch-name"},
		{"invalid runs collapse", "a!!@@b##c", "a-b-c"},
		{"trailing slashes and dots drop", "feature/.", "feature"},
		{"leading and trailing hyphens drop", "--edge--", "edge"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, utils.SanitizeBranchName(tc.in))
		})
	}
}

func TestSanitizeBranchNameLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := utils.SanitizeBranchName(long)
	require.LessOrEqual(t, len(got), utils.MaxBranchNameByteLength)
}
