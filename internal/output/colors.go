package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorsEnabled reports whether stdout should get styled output.
func ColorsEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

func styled(color string, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// ColorGreen colors text green, used for mergeable / up-to-date states.
func ColorGreen(text string) string {
	return styled("2", text)
}

// ColorYellow colors text yellow, used for structure and waiting states.
func ColorYellow(text string) string {
	return styled("3", text)
}

// ColorRed colors text red, used for blocked states.
func ColorRed(text string) string {
	return styled("1", text)
}

// ColorCyan colors text cyan, used for contextual detail.
func ColorCyan(text string) string {
	return styled("6", text)
}
