package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	Primary = lipgloss.Color("#1a73e8")
	Success = lipgloss.Color("#10B981") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Success)

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Error)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)
)

// PrintSuccess prints a success message with checkmark
func PrintSuccess(msg string) string {
	return SuccessStyle.Render("✓ " + msg)
}

// PrintWarning prints a non-fatal problem
func PrintWarning(msg string) string {
	return WarningStyle.Render("! " + msg)
}

// PrintError prints an error message
func PrintError(msg string) string {
	return ErrorStyle.Render("✗ " + msg)
}

// PrintInfo prints an info message
func PrintInfo(msg string) string {
	return MutedStyle.Render("• " + msg)
}

// PrintStep prints "[i/n] msg" progress for batch operations.
func PrintStep(i, n int, msg string) string {
	return TitleStyle.Render(fmt.Sprintf("[%d/%d]", i, n)) + " " + msg
}

// Tally renders the success/failed/skipped line printed after a run.
func Tally(success, failed, skipped int) string {
	parts := []string{
		SuccessStyle.Render(fmt.Sprintf("%d succeeded", success)),
		ErrorStyle.Render(fmt.Sprintf("%d failed", failed)),
	}
	if skipped > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d skipped", skipped)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, joinWithSep(parts, MutedStyle.Render(" · "))...)
}

func joinWithSep(parts []string, sep string) []string {
	out := make([]string, 0, len(parts)*2-1)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}
