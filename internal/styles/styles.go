package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	Primary  = lipgloss.Color("#1a73e8")
	Green    = lipgloss.Color("#10B981")
	Red      = lipgloss.Color("#EF4444")
	Yellow   = lipgloss.Color("#F59E0B")
	Gray     = lipgloss.Color("#6B7280")
	DarkGray = lipgloss.Color("#374151")
	White    = lipgloss.Color("#FFFFFF")

	// App frame
	AppStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginBottom(1)

	// Help
	HelpStyle = lipgloss.NewStyle().
			Foreground(Gray)

	// Selected marker (for lists)
	ActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Green)

	// Email box (for display)
	EmailBoxStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(White).
			Background(Primary).
			Padding(0, 2)

	// Summary box
	SuccessBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	SuccessTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Green)

	WarningBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Yellow).
			Padding(1, 2)

	WarningTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Yellow)

	// Common result styles
	PassStyle  = lipgloss.NewStyle().Bold(true).Foreground(Green)
	FailStyle  = lipgloss.NewStyle().Bold(true).Foreground(Red)
	WarnStyle  = lipgloss.NewStyle().Bold(true).Foreground(Yellow)
	MutedStyle = lipgloss.NewStyle().Foreground(Gray)

	// Label style for key-value displays
	LabelStyle = lipgloss.NewStyle().Foreground(Gray).Width(20)
)

// FormatResult renders an account outcome as OK or FAIL.
func FormatResult(ok bool) string {
	if ok {
		return PassStyle.Render("OK")
	}
	return FailStyle.Render("FAIL")
}

// FormatTokenState renders whether a child's token set is usable.
// missing lists the absent mandatory fields.
func FormatTokenState(hasTokens bool, missing []string) string {
	switch {
	case !hasTokens:
		return MutedStyle.Render("none")
	case len(missing) == 0:
		return PassStyle.Render("complete")
	default:
		return WarnStyle.Render("missing " + strings.Join(missing, ","))
	}
}

// SummaryBox picks the success or warning box depending on failures.
func SummaryBox(failed int) (box, title lipgloss.Style) {
	if failed > 0 {
		return WarningBoxStyle, WarningTitleStyle
	}
	return SuccessBoxStyle, SuccessTitleStyle
}
