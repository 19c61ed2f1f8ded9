package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	upColor        = lipgloss.Color("#10B981")
	downColor      = lipgloss.Color("#EF4444")
	accentColor    = lipgloss.Color("#F59E0B")
	borderColor    = lipgloss.Color("#374151")
	textColor      = lipgloss.Color("#F9FAFB")
	secondaryColor = lipgloss.Color("#9CA3AF")
	mutedColor     = lipgloss.Color("#6B7280")
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	rowStyle = lipgloss.NewStyle().
			Foreground(textColor)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(textColor).
				Background(borderColor)

	lockedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	upStyle = lipgloss.NewStyle().
		Foreground(upColor)

	downStyle = lipgloss.NewStyle().
			Foreground(downColor)

	newsStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(downColor)

	keyStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	descStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)
)

func signedStyle(v float64) lipgloss.Style {
	switch {
	case v > 0:
		return upStyle
	case v < 0:
		return downStyle
	default:
		return rowStyle
	}
}
