package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#C2410C")
	muted  = lipgloss.Color("#8A8580")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(16)

	focusedLabelStyle = labelStyle.
				Foreground(accent)

	hintStyle = lipgloss.NewStyle().
			Foreground(muted)

	tagStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#EFE7DA")).
			Foreground(lipgloss.Color("#2D2A26")).
			Padding(0, 1).
			MarginRight(1)

	badgeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#2D2A26")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1).
			MarginRight(1)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted)

	focusedButtonStyle = buttonStyle.
				BorderForeground(accent).
				Foreground(accent).
				Bold(true)

	dayCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5484D")).
			Bold(true)

	successStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#30A46C"))

	failureStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#E5484D"))
)
