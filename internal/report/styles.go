package report

import "github.com/charmbracelet/lipgloss"

var (
	colorPositive = lipgloss.Color("78")  // green
	colorNegative = lipgloss.Color("196") // red
	colorNeutral  = lipgloss.Color("241") // gray
	colorAccent   = lipgloss.Color("62")  // purple
	colorMuted    = lipgloss.Color("240")
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorAccent).
	MarginBottom(1)

var panelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorAccent).
	Padding(0, 1)

var labelStyle = lipgloss.NewStyle().Width(10)

var mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)

var headerStyle = lipgloss.NewStyle().Bold(true)

var errorStyle = lipgloss.NewStyle().
	Foreground(colorNegative).
	Bold(true)

func labelColor(name string) lipgloss.Color {
	switch name {
	case "Positive":
		return colorPositive
	case "Negative":
		return colorNegative
	default:
		return colorNeutral
	}
}
