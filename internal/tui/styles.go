package tui

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	baseFg    = lipgloss.Color("#E6E6E6")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#7C3AED")
	errFg     = lipgloss.Color("#F87171")
	pointFg   = lipgloss.Color("#FA5050")
	borderCol = lipgloss.Color("#243141")

	appStyle    = lipgloss.NewStyle().Foreground(baseFg)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(baseDimFg)
	errStyle    = lipgloss.NewStyle().Foreground(errFg)
	canvasStyle = lipgloss.NewStyle().Foreground(pointFg)
	// buttons carry no padding: hitButton measures the bare labels
	buttonStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	fieldStyle  = lipgloss.NewStyle().Foreground(baseFg)
	focusStyle  = lipgloss.NewStyle().Foreground(accentFg).Underline(true)
)
