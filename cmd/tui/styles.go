package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor   = lipgloss.Color("#15803D") // Forest
	secondaryColor = lipgloss.Color("#10B981") // Emerald
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	successColor   = lipgloss.Color("#22C55E") // Green

	fgColor     = lipgloss.Color("#E7F5EC")
	mutedColor  = lipgloss.Color("#6C7086")
	borderColor = lipgloss.Color("#45475A")
	highlightBg = lipgloss.Color("#1F3A2B")
)

var subtitleStyle = lipgloss.NewStyle().
	Foreground(mutedColor).
	Italic(true)

var helpStyle = lipgloss.NewStyle().
	Foreground(mutedColor).
	MarginTop(1)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(borderColor).
	Padding(1, 2)

var successStyle = lipgloss.NewStyle().
	Foreground(successColor).
	Bold(true)

var errorStyle = lipgloss.NewStyle().
	Foreground(errorColor).
	Bold(true)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(fgColor).
	Background(primaryColor).
	Padding(0, 2).
	MarginBottom(1)

var inputLabelStyle = lipgloss.NewStyle().
	Foreground(secondaryColor).
	Bold(true)

var progressStyle = lipgloss.NewStyle().
	Foreground(accentColor)

var statusBarStyle = lipgloss.NewStyle().
	Foreground(fgColor).
	Background(highlightBg).
	Padding(0, 1)

var warnStyle = lipgloss.NewStyle().
	Foreground(accentColor).
	Bold(true)
