package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#7DD3FC")
	success = lipgloss.Color("#A8E6CF")
	danger  = lipgloss.Color("#FCA5A5")
	muted   = lipgloss.Color("#6B7280")
	text    = lipgloss.Color("#F9FAFB")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(muted).
			Italic(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(text)

	errorStyle = lipgloss.NewStyle().
			Foreground(danger)

	noticeStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	copiedStyle = lipgloss.NewStyle().
			Foreground(success).
			Bold(true)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Underline(true)

	tabStyle = lipgloss.NewStyle().
			Foreground(muted)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	selectionStyle = lipgloss.NewStyle().
			Foreground(accent)
)
