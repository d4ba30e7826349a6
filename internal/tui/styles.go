// package tui provides the live terminal dashboard for sshlure.
// This file defines the shared lipgloss styles.
package tui // import "github.com/toeirei/sshlure/internal/tui"

import "github.com/charmbracelet/lipgloss"

const (
	colorSubtle    = lipgloss.Color("240") // Muted gray
	colorHighlight = lipgloss.Color("81")  // Teal
	colorSpecial   = lipgloss.Color("208") // Orange
	colorError     = lipgloss.Color("196") // Bright red
	colorSuccess   = lipgloss.Color("40")  // Green
	colorWhite     = lipgloss.Color("231")
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	helpStyle    = lipgloss.NewStyle().Foreground(colorSubtle)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	statStyle    = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(colorSpecial).Bold(true)
	passwordCell = lipgloss.NewStyle().Foreground(colorSpecial)
	keyCell      = lipgloss.NewStyle().Foreground(colorSuccess)
	noneCell     = lipgloss.NewStyle().Foreground(colorSubtle)
)
