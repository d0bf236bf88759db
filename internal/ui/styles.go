// Package ui holds the terminal styles shared by the executor and the
// resolution loop.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#7B68EE") // medium slate blue
	colorSuccess = lipgloss.Color("#50C878") // emerald
	colorWarning = lipgloss.Color("#FFB347") // pastel orange
	colorError   = lipgloss.Color("#FF6961") // pastel red
	colorMuted   = lipgloss.Color("#808080") // gray
)

var (
	Accent  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	Success = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	Warning = lipgloss.NewStyle().Foreground(colorWarning)
	Error   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	Muted   = lipgloss.NewStyle().Foreground(colorMuted)

	// Banner frames package-management commands in the live output.
	Banner     = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	BannerText = lipgloss.NewStyle().Foreground(colorSuccess)
)
