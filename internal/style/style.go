// Package style centralizes terminal output styling for the CLI surface.
package style

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color palette
var (
	colorPrimary = lipgloss.Color("39")  // blue
	colorSuccess = lipgloss.Color("76")  // green
	colorWarning = lipgloss.Color("214") // orange
	colorError   = lipgloss.Color("196") // red
	colorMuted   = lipgloss.Color("242") // gray
)

var (
	Title   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	Bold    = lipgloss.NewStyle().Bold(true)
	Muted   = lipgloss.NewStyle().Foreground(colorMuted)
	Success = lipgloss.NewStyle().Foreground(colorSuccess)
	Warning = lipgloss.NewStyle().Foreground(colorWarning)
	Error   = lipgloss.NewStyle().Foreground(colorError)

	Session  = lipgloss.NewStyle().Foreground(colorPrimary)
	Thinking = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	ToolCall = lipgloss.NewStyle().Foreground(colorWarning)
)

// stateStyles colors detected states in listings and the dashboard.
var stateStyles = map[string]lipgloss.Style{
	"ready":          Success,
	"thinking":       Warning,
	"confirming":     lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
	"rate_limited":   Error,
	"update_prompt":  Warning,
	"feedback_modal": Muted,
	"starting":       Muted,
	"no_session":     Muted,
}

// State returns the style for a detected state name, muted for unknowns.
func State(state string) lipgloss.Style {
	if s, ok := stateStyles[state]; ok {
		return s
	}
	return Muted
}

// ShouldUseColor reports whether styled output is appropriate: a color
// terminal and no NO_COLOR override.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}
