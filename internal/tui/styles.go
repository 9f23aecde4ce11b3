package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the viewer
type Styles struct {
	Title      lipgloss.Style
	Toolbar    lipgloss.Style
	Button     lipgloss.Style
	Disabled   lipgloss.Style
	PageLabel  lipgloss.Style
	ZoomLabel  lipgloss.Style
	Input      lipgloss.Style
	TextBox    lipgloss.Style
	Dim        lipgloss.Style
	Help       lipgloss.Style
	StatusErr  lipgloss.Style
	Annotation lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Toolbar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("241")).
			MarginBottom(1),
		Button: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("238")).
			Padding(0, 1),
		Disabled: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1).
			Faint(true),
		PageLabel:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		ZoomLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Padding(0, 1),
		Input:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		TextBox:    lipgloss.NewStyle().Padding(0, 1),
		Dim:        lipgloss.NewStyle().Faint(true),
		Help:       lipgloss.NewStyle().Faint(true).MarginTop(1),
		StatusErr:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		Annotation: lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
	}
}

// button renders a toolbar button, dimmed when the action is unavailable.
func (s *Styles) button(label string, enabled bool) string {
	if enabled {
		return s.Button.Render(label)
	}
	return s.Disabled.Render(label)
}
