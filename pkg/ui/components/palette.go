// Package components provides reusable TUI components.
package components

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colors a theme provides to components.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Danger    lipgloss.Color
	Warning   lipgloss.Color
	Muted     lipgloss.Color
	Border    lipgloss.Color
	Text      lipgloss.Color
}

// Tone colors a value.
type Tone int

const (
	ToneNeutral Tone = iota
	TonePositive
	ToneNegative
	ToneWarning
)

// Color returns the palette color for t.
func (p Palette) Color(t Tone) lipgloss.Color {
	switch t {
	case TonePositive:
		return p.Secondary
	case ToneNegative:
		return p.Danger
	case ToneWarning:
		return p.Warning
	}
	return p.Text
}
