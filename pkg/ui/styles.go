// Package ui provides the Bubble Tea TUI for the arbitrage dashboard.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/arbitrage-dashboard/pkg/ui/components"
)

// Palettes by theme name. Every name in prefs.Themes has an entry.
var Palettes = map[string]components.Palette{
	"dark": {
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#10B981"), // Green
		Danger:    lipgloss.Color("#EF4444"), // Red
		Warning:   lipgloss.Color("#F59E0B"), // Amber
		Muted:     lipgloss.Color("#6B7280"), // Gray
		Border:    lipgloss.Color("#374151"), // Dark gray
		Text:      lipgloss.Color("#F9FAFB"),
	},
	"light": {
		Primary:   lipgloss.Color("#4F46E5"),
		Secondary: lipgloss.Color("#047857"),
		Danger:    lipgloss.Color("#B91C1C"),
		Warning:   lipgloss.Color("#B45309"),
		Muted:     lipgloss.Color("#6B7280"),
		Border:    lipgloss.Color("#D1D5DB"),
		Text:      lipgloss.Color("#111827"),
	},
	"matrix": {
		Primary:   lipgloss.Color("#00FF41"),
		Secondary: lipgloss.Color("#00FF41"),
		Danger:    lipgloss.Color("#FF3131"),
		Warning:   lipgloss.Color("#C6FF00"),
		Muted:     lipgloss.Color("#008F11"),
		Border:    lipgloss.Color("#003B00"),
		Text:      lipgloss.Color("#D0FFD6"),
	},
}

// Styles are the lipgloss styles for one theme.
type Styles struct {
	Theme   string
	Palette components.Palette

	Header    lipgloss.Style
	Title     lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Badge     lipgloss.Style

	Positive lipgloss.Style
	Negative lipgloss.Style
	Warning  lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style

	Help lipgloss.Style
}

// NewStyles builds styles for theme. Unknown names fall back to dark.
func NewStyles(theme string) Styles {
	p, ok := Palettes[theme]
	if !ok {
		theme = "dark"
		p = Palettes[theme]
	}

	return Styles{
		Theme:   theme,
		Palette: p,

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(p.Primary).
			Padding(0, 2),
		Tab: lipgloss.NewStyle().
			Foreground(p.Muted).
			Padding(0, 1),
		ActiveTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary).
			Underline(true).
			Padding(0, 1),
		Badge: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(p.Danger).
			Padding(0, 1),

		Positive: lipgloss.NewStyle().Foreground(p.Secondary),
		Negative: lipgloss.NewStyle().Foreground(p.Danger),
		Warning:  lipgloss.NewStyle().Foreground(p.Warning),
		Muted:    lipgloss.NewStyle().Foreground(p.Muted),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(p.Primary),

		Help: lipgloss.NewStyle().
			Foreground(p.Muted).
			Padding(0, 1),
	}
}
