package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Card is one metric tile.
type Card struct {
	Label     string
	Value     string
	Hint      string
	Tone      Tone
	Loading   bool // show the placeholder instead of Value
	Animating bool
}

// CardsPerRow is how many cards share a row on wide terminals.
const CardsPerRow = 4

// RenderCards lays cards out in rows that fit width. placeholder is shown
// for loading cards, usually a spinner frame.
func RenderCards(cards []Card, width int, p Palette, placeholder string) string {
	if len(cards) == 0 {
		return ""
	}

	perRow := CardsPerRow
	if width < 80 {
		perRow = 2
	}
	cardWidth := width/perRow - 2
	if cardWidth < 18 {
		cardWidth = 18
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1).
		Width(cardWidth)
	label := lipgloss.NewStyle().Foreground(p.Muted)
	hint := lipgloss.NewStyle().Foreground(p.Muted).Italic(true)

	var rows []string
	for start := 0; start < len(cards); start += perRow {
		end := min(start+perRow, len(cards))

		tiles := make([]string, 0, end-start)
		for _, c := range cards[start:end] {
			value := lipgloss.NewStyle().Bold(true).Foreground(p.Color(c.Tone))
			body := value.Render(c.Value)
			if c.Loading {
				body = label.Render(placeholder)
			}

			lines := []string{label.Render(strings.ToUpper(c.Label)), body}
			if c.Hint != "" {
				lines = append(lines, hint.Render(c.Hint))
			}

			b := box
			if c.Animating {
				b = b.BorderForeground(p.Primary)
			}
			tiles = append(tiles, b.Render(strings.Join(lines, "\n")))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
