package components

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// NewTable builds a read-only table styled with p.
func NewTable(columns []table.Column, rows []table.Row, height int, p Palette) table.Model {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(p.Primary)
	styles.Cell = styles.Cell.Foreground(p.Text)
	styles.Selected = lipgloss.NewStyle()

	if height < 1 {
		height = 1
	}

	return table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(min(height, len(rows)+1)),
		table.WithFocused(false),
		table.WithStyles(styles),
	)
}
