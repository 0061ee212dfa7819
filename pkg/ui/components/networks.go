package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// NetworkRow is one chain's status.
type NetworkRow struct {
	Name      string
	Healthy   bool
	Block     uint64
	GasGwei   float64
	Latency   time.Duration
	Source    string
	Error     string
	CheckedAt time.Time
}

// NetworksComponent renders chain status.
type NetworksComponent struct {
	rows []NetworkRow
}

// NewNetworksComponent creates a new networks component.
func NewNetworksComponent() *NetworksComponent {
	return &NetworksComponent{
		rows: make([]NetworkRow, 0),
	}
}

// Set replaces every row.
func (n *NetworksComponent) Set(rows []NetworkRow) {
	n.rows = rows
}

// Update replaces the row with the same name, or appends it.
func (n *NetworksComponent) Update(row NetworkRow) {
	for i, r := range n.rows {
		if strings.EqualFold(r.Name, row.Name) {
			n.rows[i] = row
			return
		}
	}
	n.rows = append(n.rows, row)
}

// Len returns the number of rows.
func (n *NetworksComponent) Len() int {
	return len(n.rows)
}

// View renders the networks component.
func (n *NetworksComponent) View(p Palette) string {
	if len(n.rows) == 0 {
		return lipgloss.NewStyle().Foreground(p.Muted).Render("No networks reported")
	}

	up := lipgloss.NewStyle().Foreground(p.Secondary)
	down := lipgloss.NewStyle().Foreground(p.Danger)
	muted := lipgloss.NewStyle().Foreground(p.Muted)

	var b strings.Builder
	for _, r := range n.rows {
		status := up.Render("● up")
		if !r.Healthy {
			status = down.Render("○ down")
		}

		line := fmt.Sprintf("├─ %-10s %s", r.Name, status)
		if r.Block > 0 {
			line += fmt.Sprintf("  #%d", r.Block)
		}
		if r.GasGwei > 0 {
			line += fmt.Sprintf("  %.1f gwei", r.GasGwei)
		}
		if r.Latency > 0 {
			line += fmt.Sprintf("  %s", r.Latency.Round(time.Millisecond))
		}
		if r.Source != "" {
			line += muted.Render(" [" + r.Source + "]")
		}
		if !r.Healthy && r.Error != "" {
			line += " " + down.Render(r.Error)
		}
		b.WriteString(line + "\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}
