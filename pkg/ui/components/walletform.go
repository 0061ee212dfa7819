package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	fieldAddress = iota
	fieldLabel
	fieldNetwork
	fieldCount
)

// WalletForm collects a new wallet. Validation is left to the caller.
type WalletForm struct {
	inputs  []textinput.Model
	focus   int
	err     string
	pending bool
}

// NewWalletForm creates an empty form focused on the address.
func NewWalletForm(defaultNetwork string, labelLimit int) *WalletForm {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldAddress] = textinput.New()
	inputs[fieldAddress].Placeholder = "0x..."
	inputs[fieldAddress].CharLimit = 42
	inputs[fieldAddress].Prompt = "Address: "

	inputs[fieldLabel] = textinput.New()
	inputs[fieldLabel].Placeholder = "treasury"
	inputs[fieldLabel].CharLimit = labelLimit
	inputs[fieldLabel].Prompt = "Label:   "

	inputs[fieldNetwork] = textinput.New()
	inputs[fieldNetwork].Placeholder = "ethereum"
	inputs[fieldNetwork].Prompt = "Network: "
	inputs[fieldNetwork].SetValue(defaultNetwork)

	f := &WalletForm{inputs: inputs}
	f.inputs[fieldAddress].Focus()
	return f
}

// Values returns address, label and network.
func (f *WalletForm) Values() (string, string, string) {
	return f.inputs[fieldAddress].Value(), f.inputs[fieldLabel].Value(), f.inputs[fieldNetwork].Value()
}

// SetError shows err under the form. An empty string clears it.
func (f *WalletForm) SetError(err string) {
	f.err = err
}

// Error returns the message shown under the form.
func (f *WalletForm) Error() string {
	return f.err
}

// SetPending marks the form as submitted.
func (f *WalletForm) SetPending(pending bool) {
	f.pending = pending
}

// Pending reports whether a submit is in flight.
func (f *WalletForm) Pending() bool {
	return f.pending
}

// Next moves focus forward, wrapping around.
func (f *WalletForm) Next() tea.Cmd {
	return f.focusOn((f.focus + 1) % fieldCount)
}

// Prev moves focus back, wrapping around.
func (f *WalletForm) Prev() tea.Cmd {
	return f.focusOn((f.focus + fieldCount - 1) % fieldCount)
}

func (f *WalletForm) focusOn(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[f.focus].Focus()
}

// Update forwards msg to the focused input.
func (f *WalletForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// View renders the form.
func (f *WalletForm) View(p Palette) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(p.Primary)
	muted := lipgloss.NewStyle().Foreground(p.Muted)
	danger := lipgloss.NewStyle().Foreground(p.Danger)

	lines := []string{title.Render("ADD WALLET"), ""}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, "")

	switch {
	case f.pending:
		lines = append(lines, muted.Render("Saving..."))
	case f.err != "":
		lines = append(lines, danger.Render(f.err))
	}
	lines = append(lines, muted.Render("tab: next field • enter: save • esc: cancel"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
