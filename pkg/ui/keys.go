package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit      key.Binding
	Pages     key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Refresh   key.Binding
	Theme     key.Binding
	Ack       key.Binding
	AddWallet key.Binding
	PrevItem  key.Binding
	NextItem  key.Binding
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Help      key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Pages: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7"),
			key.WithHelp("1-7", "pages"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev page"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
		Ack: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "acknowledge"),
		),
		AddWallet: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "add wallet"),
		),
		PrevItem: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "prev page of history"),
		),
		NextItem: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "next page of history"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "toggle"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pages, k.Refresh, k.Theme, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pages, k.NextPage, k.PrevPage, k.Help},
		{k.Refresh, k.Theme, k.Quit},
		{k.Up, k.Down, k.Toggle},
		{k.Ack, k.AddWallet, k.PrevItem, k.NextItem},
	}
}
