package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings for the accounts TUI.
type keyMap struct {
	up    key.Binding
	down  key.Binding
	enter key.Binding
	sync  key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "log in/out"),
		),
		sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "resync"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.sync, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.enter, k.sync, k.quit},
	}
}
