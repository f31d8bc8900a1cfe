package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the dashboard's key bindings.
type KeyMap struct {
	Quit key.Binding

	// Login form.
	NextField  key.Binding
	PrevField  key.Binding
	SwitchType key.Binding
	Submit     key.Binding
	Back       key.Binding

	// Dashboard.
	Up     key.Binding
	Down   key.Binding
	Open   key.Binding
	Reload key.Binding
	Logout key.Binding
	Close  key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "quit"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("S-tab", "prev field"),
	),
	SwitchType: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("C-t", "admin/editor"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter", "l", "right"),
		key.WithHelp("enter", "open"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Logout: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "log out"),
	),
	Close: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
}
