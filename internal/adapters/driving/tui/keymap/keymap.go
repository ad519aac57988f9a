// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Back returns to the previous view.
	Back key.Binding

	// Up navigates up in a list or scrolls text.
	Up key.Binding

	// Down navigates down in a list or scrolls text.
	Down key.Binding

	// PageUp scrolls one page up.
	PageUp key.Binding

	// PageDown scrolls one page down.
	PageDown key.Binding

	// Open opens a live session for the selected document.
	Open key.Binding

	// Reload refetches the document list.
	Reload key.Binding

	// Delete deletes the selected document.
	Delete key.Binding

	// Confirm accepts a pending confirmation.
	Confirm key.Binding

	// Focus switches between the extracted text and the chat input.
	Focus key.Binding

	// Send submits the typed question.
	Send key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "text/chat"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "ask"),
		),
	}
}

// ListHelp returns keybindings for the documents list.
func (k *KeyMap) ListHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Reload, k.Delete, k.Quit}
}

// TextHelp returns keybindings while the extracted text has focus.
func (k *KeyMap) TextHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PageDown, k.Focus, k.Back}
}

// ChatHelp returns keybindings while the chat input has focus.
func (k *KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Send, k.Focus, k.Back}
}

// FullHelp returns the full list of keybindings grouped by view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.ListHelp(),
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Send, k.Focus, k.Back},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
