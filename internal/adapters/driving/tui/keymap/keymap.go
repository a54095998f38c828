// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help shows the help view.
	Help key.Binding

	// Back returns to the previous view or cancels the draft.
	Back key.Binding

	// Up and Down move the text cursor or the panel cursor.
	Up   key.Binding
	Down key.Binding

	// NextPage and PrevPage turn the page.
	NextPage key.Binding
	PrevPage key.Binding

	// Mark starts or ends a text selection at the cursor.
	Mark key.Binding

	// Select picks the annotation under the cursor, or toggles a panel item.
	Select key.Binding

	// Highlight commits the selection as a highlight.
	Highlight key.Binding

	// Color cycles the highlight colour.
	Color key.Binding

	// Memo opens the memo box for the selection.
	Memo key.Binding

	// AddMemo adds a memo to the expanded annotation.
	AddMemo key.Binding

	// PageMemo adds a memo to the whole page.
	PageMemo key.Binding

	// Edit edits the memo under the panel cursor.
	Edit key.Binding

	// Delete deletes the memo or highlight under the panel cursor.
	Delete key.Binding

	// Focus switches between the page and the panel.
	Focus key.Binding

	// Submit saves the text being typed.
	Submit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("pgdown", "n"),
			key.WithHelp("n", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("pgup", "p"),
			key.WithHelp("p", "prev page"),
		),
		Mark: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "select text"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Highlight: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "highlight"),
		),
		Color: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "colour"),
		),
		Memo: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "memo"),
		),
		AddMemo: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "reply"),
		),
		PageMemo: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "page memo"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "x"),
			key.WithHelp("d", "delete"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "page/panel"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// PageHelp returns keybindings for the page.
func (k *KeyMap) PageHelp() []key.Binding {
	return []key.Binding{k.Mark, k.Select, k.Focus, k.PageMemo}
}

// DraftHelp returns keybindings while a selection is drafted.
func (k *KeyMap) DraftHelp() []key.Binding {
	return []key.Binding{k.Highlight, k.Color, k.Memo, k.Back}
}

// PanelHelp returns keybindings for the side panel.
func (k *KeyMap) PanelHelp() []key.Binding {
	return []key.Binding{k.Select, k.AddMemo, k.Edit, k.Delete, k.Focus}
}

// ComposeHelp returns keybindings while typing a memo.
func (k *KeyMap) ComposeHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPage, k.PrevPage},
		{k.Mark, k.Highlight, k.Color, k.Memo, k.Back},
		{k.Select, k.Focus, k.AddMemo, k.PageMemo, k.Edit, k.Delete},
		{k.Help, k.Quit},
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
