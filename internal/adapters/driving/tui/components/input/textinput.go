// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
)

// MemoCharLimit bounds the length of a memo typed in the TUI.
const MemoCharLimit = 2000

// MemoInput wraps a bubbles textinput for composing memos.
type MemoInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// NewMemoInput creates a new memo input component. It starts blurred.
func NewMemoInput(s *styles.Styles) *MemoInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Write a memo..."
	ti.CharLimit = MemoCharLimit
	ti.Width = 40

	return &MemoInput{
		textinput: ti,
		styles:    s,
		label:     "Memo",
		width:     40,
	}
}

// Init initialises the memo input.
func (m *MemoInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (m *MemoInput) Update(msg tea.Msg) (*MemoInput, tea.Cmd) {
	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

// View renders the memo input.
func (m *MemoInput) View() string {
	label := m.styles.Title.Render(m.label + ": ")
	field := m.styles.InputField.Render(m.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Open focuses the input with a label and initial text.
func (m *MemoInput) Open(label, value string) tea.Cmd {
	m.label = label
	m.textinput.SetValue(value)
	m.textinput.CursorEnd()
	return m.textinput.Focus()
}

// Close clears and blurs the input.
func (m *MemoInput) Close() {
	m.textinput.Reset()
	m.textinput.Blur()
}

// Label returns the current label.
func (m *MemoInput) Label() string {
	return m.label
}

// Value returns the current input value.
func (m *MemoInput) Value() string {
	return m.textinput.Value()
}

// SetValue sets the input value.
func (m *MemoInput) SetValue(value string) {
	m.textinput.SetValue(value)
}

// Focused returns whether the input is focused.
func (m *MemoInput) Focused() bool {
	return m.textinput.Focused()
}

// SetWidth sets the width of the input.
func (m *MemoInput) SetWidth(width int) {
	m.width = width
	// Account for label and padding
	inputWidth := width - len(m.label) - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	m.textinput.Width = inputWidth
}

// Width returns the current width.
func (m *MemoInput) Width() int {
	return m.width
}
