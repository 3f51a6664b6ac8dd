package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// TextInput wraps bubbles/textinput as a one-line filter box.
type TextInput struct {
	Model textinput.Model
}

// NewTextInput creates an unfocused input with the given prompt.
func NewTextInput(prompt, placeholder string, maxLen int) TextInput {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = placeholder
	if maxLen > 0 {
		ti.CharLimit = maxLen
	}
	return TextInput{Model: ti}
}

// Focus starts accepting keystrokes.
func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

// Blur stops accepting keystrokes and keeps the value.
func (t *TextInput) Blur() {
	t.Model.Blur()
}

// Focused reports whether the input receives keystrokes.
func (t TextInput) Focused() bool {
	return t.Model.Focused()
}

// Reset clears the value.
func (t *TextInput) Reset() {
	t.Model.SetValue("")
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the input.
func (t TextInput) View() string {
	return t.Model.View()
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}
