package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/ambis/miniquiz/internal/ui/theme"
)

// Field is a labelled text input.
type Field struct {
	Key   string
	Label string
	Model textinput.Model
}

// NewField creates an unfocused field. Secret fields echo bullets.
func NewField(key, label, placeholder string, secret bool) Field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return Field{Key: key, Label: label, Model: ti}
}

// Focus focuses the field and returns the cursor blink command.
func (f *Field) Focus() tea.Cmd {
	return f.Model.Focus()
}

// Blur removes focus.
func (f *Field) Blur() {
	f.Model.Blur()
}

// Update forwards a message to the input.
func (f Field) Update(msg tea.Msg) (Field, tea.Cmd) {
	var cmd tea.Cmd
	f.Model, cmd = f.Model.Update(msg)
	return f, cmd
}

// Value returns the trimmed input.
func (f Field) Value() string {
	return strings.TrimSpace(f.Model.Value())
}

// View renders the label above the input.
func (f Field) View() string {
	label := theme.Label.Render(f.Label)
	if f.Model.Focused() {
		label = theme.Selected.Render(f.Label)
	}
	return label + "\n" + f.Model.View()
}
