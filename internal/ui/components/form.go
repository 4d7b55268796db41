package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
)

// Form is a stack of fields with one focused at a time. Tab and the arrow
// keys move focus; enter on the last field submits.
type Form struct {
	Fields []Field
	focus  int
}

// NewForm builds a form. Call Init to focus the first field.
func NewForm(fields ...Field) Form {
	return Form{Fields: fields}
}

// Init focuses the first field.
func (f *Form) Init() tea.Cmd {
	f.focus = 0
	return f.focusCurrent()
}

// Focused returns the key of the focused field.
func (f Form) Focused() string {
	if len(f.Fields) == 0 {
		return ""
	}
	return f.Fields[f.focus].Key
}

func (f *Form) focusCurrent() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.Fields {
		if i == f.focus {
			cmd = f.Fields[i].Focus()
		} else {
			f.Fields[i].Blur()
		}
	}
	return cmd
}

func (f *Form) move(delta int) tea.Cmd {
	n := len(f.Fields)
	if n == 0 {
		return nil
	}
	f.focus = (f.focus + delta + n) % n
	return f.focusCurrent()
}

// Update handles focus movement and forwards everything else to the focused
// field. submit is true when enter was pressed on the last field.
func (f Form) Update(msg tea.Msg) (form Form, cmd tea.Cmd, submit bool) {
	if len(f.Fields) == 0 {
		return f, nil, false
	}
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "tab", "down":
			return f, f.move(1), false
		case "shift+tab", "up":
			return f, f.move(-1), false
		case "enter":
			if f.focus == len(f.Fields)-1 {
				return f, nil, true
			}
			return f, f.move(1), false
		}
	}
	f.Fields[f.focus], cmd = f.Fields[f.focus].Update(msg)
	return f, cmd, false
}

// Value returns the trimmed value of the field with key.
func (f Form) Value(key string) string {
	for _, fld := range f.Fields {
		if fld.Key == key {
			return fld.Value()
		}
	}
	return ""
}

// Raw returns the untrimmed value of the field with key. Use it for secrets.
func (f Form) Raw(key string) string {
	for _, fld := range f.Fields {
		if fld.Key == key {
			return fld.Model.Value()
		}
	}
	return ""
}

// SetValue sets the raw value of the field with key.
func (f *Form) SetValue(key, value string) {
	for i := range f.Fields {
		if f.Fields[i].Key == key {
			f.Fields[i].Model.SetValue(value)
		}
	}
}

// Reset clears every field and focuses the first one.
func (f *Form) Reset() tea.Cmd {
	for i := range f.Fields {
		f.Fields[i].Model.Reset()
	}
	return f.Init()
}

// View renders the fields one below the other.
func (f Form) View() string {
	parts := make([]string, len(f.Fields))
	for i, fld := range f.Fields {
		parts[i] = fld.View()
	}
	return strings.Join(parts, "\n\n")
}
