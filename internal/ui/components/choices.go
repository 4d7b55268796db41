package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/ambis/miniquiz/internal/ui/theme"
)

// Choices lists the options of one question. Cursor is the highlighted row
// and Chosen is the option currently recorded as the answer, if any.
type Choices struct {
	Options []string
	Cursor  int
	Chosen  string
}

// NewChoices creates a choice list with the cursor on the chosen option.
func NewChoices(options []string, chosen string) Choices {
	c := Choices{Options: options, Chosen: chosen}
	for i, o := range options {
		if o == chosen {
			c.Cursor = i
		}
	}
	return c
}

// Letter returns the label for option i: A..Z, then AA, AB and so on.
func Letter(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return Letter(i/26-1) + Letter(i%26)
}

// Update moves the cursor with the arrow keys and reports the option picked
// with enter, space or its letter key.
func (c Choices) Update(msg tea.Msg) (choices Choices, picked string, ok bool) {
	kmsg, isKey := msg.(tea.KeyMsg)
	if !isKey || len(c.Options) == 0 {
		return c, "", false
	}

	key := kmsg.String()
	switch key {
	case "up":
		if c.Cursor > 0 {
			c.Cursor--
		}
		return c, "", false
	case "down":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
		return c, "", false
	case "enter", "space", " ":
		return c, c.Options[c.Cursor], true
	}

	if len(key) == 1 {
		r := key[0]
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		if r >= 'a' && r <= 'z' {
			i := int(r - 'a')
			if i < len(c.Options) {
				c.Cursor = i
				return c, c.Options[i], true
			}
		}
	}
	return c, "", false
}

// View renders the options. The chosen option is marked, nothing reveals
// whether it is correct.
func (c Choices) View(width int) string {
	var b strings.Builder
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Cursor {
			prefix = "▸ "
		}
		mark := "( )"
		if opt == c.Chosen {
			mark = "(•)"
		}
		line := fmt.Sprintf("%s%s %s. %s", prefix, mark, Letter(i), opt)
		style := theme.Unselected
		switch {
		case opt == c.Chosen:
			style = theme.Chosen
		case i == c.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Width(max(width, 0)).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
