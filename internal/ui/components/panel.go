package components

import (
	"charm.land/lipgloss/v2"

	"github.com/ambis/miniquiz/internal/ui/theme"
)

// Panel renders body in a card under a bold heading, centered in width.
// The card is at most 72 columns wide.
func Panel(heading, body string, width int) string {
	w := min(max(width-4, 20), 72)
	content := theme.Title.Align(lipgloss.Left).Render(heading) + "\n\n" + body
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Card.Width(w).Render(content))
}

// Placeholder renders a dim centered line such as "Loading...".
func Placeholder(text string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n" + text)
}
