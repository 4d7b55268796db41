package components

import (
	"github.com/ambis/miniquiz/internal/ui/theme"
)

// Banners renders the error and notice lines shown above screen content.
// Empty strings render nothing.
func Banners(errMsg, notice string, width int) string {
	w := max(width-4, 10)
	var out string
	if errMsg != "" {
		out += theme.ErrorBanner.Width(w).Render("! "+errMsg) + "\n"
	}
	if notice != "" {
		out += theme.NoticeBanner.Width(w).Render(notice) + "\n"
	}
	return out
}
