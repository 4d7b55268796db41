package dashboard

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/ambis/miniquiz/internal/lifecycle"
	"github.com/ambis/miniquiz/internal/ui/components"
	"github.com/ambis/miniquiz/internal/ui/layout"
	"github.com/ambis/miniquiz/internal/ui/theme"
)

func (s *DashboardScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(components.Banners(s.ctl.Err(), s.notice, width))

	card := s.renderSessionCard()
	list := s.renderSubtests(height)

	if layout.IsCompactWidth(width) {
		b.WriteString(components.Panel("Current session", card, width))
		b.WriteString("\n")
		b.WriteString(components.Panel("Subtests", list, width))
		return b.String()
	}

	half := width / 2
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		components.Panel("Subtests", list, half),
		components.Panel("Current session", card, width-half),
	))
	return b.String()
}

func (s *DashboardScreen) renderSessionCard() string {
	switch s.ctl.State() {
	case lifecycle.StateLoading:
		return theme.Hint.Render("Checking for a running session...")
	case lifecycle.StateError:
		return theme.Hint.Render("Session status unavailable. Press r to retry.")
	case lifecycle.StateNoSession:
		return theme.Body.Render("No quiz in progress.\nPick a subtest and press Enter to begin.")
	}

	sess := s.ctl.Session()
	if sess == nil {
		return ""
	}
	r := s.ctl.Reading()
	name := sess.SubtestName
	if name == "" {
		name = "Quiz"
	}

	var b strings.Builder
	b.WriteString(theme.Selected.Render(name) + "\n\n")
	b.WriteString(theme.Label.Render("Time left  ") + theme.Timer(r.Seconds, r.Known).Render(r.String()) + "\n")
	b.WriteString(theme.Label.Render("Answered   ") + theme.Body.Render(fmt.Sprintf("%d of %d", len(s.ctl.Answers()), len(sess.Questions))) + "\n\n")

	if s.ctl.State() == lifecycle.StateExpired {
		b.WriteString(theme.TimerOut.Render("Time is up. This session can no longer be submitted."))
	} else {
		b.WriteString(components.NewButton("Continue", "c", true).View())
	}
	return b.String()
}

func (s *DashboardScreen) renderSubtests(height int) string {
	switch {
	case s.subtestsErr != "":
		return theme.ScorePoor.Render(s.subtestsErr) + "\n" + theme.Hint.Render("Press r to retry.")
	case !s.subtestsLoaded:
		return theme.Hint.Render("Loading subtests...")
	case len(s.subtests) == 0:
		return theme.Hint.Render("No subtests are available yet.")
	}
	out := s.menu.ViewWindow(max(height-10, 3))
	if s.ctl.Starting() {
		out += "\n" + theme.Hint.Render("Starting...")
	}
	return out
}
