package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/ambis/miniquiz/internal/lifecycle"
	"github.com/ambis/miniquiz/internal/ui/components"
	"github.com/ambis/miniquiz/internal/ui/theme"
)

// Status renders the countdown for the header.
func (s *QuizScreen) Status() string {
	r := s.ctl.Reading()
	if s.ctl.Session() == nil {
		return ""
	}
	return theme.Timer(r.Seconds, r.Known).Render("⏱ " + r.String())
}

func (s *QuizScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(components.Banners(s.ctl.Err(), s.bannerNotice(), width))

	switch s.ctl.State() {
	case lifecycle.StateLoading:
		b.WriteString(components.Placeholder("Loading your quiz...", width))
		return b.String()
	case lifecycle.StateNoSession:
		b.WriteString(components.Panel("No active session",
			theme.Body.Render("There is no quiz running right now.\nStart a subtest from the dashboard.")+
				"\n\n"+theme.Hint.Render("Press r to check again or Esc to go back."), width))
		return b.String()
	case lifecycle.StateError:
		b.WriteString(components.Panel("Quiz unavailable",
			theme.Hint.Render("Press r to retry or Esc to go back."), width))
		return b.String()
	case lifecycle.StateExpired:
		b.WriteString(components.Panel("Time is up",
			theme.TimerOut.Render("This session has expired. Answers can no longer be changed or submitted.")+
				"\n\n"+theme.Hint.Render("Press r to check again or Esc to go back."), width))
		return b.String()
	}

	if s.confirming {
		b.WriteString(s.renderConfirm(width))
		return b.String()
	}
	b.WriteString(s.renderQuestion(width))
	return b.String()
}

func (s *QuizScreen) bannerNotice() string {
	if s.notice != "" {
		return s.notice
	}
	return s.ctl.Notice()
}

// renderQuestion renders the current question with its options.
func (s *QuizScreen) renderQuestion(width int) string {
	sess := s.ctl.Session()
	if sess == nil {
		return ""
	}
	if len(sess.Questions) == 0 {
		return components.Placeholder("This session has no questions.", width)
	}
	q := sess.Questions[s.current]
	answers := s.ctl.Answers()

	var b strings.Builder

	infoLeft := theme.Selected.Render("  " + s.Title())
	infoRight := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("Question %d of %d", s.current+1, len(sess.Questions)))
	infoLine := infoLeft
	if pad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4; pad > 0 {
		infoLine += strings.Repeat(" ", pad) + infoRight
	}
	b.WriteString(infoLine + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n")

	b.WriteString("  " + components.NewProgressBar("Answered", len(answers), len(sess.Questions), min(width-4, 60)).View())
	b.WriteString("\n\n")

	textWidth := min(width-8, 90)
	b.WriteString(lipgloss.NewStyle().Width(textWidth).Foreground(theme.Text).Bold(true).
		PaddingLeft(2).Render(fmt.Sprintf("%d. %s", q.Number, q.Text)))
	b.WriteString("\n\n")

	if len(q.Options) == 0 {
		b.WriteString(theme.Hint.Render("  This question has no options."))
	} else {
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(s.choices.View(textWidth)))
	}
	b.WriteString("\n")

	b.WriteString(s.renderStrip(width))
	b.WriteString("\n\n")

	if s.ctl.Submitting() {
		b.WriteString("  " + theme.Hint.Render("Submitting answers..."))
	} else {
		b.WriteString("  " + components.NewButton("Submit answers", "Ctrl+S", len(answers) > 0).View())
	}
	return b.String()
}

// renderStrip renders one cell per question: answered ones are green, the
// current one is highlighted.
func (s *QuizScreen) renderStrip(width int) string {
	sess := s.ctl.Session()
	cells := make([]string, 0, len(sess.Questions))
	for i, q := range sess.Questions {
		label := fmt.Sprintf("%d", q.Number)
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if _, ok := s.ctl.Answer(q.Number); ok {
			style = theme.Chosen
		}
		if i == s.current {
			label = "[" + label + "]"
			style = style.Underline(true)
		} else {
			label = " " + label + " "
		}
		cells = append(cells, style.Render(label))
	}
	return lipgloss.NewStyle().Width(max(width-4, 10)).PaddingLeft(2).Render(strings.Join(cells, " "))
}

func (s *QuizScreen) renderConfirm(width int) string {
	sess := s.ctl.Session()
	answered := len(s.ctl.Answers())
	total := len(sess.Questions)

	body := theme.Body.Render(fmt.Sprintf("You answered %d of %d questions.", answered, total))
	if answered < total {
		body += "\n" + theme.ScoreFair.Render(fmt.Sprintf("%d unanswered questions will be left blank.", total-answered))
	}
	body += "\n\n" + theme.Hint.Render("Answers cannot be changed after submitting.") +
		"\n\n" + components.NewButton("Submit", "Y", true).View() + "  " +
		components.NewButton("Keep answering", "N", false).View()
	return "\n" + components.Panel("Submit your answers?", body, width)
}
