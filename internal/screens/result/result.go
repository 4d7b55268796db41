package result

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/ambis/miniquiz/internal/api"
	"github.com/ambis/miniquiz/internal/countdown"
	qz "github.com/ambis/miniquiz/internal/quiz"
	"github.com/ambis/miniquiz/internal/screen"
	"github.com/ambis/miniquiz/internal/screens/history"
	"github.com/ambis/miniquiz/internal/ui/components"
	"github.com/ambis/miniquiz/internal/ui/layout"
	"github.com/ambis/miniquiz/internal/ui/theme"
)

// Source fetches one scored session.
type Source interface {
	Result(ctx context.Context, sessionID string) (*qz.Result, error)
}

type resultLoadedMsg struct {
	Result *qz.Result
	Err    error
}

// ResultScreen shows the score breakdown of one completed session.
type ResultScreen struct {
	screen.Lifetime
	src     Source
	id      string
	result  *qz.Result
	loading bool
	errMsg  string
	raw     bool
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)

// New creates a ResultScreen for sessionID.
func New(src Source, sessionID string) *ResultScreen {
	return &ResultScreen{Lifetime: screen.NewLifetime(), src: src, id: sessionID}
}

func (s *ResultScreen) Init() tea.Cmd { return s.load() }

func (s *ResultScreen) Title() string { return "Result" }

func (s *ResultScreen) Route() string { return "/history/" + url.PathEscape(s.id) }

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	raw := "Raw JSON"
	if s.raw {
		raw = "Summary"
	}
	return []layout.KeyHint{
		{Key: "d", Description: raw},
		{Key: "r", Description: "Reload"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resultLoadedMsg:
		s.loading = false
		if msg.Err != nil {
			s.errMsg = api.UserMessage(msg.Err, "Failed to load this result.")
			return s, nil
		}
		s.errMsg = ""
		s.result = msg.Result
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "d":
			s.raw = !s.raw
		case "r":
			return s, s.load()
		}
	}
	return s, nil
}

func (s *ResultScreen) load() tea.Cmd {
	if s.loading {
		return nil
	}
	s.loading = true
	id := s.id
	ctx := s.Context()
	return func() tea.Msg {
		res, err := s.src.Result(ctx, id)
		return resultLoadedMsg{Result: res, Err: err}
	}
}

func (s *ResultScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(components.Banners(s.errMsg, "", width))

	if s.result == nil {
		if s.loading {
			b.WriteString(components.Placeholder("Loading result...", width))
		} else {
			b.WriteString(components.Placeholder("Press r to try again.", width))
		}
		return b.String()
	}

	if s.raw {
		b.WriteString(components.Panel("Raw result", prettyJSON(s.result.Raw), width))
		return b.String()
	}
	b.WriteString(components.Panel(s.heading(), s.summary(), width))
	return b.String()
}

func (s *ResultScreen) heading() string {
	if s.result.SubtestName != "" {
		return s.result.SubtestName
	}
	return "Session " + s.result.SessionID
}

func (s *ResultScreen) summary() string {
	r := s.result
	var rows [][2]string

	if r.Score != nil {
		pct := *r.Score
		if r.Percentage != nil {
			pct = *r.Percentage
		}
		rows = append(rows, [2]string{"Score", theme.Score(pct).Render(history.FormatScore(*r.Score))})
	}
	if r.Percentage != nil {
		rows = append(rows, [2]string{"Percentage", theme.Score(*r.Percentage).Render(history.FormatScore(*r.Percentage) + "%")})
	}
	if r.CorrectAnswers != nil && r.TotalQuestions != nil {
		rows = append(rows, [2]string{"Correct", fmt.Sprintf("%d of %d", *r.CorrectAnswers, *r.TotalQuestions)})
	} else if r.TotalQuestions != nil {
		rows = append(rows, [2]string{"Questions", fmt.Sprintf("%d", *r.TotalQuestions)})
	}
	if r.TotalTimeSeconds != nil {
		rows = append(rows, [2]string{"Time taken", countdown.Format(int(*r.TotalTimeSeconds))})
	}
	if r.AverageTimePerQuestion != nil {
		rows = append(rows, [2]string{"Per question", fmt.Sprintf("%.1fs", *r.AverageTimePerQuestion)})
	}
	if r.CompletedAt != nil {
		rows = append(rows, [2]string{"Completed", stamp(*r.CompletedAt)})
	}
	if r.CreatedAt != nil {
		rows = append(rows, [2]string{"Started", stamp(*r.CreatedAt)})
	}

	if len(rows) == 0 {
		return theme.Hint.Render("The server sent no score details. Press d to see the raw result.")
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(theme.Label.Render(fmt.Sprintf("%-14s", row[0])))
		b.WriteString(theme.Body.Render(row[1]))
		b.WriteString("\n")
	}
	return b.String()
}

func stamp(t time.Time) string {
	return t.Local().Format("02 Jan 2006 15:04:05")
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return theme.Hint.Render("(empty)")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
