package history

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ambis/miniquiz/internal/api"
	qz "github.com/ambis/miniquiz/internal/quiz"
	"github.com/ambis/miniquiz/internal/router"
	"github.com/ambis/miniquiz/internal/screen"
	"github.com/ambis/miniquiz/internal/ui/components"
	"github.com/ambis/miniquiz/internal/ui/layout"
	"github.com/ambis/miniquiz/internal/ui/theme"
)

// DefaultPageSize is used when New is given a non-positive size.
const DefaultPageSize = 20

// Source lists completed sessions.
type Source interface {
	History(ctx context.Context, limit, offset int) ([]qz.HistoryItem, error)
}

type historyLoadedMsg struct {
	Offset int
	Items  []qz.HistoryItem
	Err    error
}

// HistoryScreen displays past quiz sessions, newest first.
type HistoryScreen struct {
	screen.Lifetime
	src      Source
	pageSize int
	offset   int
	items    []qz.HistoryItem
	menu     components.Menu
	loaded   bool
	loading  bool
	errMsg   string
	notice   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)
var _ screen.Resumer = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(src Source, pageSize int, notice string) *HistoryScreen {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &HistoryScreen{
		Lifetime: screen.NewLifetime(),
		src:      src,
		pageSize: pageSize,
		notice:   notice,
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return s.load()
}

// Resume reissues a page fetch whose result was lost while a result screen
// was on top.
func (s *HistoryScreen) Resume() tea.Cmd {
	if s.loading {
		return s.load()
	}
	return nil
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) Route() string { return "/history" }

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
	}
	if s.hasNext() {
		hints = append(hints, layout.KeyHint{Key: "n", Description: "Older"})
	}
	if s.offset > 0 {
		hints = append(hints, layout.KeyHint{Key: "p", Description: "Newer"})
	}
	return append(hints,
		layout.KeyHint{Key: "r", Description: "Reload"},
		layout.KeyHint{Key: "Esc", Description: "Back"},
	)
}

func (s *HistoryScreen) hasNext() bool {
	return len(s.items) == s.pageSize
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Offset != s.offset {
			return s, nil
		}
		s.loading = false
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = api.UserMessage(msg.Err, "Failed to load your history.")
			return s, nil
		}
		s.errMsg = ""
		s.setItems(msg.Items)
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			s.notice = ""
			return s, s.load()
		case "n":
			if s.hasNext() && !s.loading {
				s.offset += s.pageSize
				return s, s.load()
			}
			return s, nil
		case "p":
			if s.offset > 0 && !s.loading {
				s.offset = max(s.offset-s.pageSize, 0)
				return s, s.load()
			}
			return s, nil
		}
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *HistoryScreen) load() tea.Cmd {
	s.loading = true
	offset, limit := s.offset, s.pageSize
	ctx := s.Context()
	return func() tea.Msg {
		items, err := s.src.History(ctx, limit, offset)
		return historyLoadedMsg{Offset: offset, Items: items, Err: err}
	}
}

func (s *HistoryScreen) setItems(items []qz.HistoryItem) {
	s.items = items
	menuItems := make([]components.MenuItem, len(items))
	for i, it := range items {
		id := it.SessionID
		menuItems[i] = components.MenuItem{
			Label:    rowLabel(it),
			Detail:   scoreLabel(it.Score),
			Disabled: id == "",
			Action: func() tea.Cmd {
				return router.Navigate("/history/"+url.PathEscape(id), router.Push)
			},
		}
	}
	s.menu = components.NewMenu(menuItems)
}

func rowLabel(it qz.HistoryItem) string {
	date := "unknown date"
	if it.Timestamp != nil {
		date = it.Timestamp.Local().Format("02 Jan 2006 15:04")
	}
	name := it.SubtestName
	if name == "" {
		name = "Quiz"
	}
	return fmt.Sprintf("%-18s %s", date, name)
}

func scoreLabel(score *float64) string {
	if score == nil {
		return theme.Hint.Render("no score")
	}
	return theme.Score(*score).Render(FormatScore(*score))
}

// FormatScore prints whole scores without decimals.
func FormatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func (s *HistoryScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(components.Banners(s.errMsg, s.notice, width))

	switch {
	case !s.loaded:
		b.WriteString(components.Placeholder("Loading history...", width))
		return b.String()
	case s.errMsg != "" && len(s.items) == 0:
		b.WriteString(components.Placeholder("Press r to try again.", width))
		return b.String()
	case len(s.items) == 0 && s.offset == 0:
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No completed quizzes yet. Start one from the dashboard!"))
		return b.String()
	}

	page := fmt.Sprintf("Showing %d-%d", s.offset+1, s.offset+len(s.items))
	if len(s.items) == 0 {
		page = "No older sessions."
	}
	list := s.menu.ViewWindow(max(height-12, 3)) + "\n" + theme.Hint.Render(page)
	if s.loading {
		list += "  " + theme.Hint.Render("Loading...")
	}
	b.WriteString(components.Panel("Completed quizzes", list, width))
	return b.String()
}
