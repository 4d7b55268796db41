package dashboard

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/ambis/miniquiz/internal/api"
	"github.com/ambis/miniquiz/internal/countdown"
	"github.com/ambis/miniquiz/internal/lifecycle"
	"github.com/ambis/miniquiz/internal/quiz"
	"github.com/ambis/miniquiz/internal/router"
	"github.com/ambis/miniquiz/internal/screen"
	"github.com/ambis/miniquiz/internal/ui/components"
	"github.com/ambis/miniquiz/internal/ui/layout"
)

// QuizService is what the dashboard needs from *quiz.Client.
type QuizService interface {
	lifecycle.QuizAPI
	Subtests(ctx context.Context) ([]quiz.Subtest, error)
}

// DashboardScreen lists subtests and shows the running session, if any.
type DashboardScreen struct {
	screen.Lifetime
	svc   QuizService
	ctl   *lifecycle.Controller
	clock countdown.Clock
	log   zerolog.Logger

	menu            components.Menu
	subtests        []quiz.Subtest
	subtestsLoaded  bool
	subtestsPending bool // catalogue fetch in flight
	subtestsErr     string
	notice          string
	tickGen         uint64
}

var _ screen.Screen = (*DashboardScreen)(nil)
var _ screen.KeyHintProvider = (*DashboardScreen)(nil)
var _ screen.Resumer = (*DashboardScreen)(nil)
var _ screen.Suspender = (*DashboardScreen)(nil)

// New creates a DashboardScreen. notice is shown once at the top.
func New(svc QuizService, creds lifecycle.Credentials, clock countdown.Clock, log zerolog.Logger, notice string) *DashboardScreen {
	if clock == nil {
		clock = time.Now
	}
	return &DashboardScreen{
		Lifetime: screen.NewLifetime(),
		svc:      svc,
		ctl:      lifecycle.New(svc, creds, lifecycle.WithClock(clock), lifecycle.WithLogger(log)),
		clock:    clock,
		log:      log,
		notice:   notice,
	}
}

func (s *DashboardScreen) Init() tea.Cmd {
	return tea.Batch(s.loadSubtests(), s.loadActive(), s.restartTicks())
}

// Resume refreshes the session card when the dashboard is exposed again.
// A catalogue fetch lost while covered is issued again.
func (s *DashboardScreen) Resume() tea.Cmd {
	cmds := []tea.Cmd{s.loadActive(), s.restartTicks()}
	if s.subtestsPending {
		cmds = append(cmds, s.loadSubtests())
	}
	return tea.Batch(cmds...)
}

// Suspend stops the countdown and abandons loads and starts in flight.
func (s *DashboardScreen) Suspend() {
	s.tickGen++
	s.ctl.Suspend()
}

// Unmount stops the countdown and drops pending results.
func (s *DashboardScreen) Unmount() {
	s.tickGen++
	s.ctl.Unmount()
	s.Lifetime.Unmount()
}

func (s *DashboardScreen) Title() string { return "Dashboard" }

func (s *DashboardScreen) Route() string { return "/dashboard" }

func (s *DashboardScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Subtest"},
		{Key: "Enter", Description: "Start"},
	}
	if s.ctl.State() == lifecycle.StateActive {
		hints = append(hints, layout.KeyHint{Key: "c", Description: "Continue"})
	}
	return append(hints,
		layout.KeyHint{Key: "h", Description: "History"},
		layout.KeyHint{Key: "p", Description: "Profile"},
		layout.KeyHint{Key: "r", Description: "Refresh"},
	)
}

func (s *DashboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case subtestsLoadedMsg:
		return s.handleSubtests(msg)

	case activeLoadedMsg:
		eff := s.ctl.ApplyLoad(msg.Ticket, msg.Session, msg.Err, s.clock())
		return s, s.follow(eff)

	case startDoneMsg:
		eff := s.ctl.ApplyStart(msg.Ticket, msg.Session, msg.Err)
		return s, s.follow(eff)

	case tickMsg:
		if msg.gen != s.tickGen || s.Gone() {
			return s, nil
		}
		// Expiry is only shown here; leaving the quiz is the quiz view's job.
		s.ctl.Tick(msg.at)
		return s, s.tick()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *DashboardScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "c":
		if s.ctl.State() == lifecycle.StateActive {
			return s, router.Navigate("/quiz", router.Push)
		}
		return s, nil
	case "h":
		return s, router.Navigate("/history", router.Push)
	case "p":
		return s, router.Navigate("/profile", router.Push)
	case "r":
		s.notice = ""
		s.ctl.DismissBanners()
		return s, tea.Batch(s.loadSubtests(), s.loadActive())
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *DashboardScreen) handleSubtests(msg subtestsLoadedMsg) (screen.Screen, tea.Cmd) {
	s.subtestsLoaded = true
	s.subtestsPending = false
	if msg.Err != nil {
		if errors.Is(msg.Err, api.ErrUnauthorized) {
			return s, router.NavigateNotice("/login", router.Reset, api.UserMessage(msg.Err, ""))
		}
		s.subtestsErr = api.UserMessage(msg.Err, "Failed to load subtests.")
		return s, nil
	}
	s.subtestsErr = ""
	s.subtests = msg.Subtests

	items := make([]components.MenuItem, len(msg.Subtests))
	for i, st := range msg.Subtests {
		id := st.ID
		items[i] = components.MenuItem{
			Label:  st.Name,
			Detail: st.Description,
			Action: func() tea.Cmd { return s.start(id) },
		}
	}
	s.menu.SetItems(items)
	return s, nil
}

// follow turns a controller effect into navigation.
func (s *DashboardScreen) follow(eff lifecycle.Effect) tea.Cmd {
	switch eff {
	case lifecycle.EffectOpenQuiz:
		return router.NavigateNotice("/quiz", router.Push, s.ctl.Notice())
	case lifecycle.EffectLogin:
		return router.NavigateNotice("/login", router.Reset, s.ctl.Err())
	}
	return nil
}

func (s *DashboardScreen) start(subtestID string) tea.Cmd {
	t, err := s.ctl.BeginStart(subtestID)
	if err != nil {
		return nil
	}
	s.notice = ""
	ctx := s.Context()
	return func() tea.Msg {
		sess, err := s.svc.Start(ctx, subtestID)
		return startDoneMsg{Ticket: t, Session: sess, Err: err}
	}
}

func (s *DashboardScreen) loadSubtests() tea.Cmd {
	s.subtestsPending = true
	ctx := s.Context()
	return func() tea.Msg {
		subtests, err := s.svc.Subtests(ctx)
		return subtestsLoadedMsg{Subtests: subtests, Err: err}
	}
}

func (s *DashboardScreen) loadActive() tea.Cmd {
	t, err := s.ctl.BeginLoad()
	if err != nil {
		return nil
	}
	ctx := s.Context()
	return func() tea.Msg {
		sess, err := s.svc.FetchActive(ctx)
		return activeLoadedMsg{Ticket: t, Session: sess, Err: err}
	}
}

func (s *DashboardScreen) restartTicks() tea.Cmd {
	s.tickGen++
	return s.tick()
}

func (s *DashboardScreen) tick() tea.Cmd {
	gen := s.tickGen
	return tea.Tick(time.Second, func(at time.Time) tea.Msg {
		return tickMsg{gen: gen, at: at}
	})
}
