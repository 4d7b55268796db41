package quiz

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/ambis/miniquiz/internal/countdown"
	"github.com/ambis/miniquiz/internal/lifecycle"
	"github.com/ambis/miniquiz/internal/router"
	"github.com/ambis/miniquiz/internal/screen"
	"github.com/ambis/miniquiz/internal/ui/components"
	"github.com/ambis/miniquiz/internal/ui/layout"
)

const expiredNotice = "Time is up. Your quiz session has expired."

// QuizScreen implements screen.Screen for the running quiz session.
type QuizScreen struct {
	screen.Lifetime
	api   lifecycle.QuizAPI
	ctl   *lifecycle.Controller
	clock countdown.Clock
	log   zerolog.Logger

	current    int // index into the session's questions
	choices    components.Choices
	confirming bool
	left       bool // a navigation away has been issued
	ticking    bool // a tick chain for tickGen is armed
	notice     string
	tickGen    uint64
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.StatusProvider = (*QuizScreen)(nil)
var _ screen.BackInterceptor = (*QuizScreen)(nil)

// New creates a QuizScreen. notice is shown above the first question, e.g.
// when an existing session was resumed.
func New(api lifecycle.QuizAPI, creds lifecycle.Credentials, clock countdown.Clock, log zerolog.Logger, notice string) *QuizScreen {
	if clock == nil {
		clock = time.Now
	}
	return &QuizScreen{
		Lifetime: screen.NewLifetime(),
		api:      api,
		ctl:      lifecycle.New(api, creds, lifecycle.WithClock(clock), lifecycle.WithLogger(log)),
		clock:    clock,
		log:      log,
		notice:   notice,
	}
}

// Init fetches the session. The countdown starts once one is adopted.
func (s *QuizScreen) Init() tea.Cmd {
	return s.load()
}

func (s *QuizScreen) Title() string {
	if sess := s.ctl.Session(); sess != nil && sess.SubtestName != "" {
		return sess.SubtestName
	}
	return "Quiz"
}

func (s *QuizScreen) Route() string { return "/quiz" }

// Unmount stops the countdown and discards results still in flight.
func (s *QuizScreen) Unmount() {
	s.stopTicks()
	s.ctl.Unmount()
	s.Lifetime.Unmount()
}

// Back cancels the submit confirmation instead of leaving the quiz.
func (s *QuizScreen) Back() bool {
	if s.confirming {
		s.confirming = false
		return true
	}
	return false
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	if s.confirming {
		return []layout.KeyHint{
			{Key: "Y", Description: "Submit"},
			{Key: "N", Description: "Keep answering"},
		}
	}
	switch s.ctl.State() {
	case lifecycle.StateActive:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Option"},
			{Key: "A-Z/Enter", Description: "Answer"},
			{Key: "←→", Description: "Question"},
			{Key: "Ctrl+S", Description: "Submit"},
			{Key: "Ctrl+R", Description: "Refresh"},
			{Key: "Esc", Description: "Dashboard"},
		}
	default:
		return []layout.KeyHint{
			{Key: "r", Description: "Refresh"},
			{Key: "Esc", Description: "Dashboard"},
		}
	}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionLoadedMsg:
		eff := s.ctl.ApplyLoad(msg.Ticket, msg.Session, msg.Err, s.clock())
		s.syncChoices()
		if nav := s.follow(eff); nav != nil {
			return s, nav
		}
		return s, s.syncTicks()

	case submitDoneMsg:
		return s, s.follow(s.ctl.ApplySubmit(msg.Ticket, msg.Err))

	case tickMsg:
		return s.handleTick(msg)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *QuizScreen) handleTick(msg tickMsg) (screen.Screen, tea.Cmd) {
	if msg.gen != s.tickGen || s.Gone() || s.left {
		return s, nil
	}
	if eff := s.ctl.Tick(msg.at); eff != lifecycle.EffectNone {
		return s, s.follow(eff)
	}
	if s.ctl.State() != lifecycle.StateActive {
		s.stopTicks()
		return s, nil
	}
	return s, s.tick()
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirming {
		switch key {
		case "y", "Y", "enter":
			s.confirming = false
			return s, s.submit()
		case "n", "N":
			s.confirming = false
		}
		return s, nil
	}

	if key == "ctrl+r" {
		return s, s.refresh()
	}

	if s.ctl.State() != lifecycle.StateActive {
		if key == "r" {
			return s, s.refresh()
		}
		return s, nil
	}

	switch key {
	case "ctrl+s":
		if len(s.ctl.Answers()) == 0 {
			// Let the controller raise the banner.
			return s, s.submit()
		}
		s.confirming = true
		return s, nil
	case "left", "shift+tab", "[":
		s.move(-1)
		return s, nil
	case "right", "tab", "]":
		s.move(1)
		return s, nil
	}

	var picked string
	var ok bool
	s.choices, picked, ok = s.choices.Update(msg)
	if !ok {
		return s, nil
	}
	sess := s.ctl.Session()
	if sess == nil || s.current >= len(sess.Questions) {
		return s, nil
	}
	accepted, eff := s.ctl.Select(s.clock(), sess.Questions[s.current].Number, picked)
	if accepted {
		s.choices.Chosen = picked
	}
	return s, s.follow(eff)
}

func (s *QuizScreen) move(delta int) {
	sess := s.ctl.Session()
	if sess == nil || len(sess.Questions) == 0 {
		return
	}
	s.current = min(max(s.current+delta, 0), len(sess.Questions)-1)
	s.syncChoices()
}

// syncChoices points the option list at the current question.
func (s *QuizScreen) syncChoices() {
	sess := s.ctl.Session()
	if sess == nil || len(sess.Questions) == 0 {
		s.current = 0
		s.choices = components.Choices{}
		return
	}
	s.current = min(s.current, len(sess.Questions)-1)
	q := sess.Questions[s.current]
	chosen, _ := s.ctl.Answer(q.Number)
	s.choices = components.NewChoices(q.Options, chosen)
}

// follow turns a controller effect into navigation.
func (s *QuizScreen) follow(eff lifecycle.Effect) tea.Cmd {
	switch eff {
	case lifecycle.EffectLeaveQuiz, lifecycle.EffectLogin, lifecycle.EffectShowHistory:
		s.left = true
		s.confirming = false
		s.stopTicks()
	}
	switch eff {
	case lifecycle.EffectLeaveQuiz:
		return router.NavigateNotice("/dashboard", router.Reset, expiredNotice)
	case lifecycle.EffectLogin:
		return router.NavigateNotice("/login", router.Reset, s.ctl.Err())
	case lifecycle.EffectShowHistory:
		return tea.Sequence(
			router.Navigate("/dashboard", router.Reset),
			router.NavigateNotice("/history", router.Push, s.ctl.Notice()),
		)
	}
	return nil
}

func (s *QuizScreen) refresh() tea.Cmd {
	s.notice = ""
	s.ctl.DismissBanners()
	s.left = false
	return s.load()
}

func (s *QuizScreen) load() tea.Cmd {
	t, err := s.ctl.BeginLoad()
	if err != nil {
		return nil
	}
	ctx := s.Context()
	return func() tea.Msg {
		sess, err := s.api.FetchActive(ctx)
		return sessionLoadedMsg{Ticket: t, Session: sess, Err: err}
	}
}

func (s *QuizScreen) submit() tea.Cmd {
	p, eff, err := s.ctl.BeginSubmit(s.clock())
	if err != nil {
		s.log.Debug().Err(err).Msg("submit refused")
		return s.follow(eff)
	}
	s.notice = ""
	ctx := s.Context()
	return func() tea.Msg {
		return submitDoneMsg{Ticket: p.Ticket, Err: s.api.Submit(ctx, p.Answers)}
	}
}

// syncTicks runs the countdown only while a session is active.
func (s *QuizScreen) syncTicks() tea.Cmd {
	want := s.ctl.State() == lifecycle.StateActive && !s.left
	switch {
	case want && !s.ticking:
		s.tickGen++
		s.ticking = true
		return s.tick()
	case !want:
		s.stopTicks()
	}
	return nil
}

func (s *QuizScreen) stopTicks() {
	if s.ticking {
		s.tickGen++
		s.ticking = false
	}
}

func (s *QuizScreen) tick() tea.Cmd {
	gen := s.tickGen
	return tea.Tick(time.Second, func(at time.Time) tea.Msg {
		return tickMsg{gen: gen, at: at}
	})
}
