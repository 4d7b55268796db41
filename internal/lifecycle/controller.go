// Package lifecycle drives one view's quiz session: loading it, keeping its
// countdown honest, recording answers and submitting them. The controller
// never performs I/O from its Begin/Apply methods; callers run the network
// call in between, so the same logic serves the Bubble Tea loop and the
// blocking CLI helpers.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ambis/miniquiz/internal/api"
	"github.com/ambis/miniquiz/internal/countdown"
	"github.com/ambis/miniquiz/internal/quiz"
)

// State is the controller's position in the session lifecycle.
type State int

const (
	StateLoading State = iota
	StateNoSession
	StateActive
	StateExpired
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateNoSession:
		return "no session"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Effect is a navigation the view must perform after an update.
type Effect int

const (
	EffectNone Effect = iota
	// EffectLeaveQuiz: the session just expired; leave the quiz view.
	EffectLeaveQuiz
	// EffectLogin: credentials were rejected; show the login view.
	EffectLogin
	// EffectShowHistory: answers were accepted; show the history view.
	EffectShowHistory
	// EffectOpenQuiz: a session is running (new or resumed); open the quiz view.
	EffectOpenQuiz
)

// Guard errors returned by Begin methods.
var (
	ErrBusy      = errors.New("operation already in progress")
	ErrNoSession = errors.New("no active session")
	ErrExpired   = errors.New("session has expired")
	ErrNoAnswers = errors.New("no answers selected")
)

// QuizAPI is the slice of *quiz.Client the controller drives.
type QuizAPI interface {
	FetchActive(ctx context.Context) (*quiz.Session, error)
	Start(ctx context.Context, subtestID string) (*quiz.Session, error)
	Submit(ctx context.Context, answers quiz.AnswerSet) error
}

// Credentials is told when the server rejects the token.
type Credentials interface {
	Clear()
}

type op int

const (
	opLoad op = iota
	opStart
	opSubmit
)

// Ticket identifies one in-flight operation. Results presented with a
// ticket from before the last Unmount are discarded.
type Ticket struct {
	op  op
	gen uint64
}

// Pending is a submit that passed the guards.
type Pending struct {
	Ticket
	Answers quiz.AnswerSet
}

// Controller holds the lifecycle state of a single view. It is not safe
// for concurrent use; the Bubble Tea update loop serialises access.
type Controller struct {
	api   QuizAPI
	creds Credentials
	log   zerolog.Logger
	clock countdown.Clock

	state   State
	session *quiz.Session
	answers quiz.AnswerSet
	tracker *countdown.Tracker
	reading countdown.Reading

	errMsg string
	notice string

	inflight  map[op]bool
	gen       uint64
	unmounted bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now for the blocking helpers.
func WithClock(clock countdown.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// New creates a Controller in the Loading state.
func New(qa QuizAPI, creds Credentials, opts ...Option) *Controller {
	c := &Controller{
		api:      qa,
		creds:    creds,
		log:      zerolog.Nop(),
		clock:    time.Now,
		state:    StateLoading,
		answers:  quiz.AnswerSet{},
		inflight: map[op]bool{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Session returns the loaded session, or nil.
func (c *Controller) Session() *quiz.Session { return c.session }

// Answers returns a copy of the current selections.
func (c *Controller) Answers() quiz.AnswerSet { return c.answers.Clone() }

// Answer returns the selection for question number.
func (c *Controller) Answer(number int) (string, bool) {
	v, ok := c.answers[number]
	return v, ok
}

// Reading returns the countdown as of the last evaluation.
func (c *Controller) Reading() countdown.Reading { return c.reading }

// Err returns the current error banner, or "".
func (c *Controller) Err() string { return c.errMsg }

// Notice returns the current informational banner, or "".
func (c *Controller) Notice() string { return c.notice }

// Loading reports whether a load is in flight.
func (c *Controller) Loading() bool { return c.inflight[opLoad] }

// Submitting reports whether a submit is in flight.
func (c *Controller) Submitting() bool { return c.inflight[opSubmit] }

// Starting reports whether a start is in flight.
func (c *Controller) Starting() bool { return c.inflight[opStart] }

// DismissBanners clears the error and notice.
func (c *Controller) DismissBanners() {
	c.errMsg = ""
	c.notice = ""
}

// Unmount invalidates every outstanding ticket and stops the countdown.
// Results arriving afterwards change nothing.
func (c *Controller) Unmount() {
	c.gen++
	c.unmounted = true
	c.inflight = map[op]bool{}
}

// Suspend invalidates every outstanding ticket while the view is hidden.
// Unlike Unmount the controller stays usable, so the view can begin the
// same operations again once it is shown.
func (c *Controller) Suspend() {
	c.gen++
	c.inflight = map[op]bool{}
}

func (c *Controller) begin(o op) (Ticket, error) {
	if c.inflight[o] {
		return Ticket{}, ErrBusy
	}
	c.inflight[o] = true
	return Ticket{op: o, gen: c.gen}, nil
}

// finish reports whether a result for t should be applied.
func (c *Controller) finish(t Ticket) bool {
	if t.gen != c.gen || c.unmounted {
		c.log.Debug().Int("op", int(t.op)).Msg("discarding stale result")
		return false
	}
	delete(c.inflight, t.op)
	return true
}

// BeginLoad starts fetching the active session.
func (c *Controller) BeginLoad() (Ticket, error) {
	t, err := c.begin(opLoad)
	if err != nil {
		return t, err
	}
	if c.session == nil {
		c.state = StateLoading
	}
	c.errMsg = ""
	return t, nil
}

// ApplyLoad records a fetch result.
func (c *Controller) ApplyLoad(t Ticket, s *quiz.Session, err error, now time.Time) Effect {
	if !c.finish(t) {
		return EffectNone
	}
	if err != nil {
		return c.fail(err, "Failed to load the quiz session.")
	}
	if s == nil {
		c.session = nil
		c.tracker = nil
		c.reading = countdown.Reading{}
		c.answers = quiz.AnswerSet{}
		c.state = StateNoSession
		return EffectNone
	}

	c.adopt(s)
	return c.evaluate(now)
}

// adopt installs s. Reloading the same session keeps its answers and its
// expiry tracker, so the expiry event still fires only once per session.
func (c *Controller) adopt(s *quiz.Session) {
	same := sameSession(c.session, s)
	c.session = s
	if same {
		for n, opt := range c.answers {
			if !s.HasOption(n, opt) {
				delete(c.answers, n)
			}
		}
		return
	}
	c.answers = quiz.AnswerSet{}
	c.tracker = countdown.NewTracker(s.ExpiresAt)
	c.state = StateActive
}

// sameSession matches by id. Without ids, a session is known by its expiry,
// which the server sets once per session.
func sameSession(prev, next *quiz.Session) bool {
	switch {
	case prev == nil:
		return false
	case prev.ID != "" || next.ID != "":
		return prev.ID == next.ID
	case prev.ExpiresAt != nil && next.ExpiresAt != nil:
		return prev.ExpiresAt.Equal(*next.ExpiresAt)
	}
	return false
}

// evaluate advances the countdown to now.
func (c *Controller) evaluate(now time.Time) Effect {
	if c.tracker == nil {
		return EffectNone
	}
	r, fired := c.tracker.Observe(now)
	c.reading = r
	if r.Expired() {
		c.state = StateExpired
	} else {
		c.state = StateActive
	}
	if fired {
		c.log.Info().Str("session_id", c.session.ID).Msg("quiz session expired")
		return EffectLeaveQuiz
	}
	return EffectNone
}

// Tick re-evaluates the countdown. It returns EffectLeaveQuiz exactly once
// per session, on the first tick that finds it expired.
func (c *Controller) Tick(now time.Time) Effect {
	if c.unmounted || c.session == nil {
		return EffectNone
	}
	if c.state != StateActive && c.state != StateExpired {
		return EffectNone
	}
	return c.evaluate(now)
}

// Select records option for question number. It is refused once the
// session has expired or when the option is not offered.
func (c *Controller) Select(now time.Time, number int, option string) (bool, Effect) {
	if c.session == nil {
		return false, EffectNone
	}
	eff := c.Tick(now)
	if c.state != StateActive {
		return false, eff
	}
	if !c.session.HasOption(number, option) {
		return false, eff
	}
	c.answers.Select(number, option)
	return true, eff
}

// BeginSubmit checks the guards and returns the answers to send. The clock
// is re-read first, so a session that expired between ticks is refused.
func (c *Controller) BeginSubmit(now time.Time) (Pending, Effect, error) {
	if c.inflight[opSubmit] {
		return Pending{}, EffectNone, ErrBusy
	}
	if c.session == nil {
		c.errMsg = "There is no active session to submit."
		return Pending{}, EffectNone, ErrNoSession
	}
	eff := c.Tick(now)
	if c.state == StateExpired {
		c.errMsg = "Time is up. Answers can no longer be submitted."
		return Pending{}, eff, ErrExpired
	}
	if c.state != StateActive {
		return Pending{}, eff, ErrNoSession
	}
	if len(c.answers) == 0 {
		c.errMsg = "Choose at least one answer before submitting."
		return Pending{}, eff, ErrNoAnswers
	}

	t, err := c.begin(opSubmit)
	if err != nil {
		return Pending{}, eff, err
	}
	c.errMsg = ""
	return Pending{Ticket: t, Answers: c.answers.Clone()}, eff, nil
}

// ApplySubmit records the outcome of a submit.
func (c *Controller) ApplySubmit(t Ticket, err error) Effect {
	if !c.finish(t) {
		return EffectNone
	}
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return c.authFailed()
		}
		c.errMsg = api.UserMessage(err, "Failed to submit answers.")
		return EffectNone
	}

	c.log.Info().Str("session_id", c.session.ID).Int("answers", len(c.answers)).Msg("answers submitted")
	c.session = nil
	c.tracker = nil
	c.reading = countdown.Reading{}
	c.answers = quiz.AnswerSet{}
	c.state = StateNoSession
	c.notice = "Answers submitted."
	return EffectShowHistory
}

// BeginStart starts a new session. Only one start may be in flight.
func (c *Controller) BeginStart(subtestID string) (Ticket, error) {
	t, err := c.begin(opStart)
	if err != nil {
		return t, err
	}
	c.errMsg = ""
	c.notice = ""
	c.log.Debug().Str("subtest_id", subtestID).Msg("starting quiz")
	return t, nil
}

// ApplyStart records the outcome of a start. A conflict means a session is
// already running: the user is sent to it with a notice, not an error.
func (c *Controller) ApplyStart(t Ticket, s *quiz.Session, err error) Effect {
	if !c.finish(t) {
		return EffectNone
	}
	switch {
	case err == nil:
		if s != nil {
			c.log.Info().Str("session_id", s.ID).Msg("quiz session started")
		}
		return EffectOpenQuiz
	case errors.Is(err, api.ErrUnauthorized):
		return c.authFailed()
	case errors.Is(err, api.ErrConflict):
		c.notice = "You already have an active session. Resuming it."
		return EffectOpenQuiz
	default:
		c.errMsg = api.UserMessage(err, "Failed to start the quiz.")
		return EffectNone
	}
}

// fail handles a load failure. A failed refresh of a loaded session only
// raises the banner; the session and its countdown stay as they were.
func (c *Controller) fail(err error, fallback string) Effect {
	if errors.Is(err, api.ErrUnauthorized) {
		return c.authFailed()
	}
	if c.session == nil {
		c.state = StateError
	}
	c.errMsg = api.UserMessage(err, fallback)
	c.log.Warn().Err(err).Msg("quiz session load failed")
	return EffectNone
}

func (c *Controller) authFailed() Effect {
	if c.creds != nil {
		c.creds.Clear()
	}
	c.state = StateError
	c.errMsg = api.UserMessage(api.ErrUnauthorized, "")
	return EffectLogin
}

// Load fetches the active session and applies it.
func (c *Controller) Load(ctx context.Context) (Effect, error) {
	t, err := c.BeginLoad()
	if err != nil {
		return EffectNone, err
	}
	s, err := c.api.FetchActive(ctx)
	return c.ApplyLoad(t, s, err, c.clock()), err
}

// Start begins a session for subtestID and applies the outcome.
func (c *Controller) Start(ctx context.Context, subtestID string) (Effect, error) {
	t, err := c.BeginStart(subtestID)
	if err != nil {
		return EffectNone, err
	}
	s, err := c.api.Start(ctx, subtestID)
	return c.ApplyStart(t, s, err), err
}

// Submit sends the current answers and applies the outcome.
func (c *Controller) Submit(ctx context.Context) (Effect, error) {
	p, eff, err := c.BeginSubmit(c.clock())
	if err != nil {
		return eff, err
	}
	err = c.api.Submit(ctx, p.Answers)
	if e := c.ApplySubmit(p.Ticket, err); e != EffectNone {
		eff = e
	}
	return eff, err
}
