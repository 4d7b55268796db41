package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ambis/miniquiz/internal/api"
	"github.com/ambis/miniquiz/internal/quiz"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeQuiz is a scripted QuizAPI.
type fakeQuiz struct {
	active    *quiz.Session
	activeErr error
	startErr  error
	submitErr error

	fetches   int
	submits   int
	submitted quiz.AnswerSet
}

func (f *fakeQuiz) FetchActive(context.Context) (*quiz.Session, error) {
	f.fetches++
	return f.active, f.activeErr
}

func (f *fakeQuiz) Start(context.Context, string) (*quiz.Session, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.active, nil
}

func (f *fakeQuiz) Submit(_ context.Context, a quiz.AnswerSet) error {
	f.submits++
	f.submitted = a
	return f.submitErr
}

type fakeCreds struct{ cleared int }

func (f *fakeCreds) Clear() { f.cleared++ }

// clock is a manually advanced time source.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func session(expiresIn time.Duration) *quiz.Session {
	exp := t0.Add(expiresIn)
	return &quiz.Session{
		ID:          "s-1",
		SubtestName: "Numerical",
		ExpiresAt:   &exp,
		Questions: []quiz.Question{
			{Number: 1, Text: "1+1?", Options: []string{"A", "B", "C"}},
			{Number: 3, Text: "2+2?", Options: []string{"A", "B", "C"}},
		},
	}
}

func newController(fq *fakeQuiz, creds *fakeCreds, clk *clock) *Controller {
	return New(fq, creds, WithClock(clk.Now))
}

func TestLoadActiveSession(t *testing.T) {
	clk := &clock{now: t0}
	c := newController(&fakeQuiz{active: session(90 * time.Second)}, &fakeCreds{}, clk)

	if c.State() != StateLoading {
		t.Fatalf("initial state = %v, want loading", c.State())
	}
	eff, err := c.Load(context.Background())
	if err != nil || eff != EffectNone {
		t.Fatalf("Load = (%v, %v)", eff, err)
	}
	if c.State() != StateActive {
		t.Errorf("state = %v, want active", c.State())
	}
	if r := c.Reading(); !r.Known || r.Seconds != 90 {
		t.Errorf("reading = %+v, want 90s", r)
	}
}

func TestEmptyFetchMeansNoSession(t *testing.T) {
	clk := &clock{now: t0}
	c := newController(&fakeQuiz{}, &fakeCreds{}, clk)

	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.State() != StateNoSession {
		t.Errorf("state = %v, want no session", c.State())
	}
	clk.Advance(time.Hour)
	if eff := c.Tick(clk.Now()); eff != EffectNone {
		t.Errorf("Tick with no session = %v", eff)
	}
	if c.Reading().Known {
		t.Error("no timer should run without a session")
	}
}

func TestAlreadyExpiredOnLoadLeavesOnce(t *testing.T) {
	clk := &clock{now: t0}
	c := newController(&fakeQuiz{active: session(-10 * time.Second)}, &fakeCreds{}, clk)

	eff, _ := c.Load(context.Background())
	if eff != EffectLeaveQuiz {
		t.Errorf("Load effect = %v, want leave quiz", eff)
	}
	if c.State() != StateExpired || c.Reading().Seconds != 0 {
		t.Errorf("state = %v reading = %+v", c.State(), c.Reading())
	}
	for i := 0; i < 5; i++ {
		clk.Advance(time.Second)
		if eff := c.Tick(clk.Now()); eff != EffectNone {
			t.Fatalf("tick %d effect = %v", i, eff)
		}
	}
}

func TestFiveSecondCountdown(t *testing.T) {
	clk := &clock{now: t0}
	c := newController(&fakeQuiz{active: session(5 * time.Second)}, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())

	leaves := 0
	prev := c.Reading().Seconds
	for i := 1; i <= 5; i++ {
		clk.Advance(time.Second)
		if c.Tick(clk.Now()) == EffectLeaveQuiz {
			leaves++
		}
		got := c.Reading().Seconds
		if got != prev-1 {
			t.Errorf("tick %d: remaining = %d, want %d", i, got, prev-1)
		}
		prev = got
	}

	if c.Reading().Seconds != 0 || c.State() != StateExpired {
		t.Errorf("after 5 ticks: state = %v reading = %+v", c.State(), c.Reading())
	}
	if leaves != 1 {
		t.Errorf("leave events = %d, want 1", leaves)
	}

	for i := 0; i < 10; i++ {
		clk.Advance(time.Second)
		if c.Tick(clk.Now()) == EffectLeaveQuiz {
			t.Fatal("expiry fired twice")
		}
	}
}

func TestSelectLastWriteWins(t *testing.T) {
	clk := &clock{now: t0}
	c := newController(&fakeQuiz{active: session(time.Minute)}, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())

	if ok, _ := c.Select(clk.Now(), 3, "B"); !ok {
		t.Fatal("select (3,B) refused")
	}
	if ok, _ := c.Select(clk.Now(), 3, "C"); !ok {
		t.Fatal("select (3,C) refused")
	}

	got := c.Answers()
	if len(got) != 1 || got[3] != "C" {
		t.Errorf("answers = %v, want {3:C}", got)
	}
}

func TestSelectRejectsUnknownQuestionOrOption(t *testing.T) {
	clk := &clock{now: t0}
	c := newController(&fakeQuiz{active: session(time.Minute)}, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())

	if ok, _ := c.Select(clk.Now(), 2, "A"); ok {
		t.Error("question 2 does not exist")
	}
	if ok, _ := c.Select(clk.Now(), 1, "Z"); ok {
		t.Error("option Z is not offered")
	}
	if len(c.Answers()) != 0 {
		t.Errorf("answers = %v, want empty", c.Answers())
	}
}

func TestSelectRejectedAfterExpiry(t *testing.T) {
	clk := &clock{now: t0}
	c := newController(&fakeQuiz{active: session(2 * time.Second)}, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())
	c.Select(clk.Now(), 1, "A")

	// No tick has run since expiry; Select must notice on its own.
	clk.Advance(3 * time.Second)
	ok, eff := c.Select(clk.Now(), 3, "B")
	if ok {
		t.Error("selection accepted after expiry")
	}
	if eff != EffectLeaveQuiz {
		t.Errorf("effect = %v, want leave quiz", eff)
	}
	if got := c.Answers(); len(got) != 1 {
		t.Errorf("answers changed after expiry: %v", got)
	}
}

func TestSubmitNeverCalledOnceExpired(t *testing.T) {
	clk := &clock{now: t0}
	fq := &fakeQuiz{active: session(2 * time.Second)}
	c := newController(fq, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())
	c.Select(clk.Now(), 1, "A")

	clk.Advance(2500 * time.Millisecond)
	eff, err := c.Submit(context.Background())

	if !errors.Is(err, ErrExpired) {
		t.Errorf("Submit err = %v, want ErrExpired", err)
	}
	if eff != EffectLeaveQuiz {
		t.Errorf("effect = %v, want leave quiz", eff)
	}
	if fq.submits != 0 {
		t.Errorf("submit invoked %d times after expiry", fq.submits)
	}
	if c.Err() == "" {
		t.Error("expected an error banner")
	}
}

func TestSubmitRequiresAnswer(t *testing.T) {
	clk := &clock{now: t0}
	fq := &fakeQuiz{active: session(time.Minute)}
	c := newController(fq, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())

	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrNoAnswers) {
		t.Errorf("err = %v, want ErrNoAnswers", err)
	}
	if fq.submits != 0 {
		t.Error("submit should not be sent")
	}
}

func TestSubmitWithoutSession(t *testing.T) {
	c := newController(&fakeQuiz{}, &fakeCreds{}, &clock{now: t0})
	if _, _, err := c.BeginSubmit(t0); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestSubmitSuccess(t *testing.T) {
	clk := &clock{now: t0}
	fq := &fakeQuiz{active: session(time.Minute)}
	c := newController(fq, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())
	c.Select(clk.Now(), 1, "B")
	c.Select(clk.Now(), 3, "C")

	eff, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if eff != EffectShowHistory {
		t.Errorf("effect = %v, want show history", eff)
	}
	if fq.submitted[1] != "B" || fq.submitted[3] != "C" || len(fq.submitted) != 2 {
		t.Errorf("submitted = %v", fq.submitted)
	}
	if c.State() != StateNoSession || c.Notice() == "" {
		t.Errorf("state = %v notice = %q", c.State(), c.Notice())
	}
}

func TestSubmitInFlightBlocksSecond(t *testing.T) {
	clk := &clock{now: t0}
	c := newController(&fakeQuiz{active: session(time.Minute)}, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())
	c.Select(clk.Now(), 1, "A")

	p, _, err := c.BeginSubmit(clk.Now())
	if err != nil {
		t.Fatalf("first BeginSubmit: %v", err)
	}
	if _, _, err := c.BeginSubmit(clk.Now()); !errors.Is(err, ErrBusy) {
		t.Errorf("second BeginSubmit err = %v, want ErrBusy", err)
	}
	if !c.Submitting() {
		t.Error("Submitting() = false while in flight")
	}

	// Selections after BeginSubmit do not leak into the pending payload.
	c.Select(clk.Now(), 3, "C")
	if len(p.Answers) != 1 {
		t.Errorf("pending answers = %v", p.Answers)
	}
}

func TestSubmitServerErrorKeepsSession(t *testing.T) {
	clk := &clock{now: t0}
	fq := &fakeQuiz{
		active:    session(time.Minute),
		submitErr: api.NewError(400, "answers malformed"),
	}
	c := newController(fq, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())
	c.Select(clk.Now(), 1, "A")

	eff, err := c.Submit(context.Background())
	if err == nil || eff != EffectNone {
		t.Fatalf("Submit = (%v, %v)", eff, err)
	}
	if c.State() != StateActive || c.Session() == nil {
		t.Errorf("state = %v, session kept = %v", c.State(), c.Session() != nil)
	}
	if c.Err() != "answers malformed" {
		t.Errorf("Err = %q", c.Err())
	}
	if c.Submitting() {
		t.Error("submit flag not released")
	}
}

func TestStartConflictResumesWithoutError(t *testing.T) {
	clk := &clock{now: t0}
	fq := &fakeQuiz{
		active:   session(time.Minute),
		startErr: api.NewError(409, "active session exists"),
	}
	dashboard := newController(fq, &fakeCreds{}, clk)

	eff, _ := dashboard.Start(context.Background(), "sub-1")
	if eff != EffectOpenQuiz {
		t.Fatalf("Start effect = %v, want open quiz", eff)
	}
	if dashboard.Err() != "" {
		t.Errorf("conflict raised an error banner: %q", dashboard.Err())
	}
	if dashboard.Notice() == "" {
		t.Error("expected a resume notice")
	}

	// The quiz view performs a fresh fetch and lands on the running session.
	view := newController(fq, &fakeCreds{}, clk)
	if _, err := view.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if view.State() != StateActive || view.Err() != "" {
		t.Errorf("state = %v err = %q, want active without error", view.State(), view.Err())
	}
}

func TestStartOtherErrorStays(t *testing.T) {
	fq := &fakeQuiz{startErr: api.NewError(503, "")}
	c := newController(fq, &fakeCreds{}, &clock{now: t0})

	eff, err := c.Start(context.Background(), "sub-1")
	if err == nil || eff != EffectNone {
		t.Errorf("Start = (%v, %v), want error and no navigation", eff, err)
	}
	if c.Err() == "" {
		t.Error("expected an error banner")
	}
}

func TestStartSingleFlight(t *testing.T) {
	c := newController(&fakeQuiz{}, &fakeCreds{}, &clock{now: t0})
	if _, err := c.BeginStart("a"); err != nil {
		t.Fatalf("BeginStart: %v", err)
	}
	if _, err := c.BeginStart("b"); !errors.Is(err, ErrBusy) {
		t.Errorf("second BeginStart err = %v, want ErrBusy", err)
	}
}

func TestUnauthorizedClearsCredentials(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *Controller, fq *fakeQuiz) Effect
	}{
		{"load", func(c *Controller, fq *fakeQuiz) Effect {
			fq.activeErr = api.NewError(401, "token expired")
			eff, _ := c.Load(context.Background())
			return eff
		}},
		{"start", func(c *Controller, fq *fakeQuiz) Effect {
			fq.startErr = api.NewError(401, "token expired")
			eff, _ := c.Start(context.Background(), "x")
			return eff
		}},
		{"submit", func(c *Controller, fq *fakeQuiz) Effect {
			fq.active = session(time.Minute)
			_, _ = c.Load(context.Background())
			c.Select(t0, 1, "A")
			fq.submitErr = api.NewError(401, "token expired")
			eff, _ := c.Submit(context.Background())
			return eff
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fq := &fakeQuiz{}
			creds := &fakeCreds{}
			c := newController(fq, creds, &clock{now: t0})

			if eff := tt.run(c, fq); eff != EffectLogin {
				t.Errorf("effect = %v, want login", eff)
			}
			if creds.cleared == 0 {
				t.Error("credentials were not cleared")
			}
			if c.State() != StateError {
				t.Errorf("state = %v, want error", c.State())
			}
		})
	}
}

func TestLoadFailure(t *testing.T) {
	fq := &fakeQuiz{activeErr: api.NewError(504, "")}
	c := newController(fq, &fakeCreds{}, &clock{now: t0})

	eff, err := c.Load(context.Background())
	if err == nil || eff != EffectNone {
		t.Fatalf("Load = (%v, %v)", eff, err)
	}
	if c.State() != StateError || c.Err() == "" {
		t.Errorf("state = %v err = %q", c.State(), c.Err())
	}
}

func TestRefreshFailureKeepsSession(t *testing.T) {
	clk := &clock{now: t0}
	fq := &fakeQuiz{active: session(time.Minute)}
	c := newController(fq, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())
	c.Select(clk.Now(), 1, "A")

	fq.activeErr = api.NewError(502, "")
	_, _ = c.Load(context.Background())

	if c.State() != StateActive || c.Err() == "" {
		t.Errorf("state = %v err = %q, want active with banner", c.State(), c.Err())
	}
	if got, _ := c.Answer(1); got != "A" {
		t.Error("answers lost on failed refresh")
	}
}

func TestReloadSameSessionKeepsAnswersAndSingleExpiry(t *testing.T) {
	clk := &clock{now: t0}
	fq := &fakeQuiz{active: session(3 * time.Second)}
	c := newController(fq, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())
	c.Select(clk.Now(), 1, "A")

	// Refresh the same session.
	_, _ = c.Load(context.Background())
	if got, _ := c.Answer(1); got != "A" {
		t.Errorf("answer lost on refresh: %q", got)
	}

	clk.Advance(5 * time.Second)
	if c.Tick(clk.Now()) != EffectLeaveQuiz {
		t.Fatal("expected expiry")
	}
	if eff, _ := c.Load(context.Background()); eff == EffectLeaveQuiz {
		t.Error("reloading an expired session fired expiry again")
	}
}

func TestNewSessionReplacesAnswers(t *testing.T) {
	clk := &clock{now: t0}
	fq := &fakeQuiz{active: session(time.Minute)}
	c := newController(fq, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())
	c.Select(clk.Now(), 1, "A")

	next := session(time.Minute)
	next.ID = "s-2"
	fq.active = next
	_, _ = c.Load(context.Background())

	if len(c.Answers()) != 0 {
		t.Errorf("answers = %v, want empty for new session", c.Answers())
	}
}

func TestUnknownExpiryNeverLeaves(t *testing.T) {
	clk := &clock{now: t0}
	s := session(0)
	s.ExpiresAt = nil
	c := newController(&fakeQuiz{active: s}, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())

	for i := 0; i < 100; i++ {
		clk.Advance(time.Minute)
		if c.Tick(clk.Now()) != EffectNone {
			t.Fatal("unknown expiry forced navigation")
		}
	}
	if c.State() != StateActive {
		t.Errorf("state = %v, want active", c.State())
	}
}

func TestStaleResultsDiscardedAfterUnmount(t *testing.T) {
	clk := &clock{now: t0}
	c := newController(&fakeQuiz{}, &fakeCreds{}, clk)

	ticket, err := c.BeginLoad()
	if err != nil {
		t.Fatalf("BeginLoad: %v", err)
	}
	c.Unmount()

	if eff := c.ApplyLoad(ticket, session(-time.Second), nil, clk.Now()); eff != EffectNone {
		t.Errorf("stale load produced effect %v", eff)
	}
	if c.Session() != nil || c.State() != StateLoading {
		t.Errorf("stale load changed state: %v", c.State())
	}
	if eff := c.Tick(clk.Now()); eff != EffectNone {
		t.Errorf("tick after unmount = %v", eff)
	}
}

func TestLoadSingleFlight(t *testing.T) {
	c := newController(&fakeQuiz{}, &fakeCreds{}, &clock{now: t0})
	if _, err := c.BeginLoad(); err != nil {
		t.Fatalf("BeginLoad: %v", err)
	}
	if _, err := c.BeginLoad(); !errors.Is(err, ErrBusy) {
		t.Errorf("second BeginLoad err = %v, want ErrBusy", err)
	}
	if !c.Loading() {
		t.Error("Loading() = false while in flight")
	}
}

func TestSuspendDropsResultsButStaysUsable(t *testing.T) {
	clk := &clock{now: t0}
	fq := &fakeQuiz{active: session(time.Minute)}
	c := newController(fq, &fakeCreds{}, clk)

	load, err := c.BeginLoad()
	if err != nil {
		t.Fatalf("BeginLoad: %v", err)
	}
	start, err := c.BeginStart("1")
	if err != nil {
		t.Fatalf("BeginStart: %v", err)
	}
	c.Suspend()

	if c.Loading() || c.Starting() {
		t.Error("in-flight flags survived Suspend")
	}
	if eff := c.ApplyStart(start, session(time.Minute), nil); eff != EffectNone {
		t.Errorf("stale start produced effect %v", eff)
	}
	if eff := c.ApplyLoad(load, session(time.Minute), nil, clk.Now()); eff != EffectNone || c.Session() != nil {
		t.Errorf("stale load applied: effect %v, session %v", eff, c.Session())
	}

	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load after Suspend: %v", err)
	}
	if c.State() != StateActive {
		t.Errorf("state = %v, want active", c.State())
	}
	if _, err := c.BeginStart("1"); err != nil {
		t.Errorf("BeginStart after Suspend: %v", err)
	}
}

func TestReloadSessionWithoutIDMatchesOnExpiry(t *testing.T) {
	clk := &clock{now: t0}
	anon := session(3 * time.Second)
	anon.ID = ""
	fq := &fakeQuiz{active: anon}
	c := newController(fq, &fakeCreds{}, clk)
	_, _ = c.Load(context.Background())
	c.Select(clk.Now(), 1, "A")

	clk.Advance(5 * time.Second)
	if c.Tick(clk.Now()) != EffectLeaveQuiz {
		t.Fatal("expected expiry")
	}

	// The same payload again, decoded afresh.
	again := *anon
	exp := *anon.ExpiresAt
	again.ExpiresAt = &exp
	fq.active = &again
	if eff, _ := c.Load(context.Background()); eff == EffectLeaveQuiz {
		t.Error("reloading an id-less expired session fired expiry again")
	}
	if got, _ := c.Answer(1); got != "A" {
		t.Errorf("answer lost on refresh: %q", got)
	}

	other := session(time.Minute)
	other.ID = ""
	fq.active = other
	_, _ = c.Load(context.Background())
	if len(c.Answers()) != 0 || c.State() != StateActive {
		t.Errorf("different expiry should start fresh: answers %v state %v", c.Answers(), c.State())
	}
}
