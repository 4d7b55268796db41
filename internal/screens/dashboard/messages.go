package dashboard

import (
	"time"

	"github.com/ambis/miniquiz/internal/lifecycle"
	"github.com/ambis/miniquiz/internal/quiz"
)

// subtestsLoadedMsg carries the catalogue fetch result.
type subtestsLoadedMsg struct {
	Subtests []quiz.Subtest
	Err      error
}

// activeLoadedMsg carries the active-session fetch result.
type activeLoadedMsg struct {
	Ticket  lifecycle.Ticket
	Session *quiz.Session
	Err     error
}

// startDoneMsg carries the result of starting a subtest.
type startDoneMsg struct {
	Ticket  lifecycle.Ticket
	Session *quiz.Session
	Err     error
}

// tickMsg drives the active-session countdown. Ticks from an older chain
// carry a stale gen and are dropped.
type tickMsg struct {
	gen uint64
	at  time.Time
}
