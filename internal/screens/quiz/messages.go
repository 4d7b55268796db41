package quiz

import (
	"time"

	"github.com/ambis/miniquiz/internal/lifecycle"
	qz "github.com/ambis/miniquiz/internal/quiz"
)

// sessionLoadedMsg is sent when the active session fetch completes.
type sessionLoadedMsg struct {
	Ticket  lifecycle.Ticket
	Session *qz.Session
	Err     error
}

// submitDoneMsg is sent when the server has answered a submit.
type submitDoneMsg struct {
	Ticket lifecycle.Ticket
	Err    error
}

// tickMsg is sent every second to update the countdown.
type tickMsg struct {
	gen uint64
	at  time.Time
}
