// Package countdown derives quiz time remaining from a server-issued
// expiry instant. Nothing here keeps a running counter: every reading is
// computed from the expiry and the current time, so a late or skipped tick
// never makes the display drift.
package countdown

import (
	"fmt"
	"time"
)

// Remaining returns whole seconds until expiresAt, floored, never negative.
func Remaining(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// Reading is the timer state at one instant. A Reading with Known=false
// means the session carried no usable expiry; it is never expired.
type Reading struct {
	Seconds int
	Known   bool
}

// Read evaluates expiresAt at now. A nil expiry yields an unknown reading.
func Read(expiresAt *time.Time, now time.Time) Reading {
	if expiresAt == nil {
		return Reading{}
	}
	return Reading{Seconds: Remaining(*expiresAt, now), Known: true}
}

// Expired reports whether the reading is known and at zero.
func (r Reading) Expired() bool {
	return r.Known && r.Seconds == 0
}

// String renders the reading as m:ss, or "--:--" when unknown.
func (r Reading) String() string {
	if !r.Known {
		return "--:--"
	}
	return Format(r.Seconds)
}

// Format renders seconds as m:ss (or h:mm:ss past an hour).
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
