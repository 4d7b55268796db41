package countdown

import "time"

// Tracker turns successive readings of one session into a single expiry
// event. Observe reports fired=true exactly once: on the first observation
// whose reading is expired. A Tracker is bound to one expiry; a new session
// needs a new Tracker.
type Tracker struct {
	expiresAt *time.Time
	last      Reading
	fired     bool
}

// NewTracker returns a Tracker for the given expiry (nil means unknown).
func NewTracker(expiresAt *time.Time) *Tracker {
	var exp *time.Time
	if expiresAt != nil {
		t := *expiresAt
		exp = &t
	}
	return &Tracker{expiresAt: exp}
}

// Observe evaluates the timer at now.
func (t *Tracker) Observe(now time.Time) (r Reading, fired bool) {
	r = Read(t.expiresAt, now)
	t.last = r
	if r.Expired() && !t.fired {
		t.fired = true
		return r, true
	}
	return r, false
}

// Last returns the most recent reading without re-evaluating the clock.
func (t *Tracker) Last() Reading {
	return t.last
}

// Fired reports whether the expiry event has already been delivered.
func (t *Tracker) Fired() bool {
	return t.fired
}

// ExpiresAt returns the tracked expiry, or nil when unknown.
func (t *Tracker) ExpiresAt() *time.Time {
	return t.expiresAt
}
