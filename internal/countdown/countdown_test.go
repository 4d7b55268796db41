package countdown

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestRemaining(t *testing.T) {
	tests := []struct {
		name string
		exp  time.Time
		now  time.Time
		want int
	}{
		{"future whole seconds", base.Add(90 * time.Second), base, 90},
		{"floors fractional", base.Add(2999 * time.Millisecond), base, 2},
		{"under one second", base.Add(400 * time.Millisecond), base, 0},
		{"equal", base, base, 0},
		{"past", base.Add(-time.Hour), base, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Remaining(tt.exp, tt.now); got != tt.want {
				t.Errorf("Remaining = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRemainingDecreasesOnePerSecond(t *testing.T) {
	exp := base.Add(30*time.Second + 250*time.Millisecond)
	prev := Remaining(exp, base)
	for i := 1; i <= 40; i++ {
		got := Remaining(exp, base.Add(time.Duration(i)*time.Second))
		if got < 0 {
			t.Fatalf("tick %d: negative remaining %d", i, got)
		}
		if prev > 0 && got != prev-1 {
			t.Fatalf("tick %d: remaining = %d, want %d", i, got, prev-1)
		}
		if prev == 0 && got != 0 {
			t.Fatalf("tick %d: remaining rose from 0 to %d", i, got)
		}
		prev = got
	}
}

func TestReadUnknownNeverExpires(t *testing.T) {
	r := Read(nil, base)
	if r.Known || r.Expired() {
		t.Errorf("Read(nil) = %+v, want unknown and not expired", r)
	}
	if r.String() != "--:--" {
		t.Errorf("String = %q", r.String())
	}
}

func TestPastExpiryExpiredOnFirstEvaluation(t *testing.T) {
	exp := base.Add(-5 * time.Second)
	tr := NewTracker(&exp)

	r, fired := tr.Observe(base)
	if r.Seconds != 0 || !r.Expired() {
		t.Errorf("reading = %+v, want expired at 0", r)
	}
	if !fired {
		t.Error("expected expiry to fire on first observation")
	}
}

func TestTrackerFiresExactlyOnce(t *testing.T) {
	exp := base.Add(5 * time.Second)
	tr := NewTracker(&exp)

	fires := 0
	var last Reading
	for i := 0; i <= 5; i++ {
		r, fired := tr.Observe(base.Add(time.Duration(i) * time.Second))
		if fired {
			fires++
		}
		last = r
	}
	if last.Seconds != 0 || !last.Expired() {
		t.Errorf("after 5 ticks: %+v, want expired at 0", last)
	}
	if fires != 1 {
		t.Errorf("fires after 5 ticks = %d, want 1", fires)
	}

	for i := 6; i < 20; i++ {
		if _, fired := tr.Observe(base.Add(time.Duration(i) * time.Second)); fired {
			t.Fatalf("tracker fired again at tick %d", i)
		}
	}
	if !tr.Fired() {
		t.Error("Fired() = false after expiry")
	}
}

func TestTrackerUnknownNeverFires(t *testing.T) {
	tr := NewTracker(nil)
	for i := 0; i < 10; i++ {
		if _, fired := tr.Observe(base.Add(time.Duration(i) * time.Hour)); fired {
			t.Fatal("unknown expiry must not fire")
		}
	}
}

func TestTrackerCopiesExpiry(t *testing.T) {
	exp := base.Add(10 * time.Second)
	tr := NewTracker(&exp)
	exp = base.Add(-time.Hour)

	if r, _ := tr.Observe(base); r.Seconds != 10 {
		t.Errorf("tracker followed caller mutation: %+v", r)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{75, "1:15"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseInstant(t *testing.T) {
	local := time.Date(2026, 3, 1, 10, 30, 0, 0, time.Local)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339 utc", `"2026-03-01T10:00:00Z"`, base},
		{"rfc3339 nano", `"2026-03-01T10:00:00.000000Z"`, base},
		{"offset", `"2026-03-01T17:00:00+07:00"`, base},
		{"no zone is local", `"2026-03-01T10:30:00"`, local},
		{"space separated", `"2026-03-01 10:30:00"`, local},
		{"epoch seconds", "1772359200", base},
		{"epoch millis", "1772359200000", base},
		{"epoch as string", `"1772359200"`, base},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInstant(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("ParseInstant(%s): %v", tt.raw, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseInstant(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseInstantRejects(t *testing.T) {
	for _, raw := range []string{``, `null`, `""`, `"soon"`, `true`, `-5`, `{}`} {
		if _, err := ParseInstant(json.RawMessage(raw)); err == nil {
			t.Errorf("ParseInstant(%q) succeeded, want error", raw)
		}
	}
}

func TestTicksStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := func() time.Time { return base }

	ch := Ticks(ctx, 5*time.Millisecond, clock)

	select {
	case got := <-ch:
		if !got.Equal(base) {
			t.Errorf("tick = %v, want %v", got, base)
		}
	case <-time.After(time.Second):
		t.Fatal("no immediate tick")
	}

	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}
