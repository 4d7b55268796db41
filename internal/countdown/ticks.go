package countdown

import (
	"context"
	"time"
)

// Clock supplies the current time. time.Now satisfies it.
type Clock func() time.Time

// Ticks delivers clock() immediately and then once per interval until ctx
// is cancelled, at which point the channel is closed. A slow receiver
// drops ticks rather than queueing them; since readings are derived from
// the clock, a dropped tick only delays the display.
func Ticks(ctx context.Context, interval time.Duration, clock Clock) <-chan time.Time {
	if clock == nil {
		clock = time.Now
	}
	out := make(chan time.Time, 1)

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		send := func() bool {
			select {
			case out <- clock():
			case <-ctx.Done():
				return false
			default:
			}
			return true
		}

		if !send() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !send() {
					return
				}
			}
		}
	}()

	return out
}
