package screen

import "context"

// Lifetime scopes a screen's requests to its time on the stack. Embed it and
// the screen becomes an Unmounter whose requests are cancelled on leave.
type Lifetime struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewLifetime returns a live Lifetime.
func NewLifetime() Lifetime {
	ctx, cancel := context.WithCancel(context.Background())
	return Lifetime{ctx: ctx, cancel: cancel}
}

// Context is cancelled once the screen is unmounted.
func (l Lifetime) Context() context.Context {
	if l.ctx == nil {
		return context.Background()
	}
	return l.ctx
}

// Gone reports whether the screen has been unmounted.
func (l Lifetime) Gone() bool {
	return l.ctx != nil && l.ctx.Err() != nil
}

// Unmount cancels outstanding requests.
func (l Lifetime) Unmount() {
	if l.cancel != nil {
		l.cancel()
	}
}
