// Package timer provides the shared deadline every branch-and-bound search
// polls cooperatively, generalizing the ctx.Err() checks every teacher
// solver (ga, sa, ts, aco, pso) repeats inline into one reusable type.
package timer

import (
	"context"
	"time"
)

// Timer wraps a context.Context deadline. The zero value is not usable;
// construct with New or NewUnbounded.
type Timer struct {
	ctx      context.Context
	cancel   context.CancelFunc
	deadline time.Time
	bounded  bool
}

// New returns a Timer that expires after d.
func New(ctx context.Context, d time.Duration) *Timer {
	c, cancel := context.WithTimeout(ctx, d)
	return &Timer{ctx: c, cancel: cancel, deadline: time.Now().Add(d), bounded: true}
}

// NewUnbounded returns a Timer with no deadline; Expired never reports
// true on its own, but the caller's ctx can still cancel it.
func NewUnbounded(ctx context.Context) *Timer {
	c, cancel := context.WithCancel(ctx)
	return &Timer{ctx: c, cancel: cancel, bounded: false}
}

// Context returns the underlying context, for passing to goroutines spawned
// by the outer branch-and-bound search.
func (t *Timer) Context() context.Context {
	return t.ctx
}

// Expired reports whether the timer's deadline or the parent context have
// fired.
func (t *Timer) Expired() bool {
	return t.ctx.Err() != nil
}

// Remaining returns the time left before expiry. It is meaningless (and
// returns the largest representable duration) for an unbounded timer.
func (t *Timer) Remaining() time.Duration {
	if !t.bounded {
		return time.Duration(1<<63 - 1)
	}
	return time.Until(t.deadline)
}

// Stop releases the timer's resources. Callers must call Stop (typically
// via defer) once the search using it has finished.
func (t *Timer) Stop() {
	t.cancel()
}
