// Package ratelimit bounds outbound Sheets API calls with a sliding-window
// admission check: at most maxCalls admissions per rolling window for one
// Limiter instance.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/ainetwork-ai/google-sheet-mcp/config"
)

// Limiter is a sliding-window admission controller. Instances are
// constructed explicitly and passed by reference into every operation;
// independent Limiters never share state. The zero value is not usable.
type Limiter struct {
	mu       sync.Mutex
	maxCalls int
	window   time.Duration
	calls    []time.Time

	clock func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a Limiter admitting at most maxCalls per rolling window.
// Non-positive arguments fall back to the configured defaults.
func New(maxCalls int, window time.Duration) *Limiter {
	if maxCalls <= 0 {
		maxCalls = config.DefaultRateLimitMaxCalls
	}
	if window <= 0 {
		window = config.DefaultRateLimitWindow
	}
	return &Limiter{
		maxCalls: maxCalls,
		window:   window,
		clock:    time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until the caller may proceed under the window invariant. It
// purges timestamps older than now-window, admits immediately when capacity
// remains, and otherwise sleeps until the oldest recorded call ages out of
// the window before re-evaluating. The loop is iterative so sustained
// contention cannot grow the stack, and each wake re-checks from the top
// because concurrent callers may have consumed the freed capacity.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.clock()
		l.purge(now)
		if len(l.calls) < l.maxCalls {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.calls[0])
		l.mu.Unlock()

		// Clock skew or a concurrent purge can drive the wait to zero or
		// below; proceed straight to the re-check.
		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// purge drops recorded calls older than the window. Callers hold l.mu.
func (l *Limiter) purge(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

// Pending returns the number of calls currently recorded inside the window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.purge(l.clock())
	return len(l.calls)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
