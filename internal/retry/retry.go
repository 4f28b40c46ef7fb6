// Package retry wraps outbound store calls with classify-and-backoff
// semantics: transient failures are re-attempted with capped exponential
// delays, everything else propagates immediately.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/ainetwork-ai/google-sheet-mcp/config"
)

// Config carries the backoff knobs for one executor.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultConfig returns the standard retry configuration: 3 retries,
// 1s base delay, 10s cap, doubling per attempt.
func DefaultConfig() Config {
	return Config{
		MaxRetries: config.DefaultRetryMaxRetries,
		BaseDelay:  config.DefaultRetryBaseDelay,
		MaxDelay:   config.DefaultRetryMaxDelay,
		Multiplier: config.DefaultRetryMultiplier,
	}
}

// Executor re-invokes failing operations according to its Config. It holds
// no state across Do invocations and is safe for concurrent use.
type Executor struct {
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs an Executor. Non-positive Config fields take the defaults,
// so a zero Config behaves exactly like DefaultConfig().
func New(cfg Config) *Executor {
	def := DefaultConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = def.Multiplier
	}
	return &Executor{cfg: cfg, sleep: sleepCtx}
}

// Do invokes fn until it succeeds, fails with a non-retryable error, or
// exhausts MaxRetries. Total invocations never exceed MaxRetries+1, and the
// last error propagates unmodified so callers keep the original cause.
func (e *Executor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == e.cfg.MaxRetries {
			return lastErr
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if err := e.sleep(ctx, e.Delay(attempt)); err != nil {
			return err
		}
	}
}

// Delay computes the backoff for a 0-indexed attempt:
// min(BaseDelay * Multiplier^attempt, MaxDelay). The sequence is
// monotonically non-decreasing and capped.
func (e *Executor) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(e.cfg.BaseDelay) * math.Pow(e.cfg.Multiplier, float64(attempt))
	if d > float64(e.cfg.MaxDelay) {
		return e.cfg.MaxDelay
	}
	return time.Duration(d)
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
