package guard

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of a rate-limit check. RetryAfterSec is only
// meaningful when Allowed is false.
type Decision struct {
	Allowed       bool
	RetryAfterSec int64
}

type window struct {
	count     int
	resetAtMs int64
}

// RateLimiter implements a fixed-window per-key limiter. Every attempt
// counts against the current window, allowed or not; when the window
// expires the counter resets.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]window
	limit   int
	period  time.Duration
	nowFn   func() time.Time
}

// NewRateLimiter creates a rate limiter allowing limit attempts per period.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]window),
		limit:   limit,
		period:  period,
		nowFn:   time.Now,
	}
}

// Check records an attempt for key and reports whether it is within limits.
func (rl *RateLimiter) Check(_ context.Context, key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	nowMs := rl.nowFn().UnixMilli()

	w, ok := rl.windows[key]
	if !ok || nowMs >= w.resetAtMs {
		w = window{count: 0, resetAtMs: nowMs + rl.period.Milliseconds()}
	}
	w.count++
	rl.windows[key] = w

	if w.count > rl.limit {
		retry := (w.resetAtMs - nowMs + 999) / 1000
		if retry < 1 {
			retry = 1
		}
		return Decision{Allowed: false, RetryAfterSec: retry}
	}
	return Decision{Allowed: true}
}

// Start runs the background sweeper until ctx is cancelled, evicting
// expired windows once per period so idle keys do not accumulate.
func (rl *RateLimiter) Start(ctx context.Context) {
	ticker := time.NewTicker(rl.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	nowMs := rl.nowFn().UnixMilli()
	for key, w := range rl.windows {
		if nowMs >= w.resetAtMs {
			delete(rl.windows, key)
		}
	}
}

func (rl *RateLimiter) trackedKeys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}
