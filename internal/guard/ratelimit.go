// Package guard holds pre-purchase admission checks.
package guard

import (
	"context"
	"sync"
	"time"

	"github.com/pickclub/platform/internal/clock"
	"github.com/pickclub/platform/internal/domain"
)

// RateLimiter implements a sliding window rate limiter keyed by caller.
// Time comes from the injected clock so tests can drive the window.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	clock   clock.Clock
}

// NewRateLimiter creates a rate limiter allowing limit hits per window.
func NewRateLimiter(limit int, window time.Duration, clk clock.Clock) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		clock:   clk,
	}
}

// Check records a hit for the key when allowed. A denied check does not
// consume a slot; RetryAfter is the time until the oldest hit in the window
// expires.
func (rl *RateLimiter) Check(_ context.Context, key string) domain.GuardResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	cutoff := now.Add(-rl.window)

	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return domain.GuardResult{
			Allowed:    false,
			RetryAfter: valid[0].Add(rl.window).Sub(now),
			Guard:      "rate_limiter",
		}
	}

	rl.windows[key] = append(valid, now)
	return domain.GuardResult{Allowed: true}
}
