package utils

import (
	"sync"
	"time"
)

// RateLimiter is a sliding one-minute window over call timestamps, sized for
// free-tier provider quotas (Alpha Vantage allows 5 calls/min).
type RateLimiter struct {
	callsPerMinute int
	calls          []time.Time
	now            func() time.Time
	mu             sync.Mutex
}

// -----------------------------------------------------------------------------

func NewRateLimiter(callsPerMinute int) *RateLimiter {
	return &RateLimiter{
		callsPerMinute: callsPerMinute,
		now:            time.Now,
	}
}

// NewRateLimiterWithClock injects a clock for deterministic tests.
func NewRateLimiterWithClock(callsPerMinute int, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		callsPerMinute: callsPerMinute,
		now:            now,
	}
}

// -----------------------------------------------------------------------------

// Allow records and permits a call when the window has room, or rejects it
// without recording.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	if len(r.calls) >= r.callsPerMinute {
		return false
	}

	r.calls = append(r.calls, now)
	return true
}

// -----------------------------------------------------------------------------

// WaitTime returns how long until the next call would be permitted.
func (r *RateLimiter) WaitTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	if len(r.calls) < r.callsPerMinute {
		return 0
	}

	oldest := r.calls[0]
	return time.Minute - now.Sub(oldest)
}

// -----------------------------------------------------------------------------

// prune drops calls older than one minute. Caller holds the lock.
func (r *RateLimiter) prune(now time.Time) {
	kept := r.calls[:0]
	for _, t := range r.calls {
		if now.Sub(t) < time.Minute {
			kept = append(kept, t)
		}
	}
	r.calls = kept
}
