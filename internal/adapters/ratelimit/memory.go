// Package ratelimit provides per-customer request rate limiting behind
// ports.RateLimiter: an in-memory sliding window for single-instance
// deployments and a Redis-backed window for scaled ones.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a process-local sliding-window limiter. State lives only in
// this instance; under a horizontally scaled deployment the cap is enforced
// per instance.
type MemoryLimiter struct {
	mu          sync.Mutex
	requests    map[string][]time.Time
	window      time.Duration
	maxRequests int
	now         func() time.Time
}

func NewMemoryLimiter(window time.Duration, maxRequests int) *MemoryLimiter {
	return &MemoryLimiter{
		requests:    make(map[string][]time.Time),
		window:      window,
		maxRequests: maxRequests,
		now:         time.Now,
	}
}

// IsRateLimited prunes timestamps older than the window, then either records
// the attempt (under the limit) or rejects it without consuming a slot.
func (l *MemoryLimiter) IsRateLimited(_ context.Context, identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	valid := l.prune(identifier, now)

	if len(valid) >= l.maxRequests {
		l.requests[identifier] = valid
		return true
	}

	l.requests[identifier] = append(valid, now)
	return false
}

// Remaining reports the identifier's unused slots without recording an attempt.
func (l *MemoryLimiter) Remaining(_ context.Context, identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	valid := l.prune(identifier, l.now())
	l.requests[identifier] = valid

	remaining := l.maxRequests - len(valid)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// prune must be called with the mutex held.
func (l *MemoryLimiter) prune(identifier string, now time.Time) []time.Time {
	windowStart := now.Add(-l.window)
	timestamps := l.requests[identifier]

	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	return valid
}

// Cleanup evicts identifiers whose timestamps have all expired, bounding
// key-space growth. Run it periodically from a ticker goroutine.
func (l *MemoryLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	windowStart := l.now().Add(-l.window)
	for identifier, timestamps := range l.requests {
		live := false
		for _, ts := range timestamps {
			if ts.After(windowStart) {
				live = true
				break
			}
		}
		if !live {
			delete(l.requests, identifier)
		}
	}
}
