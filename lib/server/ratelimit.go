package server

import (
	"sync"
	"time"
)

// rateLimiter enforces a per-client sliding one-minute window.
type rateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	requests map[string][]time.Time
	now      func() time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		limit:    limit,
		window:   time.Minute,
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// allow records a request from ip and reports whether it fits in the window.
func (l *rateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.requests[ip][:0]
	for _, at := range l.requests[ip] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}

	if len(recent) >= l.limit {
		l.requests[ip] = recent

		return false
	}

	l.requests[ip] = append(recent, now)

	return true
}
