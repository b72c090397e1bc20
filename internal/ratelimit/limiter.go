// Package ratelimit implements a per-identity sliding window request limiter.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter admits at most limit requests per identity within window.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	requests map[string][]time.Time
}

// New creates a limiter allowing limit requests per window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		requests: make(map[string][]time.Time),
	}
}

// Limit returns the configured request budget.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Allow records a request for identity if it is within budget.
func (l *Limiter) Allow(identity string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(identity, now)

	if len(recent) >= l.limit {
		return Decision{
			Allowed: false,
			Limit:   l.limit,
			ResetIn: l.window - now.Sub(recent[0]),
		}
	}

	recent = append(recent, now)
	l.requests[identity] = recent
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(recent),
		ResetIn:   l.window,
	}
}

// Status reports the identity's budget without recording a request.
func (l *Limiter) Status(identity string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(identity, now)
	d := Decision{
		Allowed:   len(recent) < l.limit,
		Limit:     l.limit,
		Remaining: max(0, l.limit-len(recent)),
		ResetIn:   l.window,
	}
	if len(recent) > 0 {
		d.ResetIn = l.window - now.Sub(recent[0])
	}
	return d
}

// Sweep drops identities with no requests inside the window.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for identity := range l.requests {
		l.prune(identity, now)
	}
}

// prune must be called with mu held.
func (l *Limiter) prune(identity string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	timestamps := l.requests[identity]
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.requests, identity)
		return nil
	}
	l.requests[identity] = kept
	return kept
}
