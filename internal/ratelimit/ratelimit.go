// Package ratelimit bounds requests per principal over a sliding time
// window. The window state lives in an injected Store so multi-instance
// deployments can plug in a shared backend; the in-memory store here is the
// default for a single process.
package ratelimit

import (
	"time"
)

// Defaults protecting the generation backend.
const (
	DefaultLimit  = 20
	DefaultWindow = 5 * time.Minute
)

// Store holds per-principal request instants. Admit must atomically drop
// instants before cutoff, and if fewer than limit remain, record now and
// report true. Implementations only need mutual exclusion per principal.
type Store interface {
	Admit(principalID string, cutoff, now time.Time, limit int) bool
}

// Limiter applies the sliding-window check.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithStore replaces the default in-memory window store.
func WithStore(s Store) Option {
	return func(l *Limiter) { l.store = s }
}

// WithClock replaces the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter admitting at most limit requests per principal per
// window. Non-positive arguments fall back to the defaults.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.store == nil {
		l.store = NewMemoryStore()
	}
	return l
}

// Allow reports whether another request from the principal may proceed,
// recording it if so. It must run before any expensive work.
func (l *Limiter) Allow(principalID string) bool {
	now := l.now()
	return l.store.Admit(principalID, now.Add(-l.window), now, l.limit)
}
