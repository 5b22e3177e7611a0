// Package ratelimit implements a rolling-window event limiter keyed by an
// arbitrary string. Keys never interact; a key blocked at time T becomes
// eligible again once its oldest counted event falls out of the trailing
// window.
package ratelimit

import (
	"sync"
	"time"
)

type Limiter struct {
	mu       sync.Mutex
	max      int
	interval time.Duration
	events   map[string][]time.Time
	now      func() time.Time
}

func New(max int, interval time.Duration) *Limiter {
	return &Limiter{
		max:      max,
		interval: interval,
		events:   make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Limit reports whether key has exhausted its budget of max events within
// the trailing interval. A blocked call is not recorded, so a key recovers
// as soon as its oldest counted event expires.
func (l *Limiter) Limit(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.interval)

	l.evictStale(cutoff)

	valid := l.events[key][:0]
	for _, ts := range l.events[key] {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= l.max {
		l.events[key] = valid
		return true
	}

	l.events[key] = append(valid, now)
	return false
}

// Clear forgets all recorded events for key.
func (l *Limiter) Clear(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.events, key)
}

// evictStale drops keys whose most recent event is outside the window so
// the table does not grow without bound. Caller holds the lock.
func (l *Limiter) evictStale(cutoff time.Time) {
	for key, events := range l.events {
		if len(events) == 0 || !events[len(events)-1].After(cutoff) {
			delete(l.events, key)
		}
	}
}
