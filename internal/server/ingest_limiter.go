package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ingestRateLimiter caps trigger-event ingestion per source address with a
// token bucket per source. Chat relays burst when a raid hits, so the
// burst size matters more than the sustained rate.
type ingestRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIngestRateLimiter(eventsPerSecond float64, burst int) *ingestRateLimiter {
	return &ingestRateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Limit(eventsPerSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(5 * time.Minute),
	}
}

// Allow reports whether the source may submit another event right now.
func (l *ingestRateLimiter) Allow(source string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Now().After(l.cleanupAt) {
		l.cleanup()
		l.cleanupAt = time.Now().Add(5 * time.Minute)
	}

	entry, exists := l.limiters[source]
	if !exists {
		entry = &limiterEntry{
			limiter:  rate.NewLimiter(l.rate, l.burst),
			lastSeen: time.Now(),
		}
		l.limiters[source] = entry
	}

	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup removes limiters idle for 10 minutes. Must be called with mu held.
func (l *ingestRateLimiter) cleanup() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for source, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, source)
		}
	}
}
