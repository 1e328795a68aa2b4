package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientLimiter rate limits requests per client key (typically the remote IP)
type ClientLimiter struct {
	limiters     map[string]*clientEntry
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
	idleTTL      time.Duration
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter creates a limiter allowing requestsPerSecond per client
// with the given burst
func NewClientLimiter(requestsPerSecond float64, burst int) *ClientLimiter {
	if burst <= 0 {
		burst = 5
	}

	return &ClientLimiter{
		limiters:     make(map[string]*clientEntry),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
		idleTTL:      10 * time.Minute,
	}
}

// Allow reports whether the client may proceed now
func (l *ClientLimiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

// getLimiter returns the limiter for a client, creating it on first use
func (l *ClientLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now()

	l.mu.RLock()
	entry, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		l.mu.Lock()
		entry.lastSeen = now
		l.mu.Unlock()
		return entry.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, exists := l.limiters[key]; exists {
		entry.lastSeen = now
		return entry.limiter
	}

	entry = &clientEntry{
		limiter:  rate.NewLimiter(l.defaultRate, l.defaultBurst),
		lastSeen: now,
	}
	l.limiters[key] = entry

	return entry.limiter
}

// Prune forgets clients idle for longer than the idle TTL and returns how
// many were removed
func (l *ClientLimiter) Prune() int {
	cutoff := time.Now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients
func (l *ClientLimiter) Clients() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limiters)
}

// RunPruner prunes idle clients every interval until ctx ends
func (l *ClientLimiter) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Prune()
		}
	}
}
