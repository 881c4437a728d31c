package transport

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RateLimiter tracks one token bucket per principal. Entries that have been
// idle for longer than the cleanup window are dropped, so the map stays
// bounded by the active caller set.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*limiterEntry
	limit    rate.Limit
	burst    int

	done     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst per principal. A background loop evicts idle entries.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[uuid.UUID]*limiterEntry),
		limit:    rate.Limit(rps),
		burst:    burst,
		done:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop terminates the eviction loop. Safe to call more than once; Allow keeps
// working after Stop, the map just stops being pruned.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Allow reports whether the principal may proceed with one request.
func (rl *RateLimiter) Allow(principal uuid.UUID) bool {
	rl.mu.Lock()
	e, ok := rl.limiters[principal]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[principal] = e
	}
	e.lastSeen = time.Now()
	rl.mu.Unlock()

	return e.limiter.Allow()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-3 * time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for principal, e := range rl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(rl.limiters, principal)
		}
	}
}
