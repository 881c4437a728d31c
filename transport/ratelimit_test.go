package transport

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterPerPrincipal(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()

	a, b := uuid.New(), uuid.New()

	assert.True(t, rl.Allow(a))
	assert.True(t, rl.Allow(a))
	assert.False(t, rl.Allow(a))

	// Each principal has its own bucket.
	assert.True(t, rl.Allow(b))
}

func TestRateLimiterStop(t *testing.T) {
	rl := NewRateLimiter(10, 1)

	rl.Stop()
	rl.Stop()

	// The limiter stays usable once the eviction loop is gone.
	assert.True(t, rl.Allow(uuid.New()))

	select {
	case <-rl.done:
	default:
		require.Fail(t, "eviction loop was not signalled to exit")
	}
}

func TestRateLimiterCleanupEvictsIdleEntries(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	p := uuid.New()
	rl.Allow(p)

	rl.mu.Lock()
	rl.limiters[p].lastSeen = rl.limiters[p].lastSeen.Add(-10 * time.Minute)
	rl.mu.Unlock()

	rl.cleanup()

	rl.mu.Lock()
	_, ok := rl.limiters[p]
	rl.mu.Unlock()
	assert.False(t, ok)
}
