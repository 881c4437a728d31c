package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUBasics(t *testing.T) {
	c := NewLRU(100)

	c.Set("a", make([]byte, 40))
	c.Set("b", make([]byte, 40))

	_, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(80), c.Size())

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(0), misses)

	_, ok = c.Get("nope")
	require.False(t, ok)
	_, misses = c.Stats()
	assert.Equal(t, int64(1), misses)
}

func TestLRUEvictsByByteCost(t *testing.T) {
	c := NewLRU(100)

	c.Set("a", make([]byte, 40))
	c.Set("b", make([]byte, 40))

	// Touch "a" so "b" is the eviction victim.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", make([]byte, 40))

	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.LessOrEqual(t, c.Size(), int64(100))
}

func TestLRUOversizedValueSkipped(t *testing.T) {
	c := NewLRU(10)

	c.Set("big", make([]byte, 11))
	_, ok := c.Get("big")
	assert.False(t, ok)
	assert.Equal(t, int64(0), c.Size())
}

func TestLRUUpdateAdjustsSize(t *testing.T) {
	c := NewLRU(100)

	c.Set("a", make([]byte, 10))
	c.Set("a", make([]byte, 60))
	assert.Equal(t, int64(60), c.Size())
}

func TestLRUInvalidate(t *testing.T) {
	c := NewLRU(100)

	c.Set("x/1", make([]byte, 10))
	c.Set("x/2", make([]byte, 10))
	c.Set("y/1", make([]byte, 10))

	c.Invalidate(func(key string) bool { return key[0] == 'x' })

	_, ok := c.Get("x/1")
	assert.False(t, ok)
	_, ok = c.Get("y/1")
	assert.True(t, ok)
	assert.Equal(t, int64(10), c.Size())
}
