package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_PerIP(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1, time.Minute)

	assert.True(t, l.Allow("198.51.100.1"))
	assert.False(t, l.Allow("198.51.100.1"))
	assert.True(t, l.Allow("198.51.100.2"))
	assert.Equal(t, 2, l.Len())
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 19, 10, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, 1, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(30 * time.Second)
	l.Allow("b")
	now = now.Add(45 * time.Second)

	l.Sweep()
	assert.Equal(t, 1, l.Len(), "only the bucket idle for over a minute is dropped")
}

func TestIPRateLimiter_EvictsOldestWhenFull(t *testing.T) {
	now := time.Date(2026, 1, 19, 10, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, 1, time.Minute)
	l.now = func() time.Time { return now }
	l.maxEntries = 2

	l.Allow("a")
	now = now.Add(time.Second)
	l.Allow("b")
	now = now.Add(time.Second)
	l.Allow("c")

	assert.Equal(t, 2, l.Len())
	l.mu.Lock()
	_, hasA := l.limiters["a"]
	l.mu.Unlock()
	assert.False(t, hasA)
}
