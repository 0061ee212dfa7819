package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstThenThrottle(t *testing.T) {
	l := New(6, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, l.AllowAt(now))
	assert.True(t, l.AllowAt(now))
	assert.False(t, l.AllowAt(now), "burst exhausted")

	// 6/min refills one token every 10s.
	assert.False(t, l.AllowAt(now.Add(5*time.Second)))
	assert.True(t, l.AllowAt(now.Add(10*time.Second)))
}

func TestLimiter_Unlimited(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow())
	}
}

func TestLimiter_NilAllowsEverything(t *testing.T) {
	var l *Limiter
	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow())
	}
}

func TestKeyed_IndependentBuckets(t *testing.T) {
	k := NewKeyed(1, 1)

	assert.True(t, k.Allow("alerts"))
	assert.False(t, k.Allow("alerts"))
	assert.True(t, k.Allow("wallets"))
	assert.Same(t, k.For("alerts"), k.For("alerts"))
}
