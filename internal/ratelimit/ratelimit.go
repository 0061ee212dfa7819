// Package ratelimit throttles user-triggered work on top of golang.org/x/time/rate.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket sized in events per minute.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing perMinute events with the given burst.
// A non-positive perMinute means unlimited.
func New(perMinute, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60.0)
	}
	return &Limiter{limiter: rate.NewLimiter(limit, burst)}
}

// Allow reports whether an event may happen now and consumes a token if so.
func (l *Limiter) Allow() bool {
	return l.AllowAt(time.Now())
}

// AllowAt is Allow evaluated at t.
func (l *Limiter) AllowAt(t time.Time) bool {
	if l == nil {
		return true
	}
	return l.limiter.AllowN(t, 1)
}

// Keyed hands out one limiter per key, all sharing the same settings.
type Keyed struct {
	perMinute int
	burst     int

	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewKeyed creates a Keyed limiter set.
func NewKeyed(perMinute, burst int) *Keyed {
	return &Keyed{
		perMinute: perMinute,
		burst:     burst,
		limiters:  make(map[string]*Limiter),
	}
}

// For returns the limiter for key, creating it on first use.
func (k *Keyed) For(key string) *Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.limiters[key]
	if !ok {
		l = New(k.perMinute, k.burst)
		k.limiters[key] = l
	}
	return l
}

// Allow consumes a token from key's limiter.
func (k *Keyed) Allow(key string) bool {
	return k.For(key).Allow()
}
