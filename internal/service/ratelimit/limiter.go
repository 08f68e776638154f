package ratelimit

import (
	"sync"
	"time"
)

// bucket tracks remaining tokens for one key.
type bucket struct {
	remaining float64
	updatedAt time.Time
}

// Limiter is a keyed token-bucket rate limiter. Capacity and refill rate
// are supplied per call so one limiter can serve endpoints with different
// limits (per-IP API limits, the watchlist sweep cap).
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

func New() *Limiter {
	return &Limiter{buckets: make(map[string]*bucket)}
}

// Allow consumes one token for key and reports whether it was available.
// capacity is the burst size; refillPerSec restores tokens continuously.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{remaining: capacity, updatedAt: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.updatedAt).Seconds(); elapsed > 0 {
		b.remaining += elapsed * refillPerSec
		if b.remaining > capacity {
			b.remaining = capacity
		}
		b.updatedAt = now
	}

	if b.remaining < 1 {
		return false
	}
	b.remaining--
	return true
}
