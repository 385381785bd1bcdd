// Package ratelimit provides per-key token bucket admission control for the
// API surface. Keys are client addresses; each key gets an independent
// bucket, created on first use.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter hands out a token bucket per key and answers admission checks.
// Buckets live for the life of the process; keys are client IPs on a small
// personal server, so the map stays bounded in practice.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// New creates a limiter allowing rps sustained requests per second per key,
// with up to burst tokens available at once.
func New(rps float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

// Allow reports whether a request under key may proceed right now. It never
// blocks; refused requests are answered with 429 by the caller.
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// Keys returns the number of distinct keys seen so far.
func (l *Limiter) Keys() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.buckets[key]; ok {
		return b
	}

	b = rate.NewLimiter(l.limit, l.burst)
	l.buckets[key] = b
	return b
}
