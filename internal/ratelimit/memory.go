package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter tracks attempt rates per key in process. It only serves as
// the degraded mode when the KV store is down, so the window is approximated
// with a token bucket instead of a fixed window.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryLimiter allows up to attempts events per window with the same
// burst capacity. Idle entries are evicted after ttl.
func NewMemoryLimiter(attempts int, window, ttl time.Duration) *MemoryLimiter {
	if attempts <= 0 {
		attempts = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(attempts)),
		burst:    attempts,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Allow reports whether the key may proceed and consumes one token.
func (l *MemoryLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}
	now := l.now()

	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	for k, vis := range l.visitors {
		if now.Sub(vis.lastSeen) > l.ttl {
			delete(l.visitors, k)
		}
	}
	l.mu.Unlock()

	return v.limiter.Allow()
}
