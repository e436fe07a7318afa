// Package ratelimit gates login attempts per source IP. The primary limiter
// is a fixed-window counter in the KV store; when the store is unreachable
// it degrades to an in-process limiter rather than waving attempts through.
package ratelimit

import (
	"context"
	"time"

	"github.com/shinelstudios/website-sub000/internal/logger"
	"github.com/shinelstudios/website-sub000/internal/store"
)

const keyPrefix = "rl:login:"

// LoginLimiter enforces at most max attempts per window per IP. The counter
// and its expiry are set together on the first increment, so the enforced
// window runs from the first attempt, not a sliding cutoff. Every attempt
// increments the counter, successful logins included.
type LoginLimiter struct {
	kv       store.KV
	window   time.Duration
	max      int64
	fallback *MemoryLimiter
}

// NewLoginLimiter builds a limiter over the given KV namespace.
func NewLoginLimiter(kv store.KV, window time.Duration, max int64) *LoginLimiter {
	if window <= 0 {
		window = 600 * time.Second
	}
	if max <= 0 {
		max = 5
	}
	return &LoginLimiter{
		kv:       kv,
		window:   window,
		max:      max,
		fallback: NewMemoryLimiter(int(max), window, 5*window),
	}
}

// Allow registers one attempt from ip and reports whether it may proceed.
// The attempt that takes the counter past max is rejected; the counter
// auto-resets when its TTL expires.
func (l *LoginLimiter) Allow(ctx context.Context, ip string) bool {
	if ip == "" {
		ip = "unknown"
	}
	n, err := l.kv.Incr(ctx, keyPrefix+ip, l.window)
	if err != nil {
		logger.WithField("err", err).Warn("ratelimit: counter unavailable, using in-memory fallback")
		return l.fallback.Allow(ip)
	}
	return n <= l.max
}
