package redis

import (
	"context"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// Fixed-window counter guarding the phone-digit member lookup. Each caller
// key gets an INCR counter that expires after the window; the first
// increment arms the expiry.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLookupLimit is the lookups allowed per caller per window.
const DefaultLookupLimit = 10

// RateLimiter implements query.LookupRateLimiter on Redis.
type RateLimiter struct {
	cache  *Cache
	limit  int64
	window time.Duration
}

// NewRateLimiter creates a limiter with the given per-window limit.
// Non-positive arguments fall back to the defaults.
func NewRateLimiter(cache *Cache, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultLookupLimit
	}
	if window <= 0 {
		window = TTLRateLimitWindow
	}
	return &RateLimiter{
		cache:  cache,
		limit:  int64(limit),
		window: window,
	}
}

// Allow reports whether the caller may perform another lookup in the
// current window.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	counterKey := PrefixRateLimit + key

	count, err := l.cache.Incr(ctx, counterKey)
	if err != nil {
		return false, fmt.Errorf("rate limiter incr: %w", err)
	}

	// First hit in the window arms the expiry. If the process dies between
	// INCR and EXPIRE the counter would live forever, so re-arm whenever
	// the key has no TTL.
	if count == 1 {
		if err := l.cache.Expire(ctx, counterKey, l.window); err != nil {
			return false, fmt.Errorf("rate limiter expire: %w", err)
		}
	} else if ttl, err := l.cache.TTL(ctx, counterKey); err == nil && ttl < 0 {
		_ = l.cache.Expire(ctx, counterKey, l.window)
	}

	return count <= l.limit, nil
}
