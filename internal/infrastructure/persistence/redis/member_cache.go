package redis

import (
	"context"
	"errors"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER CACHE
// Read-path cache for member rows. The check-in write path never reads it;
// the CheckInCommitted subscriber invalidates after every balance change.
// ══════════════════════════════════════════════════════════════════════════════

// MemberCache implements member.Cache on Redis.
type MemberCache struct {
	cache *Cache
}

// NewMemberCache creates a new MemberCache.
func NewMemberCache(cache *Cache) *MemberCache {
	return &MemberCache{cache: cache}
}

func memberKey(memberID string) string {
	return PrefixMember + memberID
}

// Get returns the cached member, or (nil, nil) on a miss.
func (c *MemberCache) Get(ctx context.Context, memberID string) (*member.Member, error) {
	var m member.Member
	err := c.cache.Get(ctx, memberKey(memberID), &m)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// Set stores a member row with the given TTL.
func (c *MemberCache) Set(ctx context.Context, m *member.Member, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLMemberCache
	}
	return c.cache.Set(ctx, memberKey(m.ID), m, ttl)
}

// Invalidate removes a member's cache entry.
func (c *MemberCache) Invalidate(ctx context.Context, memberID string) error {
	return c.cache.Delete(ctx, memberKey(memberID))
}
