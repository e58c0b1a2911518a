package service

import (
	"context"
	"log/slog"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

// MemberCacheInvalidationEvents are the event types after which a cached
// member row is stale. Subscribe the invalidator to each of them.
var MemberCacheInvalidationEvents = []shared.EventType{
	shared.EventCheckInCommitted,
	shared.EventMemberCreditsChanged,
	shared.EventMembershipActivated,
}

// NewMemberCacheInvalidator returns a handler that drops the cached member
// row on events that change it. Matching is by event type and aggregate ID
// rather than concrete payload type: envelopes replayed from the redis
// bridge carry only the wire form, and a commit on another instance must
// still evict the copy held here. The aggregate ID of every member-mutating
// event is the member ID.
func NewMemberCacheInvalidator(cache member.Cache, logger *slog.Logger) shared.EventHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(event shared.Event) error {
		switch event.EventType() {
		case shared.EventCheckInCommitted,
			shared.EventMemberCreditsChanged,
			shared.EventMembershipActivated:
		default:
			return nil
		}

		memberID := event.AggregateID()
		if memberID == "" {
			return nil
		}

		if err := cache.Invalidate(context.Background(), memberID); err != nil {
			logger.Warn("failed to invalidate member cache",
				"member_id", memberID,
				"error", err,
			)
		}
		return nil
	}
}
