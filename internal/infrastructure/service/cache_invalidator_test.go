package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

// recordingCache captures invalidations for assertions.
type recordingCache struct {
	invalidated []string

	// fail makes every invalidation return an error.
	fail error
}

func (c *recordingCache) Get(context.Context, string) (*member.Member, error) {
	return nil, nil
}

func (c *recordingCache) Set(context.Context, *member.Member, time.Duration) error {
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, memberID string) error {
	if c.fail != nil {
		return c.fail
	}
	c.invalidated = append(c.invalidated, memberID)
	return nil
}

// wireEvent carries only the serialized form, the shape an event has after
// the redis bridge replays it on another instance.
type wireEvent struct {
	eventType   shared.EventType
	aggregateID string
	payload     map[string]interface{}
}

func (e wireEvent) EventType() shared.EventType     { return e.eventType }
func (e wireEvent) AggregateID() string             { return e.aggregateID }
func (e wireEvent) OccurredAt() time.Time           { return time.Now() }
func (e wireEvent) Payload() map[string]interface{} { return e.payload }

func TestInvalidatorDropsRowOnCheckIn(t *testing.T) {
	cache := &recordingCache{}
	handle := NewMemberCacheInvalidator(cache, nil)

	event := shared.NewCheckInCommittedEvent(
		"m-1001", "김하늘", "att-1", "gangnam", "하타요가", "2026-03-10",
		time.Now(), 1, 3, 10, 9, "ko",
	)
	require.NoError(t, handle(event))

	assert.Equal(t, []string{"m-1001"}, cache.invalidated)
}

func TestInvalidatorHandlesReplayedEnvelopes(t *testing.T) {
	cache := &recordingCache{}
	handle := NewMemberCacheInvalidator(cache, nil)

	// A commit on another instance arrives without the concrete payload
	// type; the aggregate ID alone must evict the row.
	event := wireEvent{
		eventType:   shared.EventMemberCreditsChanged,
		aggregateID: "m-2002",
		payload:     map[string]interface{}{"before": 1, "after": 0},
	}
	require.NoError(t, handle(event))

	assert.Equal(t, []string{"m-2002"}, cache.invalidated)
}

func TestInvalidatorIgnoresOtherEvents(t *testing.T) {
	cache := &recordingCache{}
	handle := NewMemberCacheInvalidator(cache, nil)

	require.NoError(t, handle(wireEvent{
		eventType:   shared.EventPracticeEventRecorded,
		aggregateID: "m-1001",
	}))
	require.NoError(t, handle(wireEvent{
		eventType: shared.EventCheckInCommitted,
	}))

	assert.Empty(t, cache.invalidated)
}

func TestInvalidatorSwallowsCacheErrors(t *testing.T) {
	cache := &recordingCache{fail: errors.New("redis: connection refused")}
	handle := NewMemberCacheInvalidator(cache, nil)

	event := shared.NewMembershipActivatedEvent("m-1001", "2026-03-10", "2026-04-09")
	assert.NoError(t, handle(event))
}
