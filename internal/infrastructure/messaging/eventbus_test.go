package messaging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.Async = false
	return NewInMemoryEventBus(cfg)
}

func creditsEvent(after int) shared.MemberCreditsChangedEvent {
	return shared.NewMemberCreditsChangedEvent("m-1", "김미영", after+1, after, "check_in", "ko")
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var got []shared.Event
	err := bus.Subscribe(shared.EventMemberCreditsChanged, func(e shared.Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(creditsEvent(3)))
	require.Len(t, got, 1)

	change, ok := got[0].(shared.MemberCreditsChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "m-1", change.MemberID)
	assert.Equal(t, 3, change.After)
}

func TestPublishSkipsOtherEventTypes(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	calls := 0
	require.NoError(t, bus.Subscribe(shared.EventCheckInCommitted, func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(creditsEvent(0)))
	assert.Zero(t, calls)
}

func TestCatchAllSeesEverything(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	calls := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(creditsEvent(2)))
	require.NoError(t, bus.Publish(shared.NewMembershipActivatedEvent("m-1", "2026-03-02", "2026-04-01")))
	assert.Equal(t, 2, calls)
}

func TestHandlerErrorDoesNotPropagate(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventMemberCreditsChanged, func(shared.Event) error {
		return errors.New("transport down")
	}))

	assert.NoError(t, bus.Publish(creditsEvent(1)))

	snapshot := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snapshot.Failures)
}

func TestPublishAfterCloseFails(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(creditsEvent(1))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventMemberCreditsChanged, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestAsyncPublishDeliversOffTheCallerGoroutine(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.Async = true
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)
	defer bus.Close()

	var wg sync.WaitGroup
	wg.Add(5)
	var mu sync.Mutex
	handled := 0
	require.NoError(t, bus.Subscribe(shared.EventMemberCreditsChanged, func(shared.Event) error {
		mu.Lock()
		handled++
		mu.Unlock()
		wg.Done()
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(creditsEvent(i)))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, handled)
}
