// Package messaging carries the domain events from the check-in engine to
// its subscribers: the practice classifier, the credits monitor, and the
// worker's report pipeline. A single studio instance runs on the in-memory
// bus; multi-branch deployments bridge instances over redis pub/sub.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

var (
	// ErrEventBusClosed is returned for operations on a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("handler cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus dispatches events to subscribed handlers inside one
// process. Async mode hands each handler to a bounded worker pool; the
// check-in request path never waits on a classifier or a notifier.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[shared.EventType][]shared.EventHandler
	catchAll []shared.EventHandler

	async   bool
	workers chan struct{}
	logger  *slog.Logger
	metrics *BusMetrics

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// InMemoryEventBusConfig configures the in-memory bus.
type InMemoryEventBusConfig struct {
	// Async dispatches handlers on the worker pool instead of inline.
	Async bool

	// WorkerPoolSize bounds concurrent handler executions in async mode.
	WorkerPoolSize int

	Logger *slog.Logger
}

// DefaultInMemoryEventBusConfig returns the production defaults.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		Async:          true,
		WorkerPoolSize: 8,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 8
	}

	return &InMemoryEventBus{
		handlers: make(map[shared.EventType][]shared.EventHandler),
		async:    config.Async,
		workers:  make(chan struct{}, config.WorkerPoolSize),
		logger:   config.Logger.With("component", "eventbus"),
		metrics:  NewBusMetrics(),
		closeCh:  make(chan struct{}),
	}
}

// Subscribe registers a handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("handler subscribed", "event_type", eventType)
	return nil
}

// SubscribeAll registers a handler for every event type.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}

	b.catchAll = append(b.catchAll, handler)
	return nil
}

// Publish delivers an event to every matching handler. Handler errors are
// logged and counted; they never propagate back to the publisher.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	targets := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.catchAll))
	targets = append(targets, b.handlers[event.EventType()]...)
	targets = append(targets, b.catchAll...)
	b.mu.RUnlock()

	b.metrics.RecordPublish(event.EventType())

	if len(targets) == 0 {
		b.logger.Debug("no handlers for event", "event_type", event.EventType())
		return nil
	}

	for _, handler := range targets {
		if b.async {
			b.runAsync(event, handler)
		} else {
			b.run(event, handler)
		}
	}
	return nil
}

func (b *InMemoryEventBus) runAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		select {
		case b.workers <- struct{}{}:
			defer func() { <-b.workers }()
		case <-b.closeCh:
			return
		}

		b.run(event, handler)
	}()
}

func (b *InMemoryEventBus) run(event shared.Event, handler shared.EventHandler) {
	start := time.Now()
	err := handler(event)
	b.metrics.RecordExecution(event.EventType(), time.Since(start), err == nil)

	if err != nil {
		b.logger.Error("event handler failed",
			"event_type", event.EventType(),
			"aggregate_id", event.AggregateID(),
			"error", err,
		)
	}
}

// Close stops accepting events and waits for in-flight handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("event bus closed")
	return nil
}

// Metrics returns the bus metrics.
func (b *InMemoryEventBus) Metrics() *BusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// DefaultChannelName is the pub/sub channel shared by studio instances.
const DefaultChannelName = "boksaem:events"

// RedisEventBus bridges the in-memory bus across instances with redis
// pub/sub. Local handlers run directly; remote instances receive a
// serialized envelope and replay it through their own local bus.
type RedisEventBus struct {
	client     *redis.Client
	local      *InMemoryEventBus
	channel    string
	instanceID string
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// RedisEventBusConfig configures the redis bus.
type RedisEventBusConfig struct {
	Client *redis.Client

	// ChannelName defaults to DefaultChannelName.
	ChannelName string

	// InstanceID filters out self-published envelopes.
	InstanceID string

	LocalConfig InMemoryEventBusConfig
	Logger      *slog.Logger
}

// NewRedisEventBus creates the redis-bridged bus and starts its listener.
func NewRedisEventBus(config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.ChannelName == "" {
		config.ChannelName = DefaultChannelName
	}
	if config.InstanceID == "" {
		config.InstanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &RedisEventBus{
		client:     config.Client,
		local:      NewInMemoryEventBus(config.LocalConfig),
		channel:    config.ChannelName,
		instanceID: config.InstanceID,
		logger:     config.Logger.With("component", "redis_eventbus"),
		ctx:        ctx,
		cancel:     cancel,
	}

	sub := bus.client.Subscribe(ctx, bus.channel)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", bus.channel, err)
	}

	bus.wg.Add(1)
	go bus.listen(sub)

	return bus, nil
}

// Subscribe registers a handler for one event type.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.local.Subscribe(eventType, handler)
}

// SubscribeAll registers a handler for every event type.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.local.SubscribeAll(handler)
}

// Publish fans the event out to redis and to local handlers. A redis
// failure degrades to local-only delivery.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	b.mu.RUnlock()

	envelope := wireEnvelope{
		InstanceID:  b.instanceID,
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.client.Publish(b.ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("redis publish failed, delivering locally only", "error", err)
	}

	return b.local.Publish(event)
}

func (b *RedisEventBus) listen(sub *redis.PubSub) {
	defer b.wg.Done()
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.replay(msg.Payload)
		}
	}
}

// replay runs a remote envelope through the local handlers.
func (b *RedisEventBus) replay(payload string) {
	var envelope wireEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		b.logger.Error("malformed event envelope", "error", err)
		return
	}

	// Local handlers already ran for events this instance published.
	if envelope.InstanceID == b.instanceID {
		return
	}

	if err := b.local.Publish(&remoteEvent{envelope: envelope}); err != nil {
		b.logger.Error("failed to replay remote event", "error", err)
	}
}

// Close stops the listener and drains local handlers.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	return b.local.Close()
}

// Metrics returns the local bus metrics.
func (b *RedisEventBus) Metrics() *BusMetrics {
	return b.local.Metrics()
}

// wireEnvelope is the serialized form of an event on the redis channel.
type wireEnvelope struct {
	InstanceID  string                 `json:"instance_id"`
	EventType   shared.EventType       `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// remoteEvent is an event reconstructed from a wire envelope. Subscribers
// that need typed fields read them from Payload.
type remoteEvent struct {
	envelope wireEnvelope
}

func (e *remoteEvent) EventType() shared.EventType     { return e.envelope.EventType }
func (e *remoteEvent) AggregateID() string             { return e.envelope.AggregateID }
func (e *remoteEvent) OccurredAt() time.Time           { return e.envelope.OccurredAt }
func (e *remoteEvent) Payload() map[string]interface{} { return e.envelope.Payload }

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// BusMetrics counts publishes and handler outcomes per event type.
type BusMetrics struct {
	mu sync.RWMutex

	published  map[shared.EventType]int64
	executions int64
	successes  int64
	failures   int64
	totalTime  time.Duration
}

// NewBusMetrics creates a zeroed metrics tracker.
func NewBusMetrics() *BusMetrics {
	return &BusMetrics{published: make(map[shared.EventType]int64)}
}

// RecordPublish counts one published event.
func (m *BusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[eventType]++
}

// RecordExecution counts one handler run.
func (m *BusMetrics) RecordExecution(_ shared.EventType, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executions++
	m.totalTime += duration
	if success {
		m.successes++
	} else {
		m.failures++
	}
}

// Snapshot returns a point-in-time copy of the counters.
func (m *BusMetrics) Snapshot() BusMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, v := range m.published {
		total += v
	}

	avg := time.Duration(0)
	if m.executions > 0 {
		avg = m.totalTime / time.Duration(m.executions)
	}

	return BusMetricsSnapshot{
		Published:       total,
		Executions:      m.executions,
		Failures:        m.failures,
		AverageDuration: avg,
	}
}

// BusMetricsSnapshot is a point-in-time view of the bus counters.
type BusMetricsSnapshot struct {
	Published       int64
	Executions      int64
	Failures        int64
	AverageDuration time.Duration
}
