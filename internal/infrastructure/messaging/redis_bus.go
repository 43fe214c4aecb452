package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/learnquest/ledger/internal/domain/shared"
	redisstore "github.com/learnquest/ledger/internal/infrastructure/persistence/redis"
	"github.com/learnquest/ledger/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// PubSub is the Redis surface the bus needs. *redisPubSub adapts a
// redisstore.Cache; tests substitute an in-process fake.
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, pattern string) (<-chan RedisMessage, func() error, error)
}

// RedisMessage represents a message received from Redis Pub/Sub.
type RedisMessage struct {
	Channel string
	Payload string
}

// RedisEventBus publishes every event as a JSON shared.EventEnvelope on the
// "pubsub:<event type>" channel and delivers it to local subscribers.
// With ConsumeRemote set it also replays envelopes published by other
// instances into the local bus.
type RedisEventBus struct {
	client         PubSub
	local          *InMemoryEventBus
	source         string
	publishTimeout time.Duration
	log            *logger.Logger

	cancel  context.CancelFunc
	closeFn func() error
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

var _ shared.EventBus = (*RedisEventBus)(nil)

// RedisEventBusConfig contains configuration for RedisEventBus.
type RedisEventBusConfig struct {
	Client PubSub

	// Source identifies this instance in envelopes; defaults to a random UUID.
	Source string

	// ConsumeRemote subscribes to "pubsub:*" and re-publishes foreign
	// envelopes locally.
	ConsumeRemote bool

	PublishTimeout time.Duration
	Local          InMemoryEventBusConfig
	Logger         *logger.Logger
}

// NewRedisEventBus creates the bus and, when requested, starts the subscriber.
func NewRedisEventBus(ctx context.Context, config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.Source == "" {
		config.Source = uuid.NewString()
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 2 * time.Second
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Local.Logger == nil {
		config.Local.Logger = config.Logger
	}

	bus := &RedisEventBus{
		client:         config.Client,
		local:          NewInMemoryEventBus(config.Local),
		source:         config.Source,
		publishTimeout: config.PublishTimeout,
		log:            config.Logger.With(logger.Component("redis_eventbus"), logger.String("source", config.Source)),
	}

	if config.ConsumeRemote {
		if err := bus.startSubscriber(ctx); err != nil {
			bus.local.Close()
			return nil, fmt.Errorf("start subscriber: %w", err)
		}
	}
	return bus, nil
}

// Subscribe registers a handler for a specific event type.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.local.Subscribe(eventType, handler)
}

// SubscribeAll registers a handler for all events.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.local.SubscribeAll(handler)
}

// Publish mirrors the event to Redis and then delivers it locally.
// A Redis failure is logged; local delivery still happens.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrEventBusClosed
	}

	data, err := encodeEnvelope(event, b.source)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.publishTimeout)
	defer cancel()

	channel := redisstore.PubSubChannel(string(event.EventType()))
	if err := b.client.Publish(ctx, channel, data); err != nil {
		b.log.Error("failed to publish to redis",
			logger.String("channel", channel),
			logger.Err(err),
		)
	}

	return b.local.Publish(event)
}

func (b *RedisEventBus) startSubscriber(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	messages, closeFn, err := b.client.Subscribe(ctx, redisstore.PrefixPubSub+"*")
	if err != nil {
		cancel()
		return err
	}
	b.cancel = cancel
	b.closeFn = closeFn

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				b.handleRemote(msg)
			}
		}
	}()
	return nil
}

func (b *RedisEventBus) handleRemote(msg RedisMessage) {
	var env shared.EventEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		b.log.Warn("dropping malformed envelope", logger.String("channel", msg.Channel), logger.Err(err))
		return
	}
	if env.Source == b.source {
		return
	}

	payload, err := env.Decode()
	if err != nil {
		b.log.Warn("dropping envelope with bad payload", logger.String("id", env.ID), logger.Err(err))
		return
	}

	event := &remoteEvent{envelope: env, payload: payload}
	if err := b.local.Publish(event); err != nil && !errors.Is(err, ErrEventBusClosed) {
		b.log.Error("failed to process remote event", logger.Err(err))
	}
}

// Close stops the subscriber and drains local handlers.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
	}
	if b.closeFn != nil {
		if err := b.closeFn(); err != nil {
			b.log.Warn("closing subscription", logger.Err(err))
		}
	}
	b.wg.Wait()
	return b.local.Close()
}

// Drain waits for in-flight local handlers.
func (b *RedisEventBus) Drain() {
	b.local.Drain()
}

// Metrics returns the local bus counters.
func (b *RedisEventBus) Metrics() *EventBusMetrics {
	return b.local.Metrics()
}

func encodeEnvelope(event shared.Event, source string) ([]byte, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return nil, err
	}
	return json.Marshal(shared.EventEnvelope{
		ID:          uuid.NewString(),
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Version:     1,
		Source:      source,
		Payload:     payload,
	})
}

// remoteEvent is an event rebuilt from another instance's envelope.
type remoteEvent struct {
	envelope shared.EventEnvelope
	payload  map[string]interface{}
}

func (e *remoteEvent) EventType() shared.EventType { return e.envelope.Type }
func (e *remoteEvent) OccurredAt() time.Time { return e.envelope.Timestamp }
func (e *remoteEvent) AggregateID() string { return e.envelope.AggregateID }
func (e *remoteEvent) Payload() map[string]interface{} { return e.payload }
