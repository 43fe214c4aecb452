// Package messaging delivers ledger events after their transaction commits.
// InMemoryEventBus fans events out to in-process subscribers; RedisEventBus
// additionally mirrors them onto Redis pub/sub so other instances and
// downstream consumers see them.
package messaging

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/pkg/logger"
)

var (
	// ErrEventBusClosed is returned by Publish and Subscribe after Close.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrHandlerPanic wraps a recovered subscriber panic.
	ErrHandlerPanic = errors.New("event handler panicked")

	errNilHandler = errors.New("event handler is nil")
	errNilEvent   = errors.New("event is nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-PROCESS BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus implements shared.EventBus inside one process. Publish
// never reports subscriber failures: the ledger mutation behind the event has
// already committed.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[shared.EventType][]shared.EventHandler
	wildcard []shared.EventHandler
	closed   bool

	async   bool
	slots   chan struct{}
	closing chan struct{}
	running sync.WaitGroup

	log     *logger.Logger
	metrics *EventBusMetrics
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// InMemoryEventBusConfig: with AsyncMode handlers run on at most
// WorkerPoolSize goroutines; otherwise on the publisher's goroutine.
type InMemoryEventBusConfig struct {
	AsyncMode      bool
	WorkerPoolSize int
	Logger         *logger.Logger
}

// DefaultInMemoryEventBusConfig is what cmd/server uses.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 10}
}

func NewInMemoryEventBus(cfg InMemoryEventBusConfig) *InMemoryEventBus {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	size := cfg.WorkerPoolSize
	if size <= 0 {
		size = 10
	}
	return &InMemoryEventBus{
		byType:  make(map[shared.EventType][]shared.EventHandler),
		async:   cfg.AsyncMode,
		slots:   make(chan struct{}, size),
		closing: make(chan struct{}),
		log:     log.With(logger.Component("eventbus")),
		metrics: NewEventBusMetrics(),
	}
}

// Subscribe adds handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.subscribe(handler, func() { b.byType[eventType] = append(b.byType[eventType], handler) })
}

// SubscribeAll adds handler for every event type.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.subscribe(handler, func() { b.wildcard = append(b.wildcard, handler) })
}

func (b *InMemoryEventBus) subscribe(handler shared.EventHandler, add func()) error {
	if handler == nil {
		return errNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	add()
	return nil
}

// Publish hands event to typed subscribers first, then wildcard ones.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errNilEvent
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	typed := b.byType[event.EventType()]
	targets := make([]shared.EventHandler, 0, len(typed)+len(b.wildcard))
	targets = append(append(targets, typed...), b.wildcard...)
	b.mu.RUnlock()

	b.metrics.RecordPublish(event.EventType())
	for _, h := range targets {
		if b.async {
			b.dispatch(event, h)
		} else {
			b.run(event, h)
		}
	}
	return nil
}

// dispatch runs h on a pool slot. Once the bus is closing, queued handlers
// that have not started yet are dropped.
func (b *InMemoryEventBus) dispatch(event shared.Event, h shared.EventHandler) {
	b.running.Add(1)
	go func() {
		defer b.running.Done()
		select {
		case b.slots <- struct{}{}:
		case <-b.closing:
			return
		}
		defer func() { <-b.slots }()
		b.run(event, h)
	}()
}

func (b *InMemoryEventBus) run(event shared.Event, h shared.EventHandler) {
	began := time.Now()
	err := safeCall(event, h)
	b.metrics.RecordHandlerExecution(event.EventType(), time.Since(began), err == nil)
	if err != nil {
		b.log.Error("event handler failed",
			logger.String("event_type", string(event.EventType())),
			logger.String("aggregate_id", event.AggregateID()),
			logger.Err(err),
		)
	}
}

func safeCall(event shared.Event, h shared.EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(event)
}

// Drain blocks until every dispatched handler has finished.
func (b *InMemoryEventBus) Drain() {
	b.running.Wait()
}

// Close rejects further events, waits for running handlers and logs the
// delivery counters. Closing twice is a no-op.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closing)
	b.mu.Unlock()

	b.running.Wait()
	snap := b.metrics.Snapshot()
	b.log.Info("event bus closed",
		logger.Any("published", snap.TotalPublished),
		logger.Any("handler_runs", snap.HandlerExecutions),
		logger.Any("handler_failures", snap.HandlerFailures),
	)
	return nil
}

// Metrics exposes the delivery counters.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// COUNTERS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics counts publishes per type and handler outcomes.
type EventBusMetrics struct {
	mu        sync.Mutex
	published map[shared.EventType]int64
	runs      int64
	failures  int64
	busy      time.Duration
}

func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{published: make(map[shared.EventType]int64)}
}

func (m *EventBusMetrics) RecordPublish(t shared.EventType) {
	m.mu.Lock()
	m.published[t]++
	m.mu.Unlock()
}

func (m *EventBusMetrics) RecordHandlerExecution(_ shared.EventType, d time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.busy += d
	if !ok {
		m.failures++
	}
}

// EventBusMetricsSnapshot is a copy of the counters at one instant.
type EventBusMetricsSnapshot struct {
	Published         map[shared.EventType]int64 `json:"published"`
	TotalPublished    int64                      `json:"totalPublished"`
	HandlerExecutions int64                      `json:"handlerExecutions"`
	HandlerFailures   int64                      `json:"handlerFailures"`
	AverageHandler    time.Duration              `json:"averageHandlerNs"`
}

func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := EventBusMetricsSnapshot{
		Published:         make(map[shared.EventType]int64, len(m.published)),
		HandlerExecutions: m.runs,
		HandlerFailures:   m.failures,
	}
	for t, n := range m.published {
		snap.Published[t] = n
		snap.TotalPublished += n
	}
	if m.runs > 0 {
		snap.AverageHandler = m.busy / time.Duration(m.runs)
	}
	return snap
}
