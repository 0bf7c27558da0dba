package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aescanero/hello-latency/internal/ports"
	"go.uber.org/zap"
)

// ErrClosed is returned when publishing to or subscribing on a closed bus
var ErrClosed = errors.New("event bus closed")

// subscription pairs a handler with the context it was registered under
type subscription struct {
	ctx     context.Context
	handler ports.EventHandler
}

// InMemoryEventBus implements EventBus using in-process handlers
type InMemoryEventBus struct {
	logger *zap.Logger

	mu          sync.RWMutex
	subscribers map[string]map[uint64]subscription
	nextID      uint64
	closed      bool
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		logger:      logger,
		subscribers: make(map[string]map[uint64]subscription),
	}
}

// Publish delivers an event to all subscribers of a topic.
// Handlers run asynchronously under their own subscription context.
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return ErrClosed
	}
	subs := make([]subscription, 0, len(e.subscribers[topic]))
	for _, sub := range e.subscribers[topic] {
		subs = append(subs, sub)
	}
	e.mu.RUnlock()

	for _, sub := range subs {
		go func(s subscription) {
			if s.ctx.Err() != nil {
				return
			}
			if err := s.handler(s.ctx, event); err != nil {
				e.logger.Debug("event handler error",
					zap.String("topic", topic),
					zap.String("event_id", event.ID),
					zap.Error(err))
			}
		}(sub)
	}

	return nil
}

// Subscribe registers handler on topic until ctx is cancelled
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	id := e.nextID
	e.nextID++
	if e.subscribers[topic] == nil {
		e.subscribers[topic] = make(map[uint64]subscription)
	}
	e.subscribers[topic][id] = subscription{ctx: ctx, handler: handler}
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.unsubscribe(topic, id)
	}()

	return nil
}

// SubscriberCount returns the number of live subscriptions on a topic
func (e *InMemoryEventBus) SubscriberCount(topic string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subscribers[topic])
}

// Close drops all subscriptions; later publishes fail with ErrClosed
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.subscribers = make(map[string]map[uint64]subscription)
	return nil
}

func (e *InMemoryEventBus) unsubscribe(topic string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs, ok := e.subscribers[topic]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(e.subscribers, topic)
	}
}
