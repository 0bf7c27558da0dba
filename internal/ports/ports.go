// Package ports declares the contracts between the greeter and its adapters.
package ports

import (
	"context"
	"time"
)

// EventType identifies the kind of event on the bus
type EventType string

const (
	// EventTypeGreetingServed is published once per answered /hello request
	EventTypeGreetingServed EventType = "greeting.served"
)

// Event is a single message carried by the event bus
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventHandler consumes events delivered by a subscription
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes and delivers events by topic.
// Subscriptions end when the subscribing context is cancelled.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// MetricsCollector records greeter measurements
type MetricsCollector interface {
	IncInFlight()
	DecInFlight()
	ObserveDelay(delay time.Duration)
	RecordGreeting(duration time.Duration)
	RecordEventPublished(ok bool)
}
