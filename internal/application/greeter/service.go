package greeter

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aescanero/hello-latency/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is the body of every greeting
const Message = "Hello, World!"

// Greeting is the outcome of one served request
type Greeting struct {
	Body      string
	RequestID string
	Delay     time.Duration
	Elapsed   time.Duration
}

// Stats is a point-in-time view of the greeter load
type Stats struct {
	InFlight int64
	Served   uint64
}

// Config holds greeter dependencies
type Config struct {
	Sampler  Sampler
	Metrics  ports.MetricsCollector
	EventBus ports.EventBus // nil disables the event feed
	Topic    string
	Logger   *zap.Logger
}

// Service serves greetings after an artificial delay
type Service struct {
	sampler  Sampler
	metrics  ports.MetricsCollector
	eventBus ports.EventBus
	topic    string
	logger   *zap.Logger

	inFlight atomic.Int64
	served   atomic.Uint64
}

// NewService creates a new greeter service
func NewService(cfg *Config) *Service {
	return &Service{
		sampler:  cfg.Sampler,
		metrics:  cfg.Metrics,
		eventBus: cfg.EventBus,
		topic:    cfg.Topic,
		logger:   cfg.Logger,
	}
}

// Greet waits out a sampled delay and returns the greeting.
// The wait parks only the calling goroutine and is not interrupted by ctx;
// a client that goes away simply never reads the response.
func (s *Service) Greet(ctx context.Context, requestID string) (*Greeting, error) {
	start := time.Now()

	s.inFlight.Add(1)
	s.metrics.IncInFlight()
	defer func() {
		s.inFlight.Add(-1)
		s.metrics.DecInFlight()
	}()

	delay := s.sampler.Next()
	s.metrics.ObserveDelay(delay)

	time.Sleep(delay)

	greeting := &Greeting{
		Body:      Message,
		RequestID: requestID,
		Delay:     delay,
		Elapsed:   time.Since(start),
	}

	s.served.Add(1)
	s.metrics.RecordGreeting(greeting.Elapsed)

	s.logger.Debug("greeting served",
		zap.String("request_id", requestID),
		zap.Duration("delay", delay),
		zap.Duration("elapsed", greeting.Elapsed))

	s.publish(context.WithoutCancel(ctx), greeting)

	return greeting, nil
}

// Stats returns the current in-flight and served counts
func (s *Service) Stats() Stats {
	return Stats{
		InFlight: s.inFlight.Load(),
		Served:   s.served.Load(),
	}
}

// publish hands the greeting to the event bus; failures never reach the client
func (s *Service) publish(ctx context.Context, greeting *Greeting) {
	if s.eventBus == nil {
		return
	}

	event := ports.Event{
		ID:        uuid.New().String(),
		Type:      ports.EventTypeGreetingServed,
		Timestamp: time.Now().UTC(),
		RequestID: greeting.RequestID,
		Data: map[string]interface{}{
			"delay_ms":    greeting.Delay.Milliseconds(),
			"duration_ms": greeting.Elapsed.Milliseconds(),
		},
	}

	if err := s.eventBus.Publish(ctx, s.topic, event); err != nil {
		s.metrics.RecordEventPublished(false)
		s.logger.Error("failed to publish greeting event",
			zap.String("request_id", greeting.RequestID),
			zap.String("topic", s.topic),
			zap.Error(err))
		return
	}
	s.metrics.RecordEventPublished(true)
}
