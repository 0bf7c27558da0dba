package greeter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/hello-latency/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMetrics struct {
	mu             sync.Mutex
	inFlight       int
	maxInFlight    int
	delays         []time.Duration
	greetings      []time.Duration
	publishedOK    int
	publishedError int
}

func (m *mockMetrics) IncInFlight() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
}

func (m *mockMetrics) DecInFlight() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

func (m *mockMetrics) ObserveDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays = append(m.delays, delay)
}

func (m *mockMetrics) RecordGreeting(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.greetings = append(m.greetings, duration)
}

func (m *mockMetrics) RecordEventPublished(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.publishedOK++
	} else {
		m.publishedError++
	}
}

type mockBus struct {
	mu     sync.Mutex
	err    error
	topics []string
	events []ports.Event
}

func (b *mockBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.topics = append(b.topics, topic)
	b.events = append(b.events, event)
	return nil
}

func (b *mockBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	return nil
}

func (b *mockBus) Close() error { return nil }

func newTestService(sampler Sampler, bus ports.EventBus) (*Service, *mockMetrics) {
	metrics := &mockMetrics{}
	svc := NewService(&Config{
		Sampler:  sampler,
		Metrics:  metrics,
		EventBus: bus,
		Topic:    "greetings",
		Logger:   zap.NewNop(),
	})
	return svc, metrics
}

func TestService_Greet(t *testing.T) {
	bus := &mockBus{}
	svc, metrics := newTestService(FixedSampler(20*time.Millisecond), bus)

	start := time.Now()
	greeting, err := svc.Greet(context.Background(), "req-1")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, Message, greeting.Body)
	assert.Equal(t, "Hello, World!", greeting.Body)
	assert.Equal(t, "req-1", greeting.RequestID)
	assert.Equal(t, 20*time.Millisecond, greeting.Delay)
	assert.GreaterOrEqual(t, greeting.Elapsed, 20*time.Millisecond)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)

	assert.Equal(t, []time.Duration{20 * time.Millisecond}, metrics.delays)
	assert.Len(t, metrics.greetings, 1)
	assert.Equal(t, 0, metrics.inFlight)
	assert.Equal(t, Stats{InFlight: 0, Served: 1}, svc.Stats())

	require.Len(t, bus.events, 1)
	assert.Equal(t, "greetings", bus.topics[0])
	event := bus.events[0]
	assert.Equal(t, ports.EventTypeGreetingServed, event.Type)
	assert.Equal(t, "req-1", event.RequestID)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, int64(20), event.Data["delay_ms"])
	assert.Equal(t, 1, metrics.publishedOK)
}

func TestService_Greet_ConcurrentDelaysOverlap(t *testing.T) {
	const (
		n     = 50
		delay = 100 * time.Millisecond
	)
	svc, metrics := newTestService(FixedSampler(delay), nil)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			greeting, err := svc.Greet(context.Background(), "")
			assert.NoError(t, err)
			assert.Equal(t, Message, greeting.Body)
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Sequential handling would take n*delay = 5s.
	assert.Less(t, elapsed, 10*delay)
	assert.Equal(t, uint64(n), svc.Stats().Served)
	assert.Len(t, metrics.greetings, n)
	assert.Greater(t, metrics.maxInFlight, 1, "greetings should wait concurrently")
	assert.Equal(t, int64(0), svc.Stats().InFlight)
}

func TestService_Greet_InFlightWhileWaiting(t *testing.T) {
	svc, _ := newTestService(FixedSampler(200*time.Millisecond), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Greet(context.Background(), "")
	}()

	assert.Eventually(t, func() bool {
		return svc.Stats().InFlight == 1
	}, time.Second, 5*time.Millisecond)

	<-done
	assert.Equal(t, int64(0), svc.Stats().InFlight)
}

func TestService_Greet_CancelledContextStillServes(t *testing.T) {
	bus := &mockBus{}
	svc, _ := newTestService(FixedSampler(30*time.Millisecond), bus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	greeting, err := svc.Greet(ctx, "req-2")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, greeting.Elapsed, 30*time.Millisecond)
	assert.Len(t, bus.events, 1, "event should be published with a detached context")
}

func TestService_Greet_PublishFailureIsNotSurfaced(t *testing.T) {
	bus := &mockBus{err: errors.New("redis down")}
	svc, metrics := newTestService(FixedSampler(0), bus)

	greeting, err := svc.Greet(context.Background(), "req-3")
	require.NoError(t, err)
	assert.Equal(t, Message, greeting.Body)
	assert.Equal(t, 1, metrics.publishedError)
	assert.Equal(t, 0, metrics.publishedOK)
}

func TestService_Greet_DefaultRange(t *testing.T) {
	if testing.Short() {
		t.Skip("waits up to one second")
	}
	svc, _ := newTestService(NewUniformSampler(30*time.Millisecond, 1000*time.Millisecond), nil)

	greeting, err := svc.Greet(context.Background(), "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, greeting.Delay, 30*time.Millisecond)
	assert.Less(t, greeting.Delay, 1030*time.Millisecond)
	assert.GreaterOrEqual(t, greeting.Elapsed, greeting.Delay)
}
