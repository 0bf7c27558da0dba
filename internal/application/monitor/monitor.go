package monitor

import (
	"sync"
	"time"

	"github.com/aescanero/hello-latency/internal/application/greeter"
	"go.uber.org/zap"
)

// StatsSource reports greeter load
type StatsSource interface {
	Stats() greeter.Stats
}

// LoadMonitor periodically logs greeter load
type LoadMonitor struct {
	source       StatsSource
	interval     time.Duration
	inFlightWarn int64
	logger       *zap.Logger

	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
	lastServed uint64
}

// Status represents one load snapshot
type Status struct {
	InFlight  int64
	Served    uint64
	Rate      float64 // greetings per second since the previous check
	Saturated bool
	Timestamp time.Time
}

// NewLoadMonitor creates a new load monitor
func NewLoadMonitor(source StatsSource, interval time.Duration, inFlightWarn int64, logger *zap.Logger) *LoadMonitor {
	return &LoadMonitor{
		source:       source,
		interval:     interval,
		inFlightWarn: inFlightWarn,
		logger:       logger,
	}
}

// Start starts the monitor loop; a non-positive interval leaves it idle
func (m *LoadMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running || m.interval <= 0 {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go m.run(m.stopCh, m.doneCh)
}

// Stop stops the monitor and waits for the loop to exit
func (m *LoadMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	close(stopCh)
	<-doneCh
}

func (m *LoadMonitor) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.Check()
		}
	}
}

// Check takes a snapshot and logs it
func (m *LoadMonitor) Check() *Status {
	stats := m.source.Stats()

	m.mu.Lock()
	delta := stats.Served - m.lastServed
	m.lastServed = stats.Served
	m.mu.Unlock()

	status := &Status{
		InFlight:  stats.InFlight,
		Served:    stats.Served,
		Saturated: m.inFlightWarn > 0 && stats.InFlight >= m.inFlightWarn,
		Timestamp: time.Now(),
	}
	if m.interval > 0 {
		status.Rate = float64(delta) / m.interval.Seconds()
	}

	m.logger.Info("greeter load",
		zap.Int64("in_flight", status.InFlight),
		zap.Uint64("served", status.Served),
		zap.Float64("rate_per_second", status.Rate))

	if status.Saturated {
		m.logger.Warn("in-flight greetings above threshold",
			zap.Int64("in_flight", status.InFlight),
			zap.Int64("threshold", m.inFlightWarn))
	}

	return status
}
