package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publish results
const (
	resultOK    = "ok"
	resultError = "error"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   prometheus.Counter
	requestDuration prometheus.Histogram
	delay           prometheus.Histogram
	inFlight        prometheus.Gauge
	eventsPublished *prometheus.CounterVec

	// HTTP server metrics, recorded by the router middleware
	httpRequests *prometheus.HistogramVec
}

// NewRegistry creates the process registry with Go runtime and process collectors attached
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// NewCollector creates a new Prometheus metrics collector registered on registry
func NewCollector(registry *prometheus.Registry) *Collector {
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		requestsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hello_requests_total",
				Help: "Total number of greetings served",
			},
		),
		requestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hello_request_duration_seconds",
				Help:    "Greeting latency in seconds, artificial delay included",
				Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 0.75, 1, 1.25, 2},
			},
		),
		delay: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hello_delay_seconds",
				Help:    "Sampled artificial delay in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 1.25},
			},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hello_requests_in_flight",
				Help: "Number of greetings currently waiting out their delay",
			},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hello_events_published_total",
				Help: "Total number of greeting events handed to the event bus",
			},
			[]string{"result"},
		),
		httpRequests: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_server_requests_seconds",
				Help:    "HTTP server request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Registry returns the registry the collector is registered on
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// IncInFlight marks a greeting as waiting
func (c *Collector) IncInFlight() {
	c.inFlight.Inc()
}

// DecInFlight marks a greeting as finished
func (c *Collector) DecInFlight() {
	c.inFlight.Dec()
}

// ObserveDelay records a sampled artificial delay
func (c *Collector) ObserveDelay(delay time.Duration) {
	c.delay.Observe(delay.Seconds())
}

// RecordGreeting counts a served greeting and records its latency
func (c *Collector) RecordGreeting(duration time.Duration) {
	c.requestsTotal.Inc()
	c.requestDuration.Observe(duration.Seconds())
}

// RecordEventPublished counts an event publish attempt by outcome
func (c *Collector) RecordEventPublished(ok bool) {
	result := resultOK
	if !ok {
		result = resultError
	}
	c.eventsPublished.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records an HTTP request handled by the router
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
