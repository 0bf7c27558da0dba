package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aescanero/hello-latency/internal/application/greeter"
	promadapter "github.com/aescanero/hello-latency/pkg/adapters/metrics/prometheus"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP API server
type Server struct {
	router   *gin.Engine
	server   *http.Server
	listener net.Listener
	greeter  *greeter.Service
	metrics  *promadapter.Collector
	logger   *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port              int
	ReadHeaderTimeout time.Duration
	Greeter           *greeter.Service
	Metrics           *promadapter.Collector
	Logger            *zap.Logger
}

// StreamHandler serves the live greeting feed
type StreamHandler interface {
	HandleGreetingStream(c *gin.Context)
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(cfg.Logger))
	router.Use(requestMetrics(cfg.Metrics))

	s := &Server{
		router:  router,
		greeter: cfg.Greeter,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	s.router.GET("/hello", s.handleHello)

	// Health check
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/actuator/health", s.handleActuatorHealth)

	// Metrics
	registry := s.metrics.Registry()
	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	s.router.GET("/metrics", metricsHandler)
	s.router.GET("/actuator/prometheus", metricsHandler)
}

// SetupWebSocket adds the greeting feed to the server
func (s *Server) SetupWebSocket(handler StreamHandler) {
	s.router.GET("/events/ws", handler.HandleGreetingStream)
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the listening socket. Binding separately from Serve lets the
// process fail fast when the port is taken.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind HTTP listener on %s: %w", s.server.Addr, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections on the bound listener until Shutdown
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("HTTP server is not listening")
	}

	s.logger.Info("starting HTTP server", zap.String("addr", s.listener.Addr().String()))

	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}

	return nil
}

// Start binds and serves
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown gracefully shuts down the server, letting in-flight greetings finish
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
