package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/hello-latency/internal/application/greeter"
	"github.com/aescanero/hello-latency/internal/application/monitor"
	"github.com/aescanero/hello-latency/internal/config"
	"github.com/aescanero/hello-latency/internal/ports"
	"github.com/aescanero/hello-latency/pkg/adapters/events/memory"
	"github.com/aescanero/hello-latency/pkg/adapters/events/redis"
	"github.com/aescanero/hello-latency/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/hello-latency/pkg/api/grpc"
	"github.com/aescanero/hello-latency/pkg/api/http"
	"github.com/aescanero/hello-latency/pkg/api/websocket"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting hello service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Metrics registry shared by the collector and the scrape endpoint
	metricsCollector := prometheus.NewCollector(prometheus.NewRegistry())

	// Event feed
	var redisClient *goredis.Client
	var eventBus ports.EventBus
	switch cfg.Events.Backend {
	case config.EventsBackendMemory:
		eventBus = memory.NewInMemoryEventBus(logger)
	case config.EventsBackendRedis:
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		eventBus = redis.NewStreamsEventBus(redisClient, cfg.Redis.StreamMaxLen, logger)
	}

	// Initialize application components
	greeterSvc := greeter.NewService(&greeter.Config{
		Sampler:  greeter.NewUniformSampler(cfg.Delay.Min, cfg.Delay.Spread),
		Metrics:  metricsCollector,
		EventBus: eventBus,
		Topic:    cfg.Events.Topic,
		Logger:   logger,
	})

	loadMonitor := monitor.NewLoadMonitor(greeterSvc, cfg.Monitor.Interval, cfg.Monitor.InFlightWarn, logger)

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:              cfg.HTTPPort,
		ReadHeaderTimeout: cfg.Timeouts.ReadHeaderTimeout,
		Greeter:           greeterSvc,
		Metrics:           metricsCollector,
		Logger:            logger,
	})

	var wsHandler *websocket.Handler
	if eventBus != nil {
		wsHandler = websocket.NewHandler(eventBus, cfg.Events.Topic, logger)
		httpServer.SetupWebSocket(wsHandler)
	}

	// Bind before serving so a taken port fails the process immediately
	if err := httpServer.Listen(); err != nil {
		logger.Fatal("HTTP server failed to bind", zap.Error(err))
	}

	var grpcServer *grpc.Server
	if cfg.GRPCPort != 0 {
		grpcServer, err = grpc.NewServer(&grpc.Config{
			Port:   cfg.GRPCPort,
			Logger: logger,
		})
		if err != nil {
			logger.Fatal("failed to create gRPC server", zap.Error(err))
		}
	}

	// Start servers
	go func() {
		if err := httpServer.Serve(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Start(); err != nil {
				logger.Fatal("gRPC server failed", zap.Error(err))
			}
		}()
	}

	loadMonitor.Start()

	logger.Info("hello service started",
		zap.String("http_addr", httpServer.Addr().String()),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Duration("delay_min", cfg.Delay.Min),
		zap.Duration("delay_spread", cfg.Delay.Spread),
		zap.String("events_backend", cfg.Events.Backend))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by the HTTP server
	if wsHandler != nil {
		wsHandler.Shutdown()
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if grpcServer != nil {
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("gRPC server shutdown error", zap.Error(err))
		}
	}

	loadMonitor.Stop()

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error("event bus close error", zap.Error(err))
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("hello service shut down complete",
		zap.Uint64("served", greeterSvc.Stats().Served))
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
