package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Events backends
const (
	EventsBackendMemory = "memory"
	EventsBackendRedis  = "redis"
	EventsBackendNone   = "none"
)

// Config holds all configuration for the hello service
type Config struct {
	// Server configuration
	HTTPPort int    `env:"HELLO_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"HELLO_GRPC_PORT" envDefault:"0"` // 0 disables the gRPC health server
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Artificial latency
	Delay DelayConfig

	// Request event feed
	Events EventsConfig

	// Redis configuration, used when Events.Backend is "redis"
	Redis RedisConfig

	// Load monitor
	Monitor MonitorConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// DelayConfig describes the artificial delay range [Min, Min+Spread)
type DelayConfig struct {
	Min    time.Duration `env:"HELLO_DELAY_MIN" envDefault:"30ms"`
	Spread time.Duration `env:"HELLO_DELAY_SPREAD" envDefault:"1000ms"`
}

// EventsConfig holds request event feed configuration
type EventsConfig struct {
	Backend string `env:"EVENTS_BACKEND" envDefault:"memory"`
	Topic   string `env:"EVENTS_TOPIC" envDefault:"greetings"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	// Approximate cap on stream length (XADD MAXLEN ~)
	StreamMaxLen int64 `env:"REDIS_STREAM_MAX_LEN" envDefault:"10000"`
}

// MonitorConfig holds load monitor configuration
type MonitorConfig struct {
	Interval     time.Duration `env:"MONITOR_INTERVAL" envDefault:"30s"` // 0 disables
	InFlightWarn int64         `env:"MONITOR_IN_FLIGHT_WARN" envDefault:"1000"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout   time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
	ReadHeaderTimeout time.Duration `env:"TIMEOUT_READ_HEADER" envDefault:"10s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}
	if c.GRPCPort != 0 && c.GRPCPort == c.HTTPPort {
		return fmt.Errorf("gRPC port %d collides with HTTP port", c.GRPCPort)
	}

	// Validate delay range
	if c.Delay.Min < 0 {
		return fmt.Errorf("delay min must not be negative: %s", c.Delay.Min)
	}
	if c.Delay.Spread < 0 {
		return fmt.Errorf("delay spread must not be negative: %s", c.Delay.Spread)
	}

	// Validate events config
	switch c.Events.Backend {
	case EventsBackendMemory, EventsBackendNone:
	case EventsBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis events backend")
		}
	default:
		return fmt.Errorf("unsupported events backend: %s (must be memory, redis, or none)", c.Events.Backend)
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("events topic is required")
	}

	if c.Monitor.Interval < 0 {
		return fmt.Errorf("monitor interval must not be negative: %s", c.Monitor.Interval)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
