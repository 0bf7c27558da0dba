package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 0, cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Millisecond, cfg.Delay.Min)
	assert.Equal(t, 1000*time.Millisecond, cfg.Delay.Spread)
	assert.Equal(t, EventsBackendMemory, cfg.Events.Backend)
	assert.Equal(t, "greetings", cfg.Events.Topic)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.ShutdownTimeout)
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HELLO_HTTP_PORT", "9000")
	t.Setenv("HELLO_GRPC_PORT", "9001")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HELLO_DELAY_MIN", "5ms")
	t.Setenv("HELLO_DELAY_SPREAD", "10ms")
	t.Setenv("EVENTS_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, ":9001", cfg.GetGRPCAddr())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Millisecond, cfg.Delay.Min)
	assert.Equal(t, 10*time.Millisecond, cfg.Delay.Spread)
	assert.Equal(t, EventsBackendRedis, cfg.Events.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("HELLO_HTTP_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort: 8080,
			LogLevel: "info",
			Delay:    DelayConfig{Min: 30 * time.Millisecond, Spread: time.Second},
			Events:   EventsConfig{Backend: EventsBackendMemory, Topic: "greetings"},
			Redis:    RedisConfig{Addr: "localhost:6379"},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"http port zero", func(c *Config) { c.HTTPPort = 0 }, "invalid HTTP port"},
		{"http port too large", func(c *Config) { c.HTTPPort = 70000 }, "invalid HTTP port"},
		{"grpc port negative", func(c *Config) { c.GRPCPort = -1 }, "invalid gRPC port"},
		{"grpc port collides", func(c *Config) { c.GRPCPort = 8080 }, "collides"},
		{"negative delay min", func(c *Config) { c.Delay.Min = -time.Millisecond }, "delay min"},
		{"negative delay spread", func(c *Config) { c.Delay.Spread = -time.Millisecond }, "delay spread"},
		{"unknown backend", func(c *Config) { c.Events.Backend = "kafka" }, "unsupported events backend"},
		{"redis without addr", func(c *Config) {
			c.Events.Backend = EventsBackendRedis
			c.Redis.Addr = ""
		}, "redis address is required"},
		{"empty topic", func(c *Config) { c.Events.Topic = "" }, "events topic is required"},
		{"negative monitor interval", func(c *Config) { c.Monitor.Interval = -time.Second }, "monitor interval"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
