// Package config provides hierarchical configuration loading for the
// chat relay service. Precedence: defaults < YAML file < environment
// variables.
package config

import "time"

// Config holds all runtime configuration.
type Config struct {
	Server  Server  `yaml:"server"`
	OpenAI  OpenAI  `yaml:"openai"`
	Weather Weather `yaml:"weather"`
	Cache   Cache   `yaml:"cache"`
	NATS    NATS    `yaml:"nats"`
	MCP     MCP     `yaml:"mcp"`
	Otel    Otel    `yaml:"otel"`
	Stream  Stream  `yaml:"stream"`
	Logging Logging `yaml:"logging"`
	Breaker Breaker `yaml:"breaker"`
	Rate    Rate    `yaml:"rate"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// OpenAI holds the upstream completion provider configuration.
type OpenAI struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// Weather holds the Open-Meteo tool backend configuration.
type Weather struct {
	BaseURL  string        `yaml:"base_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Cache holds in-process cache sizing.
type Cache struct {
	MaxSizeMB int64 `yaml:"max_size_mb"`
}

// NATS holds JetStream broadcast configuration. Empty URL disables the
// NATS broadcaster.
type NATS struct {
	URL string `yaml:"url"`
}

// MCP holds the Model Context Protocol server configuration.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Otel holds OpenTelemetry export configuration. Empty endpoint disables
// export.
type Otel struct {
	Endpoint string `yaml:"endpoint"`
}

// Stream holds orchestration tuning.
type Stream struct {
	MaxParallelTools int `yaml:"max_parallel_tools"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		OpenAI: OpenAI{
			BaseURL: "https://api.openai.com",
			Model:   "gpt-4o",
		},
		Weather: Weather{
			BaseURL:  "https://api.open-meteo.com",
			CacheTTL: 5 * time.Minute,
		},
		Cache: Cache{
			MaxSizeMB: 64,
		},
		MCP: MCP{
			Addr:    ":3001",
			Name:    "chatrelay",
			Version: "0.1.0",
		},
		Stream: Stream{
			MaxParallelTools: 1,
		},
		Logging: Logging{
			Level:   "info",
			Service: "chatrelay",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             100,
			CleanupInterval:   time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
	}
}
