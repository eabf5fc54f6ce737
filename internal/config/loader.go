package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "chatrelay.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "CHATRELAY_PORT")
	setString(&cfg.Server.CORSOrigin, "CHATRELAY_CORS_ORIGIN")

	setString(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "OPENAI_MODEL")

	setString(&cfg.Weather.BaseURL, "CHATRELAY_WEATHER_BASE_URL")
	setDuration(&cfg.Weather.CacheTTL, "CHATRELAY_WEATHER_CACHE_TTL")
	setInt64(&cfg.Cache.MaxSizeMB, "CHATRELAY_CACHE_SIZE_MB")

	setString(&cfg.NATS.URL, "NATS_URL")

	setBool(&cfg.MCP.Enabled, "CHATRELAY_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "CHATRELAY_MCP_ADDR")
	setString(&cfg.MCP.Name, "CHATRELAY_MCP_NAME")
	setString(&cfg.MCP.Version, "CHATRELAY_MCP_VERSION")

	setString(&cfg.Otel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	setInt(&cfg.Stream.MaxParallelTools, "CHATRELAY_MAX_PARALLEL_TOOLS")

	setString(&cfg.Logging.Level, "CHATRELAY_LOG_LEVEL")
	setString(&cfg.Logging.Service, "CHATRELAY_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "CHATRELAY_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "CHATRELAY_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "CHATRELAY_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "CHATRELAY_RATE_RPS")
	setInt(&cfg.Rate.Burst, "CHATRELAY_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "CHATRELAY_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "CHATRELAY_RATE_MAX_IDLE_TIME")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.OpenAI.Model == "" {
		return errors.New("openai.model is required")
	}
	if cfg.Cache.MaxSizeMB < 1 {
		return errors.New("cache.max_size_mb must be >= 1")
	}
	if cfg.Stream.MaxParallelTools < 1 {
		return errors.New("stream.max_parallel_tools must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
