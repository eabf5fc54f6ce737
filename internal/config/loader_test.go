package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %s", cfg.OpenAI.Model)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Stream.MaxParallelTools != 1 {
		t.Errorf("expected sequential tool execution by default, got %d", cfg.Stream.MaxParallelTools)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
openai:
  model: "gpt-4o-mini"
stream:
  max_parallel_tools: 4
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "http://example.com" {
		t.Errorf("expected cors http://example.com, got %s", cfg.Server.CORSOrigin)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %s", cfg.OpenAI.Model)
	}
	if cfg.Stream.MaxParallelTools != 4 {
		t.Errorf("expected max_parallel_tools 4, got %d", cfg.Stream.MaxParallelTools)
	}
	// Unchanged fields keep defaults
	if cfg.Weather.BaseURL != "https://api.open-meteo.com" {
		t.Errorf("expected default weather URL, got %s", cfg.Weather.BaseURL)
	}
}

func TestLoadYAMLMissingFile(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(yamlPath, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CHATRELAY_PORT", "7070")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("CHATRELAY_MAX_PARALLEL_TOOLS", "8")
	t.Setenv("CHATRELAY_BREAKER_TIMEOUT", "45s")
	t.Setenv("CHATRELAY_RATE_RPS", "2.5")
	t.Setenv("CHATRELAY_LOG_ASYNC", "true")

	cfg := Defaults()
	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("expected api key sk-test, got %s", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %s", cfg.OpenAI.Model)
	}
	if cfg.Stream.MaxParallelTools != 8 {
		t.Errorf("expected max_parallel_tools 8, got %d", cfg.Stream.MaxParallelTools)
	}
	if cfg.Breaker.Timeout != 45*time.Second {
		t.Errorf("expected breaker timeout 45s, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Rate.RequestsPerSecond != 2.5 {
		t.Errorf("expected rate 2.5, got %v", cfg.Rate.RequestsPerSecond)
	}
	if !cfg.Logging.Async {
		t.Error("expected async logging enabled")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"empty model", func(c *Config) { c.OpenAI.Model = "" }},
		{"zero cache", func(c *Config) { c.Cache.MaxSizeMB = 0 }},
		{"zero parallel tools", func(c *Config) { c.Stream.MaxParallelTools = 0 }},
		{"zero breaker failures", func(c *Config) { c.Breaker.MaxFailures = 0 }},
		{"zero rate burst", func(c *Config) { c.Rate.Burst = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := validate(&cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := Defaults()
	if err := validate(&cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFromFullHierarchy(t *testing.T) {
	// YAML sets port=9090, env overrides to 7070. Env must win.
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
server:
  port: "9090"
logging:
  level: "debug"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CHATRELAY_PORT", "7070")
	t.Setenv("CHATRELAY_LOG_LEVEL", "warn")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("env should win over yaml: got port %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should win over yaml: got level %s", cfg.Logging.Level)
	}
}
