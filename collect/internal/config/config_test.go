package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_WithDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}

	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}

	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("Redis.URL = %q, want %q", cfg.Redis.URL, "redis://localhost:6379/0")
	}

	if !cfg.Redis.Enabled {
		t.Error("Redis.Enabled should be true by default")
	}

	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("NATS.URL = %q, want %q", cfg.NATS.URL, "nats://localhost:4222")
	}

	if cfg.Ingestion.MaxBodySize != 1048576 {
		t.Errorf("Ingestion.MaxBodySize = %d, want 1048576", cfg.Ingestion.MaxBodySize)
	}

	if !cfg.Ingestion.RateLimitEnabled {
		t.Error("Ingestion.RateLimitEnabled should be true by default")
	}

	if cfg.Ingestion.RateLimitRequests != 100 {
		t.Errorf("Ingestion.RateLimitRequests = %d, want 100", cfg.Ingestion.RateLimitRequests)
	}

	if cfg.Ingestion.RateLimitWindow != time.Minute {
		t.Errorf("Ingestion.RateLimitWindow = %v, want 1m", cfg.Ingestion.RateLimitWindow)
	}

	if !cfg.Tracking.ValidationEnabled {
		t.Error("Tracking.ValidationEnabled should be true by default")
	}

	if cfg.Tracking.AllowAnonymous {
		t.Error("Tracking.AllowAnonymous should be false by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("COLLECT_SERVER_PORT", "9090")
	t.Setenv("COLLECT_TRACKING_ALLOW_ANONYMOUS", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090 from COLLECT_SERVER_PORT", cfg.Server.Port)
	}

	if !cfg.Tracking.AllowAnonymous {
		t.Error("Tracking.AllowAnonymous should be true from COLLECT_TRACKING_ALLOW_ANONYMOUS")
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	content := `
server:
  port: 9090
ingestion:
  rate_limit_requests: 25
  rate_limit_window: 30s
tracking:
  validation_enabled: false
  allow_anonymous: true
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}

	if cfg.Ingestion.RateLimitRequests != 25 {
		t.Errorf("Ingestion.RateLimitRequests = %d, want 25", cfg.Ingestion.RateLimitRequests)
	}

	if cfg.Ingestion.RateLimitWindow != 30*time.Second {
		t.Errorf("Ingestion.RateLimitWindow = %v, want 30s", cfg.Ingestion.RateLimitWindow)
	}

	if cfg.Tracking.ValidationEnabled {
		t.Error("Tracking.ValidationEnabled should be false from config file")
	}

	if !cfg.Tracking.AllowAnonymous {
		t.Error("Tracking.AllowAnonymous should be true from config file")
	}

	// Defaults still apply for unset keys
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("Redis.URL = %q, want default", cfg.Redis.URL)
	}
}
