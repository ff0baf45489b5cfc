package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any env vars that might be set
	for _, key := range []string{
		"ORDERBOARD_PORT", "DATABASE_URL", "NATS_URL", "NATS_TOKEN",
		"LOG_LEVEL", "ORDERBOARD_API_TOKEN", "ORDERBOARD_POLL_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8760 {
		t.Errorf("expected default port 8760, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("expected empty default database url, got %s", cfg.DatabaseURL)
	}
	if cfg.NatsURL != "" {
		t.Errorf("expected empty default nats url, got %s", cfg.NatsURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("expected default poll interval 5s, got %s", cfg.PollInterval)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ORDERBOARD_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ORDERBOARD_POLL_INTERVAL", "30s")
	t.Setenv("ORDERBOARD_API_TOKEN", "secret")

	cfg := Load()

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("expected poll interval 30s, got %s", cfg.PollInterval)
	}
	if cfg.APIToken != "secret" {
		t.Errorf("expected api token secret, got %s", cfg.APIToken)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ORDERBOARD_PORT", "not-a-number")
	t.Setenv("ORDERBOARD_POLL_INTERVAL", "-5s")

	cfg := Load()

	if cfg.Port != 8760 {
		t.Errorf("invalid port should fall back to 8760, got %d", cfg.Port)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("negative interval should fall back to 5s, got %s", cfg.PollInterval)
	}
}
