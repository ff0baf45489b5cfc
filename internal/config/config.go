package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         int
	DatabaseURL  string
	NatsURL      string
	NatsToken    string
	LogLevel     string
	APIToken     string
	PollInterval time.Duration
}

func Load() Config {
	return Config{
		Port:         envInt("ORDERBOARD_PORT", 8760),
		DatabaseURL:  envStr("DATABASE_URL", ""),
		NatsURL:      envStr("NATS_URL", ""),
		NatsToken:    envStr("NATS_TOKEN", ""),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		APIToken:     envStr("ORDERBOARD_API_TOKEN", ""),
		PollInterval: envDuration("ORDERBOARD_POLL_INTERVAL", 5*time.Second),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
