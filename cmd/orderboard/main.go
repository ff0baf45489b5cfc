package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/acaiflow/orderboard/internal/api"
	"github.com/acaiflow/orderboard/internal/config"
	"github.com/acaiflow/orderboard/internal/events"
	"github.com/acaiflow/orderboard/internal/ingest"
	"github.com/acaiflow/orderboard/internal/metrics"
	"github.com/acaiflow/orderboard/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("orderboard starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// NATS (optional — orderboard works without a broker, just no events)
	var ev *events.Client
	if cfg.NatsURL != "" {
		ev, err = events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer ev.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without order events")
	}

	m := metrics.NewRegistry()

	// Ingestor — the extraction pipeline
	ing := ingest.New(db, ev, m, cfg.PollInterval, slog.Default())
	go ing.Run(ctx)

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, db, ing, ev, m)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("orderboard ready", "poll_interval", cfg.PollInterval.String())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("orderboard stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
