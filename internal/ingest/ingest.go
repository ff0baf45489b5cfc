// Package ingest drives the extraction pipeline: it polls the chat-history
// feed for new turns, re-extracts every session those turns belong to, and
// upserts the resulting orders. Extraction is idempotent, so reprocessing a
// session is always safe.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/acaiflow/orderboard/internal/chat"
	"github.com/acaiflow/orderboard/internal/extract"
	"github.com/acaiflow/orderboard/internal/metrics"
	"github.com/acaiflow/orderboard/internal/order"
)

// Store is the persistence surface the ingestor needs.
type Store interface {
	ListTurnsSince(ctx context.Context, afterID int64) ([]chat.Turn, int64, error)
	ListSessionTurns(ctx context.Context, sessionIDs []string) ([]chat.Turn, error)
	UpsertOrder(ctx context.Context, ord order.Order) (bool, error)
}

// Publisher announces newly created orders. May wrap a nil broker client.
type Publisher interface {
	PublishOrderCreated(ord order.Order) error
}

type Ingestor struct {
	store    Store
	events   Publisher
	metrics  *metrics.Registry
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	cursor int64 // highest chat-history row id processed
}

func New(s Store, ev Publisher, m *metrics.Registry, interval time.Duration, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:    s,
		events:   ev,
		metrics:  m,
		logger:   logger,
		interval: interval,
	}
}

// Run polls the feed until ctx is cancelled. The first sync happens
// immediately so a restart catches up without waiting an interval.
func (i *Ingestor) Run(ctx context.Context) {
	if _, err := i.Sync(ctx); err != nil {
		i.logger.Error("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			i.logger.Info("ingest loop stopped")
			return
		case <-ticker.C:
			if _, err := i.Sync(ctx); err != nil {
				i.logger.Error("sync failed", "error", err)
			}
		}
	}
}

// Sync processes all turns newer than the cursor and returns how many orders
// were written. Concurrent calls are serialized; the cursor only advances
// when every affected session persisted cleanly, so a failed batch is
// retried in full on the next tick.
func (i *Ingestor) Sync(ctx context.Context) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	start := time.Now()
	defer func() {
		i.metrics.SyncLatencySec.Observe(time.Since(start).Seconds())
	}()

	newTurns, maxID, err := i.store.ListTurnsSince(ctx, i.cursor)
	if err != nil {
		return 0, fmt.Errorf("list turns: %w", err)
	}
	if len(newTurns) == 0 {
		i.cursor = maxID
		return 0, nil
	}
	i.metrics.TurnsScanned.Add(float64(len(newTurns)))

	// Re-extract the full history of every session with new activity; the
	// classifier needs the whole conversation to pick the final order turn.
	sessions := sessionIDs(newTurns)
	history, err := i.store.ListSessionTurns(ctx, sessions)
	if err != nil {
		return 0, fmt.Errorf("list session turns: %w", err)
	}

	orders := extract.FromTurns(history, time.Now().UTC())
	i.metrics.SessionsNoOrder.Add(float64(len(sessions) - len(orders)))

	written := 0
	for _, ord := range orders {
		created, err := i.store.UpsertOrder(ctx, ord)
		if err != nil {
			return written, fmt.Errorf("upsert order %s: %w", ord.ID, err)
		}
		written++
		if !created {
			continue
		}
		i.metrics.OrdersExtracted.Inc()
		i.logger.Info("order extracted",
			"order_id", ord.ID,
			"session_id", ord.SessionID,
			"total", ord.Total.StringFixed(2),
			"items", len(ord.Items),
		)
		if err := i.events.PublishOrderCreated(ord); err != nil {
			i.logger.Warn("failed to publish order created", "order_id", ord.ID, "error", err)
		}
	}

	i.cursor = maxID
	i.logger.Debug("sync complete",
		"new_turns", len(newTurns),
		"sessions", len(sessions),
		"orders_written", written,
		"cursor", i.cursor,
	)
	return written, nil
}

func sessionIDs(turns []chat.Turn) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range turns {
		if !seen[t.SessionID] {
			seen[t.SessionID] = true
			ids = append(ids, t.SessionID)
		}
	}
	return ids
}
