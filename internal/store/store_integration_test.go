//go:build integration

package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/acaiflow/orderboard/internal/order"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func testOrder(id string) order.Order {
	return order.Order{
		ID:        id,
		SessionID: "integration-" + id,
		Items: []order.LineItem{
			{Name: "Açaí 400ml", Price: decimal.RequireFromString("15.00")},
		},
		Total:             decimal.RequireFromString("15.00"),
		Address:           "Rua das Flores, 123",
		PaymentMethod:     "Pix",
		Status:            order.StatusConfirmed,
		CreatedAt:         time.Now().UTC().Truncate(time.Second),
		EstimatedDelivery: time.Now().UTC().Add(45 * time.Minute).Truncate(time.Second),
	}
}

func TestIntegration_UpsertPreservesStatus(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ord := testOrder("order-itest001")
	created, err := s.UpsertOrder(ctx, ord)
	if err != nil {
		t.Fatalf("UpsertOrder failed: %v", err)
	}
	if !created {
		t.Log("order already existed from a previous run")
	}

	if _, _, err := s.AdvanceStatus(ctx, ord.ID, order.StatusPreparing); err != nil {
		var ite *order.InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("AdvanceStatus failed: %v", err)
		}
	}

	// Re-extraction must not reset the lifecycle.
	created, err = s.UpsertOrder(ctx, ord)
	if err != nil {
		t.Fatalf("second UpsertOrder failed: %v", err)
	}
	if created {
		t.Error("second upsert reported created = true")
	}

	got, err := s.GetOrder(ctx, ord.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.Status == order.StatusConfirmed {
		t.Error("upsert reset status back to confirmed")
	}
}

func TestIntegration_AdvanceStatusConflict(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ord := testOrder("order-itest002")
	if _, err := s.UpsertOrder(ctx, ord); err != nil {
		t.Fatalf("UpsertOrder failed: %v", err)
	}

	got, err := s.GetOrder(ctx, ord.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}

	// A request equal to the current state must be rejected without mutation.
	_, _, err = s.AdvanceStatus(ctx, ord.ID, got.Status)
	var ite *order.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}

	after, err := s.GetOrder(ctx, ord.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if after.Status != got.Status {
		t.Errorf("status changed from %s to %s on rejected request", got.Status, after.Status)
	}
}

func TestIntegration_GetOrderNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetOrder(context.Background(), "order-missing0")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
