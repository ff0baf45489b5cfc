package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/acaiflow/orderboard/internal/order"
)

// UpsertOrder writes an extracted order keyed by its deterministic id.
// Re-extraction of a session overwrites the derived fields but preserves
// status and created_at, so an order already moving through the lifecycle is
// never reset to confirmed. Returns true when the order was newly created.
func (s *Store) UpsertOrder(ctx context.Context, ord order.Order) (bool, error) {
	items, err := json.Marshal(ord.Items)
	if err != nil {
		return false, fmt.Errorf("marshal items: %w", err)
	}
	toppings, err := json.Marshal(ord.Toppings)
	if err != nil {
		return false, fmt.Errorf("marshal toppings: %w", err)
	}

	var created bool
	err = s.pool.QueryRow(ctx, `
		INSERT INTO pedidos_orders
			(id, session_id, items, toppings, total, address, payment_method,
			 observations, status, created_at, estimated_delivery, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			toppings = EXCLUDED.toppings,
			total = EXCLUDED.total,
			address = EXCLUDED.address,
			payment_method = EXCLUDED.payment_method,
			observations = EXCLUDED.observations,
			estimated_delivery = EXCLUDED.estimated_delivery,
			updated_at = now()
		RETURNING (xmax = 0)`,
		ord.ID, ord.SessionID, items, toppings, ord.Total.StringFixed(2),
		ord.Address, ord.PaymentMethod, ord.Observations, string(ord.Status),
		ord.CreatedAt, ord.EstimatedDelivery,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert order %s: %w", ord.ID, err)
	}
	return created, nil
}

// GetOrder fetches one order by id.
func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, session_id, items, toppings, total::text, address,
		       payment_method, observations, status, created_at, estimated_delivery
		FROM pedidos_orders
		WHERE id = $1`,
		id,
	)
	ord, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, ErrNotFound
	}
	return ord, err
}

// ListOrders returns orders newest-first. status narrows to one lifecycle
// state when non-empty; q is a case-insensitive substring filter over
// observations and address, matching the dashboard's search behavior.
func (s *Store) ListOrders(ctx context.Context, status order.Status, q string) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, items, toppings, total::text, address,
		       payment_method, observations, status, created_at, estimated_delivery
		FROM pedidos_orders
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR observations ILIKE '%' || $2 || '%' OR address ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC`,
		string(status), q,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// AdvanceStatus moves an order strictly forward in its lifecycle. The update
// is conditional on the status the transition was validated against, so two
// racing requests past the same source state cannot both win: the loser's
// update matches zero rows and is reported as an invalid transition from the
// state that is now current.
func (s *Store) AdvanceStatus(ctx context.Context, id string, requested order.Status) (order.Order, order.Status, error) {
	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return order.Order{}, "", err
	}
	prev := current.Status

	next, err := order.Advance(prev, requested)
	if err != nil {
		return order.Order{}, prev, err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE pedidos_orders
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		string(next), id, string(prev),
	)
	if err != nil {
		return order.Order{}, prev, fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race: re-read so the error names the true current state.
		fresh, err := s.GetOrder(ctx, id)
		if err != nil {
			return order.Order{}, prev, err
		}
		return order.Order{}, fresh.Status, &order.InvalidTransitionError{Current: fresh.Status, Requested: requested}
	}

	current.Status = next
	return current, prev, nil
}

type orderRow interface {
	Scan(dest ...any) error
}

func scanOrder(row orderRow) (order.Order, error) {
	var (
		ord               order.Order
		items, toppings   []byte
		total, status     string
		estimatedDelivery *time.Time
	)
	err := row.Scan(&ord.ID, &ord.SessionID, &items, &toppings, &total,
		&ord.Address, &ord.PaymentMethod, &ord.Observations, &status,
		&ord.CreatedAt, &estimatedDelivery)
	if err != nil {
		return order.Order{}, err
	}

	if err := json.Unmarshal(items, &ord.Items); err != nil {
		return order.Order{}, fmt.Errorf("unmarshal items for %s: %w", ord.ID, err)
	}
	if len(toppings) > 0 {
		if err := json.Unmarshal(toppings, &ord.Toppings); err != nil {
			return order.Order{}, fmt.Errorf("unmarshal toppings for %s: %w", ord.ID, err)
		}
	}

	ord.Total, err = decimal.NewFromString(total)
	if err != nil {
		return order.Order{}, fmt.Errorf("parse total for %s: %w", ord.ID, err)
	}

	st, err := order.ParseStatus(status)
	if err != nil {
		return order.Order{}, fmt.Errorf("order %s: %w", ord.ID, err)
	}
	ord.Status = st

	if estimatedDelivery != nil {
		ord.EstimatedDelivery = *estimatedDelivery
	}
	return ord, nil
}
