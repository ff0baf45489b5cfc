// Package events publishes order lifecycle notifications to NATS. The broker
// is optional: a nil *Client is safe to call and drops everything, so the
// service runs unchanged without messaging configured.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/acaiflow/orderboard/internal/order"
)

const (
	SubjectOrderCreated       = "orderboard.order.created"
	SubjectOrderStatusChanged = "orderboard.order.status_changed"
)

// OrderCreated is published once per newly extracted order.
type OrderCreated struct {
	EventID   string    `json:"event_id"`
	OrderID   string    `json:"order_id"`
	SessionID string    `json:"session_id"`
	Total     string    `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusChanged is published after every successful lifecycle advance.
type StatusChanged struct {
	EventID   string    `json:"event_id"`
	OrderID   string    `json:"order_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Label     string    `json:"label"` // operator-facing label of the new state
	Timestamp time.Time `json:"timestamp"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) publish(subject string, data any) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// PublishOrderCreated announces a newly extracted order.
func (c *Client) PublishOrderCreated(ord order.Order) error {
	return c.publish(SubjectOrderCreated, OrderCreated{
		EventID:   uuid.New().String(),
		OrderID:   ord.ID,
		SessionID: ord.SessionID,
		Total:     ord.Total.StringFixed(2),
		Timestamp: time.Now().UTC(),
	})
}

// PublishStatusChanged announces a successful lifecycle transition.
func (c *Client) PublishStatusChanged(orderID string, from, to order.Status) error {
	return c.publish(SubjectOrderStatusChanged, StatusChanged{
		EventID:   uuid.New().String(),
		OrderID:   orderID,
		From:      string(from),
		To:        string(to),
		Label:     to.Label(),
		Timestamp: time.Now().UTC(),
	})
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	c.conn.Close()
}
