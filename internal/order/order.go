package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a single priced entry on an order. Toppings use the same shape;
// a zero price means the topping is included in the order total.
type LineItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Order is the canonical record derived from one ordering conversation.
// Items and toppings keep extraction order. Observations is empty when the
// customer left none (the "Nenhuma observação adicional" literal normalizes
// to empty).
type Order struct {
	ID                string          `json:"id"`
	SessionID         string          `json:"session_id"`
	Items             []LineItem      `json:"items"`
	Toppings          []LineItem      `json:"toppings"`
	Total             decimal.Decimal `json:"total"`
	Address           string          `json:"address"`
	PaymentMethod     string          `json:"payment_method"`
	Observations      string          `json:"observations,omitempty"`
	Status            Status          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
}

// DeriveID returns the stable order id for a session: "order-" plus the last
// eight characters of the session id. Re-extracting the same session always
// yields the same id.
func DeriveID(sessionID string) string {
	suffix := sessionID
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return "order-" + suffix
}

// SumPrices returns the sum of all line item prices.
func SumPrices(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price)
	}
	return sum
}
