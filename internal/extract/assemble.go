package extract

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/acaiflow/orderboard/internal/chat"
	"github.com/acaiflow/orderboard/internal/order"
)

// estimatedLead is the fixed delivery lead time applied when nothing better
// is known.
const estimatedLead = 45 * time.Minute

// builder accumulates field resolutions for one turn. Stages read fields
// already resolved by earlier stages and fill only their own.
type builder struct {
	content string

	total    decimal.Decimal
	hasTotal bool
	items    []order.LineItem
	toppings []order.LineItem
	address  string
	payment  string
	obs      string
}

type stage func(*builder)

// stages run in a fixed order: line items and toppings resolve before the
// total so the summed fallback can read them, and item synthesis runs after
// the total so it can price the generic item.
var stages = []stage{
	stageItems,
	stageToppings,
	stageTotal,
	stageSynthesizeItem,
	stageAddress,
	stagePayment,
	stageObservations,
}

func stageItems(b *builder)    { b.items = Items(b.content) }
func stageToppings(b *builder) { b.toppings = Toppings(b.content) }

// stageTotal resolves the order total: a positive explicit marker wins;
// otherwise the total is derived from the extracted items and toppings, so it
// is never silently zero when any line has a positive price. An explicit zero
// counts as unresolved, not as a resolved zero.
func stageTotal(b *builder) {
	if total, ok := Total(b.content); ok && total.IsPositive() {
		b.total, b.hasTotal = total, true
		return
	}
	if len(b.items) > 0 {
		b.total = order.SumPrices(b.items).Add(order.SumPrices(b.toppings))
		b.hasTotal = true
	}
}

// stageSynthesizeItem guarantees a finalized order never has an empty item
// list: a positive total with no parseable items becomes one generic item
// priced at the full total.
func stageSynthesizeItem(b *builder) {
	if len(b.items) == 0 && b.hasTotal && b.total.IsPositive() {
		b.items = []order.LineItem{{Name: genericItemName, Price: b.total}}
	}
}

func stageAddress(b *builder)      { b.address = Address(b.content) }
func stagePayment(b *builder)      { b.payment = Payment(b.content) }
func stageObservations(b *builder) { b.obs = Observations(b.content) }

// producible is the single gate deciding whether the turn amounts to an
// order at all: it does when a positive total or at least one item resolved.
func (b *builder) producible() bool {
	return (b.hasTotal && b.total.IsPositive()) || len(b.items) > 0
}

// Assemble runs the extraction pipeline over one classified turn and builds
// the canonical order. The second return is false when the turn carries
// insufficient data — not an error, the conversation just isn't a completed
// order. Assembly is deterministic: re-running over the same content yields
// an identical order apart from the now-derived estimated delivery.
func Assemble(t chat.Turn, now time.Time) (order.Order, bool) {
	b := &builder{content: t.Content}
	for _, s := range stages {
		s(b)
	}
	if !b.producible() {
		return order.Order{}, false
	}

	createdAt := t.Timestamp
	if createdAt.IsZero() {
		createdAt = now
	}

	return order.Order{
		ID:                order.DeriveID(t.SessionID),
		SessionID:         t.SessionID,
		Items:             b.items,
		Toppings:          b.toppings,
		Total:             b.total,
		Address:           b.address,
		PaymentMethod:     b.payment,
		Observations:      b.obs,
		Status:            order.StatusConfirmed,
		CreatedAt:         createdAt,
		EstimatedDelivery: now.Add(estimatedLead),
	}, true
}

// FromSession classifies one session's ordered turns and assembles its order,
// if any.
func FromSession(turns []chat.Turn, now time.Time) (order.Order, bool) {
	t, ok := chat.FindOrderTurn(turns)
	if !ok {
		return order.Order{}, false
	}
	return Assemble(t, now)
}

// FromTurns groups an unordered batch of turns by session and extracts one
// order per session that has one. Sessions are independent; the output order
// follows ascending order id so results are deterministic for a given batch.
func FromTurns(turns []chat.Turn, now time.Time) []order.Order {
	sessions := chat.GroupBySession(turns)

	ids := make([]string, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var orders []order.Order
	for _, id := range ids {
		if ord, ok := FromSession(sessions[id], now); ok {
			orders = append(orders, ord)
		}
	}
	return orders
}
