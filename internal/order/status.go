package order

import "fmt"

// Status is the operational state of an order. The lifecycle is linear and
// forward-only: confirmed → preparing → delivering → delivered. The enum keys
// are the persisted vocabulary; localized labels are presentation-only.
type Status string

const (
	StatusConfirmed  Status = "confirmed"
	StatusPreparing  Status = "preparing"
	StatusDelivering Status = "delivering"
	StatusDelivered  Status = "delivered"
)

// statusRank is the single source of truth for lifecycle ordering.
var statusRank = map[Status]int{
	StatusConfirmed:  0,
	StatusPreparing:  1,
	StatusDelivering: 2,
	StatusDelivered:  3,
}

var statusLabels = map[Status]string{
	StatusConfirmed:  "confirmado",
	StatusPreparing:  "preparando",
	StatusDelivering: "saiu para entrega",
	StatusDelivered:  "entregue",
}

// ParseStatus validates a raw status string against the closed enum.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusRank[st]; !ok {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the four lifecycle states.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Label returns the operator-facing Portuguese label for s.
func (s Status) Label() string {
	return statusLabels[s]
}

// InvalidTransitionError reports a status-advance request that is not
// strictly forward of the current state.
type InvalidTransitionError struct {
	Current   Status
	Requested Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.Current, e.Requested)
}

// CanAdvance reports whether moving from current to requested is legal.
// Requests equal to the current status are rejected to keep transitions
// strictly monotonic.
func CanAdvance(current, requested Status) bool {
	cr, ok := statusRank[current]
	if !ok {
		return false
	}
	rr, ok := statusRank[requested]
	if !ok {
		return false
	}
	return rr > cr
}

// Advance validates a transition request against the lifecycle. It returns
// an *InvalidTransitionError identifying both states when the request is not
// strictly forward; it never mutates anything.
func Advance(current, requested Status) (Status, error) {
	if !CanAdvance(current, requested) {
		return current, &InvalidTransitionError{Current: current, Requested: requested}
	}
	return requested, nil
}
