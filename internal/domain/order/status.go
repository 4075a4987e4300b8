package order

import "fmt"

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

func (s Status) Valid() bool {
	_, ok := successors[s]
	return ok
}

// Terminal reports whether no further transitions are accepted.
func (s Status) Terminal() bool {
	return len(successors[s]) == 0 && s.Valid()
}

// successors encodes the fulfillment chain. Cancellation is only possible
// before the shop confirms the order.
var successors = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPreparing},
	StatusPreparing:      {StatusReady},
	StatusReady:          {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// TransitionTo advances the order along the status machine, failing with
// *InvalidTransitionError on any move the machine does not allow.
func (o *Order) TransitionTo(next Status) error {
	if !next.Valid() {
		return &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: next}
	}
	for _, allowed := range successors[o.Status] {
		if next == allowed {
			o.Status = next
			o.touch()
			return nil
		}
	}
	return &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: next}
}

// InvalidTransitionError rejects an illegal order-status change.
type InvalidTransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order: cannot transition %s from %q to %q", e.OrderID, e.From, e.To)
}
