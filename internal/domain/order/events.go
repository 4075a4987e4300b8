package order

import "time"

// PlacedEvent is emitted after an order passed admission and was persisted.
type PlacedEvent struct {
	OrderID    string
	ShopID     string
	LineCount  int
	Subtotal   float64
	Total      float64
	OccurredAt time.Time
}

func (PlacedEvent) EventName() string { return "order.placed" }

func NewPlacedEvent(o *Order) PlacedEvent {
	return PlacedEvent{
		OrderID:    o.ID,
		ShopID:     o.ShopID,
		LineCount:  len(o.Lines),
		Subtotal:   o.Subtotal,
		Total:      o.Total,
		OccurredAt: time.Now().UTC(),
	}
}

// StatusChangedEvent is emitted after a successful status transition.
type StatusChangedEvent struct {
	OrderID    string
	ShopID     string
	From       Status
	To         Status
	OccurredAt time.Time
}

func (StatusChangedEvent) EventName() string { return "order.status_changed" }

func NewStatusChangedEvent(o *Order, from Status) StatusChangedEvent {
	return StatusChangedEvent{
		OrderID:    o.ID,
		ShopID:     o.ShopID,
		From:       from,
		To:         o.Status,
		OccurredAt: time.Now().UTC(),
	}
}
