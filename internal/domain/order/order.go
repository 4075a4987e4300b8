package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrConflict        = errors.New("order: already exists")
	ErrNoLines         = errors.New("order: at least one line item is required")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrNegativeFee     = errors.New("order: delivery fee must be zero or greater")
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Line is a priced order line captured at admission time. Name and Price are
// copies of the menu item state at acceptance; later catalog edits do not
// touch them.
type Line struct {
	MenuItemID string
	Name       string
	Price      float64
	Quantity   int
	LineTotal  float64
}

// Order is an immutable historical snapshot; only Status and PaymentStatus
// change after creation.
type Order struct {
	ID              string
	ShopID          string
	Lines           []Line
	Subtotal        float64
	DeliveryFee     float64
	Total           float64
	Status          Status
	PaymentStatus   PaymentStatus
	DeliveryAddress string
	PaymentMethod   string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func New(id, shopID string, lines []Line, deliveryFee float64, deliveryAddress, paymentMethod, notes string) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	if deliveryFee < 0 {
		return nil, ErrNegativeFee
	}

	var subtotal float64
	snapshot := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		l.LineTotal = l.Price * float64(l.Quantity)
		subtotal += l.LineTotal
		snapshot = append(snapshot, l)
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		ShopID:          shopID,
		Lines:           snapshot,
		Subtotal:        subtotal,
		DeliveryFee:     deliveryFee,
		Total:           subtotal + deliveryFee,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		DeliveryAddress: deliveryAddress,
		PaymentMethod:   paymentMethod,
		Notes:           notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
