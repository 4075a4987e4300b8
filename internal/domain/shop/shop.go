package shop

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("shop: not found")
	ErrNotOwner = errors.New("shop: principal does not own this shop")

	ErrNameRequired  = errors.New("shop: name is required")
	ErrEmailRequired = errors.New("shop: email is required")
)

// Shop is the owning aggregate for ingredients, menu items, and orders.
// Registration and profile editing happen in the excluded CRUD layer; the
// core only needs identity and the owner's email for authorization.
type Shop struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

func New(id, name, email string) (*Shop, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	return &Shop{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *Shop) Clone() *Shop {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
