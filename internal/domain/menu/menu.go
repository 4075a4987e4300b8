package menu

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("menu: item not found")
	ErrNameRequired    = errors.New("menu: name is required")
	ErrInvalidPrice    = errors.New("menu: price must be greater than zero")
	ErrInvalidCategory = errors.New("menu: category is not recognized")
	// ErrManualOverride rejects manual availability toggles on items whose
	// availability is ingredient-derived. The derived value is authoritative.
	ErrManualOverride = errors.New("menu: availability is derived from ingredients and cannot be set manually")
)

type Category string

const (
	CategoryAppetizer Category = "appetizer"
	CategoryMain      Category = "main"
	CategorySide      Category = "side"
	CategoryDessert   Category = "dessert"
	CategoryBeverage  Category = "beverage"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryAppetizer, CategoryMain, CategorySide, CategoryDessert, CategoryBeverage:
		return true
	}
	return false
}

// Item is a sellable catalog entry. Available and UnavailableReason are
// denormalized: stored for cheap reads, recomputed on every write to the
// stock of a referenced ingredient. When IngredientIDs is empty the owner
// controls Available directly.
type Item struct {
	ID            string
	ShopID        string
	Name          string
	Price         float64
	Category      Category
	Description   string
	IngredientIDs []string

	Available         bool
	UnavailableReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, shopID, name string, price float64, category Category, description string, ingredientIDs []string) (*Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	now := time.Now().UTC()
	return &Item{
		ID:            id,
		ShopID:        shopID,
		Name:          name,
		Price:         price,
		Category:      category,
		Description:   description,
		IngredientIDs: append([]string(nil), ingredientIDs...),
		// Items with ingredients must not default to available; the caller
		// derives the real value from live ingredient state before saving.
		Available: len(ingredientIDs) == 0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (m *Item) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	m.Name = name
	m.touch()
	return nil
}

func (m *Item) SetPrice(price float64) error {
	if price <= 0 {
		return ErrInvalidPrice
	}
	m.Price = price
	m.touch()
	return nil
}

func (m *Item) SetCategory(category Category) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	m.Category = category
	m.touch()
	return nil
}

func (m *Item) SetDescription(description string) {
	m.Description = description
	m.touch()
}

// SetIngredients replaces the reference list. The caller must re-derive
// availability against the new set before persisting.
func (m *Item) SetIngredients(ids []string) {
	m.IngredientIDs = append([]string(nil), ids...)
	m.touch()
}

// SetManualAvailability toggles availability for items without ingredient
// references. Items with references reject the override.
func (m *Item) SetManualAvailability(available bool) error {
	if len(m.IngredientIDs) > 0 {
		return ErrManualOverride
	}
	m.Available = available
	m.UnavailableReason = ""
	m.touch()
	return nil
}

// SetDerivedAvailability records the reconciler's verdict.
func (m *Item) SetDerivedAvailability(available bool, reason string) {
	m.Available = available
	m.UnavailableReason = reason
	m.touch()
}

func (m *Item) Clone() *Item {
	if m == nil {
		return nil
	}
	clone := *m
	clone.IngredientIDs = append([]string(nil), m.IngredientIDs...)
	return &clone
}

func (m *Item) touch() {
	m.UpdatedAt = time.Now().UTC()
}

// UnavailableError rejects an order line for an item that is not currently
// available.
type UnavailableError struct {
	MenuItemID string
	Name       string
	Reason     string
}

func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("menu: %q is not available (out of stock: %s)", e.Name, e.Reason)
	}
	return fmt.Sprintf("menu: %q is not available", e.Name)
}
