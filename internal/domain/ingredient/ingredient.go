package ingredient

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("ingredient: not found")
	ErrNameRequired      = errors.New("ingredient: name is required")
	ErrInvalidUnit       = errors.New("ingredient: unit is not recognized")
	ErrNegativeStock     = errors.New("ingredient: stock must be zero or greater")
	ErrNegativeThreshold = errors.New("ingredient: low-stock threshold must be zero or greater")
	ErrInvalidAdjustment = errors.New("ingredient: adjustment amount must be greater than zero")
)

// Unit is the measurement unit stock is tracked in.
type Unit string

const (
	UnitPiece      Unit = "pcs"
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitPiece, UnitGram, UnitKilogram, UnitMilliliter, UnitLiter:
		return true
	}
	return false
}

// Op is a relative stock adjustment direction.
type Op string

const (
	OpAdd      Op = "add"
	OpSubtract Op = "subtract"
)

// DeltaFor translates an adjustment request into a signed stock delta.
func DeltaFor(op Op, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAdjustment
	}
	switch op {
	case OpAdd:
		return amount, nil
	case OpSubtract:
		return -amount, nil
	default:
		return 0, fmt.Errorf("%w: operation %q", ErrInvalidAdjustment, op)
	}
}

// Ingredient is a stock-tracked raw input owned by a shop. Available is
// derived from Stock and only ever recomputed together with it.
type Ingredient struct {
	ID                string
	ShopID            string
	Name              string
	Stock             float64
	Unit              Unit
	LowStockThreshold float64
	Available         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func New(id, shopID, name string, stock float64, unit Unit, lowStockThreshold float64) (*Ingredient, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	if !unit.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	if stock < 0 {
		return nil, ErrNegativeStock
	}
	if lowStockThreshold < 0 {
		return nil, ErrNegativeThreshold
	}

	now := time.Now().UTC()
	return &Ingredient{
		ID:                id,
		ShopID:            shopID,
		Name:              name,
		Stock:             stock,
		Unit:              unit,
		LowStockThreshold: lowStockThreshold,
		Available:         stock > 0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func (i *Ingredient) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	i.Name = name
	i.touch()
	return nil
}

// SetStock replaces the stock level and recomputes Available.
func (i *Ingredient) SetStock(stock float64) error {
	if stock < 0 {
		return ErrNegativeStock
	}
	i.Stock = stock
	i.Available = stock > 0
	i.touch()
	return nil
}

// Adjust applies a relative delta. Subtraction floors at zero.
func (i *Ingredient) Adjust(delta float64) {
	next := i.Stock + delta
	if next < 0 {
		next = 0
	}
	i.Stock = next
	i.Available = next > 0
	i.touch()
}

func (i *Ingredient) SetUnit(unit Unit) error {
	if !unit.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	i.Unit = unit
	i.touch()
	return nil
}

func (i *Ingredient) SetLowStockThreshold(threshold float64) error {
	if threshold < 0 {
		return ErrNegativeThreshold
	}
	i.LowStockThreshold = threshold
	i.touch()
	return nil
}

// LowStock is a warning state distinct from Available.
func (i *Ingredient) LowStock() bool {
	return i.Stock <= i.LowStockThreshold
}

func (i *Ingredient) Clone() *Ingredient {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

func (i *Ingredient) touch() {
	i.UpdatedAt = time.Now().UTC()
}

// InUseError blocks deletion of an ingredient that menu items still reference.
type InUseError struct {
	ShopID       string
	IngredientID string
	MenuItemIDs  []string
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("ingredient: %s is referenced by %d menu item(s)", e.IngredientID, len(e.MenuItemIDs))
}

// Count reports how many menu items block the deletion.
func (e *InUseError) Count() int { return len(e.MenuItemIDs) }
