package ingredient

import "context"

type Repository interface {
	Insert(ctx context.Context, ing *Ingredient) error
	Get(ctx context.Context, shopID, id string) (*Ingredient, error)
	// GetMany returns the live state of the requested ingredients keyed by id.
	// Missing ids are absent from the result, not an error.
	GetMany(ctx context.Context, shopID string, ids []string) (map[string]*Ingredient, error)
	ListByShop(ctx context.Context, shopID string) ([]*Ingredient, error)
	Update(ctx context.Context, ing *Ingredient) error
	// AdjustStock applies a signed delta atomically with respect to other
	// adjustments on the same ingredient, flooring at zero, and returns the
	// resulting state.
	AdjustStock(ctx context.Context, shopID, id string, delta float64) (*Ingredient, error)
	// Delete removes the ingredient unless menu items still reference it, in
	// which case it fails with *InUseError. The reference check happens
	// atomically with the delete.
	Delete(ctx context.Context, shopID, id string) error
}
