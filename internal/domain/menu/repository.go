package menu

import "context"

// Repository persists menu items and maintains the reverse index
// ingredient id -> referencing items alongside the forward reference list.
type Repository interface {
	Insert(ctx context.Context, item *Item) error
	Get(ctx context.Context, shopID, id string) (*Item, error)
	ListByShop(ctx context.Context, shopID string) ([]*Item, error)
	// ListByIngredients returns every item whose reference set intersects the
	// given ingredient ids, each item at most once.
	ListByIngredients(ctx context.Context, shopID string, ingredientIDs []string) ([]*Item, error)
	// Update persists all fields and keeps the reverse index in step with
	// IngredientIDs.
	Update(ctx context.Context, item *Item) error
	// UpdateAvailability writes only the derived fields, leaving everything
	// else untouched.
	UpdateAvailability(ctx context.Context, shopID, id string, available bool, reason string) error
	Delete(ctx context.Context, shopID, id string) error
}
