package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/chowline/chowline/internal/domain/ingredient"
)

// ReferenceIndex answers which menu items currently reference an ingredient.
// The in-memory menu repository implements it; the ingredient repository
// consults it inside its own critical section so the delete precondition is
// re-validated atomically with the removal.
type ReferenceIndex interface {
	ReferencingItemIDs(shopID, ingredientID string) []string
}

type IngredientRepository struct {
	mu    sync.RWMutex
	items map[string]map[string]*domain.Ingredient // shopID -> id -> ingredient
	refs  ReferenceIndex
}

func NewIngredientRepository(refs ReferenceIndex) *IngredientRepository {
	return &IngredientRepository{
		items: make(map[string]map[string]*domain.Ingredient),
		refs:  refs,
	}
}

func (r *IngredientRepository) Insert(ctx context.Context, ing *domain.Ingredient) error {
	_ = ctx
	if ing == nil || ing.ID == "" {
		return fmt.Errorf("ingredient repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	shop, ok := r.items[ing.ShopID]
	if !ok {
		shop = make(map[string]*domain.Ingredient)
		r.items[ing.ShopID] = shop
	}
	shop[ing.ID] = ing.Clone()
	return nil
}

func (r *IngredientRepository) Get(ctx context.Context, shopID, id string) (*domain.Ingredient, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	ing, ok := r.items[shopID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ing.Clone(), nil
}

func (r *IngredientRepository) GetMany(ctx context.Context, shopID string, ids []string) (map[string]*domain.Ingredient, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*domain.Ingredient, len(ids))
	for _, id := range ids {
		if ing, ok := r.items[shopID][id]; ok {
			out[id] = ing.Clone()
		}
	}
	return out, nil
}

func (r *IngredientRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.Ingredient, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Ingredient, 0, len(r.items[shopID]))
	for _, ing := range r.items[shopID] {
		out = append(out, ing.Clone())
	}
	return out, nil
}

func (r *IngredientRepository) Update(ctx context.Context, ing *domain.Ingredient) error {
	_ = ctx
	if ing == nil || ing.ID == "" {
		return fmt.Errorf("ingredient repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[ing.ShopID][ing.ID]; !ok {
		return domain.ErrNotFound
	}
	r.items[ing.ShopID][ing.ID] = ing.Clone()
	return nil
}

// AdjustStock applies the delta under the repository lock so concurrent
// adjustments on the same ingredient serialize instead of losing writes.
func (r *IngredientRepository) AdjustStock(ctx context.Context, shopID, id string, delta float64) (*domain.Ingredient, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	ing, ok := r.items[shopID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ing.Adjust(delta)
	return ing.Clone(), nil
}

func (r *IngredientRepository) Delete(ctx context.Context, shopID, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[shopID][id]; !ok {
		return domain.ErrNotFound
	}
	if r.refs != nil {
		if blocking := r.refs.ReferencingItemIDs(shopID, id); len(blocking) > 0 {
			return &domain.InUseError{ShopID: shopID, IngredientID: id, MenuItemIDs: blocking}
		}
	}
	delete(r.items[shopID], id)
	return nil
}
