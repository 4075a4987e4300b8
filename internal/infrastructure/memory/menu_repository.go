package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/chowline/chowline/internal/domain/menu"
)

// MenuRepository stores menu items and maintains the reverse index
// ingredient id -> dependent menu item ids incrementally on every write that
// changes a reference list.
type MenuRepository struct {
	mu           sync.RWMutex
	items        map[string]map[string]*domain.Item        // shopID -> id -> item
	byIngredient map[string]map[string]map[string]struct{} // shopID -> ingredientID -> set(itemID)
}

func NewMenuRepository() *MenuRepository {
	return &MenuRepository{
		items:        make(map[string]map[string]*domain.Item),
		byIngredient: make(map[string]map[string]map[string]struct{}),
	}
}

func (r *MenuRepository) Insert(ctx context.Context, item *domain.Item) error {
	_ = ctx
	if item == nil || item.ID == "" {
		return fmt.Errorf("menu repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	shop, ok := r.items[item.ShopID]
	if !ok {
		shop = make(map[string]*domain.Item)
		r.items[item.ShopID] = shop
	}
	shop[item.ID] = item.Clone()
	r.index(item.ShopID, item.ID, item.IngredientIDs)
	return nil
}

func (r *MenuRepository) Get(ctx context.Context, shopID, id string) (*domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[shopID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item.Clone(), nil
}

func (r *MenuRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Item, 0, len(r.items[shopID]))
	for _, item := range r.items[shopID] {
		out = append(out, item.Clone())
	}
	return out, nil
}

func (r *MenuRepository) ListByIngredients(ctx context.Context, shopID string, ingredientIDs []string) ([]*domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, ingID := range ingredientIDs {
		for itemID := range r.byIngredient[shopID][ingID] {
			seen[itemID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic reconcile order

	out := make([]*domain.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.items[shopID][id]; ok {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

func (r *MenuRepository) Update(ctx context.Context, item *domain.Item) error {
	_ = ctx
	if item == nil || item.ID == "" {
		return fmt.Errorf("menu repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.items[item.ShopID][item.ID]
	if !ok {
		return domain.ErrNotFound
	}
	r.unindex(item.ShopID, item.ID, prev.IngredientIDs)
	r.items[item.ShopID][item.ID] = item.Clone()
	r.index(item.ShopID, item.ID, item.IngredientIDs)
	return nil
}

func (r *MenuRepository) UpdateAvailability(ctx context.Context, shopID, id string, available bool, reason string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[shopID][id]
	if !ok {
		return domain.ErrNotFound
	}
	item.SetDerivedAvailability(available, reason)
	return nil
}

func (r *MenuRepository) Delete(ctx context.Context, shopID, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[shopID][id]
	if !ok {
		return domain.ErrNotFound
	}
	r.unindex(shopID, id, item.IngredientIDs)
	delete(r.items[shopID], id)
	return nil
}

// ReferencingItemIDs implements the ReferenceIndex consulted by the
// ingredient repository's delete guard.
func (r *MenuRepository) ReferencingItemIDs(shopID, ingredientID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byIngredient[shopID][ingredientID]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *MenuRepository) index(shopID, itemID string, ingredientIDs []string) {
	if len(ingredientIDs) == 0 {
		return
	}
	shop, ok := r.byIngredient[shopID]
	if !ok {
		shop = make(map[string]map[string]struct{})
		r.byIngredient[shopID] = shop
	}
	for _, ingID := range ingredientIDs {
		set, ok := shop[ingID]
		if !ok {
			set = make(map[string]struct{})
			shop[ingID] = set
		}
		set[itemID] = struct{}{}
	}
}

func (r *MenuRepository) unindex(shopID, itemID string, ingredientIDs []string) {
	shop := r.byIngredient[shopID]
	for _, ingID := range ingredientIDs {
		if set, ok := shop[ingID]; ok {
			delete(set, itemID)
			if len(set) == 0 {
				delete(shop, ingID)
			}
		}
	}
}
