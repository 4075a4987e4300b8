package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/chowline/chowline/internal/domain/shop"
)

type ShopRepository struct {
	mu    sync.RWMutex
	shops map[string]*domain.Shop
}

func NewShopRepository() *ShopRepository {
	return &ShopRepository{
		shops: make(map[string]*domain.Shop),
	}
}

func (r *ShopRepository) Insert(ctx context.Context, s *domain.Shop) error {
	_ = ctx
	if s == nil || s.ID == "" {
		return fmt.Errorf("shop repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.shops[s.ID] = s.Clone()
	return nil
}

func (r *ShopRepository) Get(ctx context.Context, id string) (*domain.Shop, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.shops[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}
