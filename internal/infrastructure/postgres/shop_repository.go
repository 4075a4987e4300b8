package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chowline/chowline/internal/domain/shop"
)

type ShopRepository struct {
	db *sql.DB
}

func NewShopRepository(db *sql.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

func (r *ShopRepository) Insert(ctx context.Context, s *shop.Shop) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shops (id, name, email, created_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.Name, s.Email, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert shop: %w", err)
	}
	return nil
}

func (r *ShopRepository) Get(ctx context.Context, id string) (*shop.Shop, error) {
	var s shop.Shop
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM shops WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shop.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get shop: %w", err)
	}
	return &s, nil
}
