package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/chowline/chowline/internal/domain/menu"
)

type MenuRepository struct {
	db *sql.DB
}

func NewMenuRepository(db *sql.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

const menuColumns = `id, shop_id, name, price, category, description, available, unavailable_reason, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...any) error }) (*menu.Item, error) {
	var item menu.Item
	err := row.Scan(
		&item.ID, &item.ShopID, &item.Name, &item.Price, &item.Category,
		&item.Description, &item.Available, &item.UnavailableReason,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *MenuRepository) Insert(ctx context.Context, item *menu.Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: insert menu item: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO menu_items (`+menuColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.ShopID, item.Name, item.Price, item.Category,
		item.Description, item.Available, item.UnavailableReason,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert menu item: %w", err)
	}
	if err := replaceReferences(ctx, tx, item); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: insert menu item: %w", err)
	}
	return nil
}

func (r *MenuRepository) Get(ctx context.Context, shopID, id string) (*menu.Item, error) {
	item, err := scanMenuItem(r.db.QueryRowContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE shop_id = $1 AND id = $2`,
		shopID, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, menu.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get menu item: %w", err)
	}
	if err := r.loadReferences(ctx, shopID, map[string]*menu.Item{item.ID: item}); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *MenuRepository) ListByShop(ctx context.Context, shopID string) ([]*menu.Item, error) {
	return r.list(ctx, shopID,
		`SELECT `+menuColumns+` FROM menu_items WHERE shop_id = $1 ORDER BY created_at, id`,
		shopID,
	)
}

func (r *MenuRepository) ListByIngredients(ctx context.Context, shopID string, ingredientIDs []string) ([]*menu.Item, error) {
	if len(ingredientIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, shopID,
		`SELECT DISTINCT m.id, m.shop_id, m.name, m.price, m.category, m.description,
		        m.available, m.unavailable_reason, m.created_at, m.updated_at
		 FROM menu_items m
		 JOIN menu_item_ingredients mii
		   ON mii.shop_id = m.shop_id AND mii.menu_item_id = m.id
		 WHERE m.shop_id = $1 AND mii.ingredient_id = ANY($2)
		 ORDER BY m.created_at, m.id`,
		shopID, pq.Array(ingredientIDs),
	)
}

func (r *MenuRepository) list(ctx context.Context, shopID, query string, args ...any) ([]*menu.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list menu items: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*menu.Item)
	var out []*menu.Item
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan menu item: %w", err)
		}
		byID[item.ID] = item
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list menu items: %w", err)
	}
	if err := r.loadReferences(ctx, shopID, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MenuRepository) loadReferences(ctx context.Context, shopID string, items map[string]*menu.Item) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT menu_item_id, ingredient_id FROM menu_item_ingredients
		 WHERE shop_id = $1 AND menu_item_id = ANY($2)
		 ORDER BY menu_item_id, position`,
		shopID, pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("postgres: load menu references: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var itemID, ingredientID string
		if err := rows.Scan(&itemID, &ingredientID); err != nil {
			return fmt.Errorf("postgres: load menu references: %w", err)
		}
		if item, ok := items[itemID]; ok {
			item.IngredientIDs = append(item.IngredientIDs, ingredientID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: load menu references: %w", err)
	}
	return nil
}

func (r *MenuRepository) Update(ctx context.Context, item *menu.Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: update menu item: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE menu_items
		 SET name = $3, price = $4, category = $5, description = $6,
		     available = $7, unavailable_reason = $8, updated_at = $9
		 WHERE shop_id = $1 AND id = $2`,
		item.ShopID, item.ID, item.Name, item.Price, item.Category,
		item.Description, item.Available, item.UnavailableReason, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update menu item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: update menu item: %w", err)
	}
	if n == 0 {
		return menu.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM menu_item_ingredients WHERE shop_id = $1 AND menu_item_id = $2`,
		item.ShopID, item.ID,
	); err != nil {
		return fmt.Errorf("postgres: update menu item: %w", err)
	}
	if err := replaceReferences(ctx, tx, item); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: update menu item: %w", err)
	}
	return nil
}

func replaceReferences(ctx context.Context, tx *sql.Tx, item *menu.Item) error {
	for pos, ingredientID := range item.IngredientIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO menu_item_ingredients (shop_id, menu_item_id, ingredient_id, position)
			 VALUES ($1, $2, $3, $4)`,
			item.ShopID, item.ID, ingredientID, pos,
		); err != nil {
			return fmt.Errorf("postgres: insert menu reference: %w", err)
		}
	}
	return nil
}

func (r *MenuRepository) UpdateAvailability(ctx context.Context, shopID, id string, available bool, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE menu_items
		 SET available = $3, unavailable_reason = $4, updated_at = now()
		 WHERE shop_id = $1 AND id = $2`,
		shopID, id, available, reason,
	)
	if err != nil {
		return fmt.Errorf("postgres: update menu availability: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: update menu availability: %w", err)
	}
	if n == 0 {
		return menu.ErrNotFound
	}
	return nil
}

func (r *MenuRepository) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM menu_items WHERE shop_id = $1 AND id = $2`,
		shopID, id,
	)
	if err != nil {
		return fmt.Errorf("postgres: delete menu item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: delete menu item: %w", err)
	}
	if n == 0 {
		return menu.ErrNotFound
	}
	return nil
}
