package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/chowline/chowline/internal/domain/ingredient"
)

type IngredientRepository struct {
	db *sql.DB
}

func NewIngredientRepository(db *sql.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

const ingredientColumns = `id, shop_id, name, stock, unit, low_stock_threshold, available, created_at, updated_at`

func scanIngredient(row interface{ Scan(...any) error }) (*ingredient.Ingredient, error) {
	var ing ingredient.Ingredient
	err := row.Scan(
		&ing.ID, &ing.ShopID, &ing.Name, &ing.Stock, &ing.Unit,
		&ing.LowStockThreshold, &ing.Available, &ing.CreatedAt, &ing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

func (r *IngredientRepository) Insert(ctx context.Context, ing *ingredient.Ingredient) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (`+ingredientColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ing.ID, ing.ShopID, ing.Name, ing.Stock, ing.Unit,
		ing.LowStockThreshold, ing.Available, ing.CreatedAt, ing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert ingredient: %w", err)
	}
	return nil
}

func (r *IngredientRepository) Get(ctx context.Context, shopID, id string) (*ingredient.Ingredient, error) {
	ing, err := scanIngredient(r.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE shop_id = $1 AND id = $2`,
		shopID, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ingredient.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get ingredient: %w", err)
	}
	return ing, nil
}

func (r *IngredientRepository) GetMany(ctx context.Context, shopID string, ids []string) (map[string]*ingredient.Ingredient, error) {
	out := make(map[string]*ingredient.Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE shop_id = $1 AND id = ANY($2)`,
		shopID, pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: get ingredients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan ingredient: %w", err)
		}
		out[ing.ID] = ing
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: get ingredients: %w", err)
	}
	return out, nil
}

func (r *IngredientRepository) ListByShop(ctx context.Context, shopID string) ([]*ingredient.Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE shop_id = $1 ORDER BY created_at, id`,
		shopID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ingredients: %w", err)
	}
	defer rows.Close()
	var out []*ingredient.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan ingredient: %w", err)
		}
		out = append(out, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list ingredients: %w", err)
	}
	return out, nil
}

func (r *IngredientRepository) Update(ctx context.Context, ing *ingredient.Ingredient) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE ingredients
		 SET name = $3, stock = $4, unit = $5, low_stock_threshold = $6,
		     available = $7, updated_at = $8
		 WHERE shop_id = $1 AND id = $2`,
		ing.ShopID, ing.ID, ing.Name, ing.Stock, ing.Unit,
		ing.LowStockThreshold, ing.Available, ing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update ingredient: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: update ingredient: %w", err)
	}
	if n == 0 {
		return ingredient.ErrNotFound
	}
	return nil
}

// AdjustStock applies the delta in a single UPDATE so concurrent adjustments
// serialize on the row lock. GREATEST floors the result at zero.
func (r *IngredientRepository) AdjustStock(ctx context.Context, shopID, id string, delta float64) (*ingredient.Ingredient, error) {
	ing, err := scanIngredient(r.db.QueryRowContext(ctx,
		`UPDATE ingredients
		 SET stock = GREATEST(stock + $3, 0),
		     available = GREATEST(stock + $3, 0) > 0,
		     updated_at = now()
		 WHERE shop_id = $1 AND id = $2
		 RETURNING `+ingredientColumns,
		shopID, id, delta,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ingredient.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: adjust stock: %w", err)
	}
	return ing, nil
}

// Delete removes the ingredient only when no menu item references it. The
// guard runs inside the DELETE statement, so a concurrent reference insert
// cannot slip between check and delete.
func (r *IngredientRepository) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM ingredients i
		 WHERE i.shop_id = $1 AND i.id = $2
		   AND NOT EXISTS (
		     SELECT 1 FROM menu_item_ingredients mii
		     WHERE mii.shop_id = i.shop_id AND mii.ingredient_id = i.id
		   )`,
		shopID, id,
	)
	if err != nil {
		return fmt.Errorf("postgres: delete ingredient: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: delete ingredient: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing deleted: either the ingredient is gone or it is still in use.
	rows, err := r.db.QueryContext(ctx,
		`SELECT menu_item_id FROM menu_item_ingredients
		 WHERE shop_id = $1 AND ingredient_id = $2 ORDER BY menu_item_id`,
		shopID, id,
	)
	if err != nil {
		return fmt.Errorf("postgres: delete ingredient: %w", err)
	}
	defer rows.Close()
	var itemIDs []string
	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			return fmt.Errorf("postgres: delete ingredient: %w", err)
		}
		itemIDs = append(itemIDs, itemID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: delete ingredient: %w", err)
	}
	if len(itemIDs) > 0 {
		return &ingredient.InUseError{ShopID: shopID, IngredientID: id, MenuItemIDs: itemIDs}
	}
	return ingredient.ErrNotFound
}
