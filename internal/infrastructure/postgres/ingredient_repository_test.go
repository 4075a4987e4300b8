package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chowline/chowline/internal/domain/ingredient"
)

func setupMock(t *testing.T) (*IngredientRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewIngredientRepository(db), mock
}

func ingredientRow(id, name string, stock float64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "shop_id", "name", "stock", "unit", "low_stock_threshold",
		"available", "created_at", "updated_at",
	}).AddRow(id, "shop-1", name, stock, "kg", 2.0, stock > 0, now, now)
}

func TestAdjustStockAppliesDeltaInSingleUpdate(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectQuery("UPDATE ingredients").
		WithArgs("shop-1", "ing-cheese", -4.0).
		WillReturnRows(ingredientRow("ing-cheese", "Cheese", 6))

	ing, err := repo.AdjustStock(context.Background(), "shop-1", "ing-cheese", -4)
	require.NoError(t, err)
	assert.InDelta(t, 6, ing.Stock, 1e-9)
	assert.True(t, ing.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStockUnknownIngredient(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectQuery("UPDATE ingredients").
		WithArgs("shop-1", "ing-ghost", 1.0).
		WillReturnRows(sqlmock.NewRows(nil))

	_, err := repo.AdjustStock(context.Background(), "shop-1", "ing-ghost", 1)
	assert.ErrorIs(t, err, ingredient.ErrNotFound)
}

func TestDeleteGuardedByReferences(t *testing.T) {
	repo, mock := setupMock(t)

	// The guarded DELETE touches nothing, then the follow-up query explains why.
	mock.ExpectExec("DELETE FROM ingredients").
		WithArgs("shop-1", "ing-cheese").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT menu_item_id FROM menu_item_ingredients").
		WithArgs("shop-1", "ing-cheese").
		WillReturnRows(sqlmock.NewRows([]string{"menu_item_id"}).
			AddRow("item-burger").
			AddRow("item-pizza"))

	err := repo.Delete(context.Background(), "shop-1", "ing-cheese")

	var inUse *ingredient.InUseError
	require.True(t, errors.As(err, &inUse))
	assert.Equal(t, 2, inUse.Count())
	assert.Equal(t, []string{"item-burger", "item-pizza"}, inUse.MenuItemIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnreferenced(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectExec("DELETE FROM ingredients").
		WithArgs("shop-1", "ing-cheese").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "shop-1", "ing-cheese"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnknownIngredient(t *testing.T) {
	repo, mock := setupMock(t)

	mock.ExpectExec("DELETE FROM ingredients").
		WithArgs("shop-1", "ing-ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT menu_item_id FROM menu_item_ingredients").
		WithArgs("shop-1", "ing-ghost").
		WillReturnRows(sqlmock.NewRows([]string{"menu_item_id"}))

	err := repo.Delete(context.Background(), "shop-1", "ing-ghost")
	assert.ErrorIs(t, err, ingredient.ErrNotFound)
}
