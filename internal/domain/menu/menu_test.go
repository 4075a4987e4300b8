package menu

import (
	"testing"

	"github.com/chowline/chowline/internal/domain/ingredient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		itemName string
		price    float64
		category Category
		wantErr  error
	}{
		{name: "valid", itemName: "Burger", price: 89.99, category: CategoryMain},
		{name: "empty name", itemName: "", price: 10, category: CategoryMain, wantErr: ErrNameRequired},
		{name: "zero price", itemName: "Burger", price: 0, category: CategoryMain, wantErr: ErrInvalidPrice},
		{name: "negative price", itemName: "Burger", price: -1, category: CategoryMain, wantErr: ErrInvalidPrice},
		{name: "bad category", itemName: "Burger", price: 10, category: Category("snack"), wantErr: ErrInvalidCategory},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("m-1", "shop-1", tc.itemName, tc.price, tc.category, "", nil)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewWithIngredientsDoesNotDefaultToAvailable(t *testing.T) {
	item, err := New("m-1", "shop-1", "Burger", 89.99, CategoryMain, "", []string{"ing-1"})
	require.NoError(t, err)
	assert.False(t, item.Available)

	plain, err := New("m-2", "shop-1", "Water", 1, CategoryBeverage, "", nil)
	require.NoError(t, err)
	assert.True(t, plain.Available)
}

func TestSetManualAvailability(t *testing.T) {
	plain, err := New("m-1", "shop-1", "Water", 1, CategoryBeverage, "", nil)
	require.NoError(t, err)
	require.NoError(t, plain.SetManualAvailability(false))
	assert.False(t, plain.Available)
	assert.Empty(t, plain.UnavailableReason)

	composite, err := New("m-2", "shop-1", "Burger", 89.99, CategoryMain, "", []string{"ing-1"})
	require.NoError(t, err)
	assert.ErrorIs(t, composite.SetManualAvailability(true), ErrManualOverride)
	assert.False(t, composite.Available)
}

func mustIngredient(t *testing.T, id, name string, stock float64) *ingredient.Ingredient {
	t.Helper()
	ing, err := ingredient.New(id, "shop-1", name, stock, ingredient.UnitPiece, 0)
	require.NoError(t, err)
	return ing
}

func TestDerive(t *testing.T) {
	bun := mustIngredient(t, "ing-bun", "Bun", 0)
	beef := mustIngredient(t, "ing-beef", "Beef", 3)
	cheese := mustIngredient(t, "ing-cheese", "Cheese", 0)

	live := map[string]*ingredient.Ingredient{
		bun.ID: bun, beef.ID: beef, cheese.ID: cheese,
	}

	tests := []struct {
		name       string
		refs       []string
		wantAvail  bool
		wantReason string
	}{
		{name: "no refs", refs: nil, wantAvail: true},
		{name: "all in stock", refs: []string{"ing-beef"}, wantAvail: true},
		{name: "one out of stock", refs: []string{"ing-bun", "ing-beef"}, wantAvail: false, wantReason: "Bun"},
		{name: "reason follows reference order", refs: []string{"ing-cheese", "ing-beef", "ing-bun"}, wantAvail: false, wantReason: "Cheese, Bun"},
		{name: "dangling reference is unavailable", refs: []string{"ing-beef", "ing-gone"}, wantAvail: false, wantReason: "ing-gone"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			avail, reason := Derive(tc.refs, live)
			assert.Equal(t, tc.wantAvail, avail)
			assert.Equal(t, tc.wantReason, reason)
		})
	}
}

func TestDeriveIsIdempotent(t *testing.T) {
	live := map[string]*ingredient.Ingredient{
		"ing-bun": mustIngredient(t, "ing-bun", "Bun", 0),
	}
	a1, r1 := Derive([]string{"ing-bun"}, live)
	a2, r2 := Derive([]string{"ing-bun"}, live)
	assert.Equal(t, a1, a2)
	assert.Equal(t, r1, r2)
}
