package ingredient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		ingName   string
		stock     float64
		unit      Unit
		threshold float64
		wantErr   error
	}{
		{name: "valid", ingName: "Bun", stock: 5, unit: UnitPiece, threshold: 2},
		{name: "zero stock is valid but unavailable", ingName: "Bun", stock: 0, unit: UnitPiece},
		{name: "empty name", ingName: "  ", stock: 1, unit: UnitGram, wantErr: ErrNameRequired},
		{name: "unknown unit", ingName: "Flour", stock: 1, unit: Unit("bag"), wantErr: ErrInvalidUnit},
		{name: "negative stock", ingName: "Flour", stock: -1, unit: UnitKilogram, wantErr: ErrNegativeStock},
		{name: "negative threshold", ingName: "Flour", stock: 1, unit: UnitKilogram, threshold: -0.5, wantErr: ErrNegativeThreshold},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ing, err := New("ing-1", "shop-1", tc.ingName, tc.stock, tc.unit, tc.threshold)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.stock > 0, ing.Available)
		})
	}
}

func TestAdjustFloorsAtZero(t *testing.T) {
	ing, err := New("ing-1", "shop-1", "Bun", 3, UnitPiece, 1)
	require.NoError(t, err)

	ing.Adjust(-5)
	assert.Equal(t, 0.0, ing.Stock)
	assert.False(t, ing.Available)

	ing.Adjust(2.5)
	assert.Equal(t, 2.5, ing.Stock)
	assert.True(t, ing.Available)
}

func TestSetStockRecomputesAvailable(t *testing.T) {
	ing, err := New("ing-1", "shop-1", "Bun", 0, UnitPiece, 1)
	require.NoError(t, err)
	assert.False(t, ing.Available)

	require.NoError(t, ing.SetStock(4))
	assert.True(t, ing.Available)

	require.NoError(t, ing.SetStock(0))
	assert.False(t, ing.Available)

	assert.ErrorIs(t, ing.SetStock(-1), ErrNegativeStock)
}

func TestDeltaFor(t *testing.T) {
	tests := []struct {
		name    string
		op      Op
		amount  float64
		want    float64
		wantErr bool
	}{
		{name: "add", op: OpAdd, amount: 5, want: 5},
		{name: "subtract", op: OpSubtract, amount: 3, want: -3},
		{name: "zero amount", op: OpAdd, amount: 0, wantErr: true},
		{name: "negative amount", op: OpSubtract, amount: -2, wantErr: true},
		{name: "unknown op", op: Op("set"), amount: 1, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DeltaFor(tc.op, tc.amount)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAdjustment)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLowStock(t *testing.T) {
	ing, err := New("ing-1", "shop-1", "Bun", 2, UnitPiece, 2)
	require.NoError(t, err)
	assert.True(t, ing.LowStock())
	assert.True(t, ing.Available)

	require.NoError(t, ing.SetStock(2.1))
	assert.False(t, ing.LowStock())
}

func TestInUseError(t *testing.T) {
	err := &InUseError{ShopID: "shop-1", IngredientID: "ing-1", MenuItemIDs: []string{"m-1", "m-2"}}
	assert.Equal(t, 2, err.Count())
	assert.Contains(t, err.Error(), "2 menu item")
}
