package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domingredient "github.com/chowline/chowline/internal/domain/ingredient"
	dommenu "github.com/chowline/chowline/internal/domain/menu"
)

const testShopID = "shop-1"

func newItem(t *testing.T, id string, ingredientIDs []string) *dommenu.Item {
	t.Helper()
	item, err := dommenu.New(id, testShopID, "Item "+id, 9.99, dommenu.CategoryMain, "", ingredientIDs)
	require.NoError(t, err)
	return item
}

func itemIDs(items []*dommenu.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestReverseIndexFollowsReferenceChanges(t *testing.T) {
	ctx := context.Background()
	repo := NewMenuRepository()

	require.NoError(t, repo.Insert(ctx, newItem(t, "item-a", []string{"ing-1", "ing-2"})))
	require.NoError(t, repo.Insert(ctx, newItem(t, "item-b", []string{"ing-2"})))

	deps, err := repo.ListByIngredients(ctx, testShopID, []string{"ing-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"item-a", "item-b"}, itemIDs(deps))

	// Replacing item-a's references drops it from ing-2's dependents.
	itemA, err := repo.Get(ctx, testShopID, "item-a")
	require.NoError(t, err)
	itemA.SetIngredients([]string{"ing-3"})
	require.NoError(t, repo.Update(ctx, itemA))

	deps, err = repo.ListByIngredients(ctx, testShopID, []string{"ing-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"item-b"}, itemIDs(deps))

	deps, err = repo.ListByIngredients(ctx, testShopID, []string{"ing-3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"item-a"}, itemIDs(deps))
}

func TestReverseIndexDedupesAcrossIngredients(t *testing.T) {
	ctx := context.Background()
	repo := NewMenuRepository()

	require.NoError(t, repo.Insert(ctx, newItem(t, "item-a", []string{"ing-1", "ing-2"})))

	deps, err := repo.ListByIngredients(ctx, testShopID, []string{"ing-1", "ing-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"item-a"}, itemIDs(deps))
}

func TestDeleteCleansReverseIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewMenuRepository()

	require.NoError(t, repo.Insert(ctx, newItem(t, "item-a", []string{"ing-1"})))
	require.NoError(t, repo.Delete(ctx, testShopID, "item-a"))

	assert.Empty(t, repo.ReferencingItemIDs(testShopID, "ing-1"))
}

func TestIngredientDeleteGuard(t *testing.T) {
	ctx := context.Background()
	menuRepo := NewMenuRepository()
	ingRepo := NewIngredientRepository(menuRepo)

	ing, err := domingredient.New("ing-1", testShopID, "Cheese", 5, domingredient.UnitKilogram, 0)
	require.NoError(t, err)
	require.NoError(t, ingRepo.Insert(ctx, ing))
	require.NoError(t, menuRepo.Insert(ctx, newItem(t, "item-a", []string{"ing-1"})))

	err = ingRepo.Delete(ctx, testShopID, "ing-1")
	var inUse *domingredient.InUseError
	require.True(t, errors.As(err, &inUse))
	assert.Equal(t, []string{"item-a"}, inUse.MenuItemIDs)

	// Removing the referencing item unblocks the delete.
	require.NoError(t, menuRepo.Delete(ctx, testShopID, "item-a"))
	require.NoError(t, ingRepo.Delete(ctx, testShopID, "ing-1"))
}

func TestAdjustStockSerializesConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	ingRepo := NewIngredientRepository(nil)

	ing, err := domingredient.New("ing-1", testShopID, "Cheese", 1000, domingredient.UnitGram, 0)
	require.NoError(t, err)
	require.NoError(t, ingRepo.Insert(ctx, ing))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ingRepo.AdjustStock(ctx, testShopID, "ing-1", -5)
		}()
	}
	wg.Wait()

	got, err := ingRepo.Get(ctx, testShopID, "ing-1")
	require.NoError(t, err)
	assert.InDelta(t, 500, got.Stock, 1e-9)
}
