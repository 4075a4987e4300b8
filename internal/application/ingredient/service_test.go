package ingredient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chowline/chowline/internal/application/availability"
	domingredient "github.com/chowline/chowline/internal/domain/ingredient"
	dommenu "github.com/chowline/chowline/internal/domain/menu"
	domshop "github.com/chowline/chowline/internal/domain/shop"
	"github.com/chowline/chowline/internal/infrastructure/memory"
	"github.com/chowline/chowline/internal/pkg/shoplock"
)

const (
	testShopID = "shop-1"
	ownerEmail = "owner@example.com"
)

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

type fixture struct {
	svc      *Service
	menuSvc  *dommenuService
	ingRepo  domingredient.Repository
	menuRepo dommenu.Repository
}

// dommenuService is a tiny helper for seeding menu items without pulling the
// menu application package into this one.
type dommenuService struct {
	repo    dommenu.Repository
	ingRepo domingredient.Repository
}

func (s *dommenuService) seed(t *testing.T, id, name string, ingredientIDs []string) {
	t.Helper()
	ctx := context.Background()
	item, err := dommenu.New(id, testShopID, name, 9.99, dommenu.CategoryMain, "", ingredientIDs)
	require.NoError(t, err)
	if len(ingredientIDs) > 0 {
		live, err := s.ingRepo.GetMany(ctx, testShopID, ingredientIDs)
		require.NoError(t, err)
		item.SetDerivedAvailability(dommenu.Derive(ingredientIDs, live))
	}
	require.NoError(t, s.repo.Insert(ctx, item))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	shopRepo := memory.NewShopRepository()
	s, err := domshop.New(testShopID, "Test Shop", ownerEmail)
	require.NoError(t, err)
	require.NoError(t, shopRepo.Insert(ctx, s))

	menuRepo := memory.NewMenuRepository()
	ingRepo := memory.NewIngredientRepository(menuRepo)
	reconciler := availability.New(menuRepo, ingRepo, nil)

	svc := NewService(ingRepo, domshop.NewEmailOwnership(shopRepo), reconciler, nil, &seqIDs{}, shoplock.New(), nil)
	return &fixture{
		svc:      svc,
		menuSvc:  &dommenuService{repo: menuRepo, ingRepo: ingRepo},
		ingRepo:  ingRepo,
		menuRepo: menuRepo,
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ing, err := f.svc.Create(ctx, ownerEmail, CreateInput{
		ShopID:            testShopID,
		Name:              "Cheese",
		Stock:             10,
		Unit:              domingredient.UnitKilogram,
		LowStockThreshold: 2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ing.ID)
	assert.True(t, ing.Available)

	stored, err := f.svc.Get(ctx, testShopID, ing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cheese", stored.Name)
}

func TestCreateRejectsNonOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "stranger@example.com", CreateInput{
		ShopID: testShopID,
		Name:   "Cheese",
		Stock:  10,
		Unit:   domingredient.UnitKilogram,
	})
	assert.ErrorIs(t, err, domshop.ErrNotOwner)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"empty name", CreateInput{ShopID: testShopID, Unit: domingredient.UnitPiece}, domingredient.ErrNameRequired},
		{"bad unit", CreateInput{ShopID: testShopID, Name: "Cheese", Unit: "bags"}, domingredient.ErrInvalidUnit},
		{"negative stock", CreateInput{ShopID: testShopID, Name: "Cheese", Unit: domingredient.UnitPiece, Stock: -1}, domingredient.ErrNegativeStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), ownerEmail, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAdjustStockReconcilesDependents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ing, err := f.svc.Create(ctx, ownerEmail, CreateInput{
		ShopID: testShopID, Name: "Cheese", Stock: 10, Unit: domingredient.UnitKilogram,
	})
	require.NoError(t, err)
	f.menuSvc.seed(t, "item-burger", "Burger", []string{ing.ID})

	got, err := f.svc.AdjustStock(ctx, ownerEmail, testShopID, ing.ID, domingredient.OpSubtract, 10)
	require.NoError(t, err)
	assert.Zero(t, got.Stock)
	assert.False(t, got.Available)

	burger, err := f.menuRepo.Get(ctx, testShopID, "item-burger")
	require.NoError(t, err)
	assert.False(t, burger.Available)
	assert.Equal(t, "Cheese", burger.UnavailableReason)

	// Restock flips the dependent back in the same synchronous call.
	_, err = f.svc.AdjustStock(ctx, ownerEmail, testShopID, ing.ID, domingredient.OpAdd, 3)
	require.NoError(t, err)

	burger, err = f.menuRepo.Get(ctx, testShopID, "item-burger")
	require.NoError(t, err)
	assert.True(t, burger.Available)
	assert.Empty(t, burger.UnavailableReason)
}

func TestAdjustStockFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ing, err := f.svc.Create(ctx, ownerEmail, CreateInput{
		ShopID: testShopID, Name: "Cheese", Stock: 3, Unit: domingredient.UnitKilogram,
	})
	require.NoError(t, err)

	got, err := f.svc.AdjustStock(ctx, ownerEmail, testShopID, ing.ID, domingredient.OpSubtract, 100)
	require.NoError(t, err)
	assert.Zero(t, got.Stock)
}

func TestAdjustStockRejectsBadAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ing, err := f.svc.Create(ctx, ownerEmail, CreateInput{
		ShopID: testShopID, Name: "Cheese", Stock: 3, Unit: domingredient.UnitKilogram,
	})
	require.NoError(t, err)

	_, err = f.svc.AdjustStock(ctx, ownerEmail, testShopID, ing.ID, domingredient.OpAdd, 0)
	assert.ErrorIs(t, err, domingredient.ErrInvalidAdjustment)

	_, err = f.svc.AdjustStock(ctx, ownerEmail, testShopID, ing.ID, "multiply", 2)
	assert.ErrorIs(t, err, domingredient.ErrInvalidAdjustment)
}

func TestUpdateRenameRewritesDependentReasons(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ing, err := f.svc.Create(ctx, ownerEmail, CreateInput{
		ShopID: testShopID, Name: "Cheese", Stock: 0, Unit: domingredient.UnitKilogram,
	})
	require.NoError(t, err)
	f.menuSvc.seed(t, "item-burger", "Burger", []string{ing.ID})

	newName := "Aged Cheddar"
	_, err = f.svc.Update(ctx, ownerEmail, testShopID, ing.ID, UpdatePatch{Name: &newName})
	require.NoError(t, err)

	burger, err := f.menuRepo.Get(ctx, testShopID, "item-burger")
	require.NoError(t, err)
	assert.Equal(t, "Aged Cheddar", burger.UnavailableReason)
}

func TestUpdateStockZeroMarksDependentsUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ing, err := f.svc.Create(ctx, ownerEmail, CreateInput{
		ShopID: testShopID, Name: "Cheese", Stock: 8, Unit: domingredient.UnitKilogram,
	})
	require.NoError(t, err)
	f.menuSvc.seed(t, "item-burger", "Burger", []string{ing.ID})

	zero := 0.0
	got, err := f.svc.Update(ctx, ownerEmail, testShopID, ing.ID, UpdatePatch{Stock: &zero})
	require.NoError(t, err)
	assert.False(t, got.Available)

	burger, err := f.menuRepo.Get(ctx, testShopID, "item-burger")
	require.NoError(t, err)
	assert.False(t, burger.Available)
}

func TestDeleteInUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ing, err := f.svc.Create(ctx, ownerEmail, CreateInput{
		ShopID: testShopID, Name: "Cheese", Stock: 5, Unit: domingredient.UnitKilogram,
	})
	require.NoError(t, err)
	f.menuSvc.seed(t, "item-burger", "Burger", []string{ing.ID})

	err = f.svc.Delete(ctx, ownerEmail, testShopID, ing.ID)

	var inUse *domingredient.InUseError
	require.True(t, errors.As(err, &inUse))
	assert.Equal(t, 1, inUse.Count())
	assert.Equal(t, []string{"item-burger"}, inUse.MenuItemIDs)

	// The ingredient survives a rejected delete.
	_, err = f.svc.Get(ctx, testShopID, ing.ID)
	require.NoError(t, err)
}

func TestDeleteUnreferenced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ing, err := f.svc.Create(ctx, ownerEmail, CreateInput{
		ShopID: testShopID, Name: "Cheese", Stock: 5, Unit: domingredient.UnitKilogram,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, ownerEmail, testShopID, ing.ID))

	_, err = f.svc.Get(ctx, testShopID, ing.ID)
	assert.ErrorIs(t, err, domingredient.ErrNotFound)
}
