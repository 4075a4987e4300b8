package menu

import (
	"context"
	"fmt"

	domingredient "github.com/chowline/chowline/internal/domain/ingredient"
	dommenu "github.com/chowline/chowline/internal/domain/menu"
	domshop "github.com/chowline/chowline/internal/domain/shop"
	"github.com/chowline/chowline/internal/observability"
	"github.com/chowline/chowline/internal/pkg/shoplock"
)

const menuComponent = "menu_service"

type IDGenerator interface {
	NewID() string
}

// Service implements the menu catalog. Derived availability is computed
// against live ingredient state at creation and whenever the reference list
// changes; manual toggles are only honored for items without references.
type Service struct {
	repo    dommenu.Repository
	ingRepo domingredient.Repository
	owner   domshop.Ownership
	idGen   IDGenerator
	locks   *shoplock.Locker
	log     observability.Logger
}

func NewService(
	repo dommenu.Repository,
	ingRepo domingredient.Repository,
	owner domshop.Ownership,
	idGen IDGenerator,
	locks *shoplock.Locker,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		repo:    repo,
		ingRepo: ingRepo,
		owner:   owner,
		idGen:   idGen,
		locks:   locks,
		log:     tel.Logger().With(observability.F("component", menuComponent)),
	}
}

type CreateInput struct {
	ShopID        string
	Name          string
	Price         float64
	Category      dommenu.Category
	Description   string
	IngredientIDs []string
}

func (s *Service) Create(ctx context.Context, principal string, in CreateInput) (*dommenu.Item, error) {
	if err := domshop.Authorize(ctx, s.owner, in.ShopID, principal); err != nil {
		return nil, err
	}

	item, err := dommenu.New(s.idGen.NewID(), in.ShopID, in.Name, in.Price, in.Category, in.Description, in.IngredientIDs)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(in.ShopID)
	defer unlock()

	if len(item.IngredientIDs) > 0 {
		available, reason, err := s.derive(ctx, item)
		if err != nil {
			return nil, err
		}
		item.SetDerivedAvailability(available, reason)
	}

	if err := s.repo.Insert(ctx, item); err != nil {
		return nil, fmt.Errorf("menu: insert: %w", err)
	}
	return item, nil
}

// UpdatePatch carries optional field changes; a non-nil IngredientIDs
// replaces the whole reference list (empty slice detaches all ingredients).
type UpdatePatch struct {
	Name          *string
	Price         *float64
	Category      *dommenu.Category
	Description   *string
	IngredientIDs *[]string
}

func (s *Service) Update(ctx context.Context, principal, shopID, id string, patch UpdatePatch) (*dommenu.Item, error) {
	if err := domshop.Authorize(ctx, s.owner, shopID, principal); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(shopID)
	defer unlock()

	item, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if err := item.Rename(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Price != nil {
		if err := item.SetPrice(*patch.Price); err != nil {
			return nil, err
		}
	}
	if patch.Category != nil {
		if err := item.SetCategory(*patch.Category); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		item.SetDescription(*patch.Description)
	}
	if patch.IngredientIDs != nil {
		item.SetIngredients(*patch.IngredientIDs)
		if len(item.IngredientIDs) == 0 {
			// Detached from stock tracking; keep the current availability as
			// the manual baseline but clear any stale reason.
			item.SetDerivedAvailability(item.Available, "")
		} else {
			available, reason, err := s.derive(ctx, item)
			if err != nil {
				return nil, err
			}
			item.SetDerivedAvailability(available, reason)
		}
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("menu: update: %w", err)
	}
	return item, nil
}

// SetManualAvailability toggles availability for items without ingredient
// references; items with references fail with dommenu.ErrManualOverride
// because their derived value is authoritative.
func (s *Service) SetManualAvailability(ctx context.Context, principal, shopID, id string, available bool) (*dommenu.Item, error) {
	if err := domshop.Authorize(ctx, s.owner, shopID, principal); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(shopID)
	defer unlock()

	item, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	if err := item.SetManualAvailability(available); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAvailability(ctx, shopID, id, item.Available, item.UnavailableReason); err != nil {
		return nil, fmt.Errorf("menu: update availability: %w", err)
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, principal, shopID, id string) error {
	if err := domshop.Authorize(ctx, s.owner, shopID, principal); err != nil {
		return err
	}

	unlock := s.locks.Lock(shopID)
	defer unlock()

	return s.repo.Delete(ctx, shopID, id)
}

func (s *Service) Get(ctx context.Context, shopID, id string) (*dommenu.Item, error) {
	return s.repo.Get(ctx, shopID, id)
}

func (s *Service) ListByShop(ctx context.Context, shopID string) ([]*dommenu.Item, error) {
	return s.repo.ListByShop(ctx, shopID)
}

// derive reads the live state of the item's referenced ingredients and
// rejects references to ingredients that do not exist.
func (s *Service) derive(ctx context.Context, item *dommenu.Item) (bool, string, error) {
	live, err := s.ingRepo.GetMany(ctx, item.ShopID, item.IngredientIDs)
	if err != nil {
		return false, "", fmt.Errorf("menu: fetch ingredients: %w", err)
	}
	for _, ingID := range item.IngredientIDs {
		if _, ok := live[ingID]; !ok {
			return false, "", fmt.Errorf("%w: %s", domingredient.ErrNotFound, ingID)
		}
	}
	available, reason := dommenu.Derive(item.IngredientIDs, live)
	return available, reason, nil
}
