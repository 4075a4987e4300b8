package ingredient

import (
	"context"
	"fmt"
	"time"

	"github.com/chowline/chowline/internal/application/availability"
	domingredient "github.com/chowline/chowline/internal/domain/ingredient"
	domoutbox "github.com/chowline/chowline/internal/domain/outbox"
	domshop "github.com/chowline/chowline/internal/domain/shop"
	"github.com/chowline/chowline/internal/observability"
	"github.com/chowline/chowline/internal/observability/logctx"
	"github.com/chowline/chowline/internal/pkg/shoplock"
)

const (
	ingredientComponent = "ingredient_service"
	publishTimeout      = 300 * time.Millisecond
)

// IDGenerator produces identifiers for new records.
type IDGenerator interface {
	NewID() string
}

// Service implements the ingredient store: owner-authorized CRUD plus
// relative stock adjustments, each stock-determining write followed
// synchronously by availability reconciliation of dependent menu items.
type Service struct {
	repo       domingredient.Repository
	owner      domshop.Ownership
	reconciler *availability.Reconciler
	publisher  domoutbox.Publisher
	idGen      IDGenerator
	locks      *shoplock.Locker
	log        observability.Logger
}

func NewService(
	repo domingredient.Repository,
	owner domshop.Ownership,
	reconciler *availability.Reconciler,
	publisher domoutbox.Publisher,
	idGen IDGenerator,
	locks *shoplock.Locker,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		repo:       repo,
		owner:      owner,
		reconciler: reconciler,
		publisher:  publisher,
		idGen:      idGen,
		locks:      locks,
		log:        tel.Logger().With(observability.F("component", ingredientComponent)),
	}
}

type CreateInput struct {
	ShopID            string
	Name              string
	Stock             float64
	Unit              domingredient.Unit
	LowStockThreshold float64
}

func (s *Service) Create(ctx context.Context, principal string, in CreateInput) (*domingredient.Ingredient, error) {
	if err := domshop.Authorize(ctx, s.owner, in.ShopID, principal); err != nil {
		return nil, err
	}

	ing, err := domingredient.New(s.idGen.NewID(), in.ShopID, in.Name, in.Stock, in.Unit, in.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, ing); err != nil {
		return nil, fmt.Errorf("ingredient: insert: %w", err)
	}

	// A fresh ingredient has no dependents yet; only the alert event fires.
	s.publishStockChanged(ctx, ing)
	return ing, nil
}

// UpdatePatch carries the fields an update request wants to change; nil
// means "leave alone".
type UpdatePatch struct {
	Name              *string
	Stock             *float64
	Unit              *domingredient.Unit
	LowStockThreshold *float64
}

func (p UpdatePatch) touchesStock() bool { return p.Stock != nil }

func (s *Service) Update(ctx context.Context, principal, shopID, id string, patch UpdatePatch) (*domingredient.Ingredient, error) {
	if err := domshop.Authorize(ctx, s.owner, shopID, principal); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(shopID)
	defer unlock()

	ing, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if err := ing.Rename(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Unit != nil {
		if err := ing.SetUnit(*patch.Unit); err != nil {
			return nil, err
		}
	}
	if patch.LowStockThreshold != nil {
		if err := ing.SetLowStockThreshold(*patch.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	if patch.Stock != nil {
		if err := ing.SetStock(*patch.Stock); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, ing); err != nil {
		return nil, fmt.Errorf("ingredient: update: %w", err)
	}

	// Renames change the text of dependent unavailability reasons, so a
	// name-only patch reconciles too.
	if patch.touchesStock() || patch.Name != nil {
		s.reconcile(ctx, shopID, id)
	}
	if patch.touchesStock() {
		s.publishStockChanged(ctx, ing)
	}
	return ing, nil
}

func (s *Service) AdjustStock(ctx context.Context, principal, shopID, id string, op domingredient.Op, amount float64) (*domingredient.Ingredient, error) {
	if err := domshop.Authorize(ctx, s.owner, shopID, principal); err != nil {
		return nil, err
	}

	delta, err := domingredient.DeltaFor(op, amount)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(shopID)
	defer unlock()

	ing, err := s.repo.AdjustStock(ctx, shopID, id, delta)
	if err != nil {
		return nil, err
	}

	s.reconcile(ctx, shopID, id)
	s.publishStockChanged(ctx, ing)
	return ing, nil
}

// Delete removes an ingredient no menu item references; the repository
// re-validates that precondition atomically with the removal and reports
// *ingredient.InUseError otherwise.
func (s *Service) Delete(ctx context.Context, principal, shopID, id string) error {
	if err := domshop.Authorize(ctx, s.owner, shopID, principal); err != nil {
		return err
	}

	unlock := s.locks.Lock(shopID)
	defer unlock()

	return s.repo.Delete(ctx, shopID, id)
}

func (s *Service) Get(ctx context.Context, shopID, id string) (*domingredient.Ingredient, error) {
	return s.repo.Get(ctx, shopID, id)
}

func (s *Service) ListByShop(ctx context.Context, shopID string) ([]*domingredient.Ingredient, error) {
	return s.repo.ListByShop(ctx, shopID)
}

// reconcile runs the synchronous availability pass. Per-item failures are
// already isolated and logged inside the reconciler; a batch-level failure is
// logged here and left for the next stock write to repair.
func (s *Service) reconcile(ctx context.Context, shopID string, ingredientIDs ...string) {
	if s.reconciler == nil {
		return
	}
	if _, err := s.reconciler.IngredientsChanged(ctx, shopID, ingredientIDs...); err != nil {
		logctx.FromOr(ctx, s.log).Error("reconcile_failed",
			observability.F("shop_id", shopID),
			observability.F("error", err.Error()),
		)
	}
}

func (s *Service) publishStockChanged(ctx context.Context, ing *domingredient.Ingredient) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, domingredient.NewStockChangedEvent(ing)); err != nil {
		logctx.FromOr(ctx, s.log).Warn("stock_event_publish_failed",
			observability.F("ingredient_id", ing.ID),
			observability.F("error", err.Error()),
		)
	}
}
