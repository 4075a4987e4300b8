package availability

import (
	"context"
	"fmt"
	"time"

	domingredient "github.com/chowline/chowline/internal/domain/ingredient"
	dommenu "github.com/chowline/chowline/internal/domain/menu"
	"github.com/chowline/chowline/internal/observability"
	"github.com/chowline/chowline/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	reconcilerComponent = "availability_reconciler"
	spanReconcile       = "Reconcile.IngredientsChanged"
)

// Result summarizes one reconciliation pass.
type Result struct {
	Affected int
	Updated  int
	Failed   int
}

// Reconciler keeps the denormalized availability of menu items consistent
// with the stock of the ingredients they reference. It is invoked
// synchronously after every stock-determining write, reads live ingredient
// state rather than trusting values captured earlier in the call, and is
// idempotent for an unchanged ingredient state.
type Reconciler struct {
	menuRepo dommenu.Repository
	ingRepo  domingredient.Repository

	log         observability.Logger
	tracer      observability.Tracer
	itemSuccess observability.BoundCounter
	itemFailure observability.BoundCounter
}

func New(menuRepo dommenu.Repository, ingRepo domingredient.Repository, tel observability.Observability) *Reconciler {
	if tel == nil {
		tel = observability.Nop()
	}
	// The outcome labels are fixed, so bind them once instead of resolving
	// the label set on every item.
	items := tel.Metrics().Counter(observability.MReconcileItems)
	return &Reconciler{
		menuRepo:    menuRepo,
		ingRepo:     ingRepo,
		log:         tel.Logger().With(observability.F("component", reconcilerComponent)),
		tracer:      tel.Tracer(),
		itemSuccess: items.Bind(observability.L("outcome", "success")),
		itemFailure: items.Bind(observability.L("outcome", "error")),
	}
}

// IngredientsChanged recomputes availability for every menu item whose
// reference set intersects the changed ingredient ids. A failure on one item
// is logged and counted but never aborts its siblings.
func (r *Reconciler) IngredientsChanged(ctx context.Context, shopID string, ingredientIDs ...string) (Result, error) {
	if len(ingredientIDs) == 0 {
		return Result{}, nil
	}

	logger := logctx.FromOr(ctx, r.log)
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, spanReconcile,
		attribute.String("shop.id", shopID),
		attribute.Int("ingredient.changed", len(ingredientIDs)),
	)
	defer span.End()

	items, err := r.menuRepo.ListByIngredients(ctx, shopID, ingredientIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DEPENDENT_LOOKUP_FAILED")
		return Result{}, fmt.Errorf("availability: list dependents: %w", err)
	}

	res := Result{Affected: len(items)}
	for _, item := range items {
		if len(item.IngredientIDs) == 0 {
			continue
		}
		if err := r.reconcileItem(ctx, item); err != nil {
			res.Failed++
			r.itemFailure.Add(1)
			logger.Warn("reconcile_item_failed",
				observability.F("shop_id", shopID),
				observability.F("menu_item_id", item.ID),
				observability.F("error", err.Error()),
			)
			continue
		}
		res.Updated++
		r.itemSuccess.Add(1)
	}

	if res.Failed > 0 {
		span.SetStatus(codes.Error, "PARTIAL_FAILURE")
	} else {
		span.SetStatus(codes.Ok, "OK")
	}
	span.SetAttributes(
		attribute.Int("reconcile.affected", res.Affected),
		attribute.Int("reconcile.failed", res.Failed),
	)

	logger.Info("reconcile_done",
		observability.F("shop_id", shopID),
		observability.F("affected", res.Affected),
		observability.F("updated", res.Updated),
		observability.F("failed", res.Failed),
		observability.F("latency_seconds", time.Since(start).Seconds()),
	)
	return res, nil
}

// reconcileItem re-reads every referenced ingredient, not just the changed
// ones: a previously unavailable item may need its reason rebuilt around a
// still-out-of-stock ingredient.
func (r *Reconciler) reconcileItem(ctx context.Context, item *dommenu.Item) error {
	live, err := r.ingRepo.GetMany(ctx, item.ShopID, item.IngredientIDs)
	if err != nil {
		return fmt.Errorf("fetch ingredients: %w", err)
	}

	available, reason := dommenu.Derive(item.IngredientIDs, live)
	if available == item.Available && reason == item.UnavailableReason {
		return nil
	}

	if err := r.menuRepo.UpdateAvailability(ctx, item.ShopID, item.ID, available, reason); err != nil {
		return fmt.Errorf("persist availability: %w", err)
	}
	return nil
}
