package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	dommenu "github.com/chowline/chowline/internal/domain/menu"
	domorder "github.com/chowline/chowline/internal/domain/order"
	domoutbox "github.com/chowline/chowline/internal/domain/outbox"
	domshop "github.com/chowline/chowline/internal/domain/shop"
	"github.com/chowline/chowline/internal/observability"
	"github.com/chowline/chowline/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService      = "order-service"
	useCaseOrderPlace = "order.place"
	spanPrefix        = "UC."
	publishTimeout    = 300 * time.Millisecond
)

// PlaceOrderUseCase is the order admission gate: it validates availability of
// every requested menu item at the moment of purchase, prices the order from
// the live catalog (never from client input), and persists an immutable
// snapshot. It reads availability point-in-time; it does not reserve stock.
type PlaceOrderUseCase struct {
	orders   domorder.Repository
	menuRepo dommenu.Repository
	shops    domshop.Repository

	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	defaultFee  float64

	tracer        observability.Tracer
	log           observability.Logger
	reqCounter    observability.Counter
	durHistogram  observability.Histogram
	placedCounter observability.Counter
}

func NewPlaceOrderUseCase(
	orders domorder.Repository,
	menuRepo dommenu.Repository,
	shops domshop.Repository,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	defaultFee float64,
	tel observability.Observability,
) *PlaceOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	if defaultFee < 0 {
		defaultFee = 0
	}
	return &PlaceOrderUseCase{
		orders:        orders,
		menuRepo:      menuRepo,
		shops:         shops,
		idGenerator:   idGen,
		publisher:     publisher,
		defaultFee:    defaultFee,
		tracer:        tel.Tracer(),
		log:           tel.Logger().With(observability.F("service", orderService)),
		reqCounter:    tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram:  tel.Metrics().Histogram(observability.MUsecaseDuration),
		placedCounter: tel.Metrics().Counter(observability.MOrdersPlaced),
	}
}

type LineInput struct {
	MenuItemID string
	Quantity   int
}

type PlaceOrderInput struct {
	ShopID          string
	Lines           []LineInput
	DeliveryFee     *float64 // nil uses the configured default
	DeliveryAddress string
	PaymentMethod   string
	Notes           string
}

type PlaceOrderResult struct {
	OrderID  string
	Status   domorder.Status
	Subtotal float64
	Total    float64
}

// Execute performs the admission flow.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseOrderPlace))

	var orderID string
	var publishErr error

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"PlaceOrder",
		attribute.String("use_case", useCaseOrderPlace),
		attribute.String("shop.id", cmd.ShopID),
		attribute.Int("order.lines", len(cmd.Lines)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderPlace),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseOrderPlace),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("shop_id", cmd.ShopID),
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if len(cmd.Lines) == 0 {
		outcome, statusText = "error", "EMPTY_ORDER"
		return nil, domorder.ErrNoLines
	}
	for _, l := range cmd.Lines {
		if l.Quantity <= 0 {
			outcome, statusText = "error", "QUANTITY_INVALID"
			return nil, fmt.Errorf("%w: item %s", domorder.ErrInvalidQuantity, l.MenuItemID)
		}
	}
	fee := uc.defaultFee
	if cmd.DeliveryFee != nil {
		fee = *cmd.DeliveryFee
	}
	if fee < 0 {
		outcome, statusText = "error", "FEE_INVALID"
		return nil, domorder.ErrNegativeFee
	}

	if _, err = uc.shops.Get(ctx, cmd.ShopID); err != nil {
		outcome, statusText = "error", "SHOP_NOT_FOUND"
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	// Point-in-time availability check; prices and names are captured here
	// so the order stays a faithful historical record.
	lines := make([]domorder.Line, 0, len(cmd.Lines))
	for _, l := range cmd.Lines {
		item, lookupErr := uc.menuRepo.Get(ctx, cmd.ShopID, l.MenuItemID)
		if lookupErr != nil {
			outcome, statusText = "error", "MENU_ITEM_NOT_FOUND"
			if errors.Is(lookupErr, dommenu.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", dommenu.ErrNotFound, l.MenuItemID)
			}
			return nil, lookupErr
		}
		if !item.Available {
			outcome, statusText = "error", "ITEM_UNAVAILABLE"
			return nil, &dommenu.UnavailableError{
				MenuItemID: item.ID,
				Name:       item.Name,
				Reason:     item.UnavailableReason,
			}
		}
		lines = append(lines, domorder.Line{
			MenuItemID: item.ID,
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   l.Quantity,
		})
	}

	orderID = uc.idGenerator.NewID()
	entity, derr := domorder.New(orderID, cmd.ShopID, lines, fee, cmd.DeliveryAddress, cmd.PaymentMethod, cmd.Notes)
	if derr != nil {
		outcome, statusText = "error", "DOMAIN_CONSTRUCTION_FAILED"
		return nil, fmt.Errorf("order: construct: %w", derr)
	}
	if err = uc.orders.Insert(ctx, entity); err != nil {
		outcome, statusText = "error", "REPO_INSERT_FAILED"
		return nil, fmt.Errorf("order: insert: %w", err)
	}

	uc.placedCounter.Add(1)

	if uc.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		publishErr = uc.publisher.Publish(pubCtx, domorder.NewPlacedEvent(entity))
		cancel()
		if publishErr != nil {
			statusText = "EVENT_PUBLISH_FAILED"
		}
	}

	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.Float64("order.total", entity.Total),
	)
	span.AddEvent("order.placed",
		trace.WithAttributes(attribute.String("order.id", orderID)),
	)

	return &PlaceOrderResult{
		OrderID:  entity.ID,
		Status:   entity.Status,
		Subtotal: entity.Subtotal,
		Total:    entity.Total,
	}, nil
}
