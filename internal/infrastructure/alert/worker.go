// Package alert watches stock-changed events and surfaces low-stock
// conditions. It is purely observational: availability itself is maintained
// synchronously by the reconciler, never from these events.
package alert

import (
	"context"

	domingredient "github.com/chowline/chowline/internal/domain/ingredient"
	domoutbox "github.com/chowline/chowline/internal/domain/outbox"
	"github.com/chowline/chowline/internal/observability"
	"github.com/chowline/chowline/internal/observability/logctx"
)

const componentAlert = "low_stock_alert"

type Worker struct {
	subscriber domoutbox.Subscriber
	log        observability.Logger
	lowStock   observability.Counter
}

func NewWorker(subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber: subscriber,
		log:        tel.Logger().With(observability.F("component", componentAlert)),
		lowStock:   tel.Metrics().Counter(observability.MLowStock),
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domingredient.StockChangedEvent{}.EventName(), w.handleStockChanged)
}

func (w *Worker) handleStockChanged(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domingredient.StockChangedEvent)
	if !ok {
		return nil
	}
	logger := logctx.FromOr(ctx, w.log)

	if !evt.LowStock {
		logger.Debug("stock_ok",
			observability.F("shop_id", evt.ShopID),
			observability.F("ingredient_id", evt.IngredientID),
			observability.F("stock", evt.Stock),
		)
		return nil
	}

	w.lowStock.Add(1)
	logger.Warn("ingredient_low_stock",
		observability.F("shop_id", evt.ShopID),
		observability.F("ingredient_id", evt.IngredientID),
		observability.F("name", evt.Name),
		observability.F("stock", evt.Stock),
		observability.F("unit", string(evt.Unit)),
		observability.F("available", evt.Available),
	)
	return nil
}
