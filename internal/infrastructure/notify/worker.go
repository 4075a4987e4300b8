// Package notify is the stand-in for the customer notification channel the
// excluded delivery frontend would provide: it turns order lifecycle events
// into structured log lines.
package notify

import (
	"context"

	domorder "github.com/chowline/chowline/internal/domain/order"
	domoutbox "github.com/chowline/chowline/internal/domain/outbox"
	"github.com/chowline/chowline/internal/observability"
	"github.com/chowline/chowline/internal/observability/logctx"
)

const componentNotify = "order_notify"

type Worker struct {
	subscriber domoutbox.Subscriber
	log        observability.Logger
}

func NewWorker(subscriber domoutbox.Subscriber, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber: subscriber,
		log:        tel.Logger().With(observability.F("component", componentNotify)),
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domorder.PlacedEvent{}.EventName(), w.handlePlaced)
	w.subscriber.Subscribe(domorder.StatusChangedEvent{}.EventName(), w.handleStatusChanged)
}

func (w *Worker) handlePlaced(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.PlacedEvent)
	if !ok {
		return nil
	}
	logctx.FromOr(ctx, w.log).Info("order_placed_notification",
		observability.F("order_id", evt.OrderID),
		observability.F("shop_id", evt.ShopID),
		observability.F("lines", evt.LineCount),
		observability.F("total", evt.Total),
	)
	return nil
}

func (w *Worker) handleStatusChanged(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.StatusChangedEvent)
	if !ok {
		return nil
	}
	logctx.FromOr(ctx, w.log).Info("order_status_notification",
		observability.F("order_id", evt.OrderID),
		observability.F("shop_id", evt.ShopID),
		observability.F("from", string(evt.From)),
		observability.F("to", string(evt.To)),
	)
	return nil
}
