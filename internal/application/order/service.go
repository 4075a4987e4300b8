package order

import (
	"context"
	"fmt"
	"time"

	domorder "github.com/chowline/chowline/internal/domain/order"
	domoutbox "github.com/chowline/chowline/internal/domain/outbox"
	domshop "github.com/chowline/chowline/internal/domain/shop"
	"github.com/chowline/chowline/internal/observability"
	"github.com/chowline/chowline/internal/observability/logctx"
)

const statusComponent = "order_service"

// Service handles the post-admission order lifecycle: owner-driven status
// transitions along the fulfillment chain, plus reads.
type Service struct {
	repo      domorder.Repository
	owner     domshop.Ownership
	publisher domoutbox.Publisher
	log       observability.Logger
}

func NewService(repo domorder.Repository, owner domshop.Ownership, publisher domoutbox.Publisher, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		repo:      repo,
		owner:     owner,
		publisher: publisher,
		log:       tel.Logger().With(observability.F("component", statusComponent)),
	}
}

// UpdateStatus advances an order along the status machine on behalf of the
// owning shop's principal.
func (s *Service) UpdateStatus(ctx context.Context, principal, orderID string, next domorder.Status) (*domorder.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := domshop.Authorize(ctx, s.owner, o.ShopID, principal); err != nil {
		return nil, err
	}

	from := o.Status
	if err := o.TransitionTo(next); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("order: update: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("order_status_changed",
		observability.F("order_id", o.ID),
		observability.F("from", string(from)),
		observability.F("to", string(o.Status)),
	)

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		if pubErr := s.publisher.Publish(pubCtx, domorder.NewStatusChangedEvent(o, from)); pubErr != nil {
			logctx.FromOr(ctx, s.log).Warn("status_event_publish_failed",
				observability.F("order_id", o.ID),
				observability.F("error", pubErr.Error()),
			)
		}
	}

	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domorder.Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByShop(ctx context.Context, shopID string) ([]*domorder.Order, error) {
	return s.repo.ListByShop(ctx, shopID)
}
