package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/clock"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/messaging"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/metrics"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/pkg/logger"
)

const publishTimeout = 5 * time.Second

// Dependencies are shared by every service in this package. Publisher,
// Metrics and Clock may be left nil.
type Dependencies struct {
	Tx        repository.Transactor
	Events    repository.EventRepository
	Inventory repository.InventoryRepository
	Tickets   repository.TicketRepository
	Publisher messaging.Publisher
	Metrics   *metrics.Metrics
	Clock     clock.Clock
	Logger    logger.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Publisher == nil {
		d.Publisher = messaging.NewNoopPublisher()
	}
	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}
	return d
}

// publish emits a lifecycle event for a committed change. Failures are
// logged and counted only.
func (d Dependencies) publish(ctx context.Context, typ messaging.EventType, t *models.Ticket, actorID string, at time.Time) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := d.Publisher.Publish(ctx, messaging.NewTicketEvent(typ, t, actorID, at)); err != nil {
		d.Logger.Warnf(ctx, "service.publish %s ticket=%s: %v", typ, t.ID, err)
		d.Metrics.PublishFailed(string(typ))
	}
}

func (d Dependencies) invariantViolation(ctx context.Context, kind, format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	d.Logger.Errorf(ctx, "service.invariantViolation %s: %s", kind, detail)
	d.Metrics.InvariantViolation(kind)
	return fmt.Errorf("%w: %s", ErrInvariantViolation, detail)
}

// sellerOf returns the seller of eventID, or "" when the event is gone.
func (d Dependencies) sellerOf(ctx context.Context, eventID string) (string, error) {
	event, err := d.Events.FindByID(ctx, eventID)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return event.SellerID, nil
}
