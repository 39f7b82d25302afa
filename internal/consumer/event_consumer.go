package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/metrics"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/service"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

// EventMessage is the organizer-side event definition carried by
// event.created and event.updated.
type EventMessage struct {
	ID               string                  `json:"id"`
	SellerID         string                  `json:"sellerId"`
	Title            string                  `json:"title"`
	SalesOpensAt     time.Time               `json:"salesOpensAt"`
	SalesClosesAt    time.Time               `json:"salesClosesAt"`
	OccursAt         time.Time               `json:"occursAt"`
	ModerationStatus models.ModerationStatus `json:"moderationStatus"`
	Tiers            []TierMessage           `json:"tiers"`
}

type TierMessage struct {
	Name     models.TierName `json:"name"`
	Capacity uint            `json:"capacity"`
	Price    decimal.Decimal `json:"price"`
}

func (m EventMessage) ToModel() *models.Event {
	status := m.ModerationStatus
	if status == "" {
		status = models.ModerationPending
	}

	tiers := make([]models.TicketTier, len(m.Tiers))
	for i, t := range m.Tiers {
		tiers[i] = models.TicketTier{EventID: m.ID, Name: t.Name, Capacity: t.Capacity, Price: t.Price}
	}

	return &models.Event{
		ID:               m.ID,
		SellerID:         m.SellerID,
		Title:            m.Title,
		SalesOpensAt:     m.SalesOpensAt.UTC(),
		SalesClosesAt:    m.SalesClosesAt.UTC(),
		OccursAt:         m.OccursAt.UTC(),
		ModerationStatus: status,
		Tiers:            tiers,
	}
}

type EventConsumer struct {
	catalog service.CatalogService
	m       *metrics.Metrics
	l       logger.Logger
}

func NewEventConsumer(catalog service.CatalogService, m *metrics.Metrics, l logger.Logger) *EventConsumer {
	return &EventConsumer{catalog: catalog, m: m, l: l}
}

// Run applies catalog messages until ctx is done or msgs is closed.
func (ec *EventConsumer) Run(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				ec.l.Info(ctx, "consumer.EventConsumer.Run: channel closed, stopping consumer")
				return nil
			}
			ec.handleMessage(ctx, msg)
		}
	}
}

func (ec *EventConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	switch msg.RoutingKey {
	case "event.created", "event.updated":
	default:
		ec.l.Debugf(ctx, "consumer.EventConsumer: ignoring routing key %q", msg.RoutingKey)
		ec.ack(ctx, msg, "ignored")
		return
	}

	var body EventMessage
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		ec.l.Warnf(ctx, "consumer.EventConsumer: failed to unmarshal: %v", err)
		ec.nack(ctx, msg, false, "malformed")
		return
	}

	err := ec.catalog.SyncEvent(ctx, body.ToModel())
	switch {
	case err == nil:
		ec.l.Infof(ctx, "consumer.EventConsumer: synced event %s: %s", body.ID, body.Title)
		ec.ack(ctx, msg, "synced")
	case errors.Is(err, service.ErrInvalidEvent), errors.Is(err, service.ErrCapacityBelowSold):
		ec.l.Errorf(ctx, "consumer.EventConsumer: rejected event %s: %v", body.ID, err)
		ec.nack(ctx, msg, false, "rejected")
	default:
		ec.l.Errorf(ctx, "consumer.EventConsumer: failed to sync event %s: %v", body.ID, err)
		ec.nack(ctx, msg, true, "requeued")
	}
}

func (ec *EventConsumer) ack(ctx context.Context, msg amqp.Delivery, outcome string) {
	if err := msg.Ack(false); err != nil {
		ec.l.Errorf(ctx, "consumer.EventConsumer: ack: %v", err)
	}
	ec.m.CatalogSync(outcome)
}

func (ec *EventConsumer) nack(ctx context.Context, msg amqp.Delivery, requeue bool, outcome string) {
	if err := msg.Nack(false, requeue); err != nil {
		ec.l.Errorf(ctx, "consumer.EventConsumer: nack: %v", err)
	}
	ec.m.CatalogSync(outcome)
}
