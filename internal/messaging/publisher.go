package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/IBM/sarama"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	TicketPurchased EventType = "ticket.purchased"
	TicketCancelled EventType = "ticket.cancelled"
	TicketUsed      EventType = "ticket.used"
)

type TicketEvent struct {
	Type       EventType           `json:"type"`
	TicketID   string              `json:"ticketId"`
	EventID    string              `json:"eventId"`
	OwnerID    string              `json:"ownerId"`
	Tier       models.TierName     `json:"tier"`
	PricePaid  decimal.Decimal     `json:"pricePaid"`
	Status     models.TicketStatus `json:"status"`
	ActorID    string              `json:"actorId,omitempty"`
	OccurredAt time.Time           `json:"occurredAt"`
}

func NewTicketEvent(typ EventType, t *models.Ticket, actorID string, at time.Time) TicketEvent {
	return TicketEvent{
		Type:       typ,
		TicketID:   t.ID,
		EventID:    t.EventID,
		OwnerID:    t.OwnerID,
		Tier:       t.Tier,
		PricePaid:  t.PricePaid,
		Status:     t.Status,
		ActorID:    actorID,
		OccurredAt: at,
	}
}

// Publisher emits ticket lifecycle events after the state change committed.
type Publisher interface {
	Publish(ctx context.Context, event TicketEvent) error
	Close() error
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, TicketEvent) error { return nil }
func (noopPublisher) Close() error                                { return nil }

// AMQPPublisher is satisfied by *rabbitmq.Publisher.
type AMQPPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

type rabbitPublisher struct {
	pub AMQPPublisher
}

// NewRabbitPublisher routes each event by its type.
func NewRabbitPublisher(pub AMQPPublisher) Publisher {
	return &rabbitPublisher{pub: pub}
}

func (p *rabbitPublisher) Publish(ctx context.Context, event TicketEvent) error {
	return p.pub.Publish(ctx, string(event.Type), event)
}

func (p *rabbitPublisher) Close() error {
	return p.pub.Close()
}

type kafkaPublisher struct {
	prod  sarama.SyncProducer
	topic string
}

// NewKafkaPublisher keys messages by event id so one event's tickets stay
// on one partition.
func NewKafkaPublisher(prod sarama.SyncProducer, topic string) Publisher {
	return &kafkaPublisher{prod: prod, topic: topic}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event TicketEvent) error {
	val, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ticket event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.EventID),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(event.Type)},
			{Key: []byte("timestamp"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}

	// SendMessage takes no context. A caller whose deadline has already
	// passed sends nothing; once started, the producer's own timeouts apply.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send ticket event: %w", err)
	}
	if _, _, err := p.prod.SendMessage(msg); err != nil {
		return fmt.Errorf("send ticket event: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.prod.Close()
}
