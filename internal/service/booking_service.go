package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/messaging"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
	"github.com/google/uuid"
)

type BuyTicketInput struct {
	UserID     string
	EventID    string
	TicketType string
}

type BookingService interface {
	BuyTicket(ctx context.Context, in BuyTicketInput) (*models.Ticket, error)
}

type bookingService struct {
	Dependencies
	requireApproved bool
}

func NewBookingService(deps Dependencies, requireApproved bool) BookingService {
	return &bookingService{Dependencies: deps.withDefaults(), requireApproved: requireApproved}
}

func (s *bookingService) BuyTicket(ctx context.Context, in BuyTicketInput) (*models.Ticket, error) {
	event, err := s.Events.FindByID(ctx, in.EventID)
	if err != nil {
		if isNotFound(err) {
			return nil, s.reject(ErrEventNotFound, "event_not_found")
		}
		s.Logger.Errorf(ctx, "service.bookingService.BuyTicket.FindByID: %v", err)
		return nil, fmt.Errorf("load event %s: %w", in.EventID, err)
	}

	if s.requireApproved && !event.IsApproved() {
		return nil, s.reject(ErrEventNotBookable, "not_bookable")
	}

	now := s.Clock.Now()
	switch event.SalesPhase(now) {
	case models.SalesNotStarted:
		return nil, s.reject(ErrSalesNotStarted, "sales_not_started")
	case models.SalesEnded:
		return nil, s.reject(ErrSalesEnded, "sales_ended")
	}

	tier, ok := models.ParseTierName(in.TicketType)
	if !ok {
		return nil, s.reject(fmt.Errorf("%w: %q", ErrInvalidTier, in.TicketType), "invalid_tier")
	}
	if _, ok := event.Tier(tier); !ok {
		return nil, s.reject(fmt.Errorf("%w: event has no %s tier", ErrInvalidTier, tier), "invalid_tier")
	}

	ticket := &models.Ticket{
		ID:          uuid.NewString(),
		EventID:     event.ID,
		OwnerID:     in.UserID,
		Tier:        tier,
		Status:      models.TicketActive,
		PurchasedAt: now,
	}

	started := time.Now()
	err = s.Tx.WithTx(ctx, func(ctx context.Context) error {
		res, err := s.Inventory.TryReserve(ctx, event.ID, tier)
		if err != nil {
			return err
		}
		if res.SoldCount > res.Capacity {
			return s.invariantViolation(ctx, "sold_beyond_capacity",
				"event=%s tier=%s sold=%d capacity=%d", event.ID, tier, res.SoldCount, res.Capacity)
		}

		ticket.PricePaid = res.Price
		return s.Tickets.Create(ctx, ticket)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSoldOut):
			return nil, s.reject(fmt.Errorf("%w: %s", ErrTierSoldOut, tier), "sold_out")
		case isNotFound(err):
			return nil, s.reject(fmt.Errorf("%w: event has no %s tier", ErrInvalidTier, tier), "invalid_tier")
		case errors.Is(err, ErrInvariantViolation):
			return nil, err
		}
		s.Logger.Errorf(ctx, "service.bookingService.BuyTicket: %v", err)
		return nil, fmt.Errorf("buy ticket: %w", err)
	}

	s.Metrics.TicketPurchased(string(tier), time.Since(started))
	s.Logger.Infof(ctx, "service.bookingService.BuyTicket: ticket=%s event=%s tier=%s user=%s", ticket.ID, event.ID, tier, in.UserID)
	s.publish(ctx, messaging.TicketPurchased, ticket, in.UserID, now)

	return ticket, nil
}

func (s *bookingService) reject(err error, reason string) error {
	s.Metrics.PurchaseRejected(reason)
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
