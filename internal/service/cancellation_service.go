package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/messaging"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
)

type CancellationService interface {
	CancelTicket(ctx context.Context, ticketID string, requester models.Actor) (*models.Ticket, error)
}

type cancellationService struct {
	Dependencies
}

func NewCancellationService(deps Dependencies) CancellationService {
	return &cancellationService{Dependencies: deps.withDefaults()}
}

func (s *cancellationService) CancelTicket(ctx context.Context, ticketID string, requester models.Actor) (*models.Ticket, error) {
	ticket, err := s.Tickets.FindByID(ctx, ticketID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTicketNotFound
		}
		s.Logger.Errorf(ctx, "service.cancellationService.CancelTicket.FindByID: %v", err)
		return nil, fmt.Errorf("load ticket %s: %w", ticketID, err)
	}

	sellerID, err := s.sellerOf(ctx, ticket.EventID)
	if err != nil {
		s.Logger.Errorf(ctx, "service.cancellationService.CancelTicket.sellerOf: %v", err)
		return nil, fmt.Errorf("load event %s: %w", ticket.EventID, err)
	}
	if requester.ID != ticket.OwnerID && !requester.CanManage(sellerID) {
		return nil, ErrUnauthorized
	}

	if err := cancelStatusError(ticket.Status); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	var cancelled *models.Ticket
	err = s.Tx.WithTx(ctx, func(ctx context.Context) error {
		t, err := s.Tickets.Transition(ctx, ticket.ID, models.TicketActive, models.TicketCancelled, now)
		if err != nil {
			return err
		}

		if err := s.Inventory.Release(ctx, t.EventID, t.Tier); err != nil {
			if errors.Is(err, repository.ErrAlreadyAtZero) || isNotFound(err) {
				return s.invariantViolation(ctx, "release_underflow",
					"event=%s tier=%s ticket=%s: %v", t.EventID, t.Tier, t.ID, err)
			}
			return err
		}

		cancelled = t
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStatusConflict):
			return nil, s.raceLost(ctx, ticket.ID)
		case isNotFound(err):
			return nil, ErrTicketNotFound
		case errors.Is(err, ErrInvariantViolation):
			return nil, err
		}
		s.Logger.Errorf(ctx, "service.cancellationService.CancelTicket: %v", err)
		return nil, fmt.Errorf("cancel ticket: %w", err)
	}

	s.Metrics.TicketCancelled(string(cancelled.Tier))
	s.Logger.Infof(ctx, "service.cancellationService.CancelTicket: ticket=%s event=%s tier=%s by=%s",
		cancelled.ID, cancelled.EventID, cancelled.Tier, requester.ID)
	s.publish(ctx, messaging.TicketCancelled, cancelled, requester.ID, now)

	return cancelled, nil
}

// raceLost re-reads a ticket whose transition lost to a concurrent one and
// reports why it can no longer be cancelled.
func (s *cancellationService) raceLost(ctx context.Context, ticketID string) error {
	current, err := s.Tickets.FindByID(ctx, ticketID)
	if err != nil {
		if isNotFound(err) {
			return ErrTicketNotFound
		}
		return fmt.Errorf("reload ticket %s: %w", ticketID, err)
	}
	if err := cancelStatusError(current.Status); err != nil {
		return err
	}
	return fmt.Errorf("cancel ticket %s: %w", ticketID, repository.ErrStatusConflict)
}

func cancelStatusError(status models.TicketStatus) error {
	if !status.IsTerminal() {
		return nil
	}
	if status == models.TicketUsed {
		return ErrCannotCancelUsed
	}
	return ErrAlreadyCancelled
}
