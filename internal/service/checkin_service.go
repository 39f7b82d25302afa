package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/messaging"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
)

type CheckinService interface {
	UseTicket(ctx context.Context, ticketID string, actor models.Actor) (*models.Ticket, error)
}

type checkinService struct {
	Dependencies
}

func NewCheckinService(deps Dependencies) CheckinService {
	return &checkinService{Dependencies: deps.withDefaults()}
}

// UseTicket checks a ticket in. Capacity is not touched: a used ticket
// still holds its seat.
func (s *checkinService) UseTicket(ctx context.Context, ticketID string, actor models.Actor) (*models.Ticket, error) {
	ticket, err := s.Tickets.FindByID(ctx, ticketID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTicketNotFound
		}
		s.Logger.Errorf(ctx, "service.checkinService.UseTicket.FindByID: %v", err)
		return nil, fmt.Errorf("load ticket %s: %w", ticketID, err)
	}

	sellerID, err := s.sellerOf(ctx, ticket.EventID)
	if err != nil {
		s.Logger.Errorf(ctx, "service.checkinService.UseTicket.sellerOf: %v", err)
		return nil, fmt.Errorf("load event %s: %w", ticket.EventID, err)
	}
	if !actor.CanManage(sellerID) {
		return nil, ErrUnauthorized
	}

	if err := useStatusError(ticket.Status); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	used, err := s.Tickets.Transition(ctx, ticket.ID, models.TicketActive, models.TicketUsed, now)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			current, rerr := s.Tickets.FindByID(ctx, ticket.ID)
			if rerr == nil {
				if serr := useStatusError(current.Status); serr != nil {
					return nil, serr
				}
			}
		}
		if isNotFound(err) {
			return nil, ErrTicketNotFound
		}
		s.Logger.Errorf(ctx, "service.checkinService.UseTicket: %v", err)
		return nil, fmt.Errorf("use ticket: %w", err)
	}

	s.Metrics.TicketUsed(string(used.Tier))
	s.Logger.Infof(ctx, "service.checkinService.UseTicket: ticket=%s event=%s by=%s", used.ID, used.EventID, actor.ID)
	s.publish(ctx, messaging.TicketUsed, used, actor.ID, now)

	return used, nil
}

func useStatusError(status models.TicketStatus) error {
	if !status.IsTerminal() {
		return nil
	}
	if status == models.TicketCancelled {
		return ErrTicketCancelled
	}
	return ErrAlreadyUsed
}
