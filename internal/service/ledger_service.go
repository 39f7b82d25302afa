package service

import (
	"context"
	"fmt"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
)

// LedgerService is the read side of the ticket ledger.
type LedgerService interface {
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	ListOwned(ctx context.Context, ownerID string) ([]models.Ticket, error)
	ListSales(ctx context.Context, sellerID string) ([]models.Ticket, error)
}

type ledgerService struct {
	Dependencies
}

func NewLedgerService(deps Dependencies) LedgerService {
	return &ledgerService{Dependencies: deps.withDefaults()}
}

func (s *ledgerService) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.Tickets.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTicketNotFound
		}
		s.Logger.Errorf(ctx, "service.ledgerService.GetTicket: %v", err)
		return nil, fmt.Errorf("get ticket %s: %w", id, err)
	}
	return ticket, nil
}

func (s *ledgerService) ListOwned(ctx context.Context, ownerID string) ([]models.Ticket, error) {
	tickets, err := s.Tickets.FindByOwner(ctx, ownerID)
	if err != nil {
		s.Logger.Errorf(ctx, "service.ledgerService.ListOwned: %v", err)
		return nil, fmt.Errorf("list owned tickets: %w", err)
	}
	return tickets, nil
}

func (s *ledgerService) ListSales(ctx context.Context, sellerID string) ([]models.Ticket, error) {
	tickets, err := s.Tickets.FindBySeller(ctx, sellerID)
	if err != nil {
		s.Logger.Errorf(ctx, "service.ledgerService.ListSales: %v", err)
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return tickets, nil
}
