package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
	"github.com/shopspring/decimal"
)

// CatalogService applies organizer-side changes to the local event catalog.
// It never writes sold counts.
type CatalogService interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	SyncEvent(ctx context.Context, event *models.Event) error
	SetTierPrice(ctx context.Context, eventID string, tier models.TierName, price decimal.Decimal) error
}

type catalogService struct {
	Dependencies
}

func NewCatalogService(deps Dependencies) CatalogService {
	return &catalogService{Dependencies: deps.withDefaults()}
}

func (s *catalogService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.Events.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEventNotFound
		}
		s.Logger.Errorf(ctx, "service.catalogService.GetEvent: %v", err)
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return event, nil
}

func (s *catalogService) SyncEvent(ctx context.Context, event *models.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if err := s.Events.Upsert(ctx, event); err != nil {
		if errors.Is(err, repository.ErrCapacityBelowSold) {
			return fmt.Errorf("%w: event %s", ErrCapacityBelowSold, event.ID)
		}
		s.Logger.Errorf(ctx, "service.catalogService.SyncEvent: %v", err)
		return fmt.Errorf("sync event %s: %w", event.ID, err)
	}

	s.Logger.Infof(ctx, "service.catalogService.SyncEvent: event=%s status=%s tiers=%d",
		event.ID, event.ModerationStatus, len(event.Tiers))
	return nil
}

// SetTierPrice changes the price charged to future purchases. Tickets keep
// the price they were bought at.
func (s *catalogService) SetTierPrice(ctx context.Context, eventID string, tier models.TierName, price decimal.Decimal) error {
	if !tier.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTier, tier)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: negative price", ErrInvalidEvent)
	}

	if err := s.Events.SetTierPrice(ctx, eventID, tier, price); err != nil {
		if isNotFound(err) {
			return ErrEventNotFound
		}
		s.Logger.Errorf(ctx, "service.catalogService.SetTierPrice: %v", err)
		return fmt.Errorf("set tier price: %w", err)
	}
	return nil
}
