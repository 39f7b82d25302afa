package service

import (
	"context"
	"fmt"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/shopspring/decimal"
)

type TierInventory struct {
	Tier      models.TierName `json:"tier"`
	Capacity  uint            `json:"capacity"`
	Price     decimal.Decimal `json:"price"`
	SoldCount uint            `json:"soldCount"`
	Remaining uint            `json:"remaining"`
	// Held is the number of active and used tickets in the ledger.
	Held       int64 `json:"held"`
	Consistent bool  `json:"consistent"`
}

type InventoryReport struct {
	EventID          string                  `json:"eventId"`
	Title            string                  `json:"title"`
	ModerationStatus models.ModerationStatus `json:"moderationStatus"`
	Tiers            []TierInventory         `json:"tiers"`
	Consistent       bool                    `json:"consistent"`
}

// AuditService compares each tier's sold count with the ledger.
type AuditService interface {
	Inventory(ctx context.Context, eventID string) (*InventoryReport, error)
}

type auditService struct {
	Dependencies
}

func NewAuditService(deps Dependencies) AuditService {
	return &auditService{Dependencies: deps.withDefaults()}
}

func (s *auditService) Inventory(ctx context.Context, eventID string) (*InventoryReport, error) {
	var (
		event *models.Event
		held  map[models.TierName]int64
	)
	err := s.Tx.WithSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if event, err = s.Events.FindByID(ctx, eventID); err != nil {
			return err
		}
		held, err = s.Tickets.CountHeld(ctx, eventID)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEventNotFound
		}
		s.Logger.Errorf(ctx, "service.auditService.Inventory: %v", err)
		return nil, fmt.Errorf("audit inventory %s: %w", eventID, err)
	}

	report := &InventoryReport{
		EventID:          event.ID,
		Title:            event.Title,
		ModerationStatus: event.ModerationStatus,
		Consistent:       true,
	}
	for _, name := range models.TierNames {
		tier, ok := event.Tier(name)
		if !ok {
			continue
		}
		ti := TierInventory{
			Tier:       name,
			Capacity:   tier.Capacity,
			Price:      tier.Price,
			SoldCount:  tier.SoldCount,
			Remaining:  tier.Remaining(),
			Held:       held[name],
			Consistent: held[name] == int64(tier.SoldCount) && tier.SoldCount <= tier.Capacity,
		}
		if !ti.Consistent {
			report.Consistent = false
			_ = s.invariantViolation(ctx, "ledger_mismatch",
				"event=%s tier=%s sold=%d held=%d capacity=%d", event.ID, name, tier.SoldCount, held[name], tier.Capacity)
		}
		report.Tiers = append(report.Tiers, ti)
	}

	return report, nil
}
