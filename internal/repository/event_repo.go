package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	// Upsert writes the event definition and its tiers. sold_count is never
	// touched; a tier whose new capacity is below its sold count fails the
	// whole write with ErrCapacityBelowSold.
	Upsert(ctx context.Context, event *models.Event) error
	SetTierPrice(ctx context.Context, eventID string, tier models.TierName, price decimal.Decimal) error
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := conn(ctx, r.db).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		First(&event, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (r *eventRepository) Upsert(ctx context.Context, event *models.Event) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"seller_id", "title", "sales_opens_at", "sales_closes_at",
				"occurs_at", "moderation_status", "updated_at",
			}),
		}).Create(event).Error
		if err != nil {
			return translate(err)
		}

		now := time.Now().UTC()
		for i := range event.Tiers {
			tier := &event.Tiers[i]
			tier.EventID = event.ID
			tier.UpdatedAt = now

			// The update branch only fires while the stored sold count still
			// fits under the new capacity.
			res := tx.Exec(`
				INSERT INTO ticket_tiers (event_id, name, capacity, price, sold_count, updated_at)
				VALUES (?, ?, ?, ?, 0, ?)
				ON CONFLICT (event_id, name) DO UPDATE
				SET capacity = EXCLUDED.capacity, price = EXCLUDED.price, updated_at = EXCLUDED.updated_at
				WHERE ticket_tiers.sold_count <= EXCLUDED.capacity
			`, tier.EventID, tier.Name, tier.Capacity, tier.Price, tier.UpdatedAt)
			if res.Error != nil {
				return translate(res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrCapacityBelowSold
			}
		}
		return nil
	})
}

func (r *eventRepository) SetTierPrice(ctx context.Context, eventID string, tier models.TierName, price decimal.Decimal) error {
	res := conn(ctx, r.db).
		Model(&models.TicketTier{}).
		Where("event_id = ? AND name = ?", eventID, tier).
		UpdateColumns(map[string]any{"price": price, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
