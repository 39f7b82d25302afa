package repository

import (
	"context"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reservation is the tier state observed by a successful TryReserve.
type Reservation struct {
	Price     decimal.Decimal
	SoldCount uint
	Capacity  uint
}

// InventoryRepository is the only writer of ticket_tiers.sold_count.
type InventoryRepository interface {
	// TryReserve consumes one unit of the tier iff capacity remains and
	// returns the price at that instant. ErrSoldOut leaves state unchanged.
	TryReserve(ctx context.Context, eventID string, tier models.TierName) (Reservation, error)
	// Release returns one unit. ErrAlreadyAtZero when sold_count is 0.
	Release(ctx context.Context, eventID string, tier models.TierName) error
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

var reservationColumns = clause.Returning{Columns: []clause.Column{
	{Name: "price"}, {Name: "sold_count"}, {Name: "capacity"},
}}

func (r *inventoryRepository) TryReserve(ctx context.Context, eventID string, tier models.TierName) (Reservation, error) {
	var rows []models.TicketTier
	res := conn(ctx, r.db).
		Model(&rows).
		Clauses(reservationColumns).
		Where("event_id = ? AND name = ? AND sold_count < capacity", eventID, tier).
		UpdateColumn("sold_count", gorm.Expr("sold_count + ?", 1))
	if res.Error != nil {
		return Reservation{}, translate(res.Error)
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		if err := r.ensureTier(ctx, eventID, tier); err != nil {
			return Reservation{}, err
		}
		return Reservation{}, ErrSoldOut
	}

	return Reservation{Price: rows[0].Price, SoldCount: rows[0].SoldCount, Capacity: rows[0].Capacity}, nil
}

func (r *inventoryRepository) Release(ctx context.Context, eventID string, tier models.TierName) error {
	res := conn(ctx, r.db).
		Model(&models.TicketTier{}).
		Where("event_id = ? AND name = ? AND sold_count > 0", eventID, tier).
		UpdateColumn("sold_count", gorm.Expr("sold_count - ?", 1))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if err := r.ensureTier(ctx, eventID, tier); err != nil {
			return err
		}
		return ErrAlreadyAtZero
	}
	return nil
}

func (r *inventoryRepository) ensureTier(ctx context.Context, eventID string, tier models.TierName) error {
	var count int64
	err := conn(ctx, r.db).
		Model(&models.TicketTier{}).
		Where("event_id = ? AND name = ?", eventID, tier).
		Count(&count).Error
	if err != nil {
		return translate(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
