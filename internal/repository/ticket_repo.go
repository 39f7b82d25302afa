package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	FindByID(ctx context.Context, id string) (*models.Ticket, error)
	// FindByOwner and FindBySeller return newest first.
	FindByOwner(ctx context.Context, ownerID string) ([]models.Ticket, error)
	FindBySeller(ctx context.Context, sellerID string) ([]models.Ticket, error)
	// Transition moves the ticket from -> to and stamps the matching
	// timestamp. ErrStatusConflict when the stored status is not from.
	Transition(ctx context.Context, id string, from, to models.TicketStatus, at time.Time) (*models.Ticket, error)
	// CountHeld counts active and used tickets per tier of an event.
	CountHeld(ctx context.Context, eventID string) (map[models.TierName]int64, error)
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Create(ticket).Error)
}

func (r *ticketRepository) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := conn(ctx, r.db).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) FindByOwner(ctx context.Context, ownerID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := conn(ctx, r.db).
		Where("owner_id = ?", ownerID).
		Order("purchased_at DESC, id DESC").
		Find(&tickets).Error
	return tickets, translate(err)
}

func (r *ticketRepository) FindBySeller(ctx context.Context, sellerID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := conn(ctx, r.db).
		Joins("JOIN events ON events.id = tickets.event_id").
		Where("events.seller_id = ?", sellerID).
		Order("tickets.purchased_at DESC, tickets.id DESC").
		Find(&tickets).Error
	return tickets, translate(err)
}

func (r *ticketRepository) Transition(ctx context.Context, id string, from, to models.TicketStatus, at time.Time) (*models.Ticket, error) {
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
	}

	updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	switch to {
	case models.TicketUsed:
		updates["used_at"] = at
	case models.TicketCancelled:
		updates["cancelled_at"] = at
	}

	var rows []models.Ticket
	res := conn(ctx, r.db).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStatusConflict
	}
	return &rows[0], nil
}

func (r *ticketRepository) CountHeld(ctx context.Context, eventID string) (map[models.TierName]int64, error) {
	var rows []struct {
		Tier models.TierName
		Held int64
	}
	err := conn(ctx, r.db).
		Model(&models.Ticket{}).
		Select("tier, COUNT(*) AS held").
		Where("event_id = ? AND status IN ?", eventID, []models.TicketStatus{models.TicketActive, models.TicketUsed}).
		Group("tier").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	held := make(map[models.TierName]int64, len(rows))
	for _, row := range rows {
		held[row.Tier] = row.Held
	}
	return held, nil
}
