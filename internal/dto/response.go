package dto

import (
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/service"
)

type TicketResponse struct {
	ID          string              `json:"id"`
	EventID     string              `json:"eventId"`
	OwnerID     string              `json:"ownerId"`
	Tier        models.TierName     `json:"tier"`
	PricePaid   string              `json:"pricePaid"`
	Status      models.TicketStatus `json:"status"`
	PurchasedAt time.Time           `json:"purchasedAt"`
	UsedAt      *time.Time          `json:"usedAt,omitempty"`
	CancelledAt *time.Time          `json:"cancelledAt,omitempty"`
}

type TicketEnvelope struct {
	Ticket TicketResponse `json:"ticket"`
}

type TicketListEnvelope struct {
	Tickets []TicketResponse `json:"tickets"`
}

type TierInventoryResponse struct {
	Tier       models.TierName `json:"tier"`
	Capacity   uint            `json:"capacity"`
	Price      string          `json:"price"`
	SoldCount  uint            `json:"soldCount"`
	Remaining  uint            `json:"remaining"`
	Held       int64           `json:"held"`
	Consistent bool            `json:"consistent"`
}

type InventoryResponse struct {
	EventID          string                  `json:"eventId"`
	Title            string                  `json:"title"`
	ModerationStatus models.ModerationStatus `json:"moderationStatus"`
	Tiers            []TierInventoryResponse `json:"tiers"`
	Consistent       bool                    `json:"consistent"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ErrorResponse) Error() string {
	return e.Code + ": " + e.Message
}

const priceScale = 2

func ToTicketResponse(t *models.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		EventID:     t.EventID,
		OwnerID:     t.OwnerID,
		Tier:        t.Tier,
		PricePaid:   t.PricePaid.StringFixed(priceScale),
		Status:      t.Status,
		PurchasedAt: t.PurchasedAt,
		UsedAt:      t.UsedAt,
		CancelledAt: t.CancelledAt,
	}
}

func ToTicketList(tickets []models.Ticket) TicketListEnvelope {
	resp := make([]TicketResponse, len(tickets))
	for i := range tickets {
		resp[i] = ToTicketResponse(&tickets[i])
	}
	return TicketListEnvelope{Tickets: resp}
}

func ToInventoryResponse(r *service.InventoryReport) InventoryResponse {
	tiers := make([]TierInventoryResponse, len(r.Tiers))
	for i, t := range r.Tiers {
		tiers[i] = TierInventoryResponse{
			Tier:       t.Tier,
			Capacity:   t.Capacity,
			Price:      t.Price.StringFixed(priceScale),
			SoldCount:  t.SoldCount,
			Remaining:  t.Remaining,
			Held:       t.Held,
			Consistent: t.Consistent,
		}
	}
	return InventoryResponse{
		EventID:          r.EventID,
		Title:            r.Title,
		ModerationStatus: r.ModerationStatus,
		Tiers:            tiers,
		Consistent:       r.Consistent,
	}
}
