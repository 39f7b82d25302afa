package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidTransition = errors.New("invalid ticket status transition")

type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketActive, TicketUsed, TicketCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether s -> to is a defined lifecycle edge.
// Only active -> used and active -> cancelled exist.
func (s TicketStatus) CanTransitionTo(to TicketStatus) bool {
	return s == TicketActive && (to == TicketUsed || to == TicketCancelled)
}

func (s TicketStatus) IsTerminal() bool {
	return s == TicketUsed || s == TicketCancelled
}

// HoldsSeat reports whether a ticket in this status counts against its
// tier's sold count.
func (s TicketStatus) HoldsSeat() bool {
	return s == TicketActive || s == TicketUsed
}

type Ticket struct {
	ID          string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	EventID     string          `gorm:"type:varchar(64);not null;index:idx_tickets_event_tier_status,priority:1" json:"eventId"`
	OwnerID     string          `gorm:"type:varchar(64);not null;index" json:"ownerId"`
	Tier        TierName        `gorm:"type:varchar(20);not null;index:idx_tickets_event_tier_status,priority:2" json:"tier"`
	PricePaid   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"pricePaid"`
	Status      TicketStatus    `gorm:"type:varchar(20);not null;default:'active';index:idx_tickets_event_tier_status,priority:3" json:"status"`
	PurchasedAt time.Time       `gorm:"not null" json:"purchasedAt"`
	UsedAt      *time.Time      `json:"usedAt,omitempty"`
	CancelledAt *time.Time      `json:"cancelledAt,omitempty"`
	UpdatedAt   time.Time       `json:"-"`

	Event *Event `gorm:"foreignKey:EventID;constraint:OnDelete:RESTRICT" json:"-"`
}
