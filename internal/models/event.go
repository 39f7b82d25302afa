package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidEvent = errors.New("invalid event")

type TierName string

const (
	TierPremium  TierName = "premium"
	TierStandard TierName = "standard"
	TierEconomy  TierName = "economy"
)

// TierNames lists every recognized tier in display order.
var TierNames = []TierName{TierPremium, TierStandard, TierEconomy}

func ParseTierName(s string) (TierName, bool) {
	t := TierName(s)
	return t, t.Valid()
}

func (t TierName) Valid() bool {
	switch t {
	case TierPremium, TierStandard, TierEconomy:
		return true
	}
	return false
}

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
	ModerationEnded    ModerationStatus = "ended"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case ModerationPending, ModerationApproved, ModerationRejected, ModerationEnded:
		return true
	}
	return false
}

type SalesPhase int

const (
	SalesNotStarted SalesPhase = iota
	SalesOpen
	SalesEnded
)

type Event struct {
	ID               string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SellerID         string           `gorm:"type:varchar(64);not null;index" json:"sellerId"`
	Title            string           `gorm:"not null" json:"title"`
	SalesOpensAt     time.Time        `gorm:"not null" json:"salesOpensAt"`
	SalesClosesAt    time.Time        `gorm:"not null" json:"salesClosesAt"`
	OccursAt         time.Time        `gorm:"not null" json:"occursAt"`
	ModerationStatus ModerationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"moderationStatus"`
	Tiers            []TicketTier     `gorm:"foreignKey:EventID;constraint:OnDelete:RESTRICT" json:"tiers"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// TicketTier is the inventory of one tier. SoldCount is written only by the
// inventory repository.
type TicketTier struct {
	EventID   string          `gorm:"primaryKey;type:varchar(64)" json:"-"`
	Name      TierName        `gorm:"primaryKey;type:varchar(20)" json:"name"`
	Capacity  uint            `gorm:"not null" json:"capacity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	SoldCount uint            `gorm:"not null;default:0;check:chk_ticket_tiers_sold,sold_count >= 0 AND sold_count <= capacity" json:"soldCount"`
	UpdatedAt time.Time       `json:"-"`
}

func (t TicketTier) Remaining() uint {
	if t.SoldCount >= t.Capacity {
		return 0
	}
	return t.Capacity - t.SoldCount
}

func (e *Event) Tier(name TierName) (TicketTier, bool) {
	for _, t := range e.Tiers {
		if t.Name == name {
			return t, true
		}
	}
	return TicketTier{}, false
}

// SalesPhase reports where now falls relative to the sales window. Both
// bounds belong to the open phase.
func (e *Event) SalesPhase(now time.Time) SalesPhase {
	switch {
	case now.Before(e.SalesOpensAt):
		return SalesNotStarted
	case now.After(e.SalesClosesAt):
		return SalesEnded
	default:
		return SalesOpen
	}
}

func (e *Event) IsApproved() bool {
	return e.ModerationStatus == ModerationApproved
}

// Validate checks the catalog invariants of an event definition.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEvent)
	}
	if e.SellerID == "" {
		return fmt.Errorf("%w: seller id is required", ErrInvalidEvent)
	}
	if !e.ModerationStatus.Valid() {
		return fmt.Errorf("%w: unknown moderation status %q", ErrInvalidEvent, e.ModerationStatus)
	}
	if e.SalesClosesAt.Before(e.SalesOpensAt) {
		return fmt.Errorf("%w: sales window closes before it opens", ErrInvalidEvent)
	}

	seen := make(map[TierName]bool, len(e.Tiers))
	for _, t := range e.Tiers {
		if !t.Name.Valid() {
			return fmt.Errorf("%w: unknown tier %q", ErrInvalidEvent, t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: duplicate tier %q", ErrInvalidEvent, t.Name)
		}
		seen[t.Name] = true
		if t.Price.IsNegative() {
			return fmt.Errorf("%w: negative price for tier %q", ErrInvalidEvent, t.Name)
		}
		if t.SoldCount > t.Capacity {
			return fmt.Errorf("%w: tier %q sold beyond capacity", ErrInvalidEvent, t.Name)
		}
	}
	return nil
}
