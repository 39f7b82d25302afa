package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
	"github.com/shopspring/decimal"
)

type eventRepository struct {
	s *Store
}

func (r *eventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	sl, ok := r.s.slot(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return copyEvent(sl.event), nil
}

func (r *eventRepository) Upsert(ctx context.Context, event *models.Event) error {
	now := time.Now().UTC()

	r.s.mu.Lock()
	sl, ok := r.s.events[event.ID]
	if !ok {
		sl = &eventSlot{event: models.Event{ID: event.ID, CreatedAt: now}}
		r.s.events[event.ID] = sl
	}
	r.s.mu.Unlock()

	sl.mu.Lock()
	defer sl.mu.Unlock()

	next := *copyEvent(sl.event)
	for _, in := range event.Tiers {
		idx := tierIndex(&next, in.Name)
		if idx < 0 {
			next.Tiers = append(next.Tiers, models.TicketTier{EventID: event.ID, Name: in.Name})
			idx = len(next.Tiers) - 1
		}
		t := &next.Tiers[idx]
		if in.Capacity < t.SoldCount {
			return repository.ErrCapacityBelowSold
		}
		t.Capacity = in.Capacity
		t.Price = in.Price
		t.UpdatedAt = now
	}
	sort.Slice(next.Tiers, func(i, j int) bool { return next.Tiers[i].Name < next.Tiers[j].Name })

	next.SellerID = event.SellerID
	next.Title = event.Title
	next.SalesOpensAt = event.SalesOpensAt
	next.SalesClosesAt = event.SalesClosesAt
	next.OccursAt = event.OccursAt
	next.ModerationStatus = event.ModerationStatus
	next.UpdatedAt = now

	prev := sl.event
	sl.event = next
	created := !ok
	record(ctx, func() {
		if created {
			r.s.mu.Lock()
			delete(r.s.events, event.ID)
			r.s.mu.Unlock()
			return
		}
		sl.mu.Lock()
		sl.event = prev
		sl.mu.Unlock()
	})
	return nil
}

func (r *eventRepository) SetTierPrice(ctx context.Context, eventID string, tier models.TierName, price decimal.Decimal) error {
	sl, ok := r.s.slot(eventID)
	if !ok {
		return repository.ErrNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()

	idx := tierIndex(&sl.event, tier)
	if idx < 0 {
		return repository.ErrNotFound
	}
	prev := sl.event.Tiers[idx].Price
	sl.event.Tiers[idx].Price = price
	record(ctx, func() {
		sl.mu.Lock()
		if i := tierIndex(&sl.event, tier); i >= 0 {
			sl.event.Tiers[i].Price = prev
		}
		sl.mu.Unlock()
	})
	return nil
}
