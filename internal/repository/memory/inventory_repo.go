package memory

import (
	"context"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
)

type inventoryRepository struct {
	s *Store
}

func (r *inventoryRepository) TryReserve(ctx context.Context, eventID string, tier models.TierName) (repository.Reservation, error) {
	sl, ok := r.s.slot(eventID)
	if !ok {
		return repository.Reservation{}, repository.ErrNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()

	idx := tierIndex(&sl.event, tier)
	if idx < 0 {
		return repository.Reservation{}, repository.ErrNotFound
	}
	t := &sl.event.Tiers[idx]
	if t.SoldCount >= t.Capacity {
		return repository.Reservation{}, repository.ErrSoldOut
	}
	t.SoldCount++

	record(ctx, func() { r.adjust(sl, tier, -1) })
	return repository.Reservation{Price: t.Price, SoldCount: t.SoldCount, Capacity: t.Capacity}, nil
}

func (r *inventoryRepository) Release(ctx context.Context, eventID string, tier models.TierName) error {
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
	t := &sl.event.Tiers[idx]
	if t.SoldCount == 0 {
		return repository.ErrAlreadyAtZero
	}
	t.SoldCount--

	record(ctx, func() { r.adjust(sl, tier, 1) })
	return nil
}

func (r *inventoryRepository) adjust(sl *eventSlot, tier models.TierName, delta int) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if idx := tierIndex(&sl.event, tier); idx >= 0 {
		t := &sl.event.Tiers[idx]
		t.SoldCount = uint(int(t.SoldCount) + delta)
	}
}
