package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
)

type ticketRepository struct {
	s *Store
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.tickets[ticket.ID]; exists {
		return repository.ErrDuplicate
	}
	if _, ok := r.s.events[ticket.EventID]; !ok {
		return fmt.Errorf("ticket %s references unknown event %s: %w", ticket.ID, ticket.EventID, repository.ErrNotFound)
	}

	ticket.UpdatedAt = time.Now().UTC()
	r.s.seq++
	r.s.tickets[ticket.ID] = &ticketRow{ticket: *ticket, seq: r.s.seq}

	id := ticket.ID
	record(ctx, func() {
		r.s.mu.Lock()
		delete(r.s.tickets, id)
		r.s.mu.Unlock()
	})
	return nil
}

func (r *ticketRepository) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := row.ticket
	return &t, nil
}

func (r *ticketRepository) FindByOwner(ctx context.Context, ownerID string) ([]models.Ticket, error) {
	return r.filter(func(t *models.Ticket) bool { return t.OwnerID == ownerID }), nil
}

func (r *ticketRepository) FindBySeller(ctx context.Context, sellerID string) ([]models.Ticket, error) {
	r.s.mu.RLock()
	slots := make(map[string]*eventSlot, len(r.s.events))
	for id, sl := range r.s.events {
		slots[id] = sl
	}
	r.s.mu.RUnlock()

	owned := make(map[string]bool)
	for id, sl := range slots {
		sl.mu.Lock()
		if sl.event.SellerID == sellerID {
			owned[id] = true
		}
		sl.mu.Unlock()
	}

	return r.filter(func(t *models.Ticket) bool { return owned[t.EventID] }), nil
}

func (r *ticketRepository) filter(keep func(t *models.Ticket) bool) []models.Ticket {
	r.s.mu.RLock()
	rows := make([]*ticketRow, 0)
	for _, row := range r.s.tickets {
		if keep(&row.ticket) {
			rows = append(rows, row)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.ticket.PurchasedAt.Equal(b.ticket.PurchasedAt) {
			return a.ticket.PurchasedAt.After(b.ticket.PurchasedAt)
		}
		return a.seq > b.seq
	})

	tickets := make([]models.Ticket, len(rows))
	for i, row := range rows {
		tickets[i] = row.ticket
	}
	return tickets
}

func (r *ticketRepository) Transition(ctx context.Context, id string, from, to models.TicketStatus, at time.Time) (*models.Ticket, error) {
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if row.ticket.Status != from {
		return nil, repository.ErrStatusConflict
	}

	prev := row.ticket
	row.ticket.Status = to
	row.ticket.UpdatedAt = time.Now().UTC()
	stamp := at
	switch to {
	case models.TicketUsed:
		row.ticket.UsedAt = &stamp
	case models.TicketCancelled:
		row.ticket.CancelledAt = &stamp
	}

	record(ctx, func() {
		r.s.mu.Lock()
		if cur, ok := r.s.tickets[id]; ok {
			cur.ticket = prev
		}
		r.s.mu.Unlock()
	})

	t := row.ticket
	return &t, nil
}

func (r *ticketRepository) CountHeld(ctx context.Context, eventID string) (map[models.TierName]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	held := make(map[models.TierName]int64)
	for _, row := range r.s.tickets {
		if row.ticket.EventID == eventID && row.ticket.Status.HoldsSeat() {
			held[row.ticket.Tier]++
		}
	}
	return held, nil
}
