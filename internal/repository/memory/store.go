// Package memory is an in-process storage driver. Capacity is coordinated by
// a mutex per event. WithTx records compensating actions and runs them in
// reverse when the unit of work fails. WithSnapshot waits for in-flight
// units to settle and holds new ones off while it reads.
package memory

import (
	"context"
	"sync"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
)

type Store struct {
	// units is held shared by each WithTx and exclusively by WithSnapshot.
	units   sync.RWMutex
	mu      sync.RWMutex
	events  map[string]*eventSlot
	tickets map[string]*ticketRow
	seq     uint64
}

type eventSlot struct {
	mu    sync.Mutex
	event models.Event
}

type ticketRow struct {
	ticket models.Ticket
	seq    uint64
}

func NewStore() *Store {
	return &Store{
		events:  make(map[string]*eventSlot),
		tickets: make(map[string]*ticketRow),
	}
}

func (s *Store) Events() repository.EventRepository         { return &eventRepository{s: s} }
func (s *Store) Inventory() repository.InventoryRepository { return &inventoryRepository{s: s} }
func (s *Store) Tickets() repository.TicketRepository       { return &ticketRepository{s: s} }

type (
	journalKey  struct{}
	snapshotKey struct{}
)

type journal struct {
	mu   sync.Mutex
	undo []func()
}

// WithTx implements repository.Transactor.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}
	if ctx.Value(snapshotKey{}) == nil {
		s.units.RLock()
		defer s.units.RUnlock()
	}

	j := &journal{}
	err := fn(context.WithValue(ctx, journalKey{}, j))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		j.rollback()
		return err
	}
	return nil
}

// WithSnapshot implements repository.Transactor. Mutations made outside
// WithTx are single atomic steps and are not held off.
func (s *Store) WithSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(journalKey{}) != nil || ctx.Value(snapshotKey{}) != nil {
		return fn(ctx)
	}

	s.units.Lock()
	defer s.units.Unlock()
	return fn(context.WithValue(ctx, snapshotKey{}, true))
}

// record registers a compensation for a mutation made under ctx. Outside a
// unit of work the mutation is final.
func record(ctx context.Context, undo func()) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok {
		return
	}
	j.mu.Lock()
	j.undo = append(j.undo, undo)
	j.mu.Unlock()
}

func (j *journal) rollback() {
	j.mu.Lock()
	undo := j.undo
	j.undo = nil
	j.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}

func (s *Store) slot(id string) (*eventSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.events[id]
	return sl, ok
}

func copyEvent(e models.Event) *models.Event {
	e.Tiers = append([]models.TicketTier(nil), e.Tiers...)
	return &e
}

func tierIndex(e *models.Event, name models.TierName) int {
	for i := range e.Tiers {
		if e.Tiers[i].Name == name {
			return i
		}
	}
	return -1
}

var _ repository.Transactor = (*Store)(nil)
