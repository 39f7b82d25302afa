package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/clock"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/messaging"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/metrics"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository/memory"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	opensAt  = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	closesAt = time.Date(2026, 6, 30, 18, 0, 0, 0, time.UTC)
)

const (
	sellerID = "seller-1"
	adminID  = "admin-1"
)

var (
	seller = models.Actor{ID: sellerID, Role: models.RoleSeller}
	admin  = models.Actor{ID: adminID, Role: models.RoleAdmin}
)

func user(id string) models.Actor { return models.Actor{ID: id, Role: models.RoleUser} }

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.TicketEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e messaging.TicketEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []messaging.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]messaging.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store *memory.Store
	clock *clock.Manual
	pub   *recordingPublisher
	deps  Dependencies

	booking BookingService
	cancel  CancellationService
	checkin CheckinService
	ledger  LedgerService
	catalog CatalogService
	audit   AuditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		store: store,
		clock: clock.NewManual(opensAt.Add(time.Hour)),
		pub:   &recordingPublisher{},
	}
	f.deps = Dependencies{
		Tx:        store,
		Events:    store.Events(),
		Inventory: store.Inventory(),
		Tickets:   store.Tickets(),
		Publisher: f.pub,
		Metrics:   metrics.New(),
		Clock:     f.clock,
		Logger:    logger.InitializeTestZapLogger(),
	}
	f.rebuild(true)
	return f
}

func (f *fixture) rebuild(requireApproved bool) {
	f.booking = NewBookingService(f.deps, requireApproved)
	f.cancel = NewCancellationService(f.deps)
	f.checkin = NewCheckinService(f.deps)
	f.ledger = NewLedgerService(f.deps)
	f.catalog = NewCatalogService(f.deps)
	f.audit = NewAuditService(f.deps)
}

func testEvent(id string, capacity uint) *models.Event {
	return &models.Event{
		ID:               id,
		SellerID:         sellerID,
		Title:            "Gophercon " + id,
		SalesOpensAt:     opensAt,
		SalesClosesAt:    closesAt,
		OccursAt:         closesAt.Add(24 * time.Hour),
		ModerationStatus: models.ModerationApproved,
		Tiers: []models.TicketTier{
			{Name: models.TierPremium, Capacity: capacity, Price: decimal.RequireFromString("150.00")},
			{Name: models.TierStandard, Capacity: capacity, Price: decimal.RequireFromString("80.00")},
			{Name: models.TierEconomy, Capacity: capacity, Price: decimal.RequireFromString("25.50")},
		},
	}
}

func (f *fixture) seed(t *testing.T, event *models.Event) {
	t.Helper()
	require.NoError(t, f.catalog.SyncEvent(context.Background(), event))
}

func (f *fixture) buy(t *testing.T, eventID, userID string, tier models.TierName) *models.Ticket {
	t.Helper()
	ticket, err := f.booking.BuyTicket(context.Background(), BuyTicketInput{UserID: userID, EventID: eventID, TicketType: string(tier)})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) sold(t *testing.T, eventID string, tier models.TierName) uint {
	t.Helper()
	event, err := f.store.Events().FindByID(context.Background(), eventID)
	require.NoError(t, err)
	ti, ok := event.Tier(tier)
	require.True(t, ok)
	return ti.SoldCount
}

// failingTickets fails every Create.
type failingTickets struct {
	repository.TicketRepository
}

var errDiskFull = errors.New("disk full")

func (failingTickets) Create(context.Context, *models.Ticket) error { return errDiskFull }

// missingEvents behaves as if every event was removed from the catalog.
type missingEvents struct {
	repository.EventRepository
}

func (missingEvents) FindByID(context.Context, string) (*models.Event, error) {
	return nil, repository.ErrNotFound
}
