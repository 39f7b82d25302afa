//go:build integration

package integration

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/repository"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/service"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type services struct {
	booking service.BookingService
	cancel  service.CancellationService
	checkin service.CheckinService
	catalog service.CatalogService
	audit   service.AuditService
}

func newServices() services {
	deps := service.Dependencies{
		Tx:        repository.NewTransactor(testDB),
		Events:    repository.NewEventRepository(testDB),
		Inventory: repository.NewInventoryRepository(testDB),
		Tickets:   repository.NewTicketRepository(testDB),
		Logger:    logger.InitializeTestZapLogger(),
	}
	return services{
		booking: service.NewBookingService(deps, true),
		cancel:  service.NewCancellationService(deps),
		checkin: service.NewCheckinService(deps),
		catalog: service.NewCatalogService(deps),
		audit:   service.NewAuditService(deps),
	}
}

func eventDef(id string, premium, economy uint) *models.Event {
	now := time.Now().UTC()
	return &models.Event{
		ID:               id,
		SellerID:         "seller-1",
		Title:            "Golang Conference Bangkok",
		SalesOpensAt:     now.Add(-time.Hour),
		SalesClosesAt:    now.Add(time.Hour),
		OccursAt:         now.Add(24 * time.Hour),
		ModerationStatus: models.ModerationApproved,
		Tiers: []models.TicketTier{
			{Name: models.TierPremium, Capacity: premium, Price: decimal.RequireFromString("150.00")},
			{Name: models.TierEconomy, Capacity: economy, Price: decimal.RequireFromString("25.00")},
		},
	}
}

func syncEvent(t *testing.T, svc services, id string, premium, economy uint) {
	t.Helper()
	require.NoError(t, svc.catalog.SyncEvent(t.Context(), eventDef(id, premium, economy)))
}

func buy(t *testing.T, svc services, userID, eventID string, tier models.TierName) *models.Ticket {
	t.Helper()
	ticket, err := svc.booking.BuyTicket(t.Context(), service.BuyTicketInput{
		UserID: userID, EventID: eventID, TicketType: string(tier),
	})
	require.NoError(t, err)
	return ticket
}

// 120 buyers race for 30 premium seats: exactly 30 tickets are issued.
func TestConcurrentPurchase_NoOversell(t *testing.T) {
	cleanTables()
	svc := newServices()
	syncEvent(t, svc, "evt-rush", 30, 10)

	const buyers = 120
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		sold    int
		soldOut int
	)

	wg.Add(buyers)
	for i := range buyers {
		go func(i int) {
			defer wg.Done()
			_, err := svc.booking.BuyTicket(t.Context(), service.BuyTicketInput{
				UserID: fmt.Sprintf("user-%03d", i), EventID: "evt-rush", TicketType: "premium",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sold++
			case errors.Is(err, service.ErrTierSoldOut):
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 30, sold)
	assert.Equal(t, buyers-30, soldOut)

	report, err := svc.audit.Inventory(t.Context(), "evt-rush")
	require.NoError(t, err)
	assert.True(t, report.Consistent)

	var count int64
	require.NoError(t, testDB.Model(&models.Ticket{}).
		Where("event_id = ? AND tier = ?", "evt-rush", models.TierPremium).Count(&count).Error)
	assert.EqualValues(t, 30, count)
}

func TestCancel_RestoresCapacity(t *testing.T) {
	cleanTables()
	svc := newServices()
	syncEvent(t, svc, "evt-cancel", 1, 1)

	ticket := buy(t, svc, "alice", "evt-cancel", models.TierPremium)

	_, err := svc.booking.BuyTicket(t.Context(), service.BuyTicketInput{
		UserID: "bob", EventID: "evt-cancel", TicketType: "premium",
	})
	require.ErrorIs(t, err, service.ErrTierSoldOut)

	cancelled, err := svc.cancel.CancelTicket(t.Context(), ticket.ID, models.Actor{ID: "alice", Role: models.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, models.TicketCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = svc.cancel.CancelTicket(t.Context(), ticket.ID, models.Actor{ID: "alice", Role: models.RoleUser})
	assert.ErrorIs(t, err, service.ErrAlreadyCancelled)

	buy(t, svc, "bob", "evt-cancel", models.TierPremium)

	var tier models.TicketTier
	require.NoError(t, testDB.First(&tier, "event_id = ? AND name = ?", "evt-cancel", models.TierPremium).Error)
	assert.EqualValues(t, 1, tier.SoldCount)
}

func TestSyncEvent_RejectsCapacityBelowSold(t *testing.T) {
	cleanTables()
	svc := newServices()
	syncEvent(t, svc, "evt-shrink", 5, 5)

	for i := range 3 {
		buy(t, svc, fmt.Sprintf("user-%d", i), "evt-shrink", models.TierPremium)
	}

	err := svc.catalog.SyncEvent(t.Context(), eventDef("evt-shrink", 2, 50))
	require.ErrorIs(t, err, service.ErrCapacityBelowSold)

	// Nothing in the rejected write applied, including the economy tier.
	after, err := svc.catalog.GetEvent(t.Context(), "evt-shrink")
	require.NoError(t, err)
	for _, tier := range after.Tiers {
		assert.EqualValues(t, 5, tier.Capacity, tier.Name)
	}

	require.NoError(t, svc.catalog.SyncEvent(t.Context(), eventDef("evt-shrink", 3, 5)))
	_, err = svc.booking.BuyTicket(t.Context(), service.BuyTicketInput{
		UserID: "late", EventID: "evt-shrink", TicketType: "premium",
	})
	assert.ErrorIs(t, err, service.ErrTierSoldOut)
}

func TestPriceChange_KeepsPricePaid(t *testing.T) {
	cleanTables()
	svc := newServices()
	syncEvent(t, svc, "evt-price", 5, 5)

	ticket := buy(t, svc, "alice", "evt-price", models.TierPremium)
	require.NoError(t, svc.catalog.SetTierPrice(t.Context(), "evt-price", models.TierPremium, decimal.RequireFromString("300.00")))

	stored, err := repository.NewTicketRepository(testDB).FindByID(t.Context(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "150.00", stored.PricePaid.StringFixed(2))

	next := buy(t, svc, "bob", "evt-price", models.TierPremium)
	assert.Equal(t, "300.00", next.PricePaid.StringFixed(2))
}

func TestTransition_CompareAndSwap(t *testing.T) {
	cleanTables()
	svc := newServices()
	syncEvent(t, svc, "evt-cas", 5, 5)
	ticket := buy(t, svc, "alice", "evt-cas", models.TierEconomy)

	repo := repository.NewTicketRepository(testDB)
	now := time.Now().UTC()

	used, err := repo.Transition(t.Context(), ticket.ID, models.TicketActive, models.TicketUsed, now)
	require.NoError(t, err)
	assert.Equal(t, models.TicketUsed, used.Status)
	require.NotNil(t, used.UsedAt)

	_, err = repo.Transition(t.Context(), ticket.ID, models.TicketActive, models.TicketCancelled, now)
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	_, err = repo.Transition(t.Context(), "missing", models.TicketActive, models.TicketUsed, now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// Check-in and cancellation race on the same ticket: exactly one wins.
func TestUseAndCancelRace(t *testing.T) {
	cleanTables()
	svc := newServices()
	syncEvent(t, svc, "evt-race", 20, 5)

	seller := models.Actor{ID: "seller-1", Role: models.RoleSeller}
	for i := range 20 {
		owner := models.Actor{ID: fmt.Sprintf("user-%d", i), Role: models.RoleUser}
		ticket := buy(t, svc, owner.ID, "evt-race", models.TierPremium)

		var wg sync.WaitGroup
		var useErr, cancelErr error
		wg.Add(2)
		go func() { defer wg.Done(); _, useErr = svc.checkin.UseTicket(t.Context(), ticket.ID, seller) }()
		go func() { defer wg.Done(); _, cancelErr = svc.cancel.CancelTicket(t.Context(), ticket.ID, owner) }()
		wg.Wait()

		if useErr == nil {
			assert.ErrorIs(t, cancelErr, service.ErrCannotCancelUsed)
		} else {
			assert.ErrorIs(t, useErr, service.ErrTicketCancelled)
			assert.NoError(t, cancelErr)
		}
	}

	report, err := svc.audit.Inventory(t.Context(), "evt-race")
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

// Audits run between concurrent purchases read one snapshot, so the sold
// count and the ledger always agree.
func TestAuditWhileBuying(t *testing.T) {
	cleanTables()
	svc := newServices()
	syncEvent(t, svc, "evt-audit", 400, 10)

	stop := make(chan struct{})
	var drift, audits int
	var auditWG sync.WaitGroup
	auditWG.Add(1)
	go func() {
		defer auditWG.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			report, err := svc.audit.Inventory(t.Context(), "evt-audit")
			if err != nil {
				t.Errorf("audit: %v", err)
				return
			}
			audits++
			if !report.Consistent {
				drift++
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(8)
	for b := range 8 {
		go func(b int) {
			defer wg.Done()
			for i := range 40 {
				if _, err := svc.booking.BuyTicket(t.Context(), service.BuyTicketInput{
					UserID: fmt.Sprintf("user-%d-%d", b, i), EventID: "evt-audit", TicketType: "premium",
				}); err != nil {
					t.Errorf("buy: %v", err)
					return
				}
			}
		}(b)
	}
	wg.Wait()
	close(stop)
	auditWG.Wait()

	assert.Positive(t, audits)
	assert.Zero(t, drift)
}
