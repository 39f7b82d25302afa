package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/messaging"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCancelTicket_RestoresCapacity(t *testing.T) {
	f := newFixture(t)
	f.seed(t, testEvent("evt-1", 1))
	ticket := f.buy(t, "evt-1", "user-1", models.TierPremium)

	_, err := f.booking.BuyTicket(context.Background(), BuyTicketInput{UserID: "user-2", EventID: "evt-1", TicketType: "premium"})
	require.ErrorIs(t, err, ErrTierSoldOut)

	cancelled, err := f.cancel.CancelTicket(context.Background(), ticket.ID, user("user-1"))
	require.NoError(t, err)
	assert.Equal(t, models.TicketCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, f.clock.Now(), *cancelled.CancelledAt)
	assert.Equal(t, uint(0), f.sold(t, "evt-1", models.TierPremium))

	f.buy(t, "evt-1", "user-2", models.TierPremium)
	assert.Equal(t, uint(1), f.sold(t, "evt-1", models.TierPremium))
	assert.Equal(t, []messaging.EventType{
		messaging.TicketPurchased, messaging.TicketCancelled, messaging.TicketPurchased,
	}, f.pub.types())
}

func TestCancelTicket_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, testEvent("evt-1", 5))
	f.buy(t, "evt-1", "user-0", models.TierStandard)
	ticket := f.buy(t, "evt-1", "user-1", models.TierStandard)

	_, err := f.cancel.CancelTicket(context.Background(), ticket.ID, user("user-1"))
	require.NoError(t, err)

	_, err = f.cancel.CancelTicket(context.Background(), ticket.ID, user("user-1"))
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, uint(1), f.sold(t, "evt-1", models.TierStandard))
}

func TestCancelTicket_ConcurrentCancelsReleaseOnce(t *testing.T) {
	f := newFixture(t)
	f.seed(t, testEvent("evt-1", 5))
	f.buy(t, "evt-1", "user-0", models.TierEconomy)
	ticket := f.buy(t, "evt-1", "user-1", models.TierEconomy)

	var succeeded, already atomic.Int64
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := f.cancel.CancelTicket(context.Background(), ticket.ID, user("user-1"))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrAlreadyCancelled):
				already.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), succeeded.Load())
	assert.Equal(t, int64(19), already.Load())
	assert.Equal(t, uint(1), f.sold(t, "evt-1", models.TierEconomy))
}

func TestCancelTicket_Authorization(t *testing.T) {
	f := newFixture(t)
	f.seed(t, testEvent("evt-1", 5))

	tests := []struct {
		name      string
		requester models.Actor
		wantErr   error
	}{
		{"owner", user("user-1"), nil},
		{"event seller", seller, nil},
		{"admin", admin, nil},
		{"another user", user("user-2"), ErrUnauthorized},
		{"another seller", models.Actor{ID: "seller-2", Role: models.RoleSeller}, ErrUnauthorized},
		{"anonymous", models.Actor{}, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := f.buy(t, "evt-1", "user-1", models.TierPremium)

			_, err := f.cancel.CancelTicket(context.Background(), ticket.ID, tt.requester)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)

			stored, err := f.ledger.GetTicket(context.Background(), ticket.ID)
			require.NoError(t, err)
			assert.Equal(t, models.TicketActive, stored.Status)
		})
	}
}

func TestCancelTicket_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.cancel.CancelTicket(context.Background(), "missing", user("user-1"))

	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestCancelTicket_UsedTicketCannotBeCancelled(t *testing.T) {
	f := newFixture(t)
	f.seed(t, testEvent("evt-1", 5))
	ticket := f.buy(t, "evt-1", "user-1", models.TierPremium)

	_, err := f.checkin.UseTicket(context.Background(), ticket.ID, seller)
	require.NoError(t, err)

	_, err = f.cancel.CancelTicket(context.Background(), ticket.ID, user("user-1"))
	assert.ErrorIs(t, err, ErrCannotCancelUsed)
	assert.Equal(t, uint(1), f.sold(t, "evt-1", models.TierPremium))
}

func TestCancelTicket_ReleaseUnderflowIsReported(t *testing.T) {
	f := newFixture(t)
	f.seed(t, testEvent("evt-1", 5))
	ticket := f.buy(t, "evt-1", "user-1", models.TierPremium)

	// Drift the counter behind the ledger's back.
	require.NoError(t, f.store.Inventory().Release(context.Background(), "evt-1", models.TierPremium))

	_, err := f.cancel.CancelTicket(context.Background(), ticket.ID, user("user-1"))
	require.ErrorIs(t, err, ErrInvariantViolation)

	stored, err := f.ledger.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketActive, stored.Status)
	assert.Nil(t, stored.CancelledAt)
}
