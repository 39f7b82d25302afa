package service

import (
	"context"
	"testing"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncEvent_UpdateKeepsSoldCount(t *testing.T) {
	f := newFixture(t)
	f.seed(t, testEvent("evt-1", 5))
	f.buy(t, "evt-1", "user-1", models.TierPremium)
	f.buy(t, "evt-1", "user-2", models.TierPremium)

	update := testEvent("evt-1", 2)
	update.Title = "Renamed"
	update.Tiers[0].SoldCount = 0
	require.NoError(t, f.catalog.SyncEvent(context.Background(), update))

	event, err := f.catalog.GetEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", event.Title)
	premium, _ := event.Tier(models.TierPremium)
	assert.Equal(t, uint(2), premium.Capacity)
	assert.Equal(t, uint(2), premium.SoldCount)
	assert.Equal(t, uint(0), premium.Remaining())
}

func TestSyncEvent_RejectsCapacityBelowSold(t *testing.T) {
	f := newFixture(t)
	f.seed(t, testEvent("evt-1", 5))
	f.buy(t, "evt-1", "user-1", models.TierStandard)
	f.buy(t, "evt-1", "user-2", models.TierStandard)

	err := f.catalog.SyncEvent(context.Background(), testEvent("evt-1", 1))

	assert.ErrorIs(t, err, ErrCapacityBelowSold)
	event, err := f.catalog.GetEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	standard, _ := event.Tier(models.TierStandard)
	assert.Equal(t, uint(5), standard.Capacity)
}

func TestSyncEvent_Invalid(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(e *models.Event)
	}{
		{"no id", func(e *models.Event) { e.ID = "" }},
		{"no seller", func(e *models.Event) { e.SellerID = "" }},
		{"unknown moderation", func(e *models.Event) { e.ModerationStatus = "banned" }},
		{"window reversed", func(e *models.Event) { e.SalesClosesAt = e.SalesOpensAt.Add(-1) }},
		{"unknown tier", func(e *models.Event) { e.Tiers[0].Name = "vip" }},
		{"duplicate tier", func(e *models.Event) { e.Tiers[1].Name = e.Tiers[0].Name }},
		{"negative price", func(e *models.Event) { e.Tiers[2].Price = decimal.NewFromInt(-1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := testEvent("evt-x", 5)
			tt.mutate(event)
			assert.ErrorIs(t, f.catalog.SyncEvent(context.Background(), event), ErrInvalidEvent)
		})
	}
}

func TestSetTierPrice(t *testing.T) {
	f := newFixture(t)
	f.seed(t, testEvent("evt-1", 5))

	assert.ErrorIs(t, f.catalog.SetTierPrice(context.Background(), "missing", models.TierPremium, decimal.NewFromInt(1)), ErrEventNotFound)
	assert.ErrorIs(t, f.catalog.SetTierPrice(context.Background(), "evt-1", "vip", decimal.NewFromInt(1)), ErrInvalidTier)
	assert.ErrorIs(t, f.catalog.SetTierPrice(context.Background(), "evt-1", models.TierPremium, decimal.NewFromInt(-5)), ErrInvalidEvent)
	require.NoError(t, f.catalog.SetTierPrice(context.Background(), "evt-1", models.TierPremium, decimal.NewFromInt(200)))

	event, err := f.catalog.GetEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	premium, _ := event.Tier(models.TierPremium)
	assert.Equal(t, "200", premium.Price.String())
}
