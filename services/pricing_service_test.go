package services

import (
	"context"
	"testing"

	"dutchthrift_server/lib"
	"dutchthrift_server/structs"
	"dutchthrift_server/structs/tables"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePayout(t *testing.T) {
	tests := []struct {
		price, rate, want string
	}{
		{"100", "0.4", "60"},
		{"19.99", "0.35", "12.99"},
		{"10", "0", "10"},
		{"10", "1", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.price+"@"+tt.rate, func(t *testing.T) {
			got := CalculatePayout(decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.rate))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestSetPricingValidation(t *testing.T) {
	sm := newTestServices(t, nil, nil)

	tests := []struct {
		name  string
		req   structs.PricingRequest
		field string
	}{
		{"zero price", structs.PricingRequest{SuggestedPrice: decimal.Zero, CommissionRate: decimal.RequireFromString("0.3")}, "suggestedPrice"},
		{"negative rate", structs.PricingRequest{SuggestedPrice: decimal.NewFromInt(10), CommissionRate: decimal.RequireFromString("-0.1")}, "commissionRate"},
		{"rate above one", structs.PricingRequest{SuggestedPrice: decimal.NewFromInt(10), CommissionRate: decimal.RequireFromString("1.5")}, "commissionRate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sm.PricingService.SetPricing(context.Background(), uuid.New(), &tt.req)
			var ve *lib.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Errors[0].Field)
		})
	}
}

func TestSetPricingApprovesAndUpdatesTotals(t *testing.T) {
	ctx := context.Background()
	sm := newTestServices(t, nil, nil)

	result, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp", "Chair"))
	require.NoError(t, err)

	pricing, err := sm.PricingService.SetPricing(ctx, *result.Items[0].Id, &structs.PricingRequest{
		SuggestedPrice: decimal.RequireFromString("100"),
		CommissionRate: decimal.RequireFromString("0.4"),
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(60).Equal(pricing.FinalPayout))

	_, err = sm.PricingService.SetPricing(ctx, *result.Items[1].Id, &structs.PricingRequest{
		SuggestedPrice: decimal.RequireFromString("25.50"),
		CommissionRate: decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)

	item, err := sm.ItemService.GetItem(ctx, *result.Items[0].Id)
	require.NoError(t, err)
	assert.Equal(t, tables.ItemStatusApproved, item.Status)
	require.NotNil(t, item.Pricing)

	detail, err := sm.OrderService.GetOrderDetail(ctx, result.Order.Id)
	require.NoError(t, err)
	assert.Equal(t, "125.50", detail.TotalValue.StringFixed(2))
	assert.Equal(t, "72.75", detail.TotalPayout.StringFixed(2))

	// Repricing an approved item replaces the previous price.
	_, err = sm.PricingService.SetPricing(ctx, *result.Items[0].Id, &structs.PricingRequest{
		SuggestedPrice: decimal.RequireFromString("80"),
		CommissionRate: decimal.RequireFromString("0.4"),
	})
	require.NoError(t, err)

	detail, err = sm.OrderService.GetOrderDetail(ctx, result.Order.Id)
	require.NoError(t, err)
	assert.Equal(t, "105.50", detail.TotalValue.StringFixed(2))
	assert.Equal(t, "60.75", detail.TotalPayout.StringFixed(2))
}

func TestSetPricingRejectsSoldItem(t *testing.T) {
	ctx := context.Background()
	sm := newTestServices(t, nil, nil)

	result, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
	require.NoError(t, err)
	id := *result.Items[0].Id

	_, err = sm.ItemService.UpdateStatus(ctx, id, tables.ItemStatusRejected)
	require.NoError(t, err)

	_, err = sm.PricingService.SetPricing(ctx, id, &structs.PricingRequest{
		SuggestedPrice: decimal.NewFromInt(10),
		CommissionRate: decimal.RequireFromString("0.3"),
	})
	assert.ErrorIs(t, err, lib.ErrInvalidStatusTransition)

	_, err = sm.PricingService.SetPricing(ctx, uuid.New(), &structs.PricingRequest{
		SuggestedPrice: decimal.NewFromInt(10),
		CommissionRate: decimal.RequireFromString("0.3"),
	})
	assert.ErrorIs(t, err, lib.ErrNotFound)
}

func TestRecalculateAllTotals(t *testing.T) {
	ctx := context.Background()
	sm := newTestServices(t, nil, nil)

	_, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
	require.NoError(t, err)
	_, err = sm.IntakeService.Submit(ctx, intakeRequest("john@example.com", "Chair"))
	require.NoError(t, err)

	updated, err := sm.OrderService.RecalculateAllTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
}
