package services

import (
	"context"
	"slices"
	"testing"

	"dutchthrift_server/database"
	"dutchthrift_server/database/memstore"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs"
	"dutchthrift_server/structs/tables"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionItem(t *testing.T) {
	tests := []struct {
		from, to tables.ItemStatus
		want     bool
	}{
		{tables.ItemStatusPending, tables.ItemStatusReceived, true},
		{tables.ItemStatusReceived, tables.ItemStatusAnalyzing, true},
		{tables.ItemStatusPricing, tables.ItemStatusApproved, true},
		{tables.ItemStatusListed, tables.ItemStatusSold, true},
		{tables.ItemStatusSold, tables.ItemStatusPaid, true},
		{tables.ItemStatusPending, tables.ItemStatusApproved, true},
		{tables.ItemStatusAnalyzing, tables.ItemStatusPending, true},
		{tables.ItemStatusPending, tables.ItemStatusSold, false},
		{tables.ItemStatusPaid, tables.ItemStatusPending, false},
		{tables.ItemStatusRejected, tables.ItemStatusReceived, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionItem(tt.from, tt.to))
		})
	}
}

// Pricing and analysis move items without going through UpdateStatus; the
// statuses they accept must be moves the transition table allows.
func TestPricingAndAnalysisFollowTransitions(t *testing.T) {
	statuses := []tables.ItemStatus{
		tables.ItemStatusPending, tables.ItemStatusReceived, tables.ItemStatusAnalyzing,
		tables.ItemStatusPricing, tables.ItemStatusApproved, tables.ItemStatusListed,
		tables.ItemStatusSold, tables.ItemStatusPaid, tables.ItemStatusReturned,
		tables.ItemStatusRejected,
	}
	priceable := []tables.ItemStatus{
		tables.ItemStatusPending, tables.ItemStatusReceived, tables.ItemStatusPricing, tables.ItemStatusApproved,
	}
	analyzable := []tables.ItemStatus{
		tables.ItemStatusPending, tables.ItemStatusReceived, tables.ItemStatusPricing,
	}

	for _, s := range statuses {
		assert.Equal(t, slices.Contains(priceable, s), canPrice(s), "price from %s", s)
		assert.Equal(t, slices.Contains(analyzable, s), canAnalyze(s), "analyse from %s", s)
		if canPrice(s) && s != tables.ItemStatusApproved {
			assert.True(t, CanTransitionItem(s, tables.ItemStatusApproved), "%s -> approved", s)
		}
	}
}

func TestPriceItemFromEveryPriceableStatus(t *testing.T) {
	ctx := context.Background()
	req := &structs.PricingRequest{SuggestedPrice: decimal.RequireFromString("20"), CommissionRate: decimal.RequireFromString("0.5")}

	for _, via := range [][]tables.ItemStatus{
		{},
		{tables.ItemStatusReceived},
		{tables.ItemStatusReceived, tables.ItemStatusPricing},
	} {
		sm := newTestServices(t, nil, nil)
		result, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
		require.NoError(t, err)
		id := *result.Items[0].Id
		for _, status := range via {
			_, err := sm.ItemService.UpdateStatus(ctx, id, status)
			require.NoError(t, err)
		}

		_, err = sm.PricingService.SetPricing(ctx, id, req)
		require.NoError(t, err)
		item, err := sm.ItemService.GetItem(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, tables.ItemStatusApproved, item.Status)

		_, err = sm.ItemService.UpdateStatus(ctx, id, tables.ItemStatusListed)
		assert.NoError(t, err, "approved items continue down the lifecycle")
	}
}

func TestCanTransitionOrder(t *testing.T) {
	assert.True(t, CanTransitionOrder(tables.OrderStatusAwaitingShipment, tables.OrderStatusShipped))
	assert.True(t, CanTransitionOrder(tables.OrderStatusAwaitingShipment, tables.OrderStatusCancelled))
	assert.True(t, CanTransitionOrder(tables.OrderStatusShipped, tables.OrderStatusProcessing))
	assert.False(t, CanTransitionOrder(tables.OrderStatusCompleted, tables.OrderStatusAwaitingShipment))
	assert.False(t, CanTransitionOrder(tables.OrderStatusCancelled, tables.OrderStatusShipped))
}

func TestItemUpdateStatus(t *testing.T) {
	ctx := context.Background()
	sm := newTestServices(t, nil, nil)

	result, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
	require.NoError(t, err)
	id := *result.Items[0].Id

	item, err := sm.ItemService.UpdateStatus(ctx, id, tables.ItemStatusReceived)
	require.NoError(t, err)
	assert.Equal(t, tables.ItemStatusReceived, item.Status)

	_, err = sm.ItemService.UpdateStatus(ctx, id, tables.ItemStatusPaid)
	assert.ErrorIs(t, err, lib.ErrInvalidStatusTransition)

	_, err = sm.ItemService.UpdateStatus(ctx, uuid.New(), tables.ItemStatusReceived)
	assert.ErrorIs(t, err, lib.ErrNotFound)

	view, err := sm.ItemService.Track(ctx, result.Items[0].ReferenceId)
	require.NoError(t, err)
	assert.Equal(t, tables.ItemStatusReceived, view.Status)
	assert.Equal(t, "Lamp", view.Title)
}

func TestTrackUnknownReference(t *testing.T) {
	sm := newTestServices(t, nil, nil)

	_, err := sm.ItemService.Track(context.Background(), "CS-250101-999")
	assert.ErrorIs(t, err, lib.ErrNotFound)
}

func TestOrderUpdateStatus(t *testing.T) {
	ctx := context.Background()
	sm := newTestServices(t, nil, nil)

	result, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
	require.NoError(t, err)

	code := "3SDTH0001"
	order, err := sm.OrderService.UpdateStatus(ctx, result.Order.Id, &structs.OrderStatusUpdateRequest{
		Status:       tables.OrderStatusShipped,
		TrackingCode: &code,
	})
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusShipped, order.Status)
	require.NotNil(t, order.TrackingCode)
	assert.Equal(t, code, *order.TrackingCode)

	_, err = sm.OrderService.UpdateStatus(ctx, result.Order.Id, &structs.OrderStatusUpdateRequest{Status: tables.OrderStatusAwaitingShipment})
	assert.ErrorIs(t, err, lib.ErrInvalidStatusTransition)

	_, err = sm.OrderService.UpdateStatus(ctx, uuid.New(), &structs.OrderStatusUpdateRequest{Status: tables.OrderStatusShipped})
	assert.ErrorIs(t, err, lib.ErrNotFound)
}

func TestGetOrderDetail(t *testing.T) {
	ctx := context.Background()
	sm := newTestServices(t, nil, nil)

	result, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp", "Chair"))
	require.NoError(t, err)

	detail, err := sm.OrderService.GetOrderDetail(ctx, result.Order.Id)
	require.NoError(t, err)
	assert.Equal(t, result.Order.OrderNumber, detail.OrderNumber)
	require.NotNil(t, detail.Customer)
	assert.Equal(t, "jane@example.com", detail.Customer.Email)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, []uuid.UUID{result.Order.Id}, detail.Items[0].OrderIds)

	_, err = sm.OrderService.GetOrderDetail(ctx, uuid.New())
	assert.ErrorIs(t, err, lib.ErrNotFound)
}

func TestListItemsFilters(t *testing.T) {
	ctx := context.Background()
	sm := newTestServices(t, nil, nil)

	_, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Brass Lamp", "Oak Chair"))
	require.NoError(t, err)

	page, err := sm.ItemService.ListItems(ctx, database.ItemFilter{Search: "lamp"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Brass Lamp", page.Data[0].Title)
	assert.Equal(t, 1, page.Pagination.Total)

	page, err = sm.ItemService.ListItems(ctx, database.ItemFilter{Status: tables.ItemStatusSold})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestListConsignorItemsHidesImages(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	sm := newTestServices(t, store, nil)

	req := intakeRequest("jane@example.com", "Lamp")
	req.Items[0].ImageBase64 = "aGVsbG8="
	result, err := sm.IntakeService.Submit(ctx, req)
	require.NoError(t, err)
	_, err = sm.IntakeService.Submit(ctx, intakeRequest("john@example.com", "Chair"))
	require.NoError(t, err)

	page, err := sm.ItemService.ListConsignorItems(ctx, result.Customer.Id, database.Page{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Lamp", page.Data[0].Title)
	assert.Equal(t, result.Order.OrderNumber, page.Data[0].OrderNumber)
	assert.Nil(t, page.Data[0].ImageUrl)
}
