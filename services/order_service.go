package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"dutchthrift_server/database"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs"
	"dutchthrift_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxNumberAttempts bounds how often a generated reference id or order
// number is redrawn after a unique violation.
const maxNumberAttempts = 3

var orderTransitions = map[tables.OrderStatus][]tables.OrderStatus{
	tables.OrderStatusAwaitingShipment: {tables.OrderStatusShipped, tables.OrderStatusCancelled},
	tables.OrderStatusShipped:          {tables.OrderStatusProcessing},
	tables.OrderStatusProcessing:       {tables.OrderStatusCompleted},
}

// CanTransitionOrder reports whether an order may move from one status to another
func CanTransitionOrder(from, to tables.OrderStatus) bool {
	return slices.Contains(orderTransitions[from], to)
}

type OrderService struct {
	logger         *gecho.Logger
	store          database.Storage
	now            func() time.Time
	newOrderNumber func(time.Time) string
}

func NewOrderService(logger *gecho.Logger, store database.Storage) *OrderService {
	return &OrderService{
		logger:         logger,
		store:          store,
		now:            time.Now,
		newOrderNumber: lib.GenerateOrderNumber,
	}
}

// ResolveOpenOrder returns the customer's most recent order awaiting
// shipment, or creates a new empty one.
func (os *OrderService) ResolveOpenOrder(ctx context.Context, tx database.Storage, customerId uuid.UUID) (*tables.Order, error) {
	open, err := tx.FindOpenOrder(ctx, customerId)
	if err != nil {
		return nil, fmt.Errorf("failed to look up open order: %w", err)
	}
	if open != nil {
		return open, nil
	}

	now := os.now()
	order := &tables.Order{
		Id:          uuid.New(),
		CustomerId:  customerId,
		Status:      tables.OrderStatusAwaitingShipment,
		TotalValue:  decimal.Zero,
		TotalPayout: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for attempt := 1; ; attempt++ {
		order.OrderNumber = os.newOrderNumber(now)
		err = tx.RunInTx(ctx, func(ctx context.Context, sp database.Storage) error {
			return sp.InsertOrder(ctx, order)
		})
		if err == nil {
			break
		}
		if !lib.IsUniqueViolation(err) || attempt >= maxNumberAttempts {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		os.logger.Warn("Order number collision, retrying",
			gecho.Field("order_number", order.OrderNumber),
			gecho.Field("attempt", attempt),
		)
	}

	os.logger.Info("Created order",
		gecho.Field("order_id", order.Id),
		gecho.Field("order_number", order.OrderNumber),
	)
	return order, nil
}

// LinkItem associates an item with an order. Linking twice is harmless.
func (os *OrderService) LinkItem(ctx context.Context, tx database.Storage, orderId, itemId uuid.UUID) error {
	if err := tx.LinkOrderItem(ctx, orderId, itemId); err != nil {
		return fmt.Errorf("failed to link item to order: %w", err)
	}
	return nil
}

func (os *OrderService) ListOrders(ctx context.Context, filter database.OrderFilter) (*structs.Paginated[tables.Order], error) {
	orders, total, err := os.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := filter.Page.Normalize()
	if orders == nil {
		orders = []tables.Order{}
	}
	return &structs.Paginated[tables.Order]{
		Data:       orders,
		Pagination: structs.Pagination{Page: page.Number, PageSize: page.Size, Total: total},
	}, nil
}

// GetOrderDetail returns an order with its customer and items
func (os *OrderService) GetOrderDetail(ctx context.Context, id uuid.UUID) (*structs.OrderDetail, error) {
	order, err := os.store.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, lib.ErrNotFound
	}

	customer, err := os.store.FindCustomer(ctx, order.CustomerId)
	if err != nil {
		return nil, err
	}

	items, err := os.store.ListOrderItems(ctx, order.Id)
	if err != nil {
		return nil, err
	}

	adminItems, err := loadAdminItems(ctx, os.store, items)
	if err != nil {
		return nil, err
	}

	return &structs.OrderDetail{
		Order:    *order,
		Customer: customer,
		Items:    adminItems,
	}, nil
}

// UpdateStatus moves an order along its lifecycle. Once an order leaves
// "Awaiting Shipment" new intake submissions open a fresh order.
func (os *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *structs.OrderStatusUpdateRequest) (*tables.Order, error) {
	var updated *tables.Order
	err := os.store.RunInTx(ctx, func(ctx context.Context, tx database.Storage) error {
		order, err := tx.FindOrder(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return lib.ErrNotFound
		}
		if !CanTransitionOrder(order.Status, req.Status) {
			return fmt.Errorf("%w: %s -> %s", lib.ErrInvalidStatusTransition, order.Status, req.Status)
		}

		if err := tx.UpdateOrderStatus(ctx, id, req.Status, req.TrackingCode); err != nil {
			return err
		}

		order.Status = req.Status
		if req.TrackingCode != nil {
			order.TrackingCode = req.TrackingCode
		}
		order.UpdatedAt = os.now()
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	os.logger.Info("Order status updated",
		gecho.Field("order_id", id),
		gecho.Field("status", updated.Status),
	)
	return updated, nil
}

// RecalculateTotals recomputes an order's total value and payout from the
// pricing of its items.
func (os *OrderService) RecalculateTotals(ctx context.Context, tx database.Storage, orderId uuid.UUID) error {
	value, payout, err := tx.SumOrderPricing(ctx, orderId)
	if err != nil {
		return err
	}
	return tx.UpdateOrderTotals(ctx, orderId, value.Round(2), payout.Round(2))
}

// RecalculateAllTotals back-fills totals for every order and returns how
// many orders were updated.
func (os *OrderService) RecalculateAllTotals(ctx context.Context) (int, error) {
	ids, err := os.store.ListOrderIds(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		if err := os.RecalculateTotals(ctx, os.store, id); err != nil {
			return updated, fmt.Errorf("failed to recalculate totals for order %s: %w", id, err)
		}
		updated++
	}

	os.logger.Info("Recalculated order totals", gecho.Field("orders", updated))
	return updated, nil
}

// loadAdminItems decorates items with their analysis, pricing and orders
func loadAdminItems(ctx context.Context, store database.Storage, items []tables.Item) ([]structs.AdminItem, error) {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.Id
	}

	pricing, err := store.ListPricing(ctx, ids)
	if err != nil {
		return nil, err
	}
	pricingByItem := make(map[uuid.UUID]*tables.ItemPricing, len(pricing))
	for i := range pricing {
		pricingByItem[pricing[i].ItemId] = &pricing[i]
	}

	links, err := store.ListOrderLinks(ctx, ids)
	if err != nil {
		return nil, err
	}
	ordersByItem := make(map[uuid.UUID][]uuid.UUID, len(links))
	for _, link := range links {
		ordersByItem[link.ItemId] = append(ordersByItem[link.ItemId], link.OrderId)
	}

	out := make([]structs.AdminItem, 0, len(items))
	for _, item := range items {
		analysis, err := store.FindAnalysis(ctx, item.Id)
		if err != nil {
			return nil, err
		}
		orderIds := ordersByItem[item.Id]
		if orderIds == nil {
			orderIds = []uuid.UUID{}
		}
		out = append(out, structs.AdminItem{
			Item:     item,
			Analysis: analysis,
			Pricing:  pricingByItem[item.Id],
			OrderIds: orderIds,
		})
	}
	return out, nil
}
