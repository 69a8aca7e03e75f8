package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dutchthrift_server/database"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs"
	"dutchthrift_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
)

// IntakeNotifier is told about every committed intake
type IntakeNotifier interface {
	SendIntakeConfirmation(ctx context.Context, customer *tables.Customer, order *tables.Order, items []structs.IntakeItemResult) error
}

const notifyTimeout = 30 * time.Second

// IntakeService turns a submission into a customer, an open order and one
// linked item per submitted item, all inside one transaction.
type IntakeService struct {
	logger    *gecho.Logger
	store     database.Storage
	customers *CustomerService
	orders    *OrderService
	items     *ItemService
	notifier  IntakeNotifier
}

func NewIntakeService(logger *gecho.Logger, store database.Storage, customers *CustomerService, orders *OrderService, items *ItemService, notifier IntakeNotifier) *IntakeService {
	return &IntakeService{
		logger:    logger,
		store:     store,
		customers: customers,
		orders:    orders,
		items:     items,
		notifier:  notifier,
	}
}

// Submit processes an intake. Each item runs in its own savepoint, so a
// failing item is reported in the result without affecting the others.
// When no item succeeds everything is rolled back and Submit returns
// lib.ErrNoItemsCreated together with the per-item results.
func (is *IntakeService) Submit(ctx context.Context, req *structs.IntakeRequest) (*structs.IntakeResult, error) {
	startTime := time.Now()

	var (
		result   *structs.IntakeResult
		customer *tables.Customer
		order    *tables.Order
	)

	err := is.store.RunInTx(ctx, func(ctx context.Context, tx database.Storage) error {
		var err error
		customer, err = is.customers.Resolve(ctx, tx, req.Customer)
		if err != nil {
			return err
		}

		order, err = is.orders.ResolveOpenOrder(ctx, tx, customer.Id)
		if err != nil {
			return err
		}

		result = &structs.IntakeResult{
			Customer: structs.IntakeCustomerSummary{
				Id:    customer.Id,
				Name:  customer.Name,
				Email: customer.Email,
			},
			Order: structs.IntakeOrderSummary{
				Id:          order.Id,
				OrderNumber: order.OrderNumber,
				Status:      string(order.Status),
			},
			Items: make([]structs.IntakeItemResult, 0, len(req.Items)),
		}

		for _, in := range req.Items {
			result.Items = append(result.Items, is.processItem(ctx, tx, customer.Id, order.Id, in))
		}

		if result.Created() == 0 {
			return lib.ErrNoItemsCreated
		}

		result.Order.ItemCount, err = tx.CountOrderItems(ctx, order.Id)
		if err != nil {
			return fmt.Errorf("failed to count order items: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, lib.ErrNoItemsCreated) {
			is.logger.Warn("Intake rolled back, no items could be processed",
				gecho.Field("items", len(req.Items)),
			)
			return result, err
		}
		is.logger.Error("Intake failed", gecho.Field("error", err))
		return nil, err
	}

	is.logger.Info("Intake processed",
		gecho.Field("customer_id", customer.Id),
		gecho.Field("order_number", order.OrderNumber),
		gecho.Field("created", result.Created()),
		gecho.Field("failed", len(result.Items)-result.Created()),
		gecho.Field("elapsed_time_ms", time.Since(startTime).Milliseconds()),
	)

	is.notify(customer, order, result.Items)
	return result, nil
}

// processItem creates and links one item inside a savepoint
func (is *IntakeService) processItem(ctx context.Context, tx database.Storage, customerId, orderId uuid.UUID, in structs.IntakeItem) structs.IntakeItemResult {
	var item *tables.Item
	failure := "failed to create item"

	err := tx.RunInTx(ctx, func(ctx context.Context, sp database.Storage) error {
		var err error
		item, err = is.items.Create(ctx, sp, customerId, in)
		if err != nil {
			return err
		}
		failure = "failed to link item to order"
		return is.orders.LinkItem(ctx, sp, orderId, item.Id)
	})
	if err != nil {
		is.logger.Warn("Intake item failed",
			gecho.Field("title", in.Title),
			gecho.Field("error", err),
		)
		return structs.IntakeItemResult{
			Title:  in.Title,
			Status: structs.IntakeItemFailed,
			Error:  failure,
		}
	}

	return structs.IntakeItemResult{
		Id:          &item.Id,
		ReferenceId: item.ReferenceId,
		Title:       item.Title,
		Status:      structs.IntakeItemCreated,
		ItemStatus:  string(item.Status),
	}
}

// notify sends the confirmation in the background; the intake is already
// committed and a mail failure must not fail the request.
func (is *IntakeService) notify(customer *tables.Customer, order *tables.Order, items []structs.IntakeItemResult) {
	if is.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := is.notifier.SendIntakeConfirmation(ctx, customer, order, items); err != nil {
			is.logger.Error("Failed to send intake confirmation",
				gecho.Field("error", err),
				gecho.Field("order_number", order.OrderNumber),
			)
		}
	}()
}
