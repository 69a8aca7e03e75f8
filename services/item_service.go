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
)

// itemTransitions is the single source of allowed item moves. Pricing moves
// an item to approved and analysis moves it through analyzing, so both are
// checked against this table too.
var itemTransitions = map[tables.ItemStatus][]tables.ItemStatus{
	tables.ItemStatusPending:   {tables.ItemStatusReceived, tables.ItemStatusAnalyzing, tables.ItemStatusApproved, tables.ItemStatusRejected, tables.ItemStatusReturned},
	tables.ItemStatusReceived:  {tables.ItemStatusAnalyzing, tables.ItemStatusPricing, tables.ItemStatusApproved, tables.ItemStatusRejected, tables.ItemStatusReturned},
	tables.ItemStatusAnalyzing: {tables.ItemStatusPricing, tables.ItemStatusPending, tables.ItemStatusReceived, tables.ItemStatusRejected},
	tables.ItemStatusPricing:   {tables.ItemStatusAnalyzing, tables.ItemStatusApproved, tables.ItemStatusRejected, tables.ItemStatusReturned},
	tables.ItemStatusApproved:  {tables.ItemStatusListed, tables.ItemStatusPricing, tables.ItemStatusReturned},
	tables.ItemStatusListed:    {tables.ItemStatusSold, tables.ItemStatusReturned},
	tables.ItemStatusSold:      {tables.ItemStatusPaid},
}

// CanTransitionItem reports whether an item may move between two statuses
func CanTransitionItem(from, to tables.ItemStatus) bool {
	return slices.Contains(itemTransitions[from], to)
}

// canPrice reports whether pricing may be (re)applied to an item. Approved
// items can be repriced in place.
func canPrice(status tables.ItemStatus) bool {
	return status == tables.ItemStatusApproved || CanTransitionItem(status, tables.ItemStatusApproved)
}

// canAnalyze reports whether an item may enter analysis and be put back
// where it was if analysis fails.
func canAnalyze(status tables.ItemStatus) bool {
	return CanTransitionItem(status, tables.ItemStatusAnalyzing) && CanTransitionItem(tables.ItemStatusAnalyzing, status)
}

type ItemService struct {
	logger       *gecho.Logger
	store        database.Storage
	cacheService *CacheService
	now          func() time.Time
	newReference func(time.Time) string
}

func NewItemService(logger *gecho.Logger, store database.Storage, cacheService *CacheService) *ItemService {
	return &ItemService{
		logger:       logger,
		store:        store,
		cacheService: cacheService,
		now:          time.Now,
		newReference: lib.GenerateReferenceId,
	}
}

// Create persists a new pending item for the customer. The reference id is
// redrawn on collision; a submitted image is stored verbatim afterwards.
func (is *ItemService) Create(ctx context.Context, tx database.Storage, customerId uuid.UUID, in structs.IntakeItem) (*tables.Item, error) {
	now := is.now()
	item := &tables.Item{
		Id:          uuid.New(),
		CustomerId:  customerId,
		Title:       in.Title,
		Description: in.Description,
		Brand:       in.Brand,
		Category:    in.Category,
		Condition:   in.Condition,
		Status:      tables.ItemStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for attempt := 1; ; attempt++ {
		item.ReferenceId = is.newReference(now)
		err := tx.RunInTx(ctx, func(ctx context.Context, sp database.Storage) error {
			return sp.InsertItem(ctx, item)
		})
		if err == nil {
			break
		}
		if !lib.IsUniqueViolation(err) || attempt >= maxNumberAttempts {
			return nil, fmt.Errorf("failed to insert item: %w", err)
		}
		is.logger.Warn("Reference id collision, retrying",
			gecho.Field("reference_id", item.ReferenceId),
			gecho.Field("attempt", attempt),
		)
	}

	if in.ImageBase64 != "" {
		if err := tx.SetItemImage(ctx, item.Id, in.ImageBase64); err != nil {
			return nil, fmt.Errorf("failed to store item image: %w", err)
		}
		image := in.ImageBase64
		item.ImageUrl = &image
	}

	return item, nil
}

// Track returns the public status of an item by its reference id
func (is *ItemService) Track(ctx context.Context, referenceId string) (*structs.TrackingView, error) {
	cached, err := is.cacheService.GetTracking(ctx, referenceId)
	if err != nil {
		is.logger.Warn("Failed to read tracking cache", gecho.Field("error", err))
	}
	if cached != nil {
		return cached, nil
	}

	item, err := is.store.FindItemByReference(ctx, referenceId)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, lib.ErrNotFound
	}

	view := &structs.TrackingView{
		ReferenceId: item.ReferenceId,
		Title:       item.Title,
		Status:      item.Status,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	if err := is.cacheService.SetTracking(ctx, view); err != nil {
		is.logger.Warn("Failed to write tracking cache", gecho.Field("error", err))
	}
	return view, nil
}

// GetItem returns an item with its analysis, pricing and orders
func (is *ItemService) GetItem(ctx context.Context, id uuid.UUID) (*structs.AdminItem, error) {
	item, err := is.store.FindItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, lib.ErrNotFound
	}
	items, err := loadAdminItems(ctx, is.store, []tables.Item{*item})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (is *ItemService) ListItems(ctx context.Context, filter database.ItemFilter) (*structs.Paginated[structs.AdminItem], error) {
	items, total, err := is.store.ListItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	adminItems, err := loadAdminItems(ctx, is.store, items)
	if err != nil {
		return nil, err
	}
	page := filter.Page.Normalize()
	return &structs.Paginated[structs.AdminItem]{
		Data:       adminItems,
		Pagination: structs.Pagination{Page: page.Number, PageSize: page.Size, Total: total},
	}, nil
}

// ListConsignorItems lists a consignor's own items with pricing and the
// order each belongs to.
func (is *ItemService) ListConsignorItems(ctx context.Context, customerId uuid.UUID, page database.Page) (*structs.Paginated[structs.ConsignorItem], error) {
	items, total, err := is.store.ListItems(ctx, database.ItemFilter{CustomerId: &customerId, Page: page})
	if err != nil {
		return nil, err
	}

	adminItems, err := loadAdminItems(ctx, is.store, items)
	if err != nil {
		return nil, err
	}

	orderNumbers := map[uuid.UUID]string{}
	out := make([]structs.ConsignorItem, 0, len(adminItems))
	for _, item := range adminItems {
		ci := structs.ConsignorItem{Item: item.Item, Pricing: item.Pricing}
		if len(item.OrderIds) > 0 {
			orderId := item.OrderIds[len(item.OrderIds)-1]
			number, ok := orderNumbers[orderId]
			if !ok {
				order, err := is.store.FindOrder(ctx, orderId)
				if err != nil {
					return nil, err
				}
				if order != nil {
					number = order.OrderNumber
				}
				orderNumbers[orderId] = number
			}
			ci.OrderNumber = number
		}
		ci.ImageUrl = nil // photos are only served to admins
		out = append(out, ci)
	}

	page = page.Normalize()
	return &structs.Paginated[structs.ConsignorItem]{
		Data:       out,
		Pagination: structs.Pagination{Page: page.Number, PageSize: page.Size, Total: total},
	}, nil
}

// UpdateStatus moves an item along its lifecycle
func (is *ItemService) UpdateStatus(ctx context.Context, id uuid.UUID, status tables.ItemStatus) (*tables.Item, error) {
	var updated *tables.Item
	err := is.store.RunInTx(ctx, func(ctx context.Context, tx database.Storage) error {
		item, err := tx.FindItem(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return lib.ErrNotFound
		}
		if !CanTransitionItem(item.Status, status) {
			return fmt.Errorf("%w: %s -> %s", lib.ErrInvalidStatusTransition, item.Status, status)
		}
		if err := tx.UpdateItemStatus(ctx, id, status); err != nil {
			return err
		}
		item.Status = status
		item.UpdatedAt = is.now()
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	is.cacheService.InvalidateTracking(ctx, updated.ReferenceId)
	is.logger.Info("Item status updated",
		gecho.Field("item_id", id),
		gecho.Field("status", status),
	)
	return updated, nil
}
