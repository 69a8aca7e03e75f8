package services

import (
	"context"
	"fmt"
	"time"

	"dutchthrift_server/database"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs"
	"dutchthrift_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PricingService struct {
	logger       *gecho.Logger
	store        database.Storage
	orders       *OrderService
	cacheService *CacheService
	now          func() time.Time
}

func NewPricingService(logger *gecho.Logger, store database.Storage, orders *OrderService, cacheService *CacheService) *PricingService {
	return &PricingService{
		logger:       logger,
		store:        store,
		orders:       orders,
		cacheService: cacheService,
		now:          time.Now,
	}
}

// CalculatePayout returns price × (1 − rate) rounded to cents
func CalculatePayout(price, commissionRate decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(1).Sub(commissionRate)).Round(2)
}

func validatePricing(req *structs.PricingRequest) error {
	if !req.SuggestedPrice.IsPositive() {
		return lib.NewValidationError("suggestedPrice", "must be greater than 0")
	}
	if req.CommissionRate.IsNegative() || req.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return lib.NewValidationError("commissionRate", "must be between 0 and 1")
	}
	return nil
}

// SetPricing stores the accepted price for an item, approves it and
// recomputes the totals of every order the item belongs to.
func (ps *PricingService) SetPricing(ctx context.Context, itemId uuid.UUID, req *structs.PricingRequest) (*tables.ItemPricing, error) {
	if err := validatePricing(req); err != nil {
		return nil, err
	}

	pricing := &tables.ItemPricing{
		ItemId:         itemId,
		SuggestedPrice: req.SuggestedPrice.Round(2),
		CommissionRate: req.CommissionRate,
		FinalPayout:    CalculatePayout(req.SuggestedPrice.Round(2), req.CommissionRate),
		UpdatedAt:      ps.now(),
	}

	var referenceId string
	err := ps.store.RunInTx(ctx, func(ctx context.Context, tx database.Storage) error {
		item, err := tx.FindItem(ctx, itemId)
		if err != nil {
			return err
		}
		if item == nil {
			return lib.ErrNotFound
		}
		if !canPrice(item.Status) {
			return fmt.Errorf("%w: cannot price an item that is %s", lib.ErrInvalidStatusTransition, item.Status)
		}
		referenceId = item.ReferenceId

		if err := tx.UpsertPricing(ctx, pricing); err != nil {
			return fmt.Errorf("failed to store pricing: %w", err)
		}
		if item.Status != tables.ItemStatusApproved {
			if err := tx.UpdateItemStatus(ctx, itemId, tables.ItemStatusApproved); err != nil {
				return err
			}
		}

		links, err := tx.ListOrderLinks(ctx, []uuid.UUID{itemId})
		if err != nil {
			return err
		}
		for _, link := range links {
			if err := ps.orders.RecalculateTotals(ctx, tx, link.OrderId); err != nil {
				return fmt.Errorf("failed to recalculate totals for order %s: %w", link.OrderId, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ps.cacheService.InvalidateTracking(ctx, referenceId)
	ps.logger.Info("Item priced",
		gecho.Field("item_id", itemId),
		gecho.Field("suggested_price", pricing.SuggestedPrice.StringFixed(2)),
		gecho.Field("final_payout", pricing.FinalPayout.StringFixed(2)),
	)
	return pricing, nil
}
