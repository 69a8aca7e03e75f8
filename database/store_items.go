package database

import (
	"context"
	"time"

	"dutchthrift_server/structs/tables"

	"github.com/google/uuid"
)

func (s *Store) FindItem(ctx context.Context, id uuid.UUID) (*tables.Item, error) {
	return Query[tables.Item](s.db).Where("i.id", id).First(ctx)
}

func (s *Store) FindItemByReference(ctx context.Context, referenceId string) (*tables.Item, error) {
	return Query[tables.Item](s.db).Where("i.reference_id", referenceId).First(ctx)
}

func (s *Store) ListItems(ctx context.Context, filter ItemFilter) ([]tables.Item, int, error) {
	q := Query[tables.Item](s.db).OrderBy("i.created_at", DESC)
	if filter.Status != "" {
		q = q.Where("i.status", filter.Status)
	}
	if filter.CustomerId != nil {
		q = q.Where("i.customer_id", *filter.CustomerId)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.WhereRaw("(i.title ILIKE ? OR i.brand ILIKE ? OR i.reference_id ILIKE ?)", pattern, pattern, pattern)
	}
	return Paginate(ctx, q, filter.Page)
}

func (s *Store) InsertItem(ctx context.Context, item *tables.Item) error {
	return s.exec(ctx, func(ctx context.Context) error {
		_, err := s.db.NewInsert().Model(item).Exec(ctx)
		return err
	})
}

func (s *Store) SetItemImage(ctx context.Context, id uuid.UUID, image string) error {
	return s.update(ctx, s.db.NewUpdate().
		Model((*tables.Item)(nil)).
		Set("image_url = ?", image).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id))
}

func (s *Store) UpdateItemStatus(ctx context.Context, id uuid.UUID, status tables.ItemStatus) error {
	return s.update(ctx, s.db.NewUpdate().
		Model((*tables.Item)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id))
}

func (s *Store) FindAnalysis(ctx context.Context, itemId uuid.UUID) (*tables.ItemAnalysis, error) {
	return Query[tables.ItemAnalysis](s.db).Where("ia.item_id", itemId).First(ctx)
}

func (s *Store) UpsertAnalysis(ctx context.Context, analysis *tables.ItemAnalysis) error {
	return s.exec(ctx, func(ctx context.Context) error {
		_, err := s.db.NewInsert().
			Model(analysis).
			On("CONFLICT (item_id) DO UPDATE").
			Set("product_type = EXCLUDED.product_type").
			Set("brand = EXCLUDED.brand").
			Set("model = EXCLUDED.model").
			Set("condition = EXCLUDED.condition").
			Set("category = EXCLUDED.category").
			Set("features = EXCLUDED.features").
			Set("confidence = EXCLUDED.confidence").
			Set("raw = EXCLUDED.raw").
			Set("created_at = EXCLUDED.created_at").
			Exec(ctx)
		return err
	})
}

func (s *Store) FindPricing(ctx context.Context, itemId uuid.UUID) (*tables.ItemPricing, error) {
	return Query[tables.ItemPricing](s.db).Where("ip.item_id", itemId).First(ctx)
}

func (s *Store) ListPricing(ctx context.Context, itemIds []uuid.UUID) ([]tables.ItemPricing, error) {
	if len(itemIds) == 0 {
		return nil, nil
	}
	return Query[tables.ItemPricing](s.db).WhereIn("ip.item_id", itemIds).All(ctx)
}

func (s *Store) UpsertPricing(ctx context.Context, pricing *tables.ItemPricing) error {
	return s.exec(ctx, func(ctx context.Context) error {
		_, err := s.db.NewInsert().
			Model(pricing).
			On("CONFLICT (item_id) DO UPDATE").
			Set("suggested_price = EXCLUDED.suggested_price").
			Set("commission_rate = EXCLUDED.commission_rate").
			Set("final_payout = EXCLUDED.final_payout").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}
