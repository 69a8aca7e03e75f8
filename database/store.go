package database

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"dutchthrift_server/lib"
	"dutchthrift_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Store is the bun/Postgres implementation of Storage
type Store struct {
	db     bun.IDB
	logger *gecho.Logger
	inTx   bool
}

var _ Storage = (*Store)(nil)

func NewStore(db bun.IDB, logger *gecho.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Storage) error) (err error) {
	// On a transaction handle BeginTx issues a SAVEPOINT, and Commit/Rollback
	// release or roll back to it.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lib.MapPgError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(fmt.Sprintf("PANIC RECOVERED: %v", p),
				gecho.Field("panic_value", p),
				gecho.Field("stack_trace", string(debug.Stack())))
			_ = tx.Rollback()
			err = fmt.Errorf("panic recovered: %v", p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = lib.MapPgError(tx.Commit())
		}
	}()

	return fn(ctx, &Store{db: tx, logger: s.logger, inTx: true})
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.db.NewRaw("SELECT 1").Exec(ctx)
	return err
}

// exec runs a write statement, retrying transient failures outside
// transactions, and maps postgres errors onto lib sentinels.
func (s *Store) exec(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	if s.inTx {
		err = fn(ctx)
	} else {
		err = WithRetry(ctx, func() error { return fn(ctx) })
	}
	return lib.MapPgError(err)
}

// update runs an UPDATE and reports lib.ErrNotFound when no row matched
func (s *Store) update(ctx context.Context, query *bun.UpdateQuery) error {
	return s.exec(ctx, func(ctx context.Context) error {
		res, err := query.Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return lib.ErrNotFound
		}
		return nil
	})
}

// Customers

func (s *Store) FindCustomer(ctx context.Context, id uuid.UUID) (*tables.Customer, error) {
	return Query[tables.Customer](s.db).Where("c.id", id).First(ctx)
}

func (s *Store) FindCustomerByEmail(ctx context.Context, email string) (*tables.Customer, error) {
	return Query[tables.Customer](s.db).Where("c.email", email).First(ctx)
}

func (s *Store) InsertCustomer(ctx context.Context, customer *tables.Customer) error {
	return s.exec(ctx, func(ctx context.Context) error {
		_, err := s.db.NewInsert().Model(customer).Exec(ctx)
		return err
	})
}

func (s *Store) UpdateCustomer(ctx context.Context, customer *tables.Customer) error {
	customer.UpdatedAt = time.Now()
	return s.update(ctx, s.db.NewUpdate().Model(customer).WherePK())
}

func (s *Store) InsertPasswordToken(ctx context.Context, token *tables.PasswordToken) error {
	return s.exec(ctx, func(ctx context.Context) error {
		_, err := s.db.NewInsert().Model(token).Exec(ctx)
		return err
	})
}

func (s *Store) FindPasswordToken(ctx context.Context, tokenHash string) (*tables.PasswordToken, error) {
	return Query[tables.PasswordToken](s.db).Where("pt.token_hash", tokenHash).First(ctx)
}

func (s *Store) LatestPasswordToken(ctx context.Context, customerId uuid.UUID) (*tables.PasswordToken, error) {
	return Query[tables.PasswordToken](s.db).
		Where("pt.customer_id", customerId).
		OrderBy("pt.created_at", DESC).
		First(ctx)
}

func (s *Store) DeletePasswordTokens(ctx context.Context, customerId uuid.UUID) error {
	return s.exec(ctx, func(ctx context.Context) error {
		_, err := s.db.NewDelete().Model((*tables.PasswordToken)(nil)).Where("customer_id = ?", customerId).Exec(ctx)
		return err
	})
}

// Orders

func (s *Store) FindOrder(ctx context.Context, id uuid.UUID) (*tables.Order, error) {
	return Query[tables.Order](s.db).Where("o.id", id).First(ctx)
}

func (s *Store) FindOpenOrder(ctx context.Context, customerId uuid.UUID) (*tables.Order, error) {
	q := Query[tables.Order](s.db).
		Where("o.customer_id", customerId).
		Where("o.status", tables.OrderStatusAwaitingShipment).
		OrderBy("o.created_at", DESC)
	if s.inTx {
		q = q.ForUpdate()
	}
	return q.First(ctx)
}

func (s *Store) ListOrders(ctx context.Context, filter OrderFilter) ([]tables.Order, int, error) {
	q := Query[tables.Order](s.db).OrderBy("o.created_at", DESC)
	if filter.Status != "" {
		q = q.Where("o.status", filter.Status)
	}
	if filter.CustomerId != nil {
		q = q.Where("o.customer_id", *filter.CustomerId)
	}
	return Paginate(ctx, q, filter.Page)
}

func (s *Store) ListOrderIds(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.exec(ctx, func(ctx context.Context) error {
		ids = nil
		return s.db.NewSelect().Model((*tables.Order)(nil)).Column("id").Order("created_at").Scan(ctx, &ids)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list order ids: %w", err)
	}
	return ids, nil
}

func (s *Store) InsertOrder(ctx context.Context, order *tables.Order) error {
	return s.exec(ctx, func(ctx context.Context) error {
		_, err := s.db.NewInsert().Model(order).Exec(ctx)
		return err
	})
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status tables.OrderStatus, trackingCode *string) error {
	q := s.db.NewUpdate().
		Model((*tables.Order)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id)
	if trackingCode != nil {
		q = q.Set("tracking_code = ?", *trackingCode)
	}
	return s.update(ctx, q)
}

func (s *Store) UpdateOrderTotals(ctx context.Context, id uuid.UUID, totalValue, totalPayout decimal.Decimal) error {
	return s.update(ctx, s.db.NewUpdate().
		Model((*tables.Order)(nil)).
		Set("total_value = ?", totalValue).
		Set("total_payout = ?", totalPayout).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id))
}

func (s *Store) LinkOrderItem(ctx context.Context, orderId, itemId uuid.UUID) error {
	link := &tables.OrderItem{OrderId: orderId, ItemId: itemId, CreatedAt: time.Now()}
	return s.exec(ctx, func(ctx context.Context) error {
		_, err := s.db.NewInsert().
			Model(link).
			On("CONFLICT (order_id, item_id) DO NOTHING").
			Exec(ctx)
		return err
	})
}

func (s *Store) CountOrderItems(ctx context.Context, orderId uuid.UUID) (int, error) {
	return Query[tables.OrderItem](s.db).Where("oi.order_id", orderId).Count(ctx)
}

func (s *Store) ListOrderItems(ctx context.Context, orderId uuid.UUID) ([]tables.Item, error) {
	return Query[tables.Item](s.db).
		WhereRaw("i.id IN (SELECT item_id FROM order_items WHERE order_id = ?)", orderId).
		OrderBy("i.created_at", ASC).
		All(ctx)
}

func (s *Store) ListOrderLinks(ctx context.Context, itemIds []uuid.UUID) ([]tables.OrderItem, error) {
	if len(itemIds) == 0 {
		return nil, nil
	}
	return Query[tables.OrderItem](s.db).WhereIn("oi.item_id", itemIds).All(ctx)
}

func (s *Store) SumOrderPricing(ctx context.Context, orderId uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var totalValue, totalPayout decimal.Decimal
	err := s.exec(ctx, func(ctx context.Context) error {
		return s.db.NewSelect().
			TableExpr("order_items AS oi").
			Join("JOIN item_pricing AS ip ON ip.item_id = oi.item_id").
			ColumnExpr("COALESCE(SUM(ip.suggested_price), 0)").
			ColumnExpr("COALESCE(SUM(ip.final_payout), 0)").
			Where("oi.order_id = ?", orderId).
			Scan(ctx, &totalValue, &totalPayout)
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum order pricing: %w", err)
	}
	return totalValue, totalPayout, nil
}
