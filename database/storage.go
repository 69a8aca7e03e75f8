package database

import (
	"context"

	"dutchthrift_server/structs/tables"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Storage is the persistence boundary used by the services. Store is the
// Postgres implementation; memstore provides an in-memory one for tests.
// Find* methods return (nil, nil) when no row matches; Update* methods
// return lib.ErrNotFound when nothing was updated.
type Storage interface {
	CustomerStore
	OrderStore
	ItemStore

	// RunInTx runs fn in a transaction. Calling it on a Storage handed to fn
	// opens a savepoint that rolls back independently of the outer
	// transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Storage) error) error
	Ping(ctx context.Context) error
}

type CustomerStore interface {
	FindCustomer(ctx context.Context, id uuid.UUID) (*tables.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*tables.Customer, error)
	InsertCustomer(ctx context.Context, customer *tables.Customer) error
	UpdateCustomer(ctx context.Context, customer *tables.Customer) error

	InsertPasswordToken(ctx context.Context, token *tables.PasswordToken) error
	FindPasswordToken(ctx context.Context, tokenHash string) (*tables.PasswordToken, error)
	// LatestPasswordToken returns the customer's most recently issued token
	LatestPasswordToken(ctx context.Context, customerId uuid.UUID) (*tables.PasswordToken, error)
	DeletePasswordTokens(ctx context.Context, customerId uuid.UUID) error
}

type OrderStore interface {
	FindOrder(ctx context.Context, id uuid.UUID) (*tables.Order, error)
	// FindOpenOrder returns the customer's most recent order that is still
	// awaiting shipment.
	FindOpenOrder(ctx context.Context, customerId uuid.UUID) (*tables.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]tables.Order, int, error)
	ListOrderIds(ctx context.Context) ([]uuid.UUID, error)
	InsertOrder(ctx context.Context, order *tables.Order) error
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status tables.OrderStatus, trackingCode *string) error
	UpdateOrderTotals(ctx context.Context, id uuid.UUID, totalValue, totalPayout decimal.Decimal) error

	// LinkOrderItem is a no-op when the link already exists.
	LinkOrderItem(ctx context.Context, orderId, itemId uuid.UUID) error
	CountOrderItems(ctx context.Context, orderId uuid.UUID) (int, error)
	ListOrderItems(ctx context.Context, orderId uuid.UUID) ([]tables.Item, error)
	ListOrderLinks(ctx context.Context, itemIds []uuid.UUID) ([]tables.OrderItem, error)
	// SumOrderPricing sums suggested price and payout over the order's priced items.
	SumOrderPricing(ctx context.Context, orderId uuid.UUID) (totalValue, totalPayout decimal.Decimal, err error)
}

type ItemStore interface {
	FindItem(ctx context.Context, id uuid.UUID) (*tables.Item, error)
	FindItemByReference(ctx context.Context, referenceId string) (*tables.Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]tables.Item, int, error)
	InsertItem(ctx context.Context, item *tables.Item) error
	SetItemImage(ctx context.Context, id uuid.UUID, image string) error
	UpdateItemStatus(ctx context.Context, id uuid.UUID, status tables.ItemStatus) error

	FindAnalysis(ctx context.Context, itemId uuid.UUID) (*tables.ItemAnalysis, error)
	UpsertAnalysis(ctx context.Context, analysis *tables.ItemAnalysis) error
	FindPricing(ctx context.Context, itemId uuid.UUID) (*tables.ItemPricing, error)
	ListPricing(ctx context.Context, itemIds []uuid.UUID) ([]tables.ItemPricing, error)
	UpsertPricing(ctx context.Context, pricing *tables.ItemPricing) error
}

type OrderFilter struct {
	Status     tables.OrderStatus
	CustomerId *uuid.UUID
	Page       Page
}

type ItemFilter struct {
	Status     tables.ItemStatus
	CustomerId *uuid.UUID
	Search     string // matched against title, brand and reference id
	Page       Page
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}
