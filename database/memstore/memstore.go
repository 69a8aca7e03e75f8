// Package memstore is an in-memory database.Storage used by tests. It
// mirrors the Postgres constraints the services depend on: unique emails,
// reference ids and order numbers, the order_items primary key, and
// savepoint semantics for nested transactions.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"dutchthrift_server/database"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs/tables"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FaultFunc lets a test fail a storage call. op is the method name and arg
// its main argument; a non-nil return is handed back to the caller.
type FaultFunc func(op string, arg any) error

type Option func(*Store)

func WithFault(fn FaultFunc) Option {
	return func(s *Store) { s.fault = fn }
}

type state struct {
	customers map[uuid.UUID]tables.Customer
	orders    map[uuid.UUID]tables.Order
	items     map[uuid.UUID]tables.Item
	analyses  map[uuid.UUID]tables.ItemAnalysis
	pricing   map[uuid.UUID]tables.ItemPricing
	links     []tables.OrderItem
	tokens    []tables.PasswordToken

	// insertion order, used where Postgres would sort by created_at
	customerIds []uuid.UUID
	orderIds    []uuid.UUID
	itemIds     []uuid.UUID
}

func newState() *state {
	return &state{
		customers: map[uuid.UUID]tables.Customer{},
		orders:    map[uuid.UUID]tables.Order{},
		items:     map[uuid.UUID]tables.Item{},
		analyses:  map[uuid.UUID]tables.ItemAnalysis{},
		pricing:   map[uuid.UUID]tables.ItemPricing{},
	}
}

func (st *state) clone() *state {
	return &state{
		customers:   cloneMap(st.customers),
		orders:      cloneMap(st.orders),
		items:       cloneMap(st.items),
		analyses:    cloneMap(st.analyses),
		pricing:     cloneMap(st.pricing),
		links:       slices.Clone(st.links),
		tokens:      slices.Clone(st.tokens),
		customerIds: slices.Clone(st.customerIds),
		orderIds:    slices.Clone(st.orderIds),
		itemIds:     slices.Clone(st.itemIds),
	}
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store keeps all rows in maps. The root store serialises callers with a
// mutex; a transaction works on a private copy that replaces its parent's
// state on commit.
type Store struct {
	mu    *sync.Mutex // nil inside a transaction
	st    *state
	fault FaultFunc
}

var _ database.Storage = (*Store)(nil)

func New(opts ...Option) *Store {
	s := &Store{mu: &sync.Mutex{}, st: newState()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) check(ctx context.Context, op string, arg any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.fault != nil {
		return s.fault(op, arg)
	}
	return nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx database.Storage) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock()()

	tx := &Store{st: s.st.clone(), fault: s.fault}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	*s.st = *tx.st
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.check(ctx, "Ping", nil)
}

// Customers

func (s *Store) FindCustomer(ctx context.Context, id uuid.UUID) (*tables.Customer, error) {
	defer s.lock()()
	if err := s.check(ctx, "FindCustomer", id); err != nil {
		return nil, err
	}
	if c, ok := s.st.customers[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *Store) FindCustomerByEmail(ctx context.Context, email string) (*tables.Customer, error) {
	defer s.lock()()
	if err := s.check(ctx, "FindCustomerByEmail", email); err != nil {
		return nil, err
	}
	for _, id := range s.st.customerIds {
		if c := s.st.customers[id]; c.Email == email {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertCustomer(ctx context.Context, customer *tables.Customer) error {
	defer s.lock()()
	if err := s.check(ctx, "InsertCustomer", customer); err != nil {
		return err
	}
	for _, c := range s.st.customers {
		if c.Email == customer.Email {
			return fmt.Errorf("%w: customers.email %q", lib.ErrConflict, customer.Email)
		}
	}
	if customer.Id == uuid.Nil {
		customer.Id = uuid.New()
	}
	s.st.customers[customer.Id] = *customer
	s.st.customerIds = append(s.st.customerIds, customer.Id)
	return nil
}

func (s *Store) UpdateCustomer(ctx context.Context, customer *tables.Customer) error {
	defer s.lock()()
	if err := s.check(ctx, "UpdateCustomer", customer); err != nil {
		return err
	}
	if _, ok := s.st.customers[customer.Id]; !ok {
		return lib.ErrNotFound
	}
	s.st.customers[customer.Id] = *customer
	return nil
}

func (s *Store) InsertPasswordToken(ctx context.Context, token *tables.PasswordToken) error {
	defer s.lock()()
	if err := s.check(ctx, "InsertPasswordToken", token); err != nil {
		return err
	}
	for _, t := range s.st.tokens {
		if t.TokenHash == token.TokenHash {
			return fmt.Errorf("%w: password_tokens.token_hash", lib.ErrConflict)
		}
	}
	if _, ok := s.st.customers[token.CustomerId]; !ok {
		return fmt.Errorf("password_tokens.customer_id %s: foreign key violation", token.CustomerId)
	}
	if token.Id == uuid.Nil {
		token.Id = uuid.New()
	}
	s.st.tokens = append(s.st.tokens, *token)
	return nil
}

func (s *Store) FindPasswordToken(ctx context.Context, tokenHash string) (*tables.PasswordToken, error) {
	defer s.lock()()
	if err := s.check(ctx, "FindPasswordToken", tokenHash); err != nil {
		return nil, err
	}
	for _, t := range s.st.tokens {
		if t.TokenHash == tokenHash {
			return &t, nil
		}
	}
	return nil, nil
}

func (s *Store) LatestPasswordToken(ctx context.Context, customerId uuid.UUID) (*tables.PasswordToken, error) {
	defer s.lock()()
	if err := s.check(ctx, "LatestPasswordToken", customerId); err != nil {
		return nil, err
	}
	for i := len(s.st.tokens) - 1; i >= 0; i-- {
		if t := s.st.tokens[i]; t.CustomerId == customerId {
			return &t, nil
		}
	}
	return nil, nil
}

func (s *Store) DeletePasswordTokens(ctx context.Context, customerId uuid.UUID) error {
	defer s.lock()()
	if err := s.check(ctx, "DeletePasswordTokens", customerId); err != nil {
		return err
	}
	s.st.tokens = slices.DeleteFunc(s.st.tokens, func(t tables.PasswordToken) bool {
		return t.CustomerId == customerId
	})
	return nil
}

// Orders

func (s *Store) FindOrder(ctx context.Context, id uuid.UUID) (*tables.Order, error) {
	defer s.lock()()
	if err := s.check(ctx, "FindOrder", id); err != nil {
		return nil, err
	}
	if o, ok := s.st.orders[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (s *Store) FindOpenOrder(ctx context.Context, customerId uuid.UUID) (*tables.Order, error) {
	defer s.lock()()
	if err := s.check(ctx, "FindOpenOrder", customerId); err != nil {
		return nil, err
	}
	for i := len(s.st.orderIds) - 1; i >= 0; i-- {
		o := s.st.orders[s.st.orderIds[i]]
		if o.CustomerId == customerId && o.Status == tables.OrderStatusAwaitingShipment {
			return &o, nil
		}
	}
	return nil, nil
}

func (s *Store) ListOrders(ctx context.Context, filter database.OrderFilter) ([]tables.Order, int, error) {
	defer s.lock()()
	if err := s.check(ctx, "ListOrders", filter); err != nil {
		return nil, 0, err
	}
	var out []tables.Order
	for i := len(s.st.orderIds) - 1; i >= 0; i-- {
		o := s.st.orders[s.st.orderIds[i]]
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.CustomerId != nil && o.CustomerId != *filter.CustomerId {
			continue
		}
		out = append(out, o)
	}
	page, total := paginate(out, filter.Page)
	return page, total, nil
}

func (s *Store) ListOrderIds(ctx context.Context) ([]uuid.UUID, error) {
	defer s.lock()()
	if err := s.check(ctx, "ListOrderIds", nil); err != nil {
		return nil, err
	}
	return slices.Clone(s.st.orderIds), nil
}

func (s *Store) InsertOrder(ctx context.Context, order *tables.Order) error {
	defer s.lock()()
	if err := s.check(ctx, "InsertOrder", order); err != nil {
		return err
	}
	for _, o := range s.st.orders {
		if o.OrderNumber == order.OrderNumber {
			return fmt.Errorf("%w: orders.order_number %q", lib.ErrConflict, order.OrderNumber)
		}
	}
	if _, ok := s.st.customers[order.CustomerId]; !ok {
		return fmt.Errorf("orders.customer_id %s: foreign key violation", order.CustomerId)
	}
	if order.Id == uuid.Nil {
		order.Id = uuid.New()
	}
	s.st.orders[order.Id] = *order
	s.st.orderIds = append(s.st.orderIds, order.Id)
	return nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status tables.OrderStatus, trackingCode *string) error {
	defer s.lock()()
	if err := s.check(ctx, "UpdateOrderStatus", id); err != nil {
		return err
	}
	o, ok := s.st.orders[id]
	if !ok {
		return lib.ErrNotFound
	}
	o.Status = status
	if trackingCode != nil {
		code := *trackingCode
		o.TrackingCode = &code
	}
	s.st.orders[id] = o
	return nil
}

func (s *Store) UpdateOrderTotals(ctx context.Context, id uuid.UUID, totalValue, totalPayout decimal.Decimal) error {
	defer s.lock()()
	if err := s.check(ctx, "UpdateOrderTotals", id); err != nil {
		return err
	}
	o, ok := s.st.orders[id]
	if !ok {
		return lib.ErrNotFound
	}
	o.TotalValue = totalValue
	o.TotalPayout = totalPayout
	s.st.orders[id] = o
	return nil
}

func (s *Store) LinkOrderItem(ctx context.Context, orderId, itemId uuid.UUID) error {
	defer s.lock()()
	if err := s.check(ctx, "LinkOrderItem", itemId); err != nil {
		return err
	}
	if _, ok := s.st.orders[orderId]; !ok {
		return fmt.Errorf("order_items.order_id %s: foreign key violation", orderId)
	}
	if _, ok := s.st.items[itemId]; !ok {
		return fmt.Errorf("order_items.item_id %s: foreign key violation", itemId)
	}
	for _, l := range s.st.links {
		if l.OrderId == orderId && l.ItemId == itemId {
			return nil
		}
	}
	s.st.links = append(s.st.links, tables.OrderItem{OrderId: orderId, ItemId: itemId})
	return nil
}

func (s *Store) CountOrderItems(ctx context.Context, orderId uuid.UUID) (int, error) {
	defer s.lock()()
	if err := s.check(ctx, "CountOrderItems", orderId); err != nil {
		return 0, err
	}
	n := 0
	for _, l := range s.st.links {
		if l.OrderId == orderId {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListOrderItems(ctx context.Context, orderId uuid.UUID) ([]tables.Item, error) {
	defer s.lock()()
	if err := s.check(ctx, "ListOrderItems", orderId); err != nil {
		return nil, err
	}
	var out []tables.Item
	for _, id := range s.st.itemIds {
		for _, l := range s.st.links {
			if l.OrderId == orderId && l.ItemId == id {
				out = append(out, s.st.items[id])
				break
			}
		}
	}
	return out, nil
}

func (s *Store) ListOrderLinks(ctx context.Context, itemIds []uuid.UUID) ([]tables.OrderItem, error) {
	defer s.lock()()
	if err := s.check(ctx, "ListOrderLinks", itemIds); err != nil {
		return nil, err
	}
	var out []tables.OrderItem
	for _, l := range s.st.links {
		if slices.Contains(itemIds, l.ItemId) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *Store) SumOrderPricing(ctx context.Context, orderId uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	defer s.lock()()
	if err := s.check(ctx, "SumOrderPricing", orderId); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	value, payout := decimal.Zero, decimal.Zero
	for _, l := range s.st.links {
		if l.OrderId != orderId {
			continue
		}
		if p, ok := s.st.pricing[l.ItemId]; ok {
			value = value.Add(p.SuggestedPrice)
			payout = payout.Add(p.FinalPayout)
		}
	}
	return value, payout, nil
}

// Items

func (s *Store) FindItem(ctx context.Context, id uuid.UUID) (*tables.Item, error) {
	defer s.lock()()
	if err := s.check(ctx, "FindItem", id); err != nil {
		return nil, err
	}
	if i, ok := s.st.items[id]; ok {
		return &i, nil
	}
	return nil, nil
}

func (s *Store) FindItemByReference(ctx context.Context, referenceId string) (*tables.Item, error) {
	defer s.lock()()
	if err := s.check(ctx, "FindItemByReference", referenceId); err != nil {
		return nil, err
	}
	for _, i := range s.st.items {
		if i.ReferenceId == referenceId {
			return &i, nil
		}
	}
	return nil, nil
}

func (s *Store) ListItems(ctx context.Context, filter database.ItemFilter) ([]tables.Item, int, error) {
	defer s.lock()()
	if err := s.check(ctx, "ListItems", filter); err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(filter.Search)
	var out []tables.Item
	for i := len(s.st.itemIds) - 1; i >= 0; i-- {
		item := s.st.items[s.st.itemIds[i]]
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.CustomerId != nil && item.CustomerId != *filter.CustomerId {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Title), search) &&
			!strings.Contains(strings.ToLower(item.Brand), search) &&
			!strings.Contains(strings.ToLower(item.ReferenceId), search) {
			continue
		}
		out = append(out, item)
	}
	page, total := paginate(out, filter.Page)
	return page, total, nil
}

func (s *Store) InsertItem(ctx context.Context, item *tables.Item) error {
	defer s.lock()()
	if err := s.check(ctx, "InsertItem", item); err != nil {
		return err
	}
	for _, i := range s.st.items {
		if i.ReferenceId == item.ReferenceId {
			return fmt.Errorf("%w: items.reference_id %q", lib.ErrConflict, item.ReferenceId)
		}
	}
	if _, ok := s.st.customers[item.CustomerId]; !ok {
		return fmt.Errorf("items.customer_id %s: foreign key violation", item.CustomerId)
	}
	if item.Id == uuid.Nil {
		item.Id = uuid.New()
	}
	s.st.items[item.Id] = *item
	s.st.itemIds = append(s.st.itemIds, item.Id)
	return nil
}

func (s *Store) SetItemImage(ctx context.Context, id uuid.UUID, image string) error {
	defer s.lock()()
	if err := s.check(ctx, "SetItemImage", id); err != nil {
		return err
	}
	i, ok := s.st.items[id]
	if !ok {
		return lib.ErrNotFound
	}
	i.ImageUrl = &image
	s.st.items[id] = i
	return nil
}

func (s *Store) UpdateItemStatus(ctx context.Context, id uuid.UUID, status tables.ItemStatus) error {
	defer s.lock()()
	if err := s.check(ctx, "UpdateItemStatus", id); err != nil {
		return err
	}
	i, ok := s.st.items[id]
	if !ok {
		return lib.ErrNotFound
	}
	i.Status = status
	s.st.items[id] = i
	return nil
}

func (s *Store) FindAnalysis(ctx context.Context, itemId uuid.UUID) (*tables.ItemAnalysis, error) {
	defer s.lock()()
	if err := s.check(ctx, "FindAnalysis", itemId); err != nil {
		return nil, err
	}
	if a, ok := s.st.analyses[itemId]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *Store) UpsertAnalysis(ctx context.Context, analysis *tables.ItemAnalysis) error {
	defer s.lock()()
	if err := s.check(ctx, "UpsertAnalysis", analysis); err != nil {
		return err
	}
	if _, ok := s.st.items[analysis.ItemId]; !ok {
		return fmt.Errorf("item_analyses.item_id %s: foreign key violation", analysis.ItemId)
	}
	s.st.analyses[analysis.ItemId] = *analysis
	return nil
}

func (s *Store) FindPricing(ctx context.Context, itemId uuid.UUID) (*tables.ItemPricing, error) {
	defer s.lock()()
	if err := s.check(ctx, "FindPricing", itemId); err != nil {
		return nil, err
	}
	if p, ok := s.st.pricing[itemId]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *Store) ListPricing(ctx context.Context, itemIds []uuid.UUID) ([]tables.ItemPricing, error) {
	defer s.lock()()
	if err := s.check(ctx, "ListPricing", itemIds); err != nil {
		return nil, err
	}
	var out []tables.ItemPricing
	for _, id := range itemIds {
		if p, ok := s.st.pricing[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) UpsertPricing(ctx context.Context, pricing *tables.ItemPricing) error {
	defer s.lock()()
	if err := s.check(ctx, "UpsertPricing", pricing); err != nil {
		return err
	}
	if _, ok := s.st.items[pricing.ItemId]; !ok {
		return fmt.Errorf("item_pricing.item_id %s: foreign key violation", pricing.ItemId)
	}
	s.st.pricing[pricing.ItemId] = *pricing
	return nil
}

func paginate[T any](rows []T, page database.Page) ([]T, int) {
	page = page.Normalize()
	total := len(rows)
	start := min(page.Offset(), total)
	end := min(start+page.Size, total)
	return rows[start:end], total
}
