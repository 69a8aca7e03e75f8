package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dutchthrift_server/database"
	"dutchthrift_server/database/memstore"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs/tables"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCustomer(email string) *tables.Customer {
	return &tables.Customer{Id: uuid.New(), Email: email, Name: "Test", Role: tables.RoleCustomer}
}

func TestRunInTx_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	err := store.RunInTx(ctx, func(ctx context.Context, tx database.Storage) error {
		require.NoError(t, tx.InsertCustomer(ctx, newCustomer("a@example.com")))
		return errors.New("abort")
	})
	require.Error(t, err)

	found, err := store.FindCustomerByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRunInTx_SavepointRollsBackIndependently(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	err := store.RunInTx(ctx, func(ctx context.Context, tx database.Storage) error {
		require.NoError(t, tx.InsertCustomer(ctx, newCustomer("kept@example.com")))

		spErr := tx.RunInTx(ctx, func(ctx context.Context, sp database.Storage) error {
			require.NoError(t, sp.InsertCustomer(ctx, newCustomer("dropped@example.com")))
			return errors.New("savepoint failure")
		})
		assert.Error(t, spErr)
		return nil
	})
	require.NoError(t, err)

	kept, err := store.FindCustomerByEmail(ctx, "kept@example.com")
	require.NoError(t, err)
	assert.NotNil(t, kept)

	dropped, err := store.FindCustomerByEmail(ctx, "dropped@example.com")
	require.NoError(t, err)
	assert.Nil(t, dropped)
}

func TestRunInTx_RecoversPanic(t *testing.T) {
	store := memstore.New()
	err := store.RunInTx(context.Background(), func(ctx context.Context, tx database.Storage) error {
		panic("boom")
	})
	assert.ErrorContains(t, err, "boom")
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	require.NoError(t, store.InsertCustomer(ctx, newCustomer("dup@example.com")))
	err := store.InsertCustomer(ctx, newCustomer("dup@example.com"))
	assert.ErrorIs(t, err, lib.ErrConflict)
	assert.True(t, lib.IsUniqueViolation(err))
}

func TestLinkOrderItem_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	customer := newCustomer("link@example.com")
	require.NoError(t, store.InsertCustomer(ctx, customer))
	order := &tables.Order{Id: uuid.New(), CustomerId: customer.Id, OrderNumber: "ORD-20250101-001", Status: tables.OrderStatusAwaitingShipment}
	require.NoError(t, store.InsertOrder(ctx, order))
	item := &tables.Item{Id: uuid.New(), CustomerId: customer.Id, ReferenceId: "CS-250101-001", Title: "Lamp", Status: tables.ItemStatusPending}
	require.NoError(t, store.InsertItem(ctx, item))

	require.NoError(t, store.LinkOrderItem(ctx, order.Id, item.Id))
	require.NoError(t, store.LinkOrderItem(ctx, order.Id, item.Id))

	count, err := store.CountOrderItems(ctx, order.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFault(t *testing.T) {
	store := memstore.New(memstore.WithFault(func(op string, arg any) error {
		if op == "Ping" {
			return errors.New("database down")
		}
		return nil
	}))
	assert.EqualError(t, store.Ping(context.Background()), "database down")
}

func TestPasswordTokens(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	jane := newCustomer("jane@example.com")
	require.NoError(t, store.InsertCustomer(ctx, jane))

	now := time.Now()
	first := &tables.PasswordToken{CustomerId: jane.Id, TokenHash: "aaa", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	second := &tables.PasswordToken{CustomerId: jane.Id, TokenHash: "bbb", ExpiresAt: now.Add(time.Hour), CreatedAt: now.Add(time.Minute)}
	require.NoError(t, store.InsertPasswordToken(ctx, first))
	require.NoError(t, store.InsertPasswordToken(ctx, second))

	err := store.InsertPasswordToken(ctx, &tables.PasswordToken{CustomerId: jane.Id, TokenHash: "aaa"})
	assert.ErrorIs(t, err, lib.ErrConflict)
	err = store.InsertPasswordToken(ctx, &tables.PasswordToken{CustomerId: uuid.New(), TokenHash: "ccc"})
	assert.ErrorContains(t, err, "foreign key")

	found, err := store.FindPasswordToken(ctx, "aaa")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, jane.Id, found.CustomerId)

	latest, err := store.LatestPasswordToken(ctx, jane.Id)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "bbb", latest.TokenHash)

	require.NoError(t, store.DeletePasswordTokens(ctx, jane.Id))
	found, err = store.FindPasswordToken(ctx, "bbb")
	require.NoError(t, err)
	assert.Nil(t, found)
	latest, err = store.LatestPasswordToken(ctx, jane.Id)
	require.NoError(t, err)
	assert.Nil(t, latest)
}
