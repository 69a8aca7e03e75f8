package services

import (
	"context"
	"testing"

	"dutchthrift_server/database"
	"dutchthrift_server/database/memstore"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs"
	"dutchthrift_server/structs/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staleLookup misses the customer on the first lookups, as when another
// intake commits the same email between lookup and insert.
type staleLookup struct {
	database.Storage
	misses int
}

func (s *staleLookup) FindCustomerByEmail(ctx context.Context, email string) (*tables.Customer, error) {
	if s.misses > 0 {
		s.misses--
		return nil, nil
	}
	return s.Storage.FindCustomerByEmail(ctx, email)
}

func TestSubmit_EmailMatchIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	sm := newTestServices(t, nil, nil)

	first, err := sm.IntakeService.Submit(ctx, intakeRequest("Jane@Example.com", "Lamp"))
	require.NoError(t, err)
	second, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Chair"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Customer.Id, second.Customer.Id)
	assert.NotEqual(t, first.Order.Id, second.Order.Id)
	assert.Equal(t, "Jane@Example.com", first.Customer.Email)
	assert.Equal(t, "jane@example.com", second.Customer.Email)

	again, err := sm.IntakeService.Submit(ctx, intakeRequest("Jane@Example.com", "Vase"))
	require.NoError(t, err)
	assert.Equal(t, first.Customer.Id, again.Customer.Id)
}

func TestResolve_ConflictReadsWinningCustomer(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	sm := newTestServices(t, store, nil)
	winner, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
	require.NoError(t, err)

	in := structs.IntakeCustomer{Name: "Jane", Email: "jane@example.com"}
	customer, err := sm.CustomerService.Resolve(ctx, &staleLookup{Storage: store, misses: 1}, in)
	require.NoError(t, err)
	assert.Equal(t, winner.Customer.Id, customer.Id)
}

func TestResolve_ConflictWithoutWinnerFails(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	sm := newTestServices(t, store, nil)
	_, err := sm.IntakeService.Submit(ctx, intakeRequest("jane@example.com", "Lamp"))
	require.NoError(t, err)

	in := structs.IntakeCustomer{Name: "Jane", Email: "jane@example.com"}
	_, err = sm.CustomerService.Resolve(ctx, &staleLookup{Storage: store, misses: 2}, in)
	assert.ErrorIs(t, err, lib.ErrConflict)
	assert.ErrorContains(t, err, "failed to create customer")
}

func TestResolve_NewCustomerDefaults(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	sm := newTestServices(t, store, nil)

	customer, err := sm.CustomerService.Resolve(ctx, store, structs.IntakeCustomer{Name: "Jane", Email: "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, tables.RoleCustomer, customer.Role)
	assert.Equal(t, "NL", customer.Country)
	assert.NotEmpty(t, customer.PasswordHash)

	stored, err := store.FindCustomerByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, customer.Id, stored.Id)
}
