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

const defaultCountry = "NL"

type CustomerService struct {
	logger *gecho.Logger
	argon  structs.ArgonParams
	now    func() time.Time
}

func NewCustomerService(logger *gecho.Logger, argon structs.ArgonParams) *CustomerService {
	return &CustomerService{
		logger: logger,
		argon:  argon,
		now:    time.Now,
	}
}

// Resolve returns the customer whose email matches exactly, creating one
// when none exists. Matching is case-sensitive.
func (cs *CustomerService) Resolve(ctx context.Context, tx database.Storage, in structs.IntakeCustomer) (*tables.Customer, error) {
	existing, err := tx.FindCustomerByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	customer, err := cs.newCustomer(in)
	if err != nil {
		return nil, err
	}

	err = tx.RunInTx(ctx, func(ctx context.Context, sp database.Storage) error {
		return sp.InsertCustomer(ctx, customer)
	})
	if errors.Is(err, lib.ErrConflict) {
		// A concurrent intake created the same email first.
		existing, findErr := tx.FindCustomerByEmail(ctx, in.Email)
		if findErr == nil && existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	cs.logger.Info("Created customer", gecho.Field("customer_id", customer.Id))
	return customer, nil
}

// newCustomer builds a customer row. The password is the hash of a random
// secret nobody knows, so the account cannot log in until the consignor
// sets a password through a mailed set-password link.
func (cs *CustomerService) newCustomer(in structs.IntakeCustomer) (*tables.Customer, error) {
	secret, err := lib.GenerateRandomToken()
	if err != nil {
		return nil, err
	}
	hash, err := lib.HashPassword(secret, cs.argon)
	if err != nil {
		return nil, err
	}

	country := in.Country
	if country == "" {
		country = defaultCountry
	}

	now := cs.now()
	return &tables.Customer{
		Id:           uuid.New(),
		Email:        in.Email,
		Name:         in.Name,
		Phone:        in.Phone,
		Address:      in.Address,
		City:         in.City,
		State:        in.State,
		PostalCode:   in.PostalCode,
		Country:      country,
		PayoutMethod: in.PayoutMethod,
		IBAN:         in.IBAN,
		Role:         tables.RoleCustomer,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
