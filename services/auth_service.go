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

// passwordTokenCooldown is the minimum gap between two set-password mails
// to the same customer
const passwordTokenCooldown = 2 * time.Minute

// PasswordMailer delivers set-password links
type PasswordMailer interface {
	SendPasswordSetup(ctx context.Context, customer *tables.Customer, token string) error
}

type AuthService struct {
	logger       *gecho.Logger
	cfg          *structs.AuthConfig
	store        database.Storage
	cacheService *CacheService
	mailer       PasswordMailer
	now          func() time.Time
}

func NewAuthService(logger *gecho.Logger, cfg *structs.AuthConfig, store database.Storage, cacheService *CacheService, mailer PasswordMailer) *AuthService {
	return &AuthService{
		logger:       logger,
		cfg:          cfg,
		store:        store,
		cacheService: cacheService,
		mailer:       mailer,
		now:          time.Now,
	}
}

// Login verifies the credentials and returns the customer with a signed
// access token. Unknown emails and wrong passwords both yield
// lib.ErrInvalidCredentials.
func (as *AuthService) Login(ctx context.Context, req *structs.LoginRequest) (*tables.Customer, string, *structs.AuthClaims, error) {
	startTime := time.Now()

	customer, err := as.store.FindCustomerByEmail(ctx, req.Email)
	if err != nil {
		as.logger.Error("Unexpected database error during login", gecho.Field("error", err))
		return nil, "", nil, err
	}
	if customer == nil {
		as.logger.Debug("Customer not found during login attempt", gecho.Field("identifier", req.Email))
		return nil, "", nil, lib.ErrInvalidCredentials
	}

	valid, err := lib.VerifyPassword(req.Password, customer.PasswordHash)
	if err != nil {
		as.logger.Error("Failed to verify password hash",
			gecho.Field("error", err),
			gecho.Field("customer_id", customer.Id),
		)
		return nil, "", nil, err
	}
	if !valid {
		as.logger.Debug("Invalid password attempt",
			gecho.Field("identifier", req.Email),
			gecho.Field("customer_id", customer.Id),
		)
		return nil, "", nil, lib.ErrInvalidCredentials
	}

	token, claims, err := lib.GenerateAccessToken(customer.Id, customer.Email, string(customer.Role), as.cfg.AccessTokenSecret, as.cfg.AccessTokenExpiry)
	if err != nil {
		return nil, "", nil, err
	}

	as.logger.Debug("Customer logged in successfully",
		gecho.Field("customer_id", customer.Id),
		gecho.Field("elapsed_time_ms", time.Since(startTime).Milliseconds()),
	)

	return customer, token, claims, nil
}

// Authenticate rejects revoked tokens. Blacklist lookup failures are logged
// and the token is accepted.
func (as *AuthService) Authenticate(ctx context.Context, claims *structs.AuthClaims) error {
	revoked, err := as.cacheService.IsTokenBlacklisted(ctx, claims.Jti)
	if err != nil {
		as.logger.Warn("Failed to check token blacklist", gecho.Field("error", err))
		return nil
	}
	if revoked {
		return lib.ErrInvalidToken
	}
	return nil
}

// Logout revokes the token for the rest of its lifetime
func (as *AuthService) Logout(ctx context.Context, claims *structs.AuthClaims) error {
	err := as.cacheService.BlacklistToken(ctx, claims.Jti, claims.Exp)
	if errors.Is(err, ErrCacheDisabled) {
		return nil
	}
	return err
}

// CreateAdmin creates an admin account, or promotes and re-passwords the
// customer that already owns the email.
func (as *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*tables.Customer, error) {
	if len(password) < 8 {
		return nil, lib.NewValidationError("password", "must be at least 8 characters")
	}

	hash, err := lib.HashPassword(password, as.cfg.Argon)
	if err != nil {
		return nil, err
	}

	var admin *tables.Customer
	err = as.store.RunInTx(ctx, func(ctx context.Context, tx database.Storage) error {
		existing, err := tx.FindCustomerByEmail(ctx, email)
		if err != nil {
			return err
		}

		if existing != nil {
			existing.Role = tables.RoleAdmin
			existing.PasswordHash = hash
			if name != "" {
				existing.Name = name
			}
			admin = existing
			return tx.UpdateCustomer(ctx, existing)
		}

		now := time.Now()
		admin = &tables.Customer{
			Id:           uuid.New(),
			Email:        email,
			Name:         name,
			Country:      defaultCountry,
			Role:         tables.RoleAdmin,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.InsertCustomer(ctx, admin)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	as.logger.Info("Admin account ready", gecho.Field("customer_id", admin.Id), gecho.Field("email", admin.Email))
	return admin, nil
}

// RequestPasswordSetup mails a one-time set-password link to the customer
// that owns email. Unknown emails and throttled requests return nil so the
// caller cannot tell whether an account exists.
func (as *AuthService) RequestPasswordSetup(ctx context.Context, email string) error {
	customer, err := as.store.FindCustomerByEmail(ctx, email)
	if err != nil {
		return err
	}
	if customer == nil {
		as.logger.Debug("Password setup requested for unknown email", gecho.Field("identifier", email))
		return nil
	}

	token, err := as.issuePasswordToken(ctx, customer)
	if errors.Is(err, lib.ErrTokenCooldown) {
		as.logger.Debug("Password setup throttled", gecho.Field("customer_id", customer.Id))
		return nil
	}
	if err != nil {
		return err
	}

	if err := as.mailer.SendPasswordSetup(ctx, customer, token); err != nil {
		return fmt.Errorf("failed to send password setup email: %w", err)
	}

	as.logger.Info("Password setup email sent", gecho.Field("customer_id", customer.Id))
	return nil
}

// issuePasswordToken replaces the customer's outstanding tokens with a new
// one and returns its plain value.
func (as *AuthService) issuePasswordToken(ctx context.Context, customer *tables.Customer) (string, error) {
	token, err := lib.GenerateRandomToken()
	if err != nil {
		return "", err
	}
	now := as.now()

	err = as.store.RunInTx(ctx, func(ctx context.Context, tx database.Storage) error {
		latest, err := tx.LatestPasswordToken(ctx, customer.Id)
		if err != nil {
			return err
		}
		if latest != nil && now.Sub(latest.CreatedAt) < passwordTokenCooldown {
			return lib.ErrTokenCooldown
		}

		if err := tx.DeletePasswordTokens(ctx, customer.Id); err != nil {
			return err
		}
		return tx.InsertPasswordToken(ctx, &tables.PasswordToken{
			Id:         uuid.New(),
			CustomerId: customer.Id,
			TokenHash:  lib.HashToken(token),
			ExpiresAt:  now.Add(as.cfg.PasswordTokenTTL),
			CreatedAt:  now,
		})
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// SetPassword redeems a set-password token. The token is consumed together
// with every other outstanding token of the customer.
func (as *AuthService) SetPassword(ctx context.Context, req *structs.SetPasswordRequest) (*tables.Customer, error) {
	hash, err := lib.HashPassword(req.Password, as.cfg.Argon)
	if err != nil {
		return nil, err
	}

	var customer *tables.Customer
	err = as.store.RunInTx(ctx, func(ctx context.Context, tx database.Storage) error {
		pt, err := tx.FindPasswordToken(ctx, lib.HashToken(req.Token))
		if err != nil {
			return err
		}
		if pt == nil {
			return lib.ErrInvalidToken
		}
		if as.now().After(pt.ExpiresAt) {
			return lib.ErrExpiredToken
		}

		customer, err = tx.FindCustomer(ctx, pt.CustomerId)
		if err != nil {
			return err
		}
		if customer == nil {
			return lib.ErrInvalidToken
		}

		customer.PasswordHash = hash
		if err := tx.UpdateCustomer(ctx, customer); err != nil {
			return err
		}
		return tx.DeletePasswordTokens(ctx, customer.Id)
	})
	if err != nil {
		return nil, err
	}

	as.logger.Info("Customer password set", gecho.Field("customer_id", customer.Id))
	return customer, nil
}

func (as *AuthService) GetAccessTokenSecret() string {
	return as.cfg.AccessTokenSecret
}

func (as *AuthService) GetAccessTokenExpiry() time.Duration {
	return as.cfg.AccessTokenExpiry
}
