package tables

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Customer is a consignor (or an admin; both live in the same table).
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	Id           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Email        string    `bun:"email,unique,notnull" json:"email"`
	Name         string    `bun:"name,notnull" json:"name"`
	Phone        string    `bun:"phone" json:"phone,omitempty"`
	Address      string    `bun:"address" json:"address,omitempty"`
	City         string    `bun:"city" json:"city,omitempty"`
	State        string    `bun:"state" json:"state,omitempty"`
	PostalCode   string    `bun:"postal_code" json:"postal_code,omitempty"`
	Country      string    `bun:"country,notnull,default:'NL'" json:"country"`
	PayoutMethod string    `bun:"payout_method" json:"payout_method,omitempty"` // bank_transfer, store_credit
	IBAN         string    `bun:"iban" json:"iban,omitempty"`
	Role         Role      `bun:"role,notnull,default:'customer'" json:"role"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// PasswordToken is a one-time set-password link. Only the SHA-256 of the
// token is stored; the plain token exists in the email alone.
type PasswordToken struct {
	bun.BaseModel `bun:"table:password_tokens,alias:pt"`

	Id         uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	CustomerId uuid.UUID `bun:"customer_id,type:uuid,notnull" json:"customer_id"`
	TokenHash  string    `bun:"token_hash,unique,notnull" json:"-"`
	ExpiresAt  time.Time `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
