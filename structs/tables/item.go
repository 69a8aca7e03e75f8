package tables

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Item struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	Id          uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	ReferenceId string     `bun:"reference_id,unique,notnull" json:"reference_id"` // CS-YYMMDD-NNN
	CustomerId  uuid.UUID  `bun:"customer_id,notnull,type:uuid" json:"customer_id"`
	Title       string     `bun:"title,notnull" json:"title"`
	Description string     `bun:"description" json:"description,omitempty"`
	Brand       string     `bun:"brand" json:"brand,omitempty"`
	Category    string     `bun:"category" json:"category,omitempty"`
	Condition   string     `bun:"condition" json:"condition,omitempty"`
	Status      ItemStatus `bun:"status,notnull,default:'pending'" json:"status"`
	ImageUrl    *string    `bun:"image_url" json:"image_url,omitempty"` // base64 payload as submitted
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusReceived  ItemStatus = "received"
	ItemStatusAnalyzing ItemStatus = "analyzing"
	ItemStatusPricing   ItemStatus = "pricing"
	ItemStatusApproved  ItemStatus = "approved"
	ItemStatusListed    ItemStatus = "listed"
	ItemStatusSold      ItemStatus = "sold"
	ItemStatusPaid      ItemStatus = "paid"
	ItemStatusReturned  ItemStatus = "returned"
	ItemStatusRejected  ItemStatus = "rejected"
)

// ItemAnalysis holds the analysis oracle's verdict for one item.
type ItemAnalysis struct {
	bun.BaseModel `bun:"table:item_analyses,alias:ia"`

	ItemId      uuid.UUID      `bun:"item_id,pk,type:uuid" json:"item_id"`
	ProductType string         `bun:"product_type" json:"product_type"`
	Brand       string         `bun:"brand" json:"brand,omitempty"`
	Model       string         `bun:"model" json:"model,omitempty"`
	Condition   string         `bun:"condition" json:"condition,omitempty"`
	Category    string         `bun:"category" json:"category,omitempty"`
	Features    []string       `bun:"features,array" json:"features,omitempty"`
	Confidence  float64        `bun:"confidence" json:"confidence"`
	Raw         map[string]any `bun:"raw,type:jsonb" json:"-"`
	CreatedAt   time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// ItemPricing is the accepted price and the resulting consignor payout.
type ItemPricing struct {
	bun.BaseModel `bun:"table:item_pricing,alias:ip"`

	ItemId         uuid.UUID       `bun:"item_id,pk,type:uuid" json:"item_id"`
	SuggestedPrice decimal.Decimal `bun:"suggested_price,type:numeric(10,2),notnull" json:"suggested_price"`
	CommissionRate decimal.Decimal `bun:"commission_rate,type:numeric(5,4),notnull" json:"commission_rate"`
	FinalPayout    decimal.Decimal `bun:"final_payout,type:numeric(10,2),notnull" json:"final_payout"`
	UpdatedAt      time.Time       `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
