package tables

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	Id           uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	OrderNumber  string          `bun:"order_number,notnull,unique" json:"order_number"` // ORD-YYYYMMDD-NNN
	CustomerId   uuid.UUID       `bun:"customer_id,notnull,type:uuid" json:"customer_id"`
	Status       OrderStatus     `bun:"status,notnull" json:"status"`
	TotalValue   decimal.Decimal `bun:"total_value,type:numeric(10,2),notnull" json:"total_value"`
	TotalPayout  decimal.Decimal `bun:"total_payout,type:numeric(10,2),notnull" json:"total_payout"`
	TrackingCode *string         `bun:"tracking_code" json:"tracking_code,omitempty"`
	CreatedAt    time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time       `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// OrderItem links an item into an order.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	OrderId   uuid.UUID `bun:"order_id,pk,type:uuid" json:"order_id"`
	ItemId    uuid.UUID `bun:"item_id,pk,type:uuid" json:"item_id"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type OrderStatus string

const (
	// OrderStatusAwaitingShipment marks the one open order per customer that
	// keeps accepting new intake items.
	OrderStatusAwaitingShipment OrderStatus = "Awaiting Shipment"
	OrderStatusShipped          OrderStatus = "shipped"
	OrderStatusProcessing       OrderStatus = "processing"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCancelled        OrderStatus = "cancelled"
)
