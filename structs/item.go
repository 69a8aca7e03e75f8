package structs

import (
	"time"

	"dutchthrift_server/structs/tables"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrackingView is the public view of an item looked up by reference id
type TrackingView struct {
	ReferenceId string            `json:"referenceId"`
	Title       string            `json:"title"`
	Status      tables.ItemStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// ConsignorItem is an item as shown on the consignor dashboard
type ConsignorItem struct {
	tables.Item
	OrderNumber string              `json:"order_number,omitempty"`
	Pricing     *tables.ItemPricing `json:"pricing,omitempty"`
}

type AdminItem struct {
	tables.Item
	Analysis *tables.ItemAnalysis `json:"analysis,omitempty"`
	Pricing  *tables.ItemPricing  `json:"pricing,omitempty"`
	OrderIds []uuid.UUID          `json:"order_ids"`
}

type OrderDetail struct {
	tables.Order
	Customer *tables.Customer `json:"customer"`
	Items    []AdminItem      `json:"items"`
}

type ItemStatusUpdateRequest struct {
	Status tables.ItemStatus `json:"status" validate:"required"`
}

type OrderStatusUpdateRequest struct {
	Status       tables.OrderStatus `json:"status" validate:"required"`
	TrackingCode *string            `json:"trackingCode,omitempty" validate:"omitempty,max=100"`
}

type PricingRequest struct {
	SuggestedPrice decimal.Decimal `json:"suggestedPrice"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
}

// AnalysisResult is what the analysis oracle reports for an item photo
type AnalysisResult struct {
	ProductType string   `json:"productType"`
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Condition   string   `json:"condition"`
	Category    string   `json:"category"`
	Features    []string `json:"features"`
	Confidence  float64  `json:"confidence"`
}

// Paginated wraps a page of results with its metadata
type Paginated[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}
