package structs

import (
	"github.com/google/uuid"
)

type IntakeCustomer struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email,max=254"`
	Phone        string `json:"phone,omitempty" validate:"max=50"`
	Address      string `json:"address,omitempty" validate:"max=300"`
	City         string `json:"city,omitempty" validate:"max=100"`
	State        string `json:"state,omitempty" validate:"max=100"`
	PostalCode   string `json:"postalCode,omitempty" validate:"max=20"`
	Country      string `json:"country,omitempty" validate:"omitempty,len=2"`
	PayoutMethod string `json:"payoutMethod,omitempty" validate:"omitempty,oneof=bank_transfer store_credit"`
	IBAN         string `json:"iban,omitempty" validate:"max=34"`
}

type IntakeItem struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=5000"`
	Brand       string `json:"brand,omitempty" validate:"max=100"`
	Category    string `json:"category,omitempty" validate:"max=100"`
	Condition   string `json:"condition,omitempty" validate:"max=50"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}

// IntakeRequest is the canonical intake submission. Legacy single-item
// bodies are normalised into a one-element Items slice.
type IntakeRequest struct {
	Customer IntakeCustomer `json:"customer"`
	Items    []IntakeItem   `json:"items" validate:"required,min=1,max=50,dive"`
}

// IntakeSubmission is a decoded request body together with the shape it
// arrived in, so the response can be rendered in the same shape.
type IntakeSubmission struct {
	Legacy  bool
	Request IntakeRequest
}

const (
	IntakeItemCreated = "created"
	IntakeItemFailed  = "failed"
)

type IntakeCustomerSummary struct {
	Id    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type IntakeOrderSummary struct {
	Id          uuid.UUID `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	ItemCount   int       `json:"itemCount"`
}

// IntakeItemResult reports one submitted item: Status is "created" with the
// new item's id and reference, or "failed" with Error set.
type IntakeItemResult struct {
	Id          *uuid.UUID `json:"id,omitempty"`
	ReferenceId string     `json:"referenceId,omitempty"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	ItemStatus  string     `json:"itemStatus,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type IntakeResult struct {
	Customer IntakeCustomerSummary `json:"customer"`
	Order    IntakeOrderSummary    `json:"order"`
	Items    []IntakeItemResult    `json:"items"`
}

// Created returns the number of items that were persisted
func (r *IntakeResult) Created() int {
	n := 0
	for _, item := range r.Items {
		if item.Status == IntakeItemCreated {
			n++
		}
	}
	return n
}

// LegacyIntakeResult is the flattened response for single-item submissions
type LegacyIntakeResult struct {
	ReferenceId string    `json:"referenceId"`
	CustomerId  uuid.UUID `json:"customerId"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	OrderNumber string    `json:"orderNumber"`
}
