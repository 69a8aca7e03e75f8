package intake

import (
	"errors"
	"net/http"

	"dutchthrift_server/lib"
	"dutchthrift_server/structs"
)

// intakeBody accepts both the multi-item and the legacy single-item shape.
// Unknown fields, such as a client supplied status, are ignored.
type intakeBody struct {
	Customer structs.IntakeCustomer `json:"customer"`
	Items    *[]structs.IntakeItem  `json:"items"`
	Item     *structs.IntakeItem    `json:"item"`
}

// decodeSubmission parses the body once into the canonical request and
// records which shape it arrived in.
func decodeSubmission(r *http.Request) (*structs.IntakeSubmission, error) {
	body, err := lib.DecodeBody[intakeBody](r)
	if errors.Is(err, lib.ErrBodyTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, lib.NewValidationError("body", "must be a valid JSON object")
	}

	submission := &structs.IntakeSubmission{
		Request: structs.IntakeRequest{Customer: body.Customer},
	}

	switch {
	case body.Items != nil && body.Item != nil:
		return nil, lib.NewValidationError("item", "cannot be combined with items")
	case body.Items != nil:
		submission.Request.Items = *body.Items
	case body.Item != nil:
		submission.Legacy = true
		submission.Request.Items = []structs.IntakeItem{*body.Item}
	default:
		return nil, lib.NewValidationError("items", "is required")
	}

	if err := lib.ValidateStruct(submission.Request); err != nil {
		return nil, err
	}
	return submission, nil
}
