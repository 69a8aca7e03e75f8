package intake

import (
	"errors"
	"net/http"

	"dutchthrift_server/api/health"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs"

	"github.com/MonkyMars/gecho"
)

func (irm *IntakeRoutesManager) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	submission, err := decodeSubmission(r)
	if errors.Is(err, lib.ErrBodyTooLarge) {
		irm.logger.Debug("Rejected oversized intake submission", gecho.Field("error", err))
		health.IntakeSubmissions.WithLabelValues("unknown", "invalid").Inc()
		gecho.NewErr(w,
			gecho.WithStatus(http.StatusRequestEntityTooLarge),
			gecho.WithMessage("Request body too large"),
			gecho.Send(),
		)
		return
	}
	if err != nil {
		var ve *lib.ValidationError
		if !errors.As(err, &ve) {
			ve = lib.NewValidationError("body", err.Error())
		}
		irm.logger.Debug("Rejected intake submission", gecho.Field("errors", ve.Errors))
		health.IntakeSubmissions.WithLabelValues("unknown", "invalid").Inc()
		gecho.BadRequest(w,
			gecho.WithMessage("Validation error"),
			gecho.WithData(ve),
			gecho.Send(),
		)
		return
	}

	shape := "items"
	if submission.Legacy {
		shape = "item"
	}

	result, err := irm.intakeService.Submit(r.Context(), &submission.Request)
	recordItems(result)
	if err != nil {
		health.IntakeSubmissions.WithLabelValues(shape, "failed").Inc()
		data := map[string]any{"error": err.Error()}
		if errors.Is(err, lib.ErrNoItemsCreated) && result != nil {
			data["items"] = result.Items
		} else {
			irm.logger.Error("Intake submission failed", gecho.Field("error", err))
			data["error"] = "failed to process intake"
		}
		gecho.InternalServerError(w,
			gecho.WithMessage("Failed to process intake submission"),
			gecho.WithData(data),
			gecho.Send(),
		)
		return
	}

	health.IntakeSubmissions.WithLabelValues(shape, "ok").Inc()

	if submission.Legacy {
		gecho.Success(w,
			gecho.WithMessage("Item submitted successfully"),
			gecho.WithData(legacyResult(result)),
			gecho.Send(),
		)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("Items submitted successfully"),
		gecho.WithData(result),
		gecho.Send(),
	)
}

func recordItems(result *structs.IntakeResult) {
	if result == nil {
		return
	}
	created := result.Created()
	health.IntakeItems.WithLabelValues(structs.IntakeItemCreated).Add(float64(created))
	health.IntakeItems.WithLabelValues(structs.IntakeItemFailed).Add(float64(len(result.Items) - created))
}

// legacyResult flattens a single-item result. Submit only succeeds when at
// least one item was created, so the lone item is the created one.
func legacyResult(result *structs.IntakeResult) *structs.LegacyIntakeResult {
	item := result.Items[0]
	return &structs.LegacyIntakeResult{
		ReferenceId: item.ReferenceId,
		CustomerId:  result.Customer.Id,
		Title:       item.Title,
		Status:      item.ItemStatus,
		OrderNumber: result.Order.OrderNumber,
	}
}
