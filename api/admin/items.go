package admin

import (
	"errors"
	"net/http"

	"dutchthrift_server/handling"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs"

	"github.com/MonkyMars/gecho"
)

// asValidationError turns a body decoding failure into a 400
func asValidationError(err error) error {
	var ve *lib.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return lib.NewValidationError("body", err.Error())
}

func (ar *AdminRoutesManager) ListItems(w http.ResponseWriter, r *http.Request) {
	filter, err := handling.ParseItemFilter(r)
	if err != nil {
		handling.HandleError(err, "Invalid item filter", ar.logger, w)
		return
	}

	items, err := ar.itemService.ListItems(r.Context(), filter)
	if err != nil {
		handling.HandleError(err, "Failed to fetch items", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(items),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) GetItem(w http.ResponseWriter, r *http.Request) {
	itemId, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid item id", ar.logger, w)
		return
	}

	item, err := ar.itemService.GetItem(r.Context(), itemId)
	if err != nil {
		handling.HandleError(err, "Failed to fetch item", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(item),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	itemId, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid item id", ar.logger, w)
		return
	}

	body, err := lib.ExtractAndValidateBody[structs.ItemStatusUpdateRequest](r)
	if err != nil {
		handling.HandleError(asValidationError(err), "Invalid request body", ar.logger, w)
		return
	}

	item, err := ar.itemService.UpdateStatus(r.Context(), itemId, body.Status)
	if err != nil {
		handling.HandleError(err, "Failed to update item status", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("Item status updated"),
		gecho.WithData(item),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) AnalyzeItem(w http.ResponseWriter, r *http.Request) {
	itemId, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid item id", ar.logger, w)
		return
	}

	analysis, err := ar.analysisService.AnalyzeItem(r.Context(), itemId)
	if err != nil {
		handling.HandleError(err, "Failed to analyse item", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("Item analysed"),
		gecho.WithData(analysis),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) SetItemPricing(w http.ResponseWriter, r *http.Request) {
	itemId, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid item id", ar.logger, w)
		return
	}

	body, err := lib.ExtractAndValidateBody[structs.PricingRequest](r)
	if err != nil {
		handling.HandleError(asValidationError(err), "Invalid request body", ar.logger, w)
		return
	}

	pricing, err := ar.pricingService.SetPricing(r.Context(), itemId, body)
	if err != nil {
		handling.HandleError(err, "Failed to set item pricing", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("Item priced"),
		gecho.WithData(pricing),
		gecho.Send(),
	)
}
