package consignor

import (
	"net/http"

	"dutchthrift_server/api/middleware"
	"dutchthrift_server/handling"

	"github.com/MonkyMars/gecho"
)

// HandleListItems lists the items of the logged in consignor
func (crm *ConsignorRoutesManager) HandleListItems(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		gecho.Unauthorized(w, gecho.WithMessage("Invalid or missing access token"), gecho.Send())
		return
	}

	page, err := handling.ParsePage(r)
	if err != nil {
		handling.HandleError(err, "Invalid pagination", crm.logger, w)
		return
	}

	items, err := crm.itemService.ListConsignorItems(r.Context(), claims.Sub, page)
	if err != nil {
		handling.HandleError(err, "Failed to fetch items", crm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(items),
		gecho.Send(),
	)
}
