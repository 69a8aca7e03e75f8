package items

import (
	"net/http"
	"regexp"

	"dutchthrift_server/handling"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

var referencePattern = regexp.MustCompile(`^CS-\d{6}-\d{3}$`)

func (irm *ItemRoutesManager) HandleTrack(w http.ResponseWriter, r *http.Request) {
	referenceId := chi.URLParam(r, "referenceId")
	if !referencePattern.MatchString(referenceId) {
		gecho.NotFound(w, gecho.WithMessage("Item not found"), gecho.Send())
		return
	}

	view, err := irm.itemService.Track(r.Context(), referenceId)
	if err != nil {
		handling.HandleError(err, "Failed to look up item", irm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(view),
		gecho.Send(),
	)
}
