package handling

import (
	"errors"
	"net/http"

	"dutchthrift_server/lib"
	"dutchthrift_server/services"

	"github.com/MonkyMars/gecho"
)

// HandleError renders a service error with the status its kind maps to.
// Unexpected errors are logged and answered with a generic 500 carrying msg.
func HandleError(err error, msg string, logger *gecho.Logger, w http.ResponseWriter) {
	var ve *lib.ValidationError
	switch {
	case errors.As(err, &ve):
		gecho.BadRequest(w, gecho.WithMessage("Validation error"), gecho.WithData(ve), gecho.Send())
	case errors.Is(err, lib.ErrBodyTooLarge):
		gecho.NewErr(w, gecho.WithStatus(http.StatusRequestEntityTooLarge), gecho.WithMessage("Request body too large"), gecho.Send())
	case errors.Is(err, lib.ErrNotFound):
		gecho.NotFound(w, gecho.WithMessage("Resource not found"), gecho.Send())
	case errors.Is(err, lib.ErrInvalidStatusTransition):
		gecho.Conflict(w, gecho.WithMessage(err.Error()), gecho.Send())
	case errors.Is(err, lib.ErrConflict):
		gecho.Conflict(w, gecho.WithMessage("Resource already exists"), gecho.Send())
	case errors.Is(err, lib.ErrMissingImage):
		gecho.BadRequest(w, gecho.WithMessage(err.Error()), gecho.Send())
	case errors.Is(err, lib.ErrAnalysisUnavailable):
		gecho.ServiceUnavailable(w, gecho.WithMessage("Item analysis is not available"), gecho.Send())
	case errors.Is(err, lib.ErrAnalysisFailed):
		logger.Warn("Upstream failure", gecho.Field("error", err), gecho.Field("msg", msg))
		gecho.NewErr(w,
			gecho.WithStatus(http.StatusBadGateway),
			gecho.WithMessage("Item analysis failed"),
			gecho.WithData(map[string]string{"error": err.Error()}),
			gecho.Send(),
		)
	case errors.Is(err, services.ErrCacheDisabled):
		gecho.ServiceUnavailable(w, gecho.WithMessage("Cache is not available"), gecho.Send())
	default:
		logger.Error("An error occurred", gecho.Field("error", err), gecho.Field("msg", msg), gecho.WithCallerSkip(3))
		gecho.InternalServerError(w, gecho.WithMessage(msg), gecho.WithData(map[string]string{"error": msg}), gecho.Send())
	}
}
