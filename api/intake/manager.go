package intake

import (
	"dutchthrift_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type IntakeRoutesManager struct {
	logger        *gecho.Logger
	intakeService *services.IntakeService
}

func NewIntakeRoutesManager(logger *gecho.Logger, intakeService *services.IntakeService) *IntakeRoutesManager {
	return &IntakeRoutesManager{
		logger:        logger,
		intakeService: intakeService,
	}
}

func (irm *IntakeRoutesManager) RegisterRoutes(r chi.Router) {
	r.Post("/api/intake", irm.HandleSubmit)
}
