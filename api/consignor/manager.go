package consignor

import (
	"dutchthrift_server/api/middleware"
	"dutchthrift_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type ConsignorRoutesManager struct {
	logger      *gecho.Logger
	itemService *services.ItemService
	mw          *middleware.Middleware
}

func NewConsignorRoutesManager(logger *gecho.Logger, itemService *services.ItemService, mw *middleware.Middleware) *ConsignorRoutesManager {
	return &ConsignorRoutesManager{
		logger:      logger,
		itemService: itemService,
		mw:          mw,
	}
}

func (crm *ConsignorRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/api/consignor", func(r chi.Router) {
		r.Use(crm.mw.UserAuthMiddleware)
		r.Get("/items", crm.HandleListItems)
	})
}
