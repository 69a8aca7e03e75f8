package api

import (
	"dutchthrift_server/api/admin"
	"dutchthrift_server/api/auth"
	"dutchthrift_server/api/consignor"
	"dutchthrift_server/api/health"
	"dutchthrift_server/api/intake"
	"dutchthrift_server/api/items"
	"dutchthrift_server/api/middleware"
	"dutchthrift_server/services"
	"dutchthrift_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type routerManager struct {
	intakeRoutes    *intake.IntakeRoutesManager
	itemRoutes      *items.ItemRoutesManager
	consignorRoutes *consignor.ConsignorRoutesManager
	healthRoutes    *health.HealthRoutesManager
	authRoutes      *auth.AuthRoutesManager
	adminRoutes     *admin.AdminRoutesManager
}

func NewRouterManager(logger *gecho.Logger, cfg *structs.Config, sm *services.ServiceManager, mw *middleware.Middleware) *routerManager {
	return &routerManager{
		intakeRoutes:    intake.NewIntakeRoutesManager(logger, sm.IntakeService),
		itemRoutes:      items.NewItemRoutesManager(logger, sm.ItemService),
		consignorRoutes: consignor.NewConsignorRoutesManager(logger, sm.ItemService, mw),
		healthRoutes:    health.NewHealthRoutesManager(sm.HealthService),
		authRoutes:      auth.NewAuthRoutesManager(logger, sm.AuthService, cfg, mw),
		adminRoutes: admin.NewAdminRoutesManager(
			logger,
			sm.OrderService,
			sm.ItemService,
			sm.AnalysisService,
			sm.PricingService,
			mw,
		),
	}
}

func (rm *routerManager) RegisterRoutes(r chi.Router) {
	rm.intakeRoutes.RegisterRoutes(r)
	rm.itemRoutes.RegisterRoutes(r)
	rm.consignorRoutes.RegisterRoutes(r)
	rm.healthRoutes.RegisterRoutes(r)
	rm.authRoutes.RegisterRoutes(r)
	rm.adminRoutes.RegisterRoutes(r)
}
