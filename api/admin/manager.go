package admin

import (
	"dutchthrift_server/api/middleware"
	"dutchthrift_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type AdminRoutesManager struct {
	logger          *gecho.Logger
	orderService    *services.OrderService
	itemService     *services.ItemService
	analysisService *services.AnalysisService
	pricingService  *services.PricingService
	mw              *middleware.Middleware
}

func NewAdminRoutesManager(
	logger *gecho.Logger,
	orderService *services.OrderService,
	itemService *services.ItemService,
	analysisService *services.AnalysisService,
	pricingService *services.PricingService,
	mw *middleware.Middleware,
) *AdminRoutesManager {
	return &AdminRoutesManager{
		logger:          logger,
		orderService:    orderService,
		itemService:     itemService,
		analysisService: analysisService,
		pricingService:  pricingService,
		mw:              mw,
	}
}

func (ar *AdminRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(ar.mw.UserAuthMiddleware)
		r.Use(ar.mw.AdminAuthMiddleware)

		r.Get("/orders", ar.ListOrders)
		r.Get("/orders/{id}", ar.GetOrderDetails)
		r.Put("/orders/{id}/status", ar.UpdateOrderStatus)

		r.Get("/items", ar.ListItems)
		r.Get("/items/{id}", ar.GetItem)
		r.Put("/items/{id}/status", ar.UpdateItemStatus)
		r.Post("/items/{id}/analyze", ar.AnalyzeItem)
		r.Put("/items/{id}/pricing", ar.SetItemPricing)
	})
}
