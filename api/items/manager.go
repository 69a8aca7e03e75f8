package items

import (
	"dutchthrift_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type ItemRoutesManager struct {
	logger      *gecho.Logger
	itemService *services.ItemService
}

func NewItemRoutesManager(logger *gecho.Logger, itemService *services.ItemService) *ItemRoutesManager {
	return &ItemRoutesManager{
		logger:      logger,
		itemService: itemService,
	}
}

func (irm *ItemRoutesManager) RegisterRoutes(r chi.Router) {
	r.Get("/api/items/{referenceId}", irm.HandleTrack)
}
