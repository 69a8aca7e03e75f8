package cmd

import (
	"context"

	"dutchthrift_server/config"
	"dutchthrift_server/database"
	"dutchthrift_server/services"

	"github.com/MonkyMars/gecho"
)

// runtime holds what every subcommand needs: the logger, the connection and
// the services wired on top of it.
type runtime struct {
	logger   *gecho.Logger
	db       *database.DB
	services *services.ServiceManager
}

func bootstrap(ctx context.Context, migrate bool) (*runtime, error) {
	logger := config.GetLogger()
	cfg := config.GetConfig()

	if err := database.Initialize(); err != nil {
		return nil, err
	}
	db := database.GetInstance()

	if migrate {
		if err := database.Migrate(ctx, db.DB, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	store := database.NewStore(db.DB, logger)
	return &runtime{
		logger:   logger,
		db:       db,
		services: services.NewServiceManager(logger, cfg, store),
	}, nil
}

func (rt *runtime) close() {
	if err := rt.services.CacheService.Close(); err != nil {
		rt.logger.Warn("Failed to close cache", gecho.Field("error", err))
	}
	if err := database.CloseInstance(); err != nil {
		rt.logger.Warn("Failed to close database", gecho.Field("error", err))
	}
}
