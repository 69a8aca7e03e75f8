package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dutchthrift_server/api"
	"dutchthrift_server/config"

	"github.com/MonkyMars/gecho"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  "Start the HTTP API server together with the enabled background jobs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := bootstrap(ctx, migrate)
			if err != nil {
				return err
			}
			defer rt.close()

			cfg := config.GetConfig()
			srv := &http.Server{
				Addr:           cfg.Server.Port,
				Handler:        api.App(cfg, config.GetLogLevel(), rt.services),
				ReadTimeout:    cfg.Server.ReadTimeout,
				WriteTimeout:   cfg.Server.WriteTimeout,
				IdleTimeout:    cfg.Server.IdleTimeout,
				MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
			}

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				rt.logger.Info(fmt.Sprintf("Starting server (%s) on %s", cfg.Server.AppName, cfg.Server.Port))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			})

			g.Go(func() error {
				return rt.services.Jobs.Run(ctx)
			})

			g.Go(func() error {
				<-ctx.Done()
				rt.logger.Info("Shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				rt.logger.Error("Server stopped with error", gecho.Field("error", err))
				return err
			}
			rt.logger.Info("Server stopped gracefully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}
