package services

import (
	"context"
	"time"

	"dutchthrift_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-co-op/gocron/v2"
)

// Jobs runs the periodic maintenance tasks of the server
type Jobs struct {
	logger    *gecho.Logger
	cfg       *structs.JobsConfig
	orders    *OrderService
	scheduler gocron.Scheduler
}

func NewJobs(logger *gecho.Logger, cfg *structs.JobsConfig, orders *OrderService) *Jobs {
	return &Jobs{
		logger: logger,
		cfg:    cfg,
		orders: orders,
	}
}

// Run schedules the enabled jobs and blocks until ctx is cancelled. With no
// job enabled it only waits.
func (j *Jobs) Run(ctx context.Context) error {
	if !j.cfg.RecalcTotalsEnabled {
		<-ctx.Done()
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	j.scheduler = scheduler

	_, err = scheduler.NewJob(
		gocron.DurationJob(j.cfg.RecalcTotalsInterval),
		gocron.NewTask(func() {
			j.recalculateTotals(ctx)
		}),
		gocron.WithName("recalc-totals"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	j.logger.Info("Starting order totals job", gecho.Field("interval", j.cfg.RecalcTotalsInterval.String()))
	scheduler.Start()

	<-ctx.Done()
	return scheduler.Shutdown()
}

func (j *Jobs) recalculateTotals(ctx context.Context) {
	start := time.Now()
	updated, err := j.orders.RecalculateAllTotals(ctx)
	if err != nil {
		j.logger.Error("Order totals job failed",
			gecho.Field("error", err),
			gecho.Field("orders_updated", updated),
		)
		return
	}
	j.logger.Debug("Order totals job finished",
		gecho.Field("orders_updated", updated),
		gecho.Field("elapsed_time_ms", time.Since(start).Milliseconds()),
	)
}
