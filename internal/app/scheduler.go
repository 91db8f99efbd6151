package app

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/fidash/internal/common"
	"github.com/bobmcallan/fidash/internal/models"
)

// refresher is the part of the dashboard service the scheduler drives.
type refresher interface {
	Refresh(ctx context.Context) (*models.DashboardModel, error)
}

// StartScheduler launches the background refresh goroutine. With a zero
// refresh.interval only the optional start-up refresh runs.
func (a *App) StartScheduler() {
	interval := a.Config.Refresh.GetInterval()
	onStart := a.Config.Refresh.OnStart
	if interval <= 0 && !onStart {
		return
	}

	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	a.schedulerCancel = schedulerCancel
	a.schedulerDone = make(chan struct{})

	go func() {
		defer close(a.schedulerDone)
		runScheduler(schedulerCtx, a.Dashboard, a.Logger, interval, a.Config.Refresh.GetTimeout(), onStart)
	}()
}

// StopScheduler cancels the scheduler and waits for an in-flight refresh to end.
func (a *App) StopScheduler() {
	if a.schedulerCancel == nil {
		return
	}
	a.schedulerCancel()
	<-a.schedulerDone
	a.schedulerCancel = nil
}

// runScheduler refreshes once on start when asked, then on every tick.
// A non-positive interval returns after the start-up refresh.
func runScheduler(ctx context.Context, svc refresher, logger *common.Logger, interval, timeout time.Duration, onStart bool) {
	if onStart {
		scheduledRefresh(ctx, svc, logger, timeout)
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("Refresh scheduler: started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Refresh scheduler: stopped")
			return
		case <-ticker.C:
			scheduledRefresh(ctx, svc, logger, timeout)
		}
	}
}

func scheduledRefresh(ctx context.Context, svc refresher, logger *common.Logger, timeout time.Duration) {
	refreshCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	snap, err := svc.Refresh(refreshCtx)
	switch {
	case errors.Is(err, models.ErrSuperseded):
		logger.Debug().Msg("Scheduled refresh: superseded by a manual refresh")
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		logger.Debug().Msg("Scheduled refresh: abandoned on shutdown")
	case err != nil:
		logger.Warn().Err(err).Msg("Scheduled refresh: failed")
	default:
		logger.Info().
			Uint64("generation", snap.Generation).
			Int("degraded", len(snap.Degraded())).
			Dur("elapsed", time.Since(start)).
			Msg("Scheduled refresh: complete")
	}
}
