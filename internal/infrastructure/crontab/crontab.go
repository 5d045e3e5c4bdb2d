// Package crontab schedules the background maintenance jobs.
package crontab

import (
	"context"
	"time"

	"github.com/mileusna/crontab"

	"github.com/botforge/botforge/internal/config"
	"github.com/botforge/botforge/internal/domain/training"
	"github.com/botforge/botforge/internal/infrastructure/logger"
	"github.com/botforge/botforge/internal/utils/platformerrors"
)

const CronJobTimeout = 5 * time.Minute

type Crontab struct {
	ctab        *crontab.Crontab
	coordinator *training.Coordinator
}

func NewCrontab(coordinator *training.Coordinator) *Crontab {
	return &Crontab{
		ctab:        crontab.New(),
		coordinator: coordinator,
	}
}

// Run sweeps orphaned training runs once at startup and then hourly, blocking
// until the context is cancelled.
func (c *Crontab) Run(ctx context.Context) error {
	// execute once on server start
	c.sweepStaleRuns(ctx)

	if err := c.ctab.AddJob("0 * * * *", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
		defer cancel()
		c.sweepStaleRuns(jobCtx)
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add stale run sweep job")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) sweepStaleRuns(ctx context.Context) {
	log := logger.GetLogger()
	cfg := config.GetGlobal()
	ttl := 24 * time.Hour
	if cfg != nil && cfg.TrainingRunTTL > 0 {
		ttl = cfg.TrainingRunTTL
	}
	swept, err := c.coordinator.SweepStaleRuns(ctx, ttl)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep stale training runs")
		return
	}
	if swept > 0 {
		log.Warn().Int64("swept", swept).Msg("Marked orphaned training runs as failed")
	}
}
