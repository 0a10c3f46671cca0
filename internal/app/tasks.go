package app

import (
	"context"
	"time"

	"github.com/lueurxax/code-skeptic-scanner/internal/platform/observability"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/worker"
)

const (
	sweepWorkerName = "background"
	taskStaleSweep  = "stale-review-sweep"
	taskCatalog     = "catalog-refresh"

	refreshStatusOK     = "ok"
	refreshStatusFailed = "failed"

	taskTimeout = time.Minute
)

func (a *App) backgroundTasks() []worker.Task {
	return []worker.Task{
		{
			Name:     taskStaleSweep,
			Interval: a.cfg.StaleSweepInterval,
			Timeout:  taskTimeout,
			Run:      a.sweepStaleReviews,
		},
		{
			Name:     taskCatalog,
			Interval: a.cfg.CatalogRefreshInterval,
			Timeout:  taskTimeout,
			Run:      a.refreshCatalog,
		},
	}
}

func (a *App) sweepStaleReviews(ctx context.Context) error {
	evicted, err := a.workflow.EvictStale(ctx, a.cfg.StaleReviewMaxAge)
	if evicted > 0 {
		a.logger.Info().Int("evicted", evicted).Msg("stale review sweep finished")
	}

	return err
}

func (a *App) refreshCatalog(ctx context.Context) error {
	entries, err := a.catalog.LoadToolCatalog(ctx)
	if err != nil {
		observability.CatalogRefreshes.WithLabelValues(refreshStatusFailed).Inc()

		return err
	}

	if err := a.pipeline.Stages().Detector.UpdateCatalog(entries); err != nil {
		observability.CatalogRefreshes.WithLabelValues(refreshStatusFailed).Inc()

		return err
	}

	observability.CatalogRefreshes.WithLabelValues(refreshStatusOK).Inc()

	return nil
}
