package app

import (
	"context"
	"fmt"
	"io"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/catalog"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/ingest/stream"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/worker"
	db "github.com/lueurxax/code-skeptic-scanner/internal/storage"
)

// RunNATS consumes the ingestion subject until ctx is canceled. Tweets are handed to a
// bounded dispatcher; while every worker is busy the subscription buffers them.
func (a *App) RunNATS(ctx context.Context) error {
	nc, err := stream.ConnectNATS(a.cfg.NATSURL, a.logger)
	if err != nil {
		return err
	}
	defer nc.Close()

	dispatcher := stream.NewDispatcher(a.cfg.IngestConcurrency, func(ctx context.Context, tweet domain.RawTweet) {
		a.intake.OnTweet(ctx, tweet)
	}, a.logger)

	source := stream.NewNATSSource(nc, a.cfg.NATSSubject, a.cfg.NATSQueueGroup, a.logger)
	source.SetPendingLimits(a.cfg.NATSPendingMsgs, a.cfg.NATSPendingBytes)

	return a.runWithBackground(ctx, func(ctx context.Context) error {
		err := source.Run(ctx, dispatcher.Dispatch)
		dispatcher.Wait()

		return err
	})
}

// RunStdin feeds every JSON line of r through intake and returns at EOF. The reader is
// the only producer, so tweets are handled inline.
func (a *App) RunStdin(ctx context.Context, r io.Reader) error {
	source := stream.NewReaderSource(r, a.logger)

	return source.Run(ctx, func(ctx context.Context, tweet domain.RawTweet) bool {
		a.intake.OnTweet(ctx, tweet)

		return true
	})
}

// RunSweep runs the background tasks. With once set, each task runs a single time.
func (a *App) RunSweep(ctx context.Context, once bool) error {
	if once {
		for _, task := range a.backgroundTasks() {
			worker.RunOnce(ctx, sweepWorkerName, task, a.logger)
		}

		return nil
	}

	return worker.Loop(ctx, worker.Config{Name: sweepWorkerName, Tasks: a.backgroundTasks(), Logger: a.logger})
}

// SeedCatalog replaces the postgres tool catalog with the contents of the catalog file.
func (a *App) SeedCatalog(ctx context.Context) error {
	if a.database == nil {
		return fmt.Errorf("%w: catalog seeding needs POSTGRES_DSN with a postgres backend or catalog", errors.ErrInvalidInput)
	}

	entries, err := catalog.NewFileStore(a.cfg.ToolCatalogPath).LoadToolCatalog(ctx)
	if err != nil {
		return err
	}

	if err := db.NewCatalogStore(a.database).ReplaceToolCatalog(ctx, entries); err != nil {
		return err
	}

	a.logger.Info().Int("tools", len(entries)).Str("path", a.cfg.ToolCatalogPath).Msg("tool catalog seeded")

	return nil
}

func (a *App) runWithBackground(ctx context.Context, run func(ctx context.Context) error) error {
	bgCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = worker.Loop(bgCtx, worker.Config{Name: sweepWorkerName, Tasks: a.backgroundTasks(), Logger: a.logger})
	}()

	err := run(ctx)

	cancel()
	<-done

	return err
}
