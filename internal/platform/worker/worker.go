// Package worker runs periodic background tasks such as the stale review sweep and
// the tool catalog refresh.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/code-skeptic-scanner/internal/platform/observability"
)

const (
	logFieldWorker = "worker"
	logFieldTask   = "task"
)

// Task is a unit of periodic work.
type Task struct {
	Name     string
	Interval time.Duration

	// RunOnStart runs the task once before the first tick.
	RunOnStart bool

	// Timeout bounds a single run (0 for none).
	Timeout time.Duration

	Run func(ctx context.Context) error
}

// Config configures a group of periodic tasks.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	Tasks []Task

	Logger *zerolog.Logger
}

// Loop runs every task on its own ticker until ctx is canceled. Task errors are logged
// and never stop the loop; panics are recovered and counted.
// Returns a wrapped context error when the context is canceled.
func Loop(ctx context.Context, cfg Config) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Int("tasks", len(cfg.Tasks)).Msg("starting worker loop")

	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("worker loop stopped")

	g, gctx := errgroup.WithContext(ctx)

	for _, task := range cfg.Tasks {
		if task.Interval <= 0 || task.Run == nil {
			logger.Warn().Str(logFieldTask, task.Name).Msg("skipping task without interval")

			continue
		}

		g.Go(func() error {
			runTicker(gctx, cfg.Name, task, logger)

			return nil
		})
	}

	_ = g.Wait()

	<-ctx.Done()

	return fmt.Errorf("worker loop %s: %w", cfg.Name, ctx.Err())
}

func runTicker(ctx context.Context, worker string, task Task, logger *zerolog.Logger) {
	if task.RunOnStart {
		RunOnce(ctx, worker, task, logger)
	}

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Debug().Str(logFieldTask, task.Name).Msg("ticker fired")
			RunOnce(ctx, worker, task, logger)
		}
	}
}

// RunOnce executes a task a single time, honoring its timeout.
func RunOnce(ctx context.Context, worker string, task Task, logger *zerolog.Logger) {
	logger = getLogger(logger)

	defer RecoverPanic(logger, worker, task.Name)

	run := func(ctx context.Context) error { return task.Run(ctx) }

	var err error
	if task.Timeout > 0 {
		err = RunWithTimeout(ctx, task.Timeout, run)
	} else {
		err = run(ctx)
	}

	if err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Str(logFieldWorker, worker).Str(logFieldTask, task.Name).Msg("task failed")
	}
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RunWithTimeout runs fn with a timeout derived from the parent context.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(timeoutCtx)
}

// RecoverPanic recovers from panics, logs and counts them.
// Use as: defer worker.RecoverPanic(logger, "sweeper", "stale-reviews")
func RecoverPanic(logger *zerolog.Logger, worker, task string) {
	if r := recover(); r != nil {
		observability.WorkerPanics.WithLabelValues(worker).Inc()
		getLogger(logger).Error().
			Interface("panic", r).
			Str(logFieldWorker, worker).
			Str(logFieldTask, task).
			Msg("recovered from panic")
	}
}

// getLogger returns the provided logger or a nop logger if nil.
func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()

		return &nop
	}

	return logger
}
