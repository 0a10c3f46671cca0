package stream

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/observability"
)

// DefaultConcurrency is the number of tweets handled in parallel.
const DefaultConcurrency = 8

// Handler processes one tweet.
type Handler func(ctx context.Context, tweet domain.RawTweet)

// Dispatcher runs a Handler on a bounded set of goroutines. When every slot is busy
// Dispatch waits for one, so the source buffers instead of losing tweets.
type Dispatcher struct {
	slots   *semaphore.Weighted
	group   errgroup.Group
	handler Handler
	logger  *zerolog.Logger
}

// NewDispatcher creates a dispatcher running at most concurrency handlers at once.
func NewDispatcher(concurrency int, handler Handler, logger *zerolog.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Dispatcher{
		slots:   semaphore.NewWeighted(int64(concurrency)),
		handler: handler,
		logger:  logger,
	}
}

// Dispatch starts handling tweet once a slot is free. It returns false only when ctx is
// done before that happens.
func (d *Dispatcher) Dispatch(ctx context.Context, tweet domain.RawTweet) bool {
	if err := d.slots.Acquire(ctx, 1); err != nil {
		observability.DispatchDropped.Inc()
		d.logger.Warn().Err(err).Str("tweet_id", tweet.ID).Msg("intake stopped before a worker was free, dropping tweet")

		return false
	}

	d.group.Go(func() error {
		defer d.slots.Release(1)
		defer func() {
			if r := recover(); r != nil {
				observability.WorkerPanics.WithLabelValues("dispatcher").Inc()
				d.logger.Error().Interface("panic", r).Str("tweet_id", tweet.ID).Msg("panic while handling tweet")
			}
		}()

		d.handler(ctx, tweet)

		return nil
	})

	return true
}

// Wait blocks until every dispatched handler has returned.
func (d *Dispatcher) Wait() {
	_ = d.group.Wait()
}
