package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/ports"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/observability"
)

const (
	logFieldItemID   = "item_id"
	logFieldTweetID  = "tweet_id"
	logFieldReviewer = "reviewer"
	logFieldState    = "state"

	opSubmit   = "submit"
	opClaim    = "claim"
	opDecide   = "decide"
	opEvict    = "evict"
	opWithdraw = "withdraw"
	opRestore  = "restore"
)

// Option configures a Workflow.
type Option func(*Workflow)

// WithClock overrides the clock used to stamp decisions.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// WithIDFunc overrides review item id generation for candidates that carry no id.
func WithIDFunc(newID func() string) Option {
	return func(w *Workflow) {
		if newID != nil {
			w.newID = newID
		}
	}
}

// Workflow is the approval state machine over a Queue and a persisted ReviewStore.
type Workflow struct {
	queue  *Queue
	store  ports.ReviewStore
	now    func() time.Time
	newID  func() string
	logger *zerolog.Logger
}

// NewWorkflow creates a workflow.
func NewWorkflow(queue *Queue, store ports.ReviewStore, logger *zerolog.Logger, opts ...Option) *Workflow {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	w := &Workflow{
		queue:  queue,
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Queue returns the underlying queue.
func (w *Workflow) Queue() *Queue { return w.queue }

// Submit queues a response candidate for review and persists it.
//
// It returns false with a nil error when the queue is full; callers drop or retry later.
// A duplicate id returns errors.ErrDuplicateItem. When the item cannot be persisted it is
// taken back out of the queue and an errors.ErrStorage error is returned.
func (w *Workflow) Submit(ctx context.Context, candidate domain.ResponseCandidate) (bool, error) {
	if candidate.ID == "" {
		candidate.ID = w.newID()
	}

	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = w.now()
	}

	item, err := w.queue.add(domain.ReviewItem{ID: candidate.ID, Candidate: candidate}, true)
	if err != nil {
		if errors.Is(err, errors.ErrQueueFull) {
			w.logger.Debug().Str(logFieldItemID, candidate.ID).Msg("review queue full, candidate not queued")

			return false, nil
		}

		return false, err
	}

	if err := w.store.Save(ctx, item); err != nil {
		w.queue.Remove(item.ID)

		return false, w.storageFailure(opSubmit, item.ID, err)
	}

	w.queue.settle(item.ID)
	w.transitioned(item)

	return true, nil
}

// ClaimNext moves the oldest submitted item to in_review on behalf of reviewer.
// It returns false when nothing is waiting. If the claim cannot be persisted the item is
// returned to the queue unchanged.
func (w *Workflow) ClaimNext(ctx context.Context, reviewer *domain.Reviewer) (domain.ReviewItem, bool, error) {
	item, ok := w.queue.claim(reviewer, true)
	if !ok {
		return domain.ReviewItem{}, false, nil
	}

	if err := w.store.Save(ctx, item); err != nil {
		w.queue.release(item.ID)

		return domain.ReviewItem{}, false, w.storageFailure(opClaim, item.ID, err)
	}

	w.queue.settle(item.ID)
	w.transitioned(item)

	return item, true, nil
}

// Approve records an approval. The item must be in review.
func (w *Workflow) Approve(ctx context.Context, id string, reviewer domain.Reviewer, comments string) (domain.ReviewItem, error) {
	return w.decide(ctx, id, domain.StateApproved, reviewer, func(item *domain.ReviewItem) {
		item.Comments = comments
	})
}

// Reject records a rejection with reviewer feedback. The item must be in review.
func (w *Workflow) Reject(ctx context.Context, id string, reviewer domain.Reviewer, comments, feedback string) (domain.ReviewItem, error) {
	return w.decide(ctx, id, domain.StateRejected, reviewer, func(item *domain.ReviewItem) {
		item.Comments = comments
		item.Feedback = feedback
	})
}

// RequestRevision ends the review with revision instructions. A revised candidate must be
// submitted again as a new item. The item must be in review.
func (w *Workflow) RequestRevision(ctx context.Context, id string, reviewer domain.Reviewer, instructions string) (domain.ReviewItem, error) {
	return w.decide(ctx, id, domain.StateRevisionRequested, reviewer, func(item *domain.ReviewItem) {
		item.RevisionInstructions = instructions
	})
}

// decide persists a decision and only then removes the item from the queue. On failure
// the item stays in review, untouched.
func (w *Workflow) decide(
	ctx context.Context,
	id string,
	state domain.ApprovalState,
	reviewer domain.Reviewer,
	apply func(*domain.ReviewItem),
) (domain.ReviewItem, error) {
	item, err := w.queue.begin(id)
	if err != nil {
		return domain.ReviewItem{}, err
	}

	decidedAt := w.now()
	rv := reviewer
	item.State = state
	item.DecidedAt = &decidedAt
	item.Reviewer = &rv
	apply(&item)

	if err := w.store.Save(ctx, item); err != nil {
		w.queue.finish(id, false)

		return domain.ReviewItem{}, w.storageFailure(opDecide, id, err)
	}

	w.queue.finish(id, true)
	w.transitioned(item)

	return item, nil
}

// EvictStale abandons in_review items claimed more than maxAge ago. Each item is persisted
// as abandoned before it leaves the queue; items that fail to persist stay queued and are
// retried by the next sweep. It returns the number of items evicted.
func (w *Workflow) EvictStale(ctx context.Context, maxAge time.Duration) (int, error) {
	stale := w.queue.holdStale(maxAge)

	var errs []error

	evicted := 0

	for _, item := range stale {
		abandonedAt := w.now()
		item.State = domain.StateAbandoned
		item.DecidedAt = &abandonedAt

		if err := w.store.Save(ctx, item); err != nil {
			w.queue.finish(item.ID, false)
			errs = append(errs, w.storageFailure(opEvict, item.ID, err))

			continue
		}

		w.queue.finish(item.ID, true)
		evicted++

		event := w.logger.Warn().
			Str(logFieldItemID, item.ID).
			Str(logFieldTweetID, item.Candidate.Tweet.ID).
			Dur("max_age", maxAge)

		if item.ClaimedAt != nil {
			event = event.Time("claimed_at", *item.ClaimedAt)
		}

		if item.Reviewer != nil {
			event = event.Str(logFieldReviewer, item.Reviewer.ID)
		}

		event.Msg("abandoned stale review item")
		w.transitioned(item)
	}

	return evicted, errors.Join(errs...)
}

// Withdraw removes an item from review and deletes its stored document.
// If the delete fails the item stays queued.
func (w *Workflow) Withdraw(ctx context.Context, id string) error {
	_, queued, err := w.queue.hold(id)
	if err != nil {
		return err
	}

	if err := w.store.Delete(ctx, id); err != nil {
		if queued {
			w.queue.finish(id, false)
		}

		return w.storageFailure(opWithdraw, id, err)
	}

	if queued {
		w.queue.finish(id, true)
	}

	observability.ReviewQueueDepth.Set(float64(w.queue.Size()))
	w.logger.Info().Str(logFieldItemID, id).Msg("review item withdrawn")

	return nil
}

// Get returns the queued copy of an item, or the stored document once it has left the queue.
func (w *Workflow) Get(ctx context.Context, id string) (domain.ReviewItem, error) {
	if item, ok := w.queue.Get(id); ok {
		return item, nil
	}

	item, err := w.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrItemNotFound) {
			return domain.ReviewItem{}, err
		}

		return domain.ReviewItem{}, w.storageFailure("get", id, err)
	}

	return item, nil
}

// Restore reloads submitted and in_review items from the store into the queue, oldest
// first, up to the queue capacity. Stores that cannot list open items restore nothing.
func (w *Workflow) Restore(ctx context.Context) (int, error) {
	lister, ok := w.store.(ports.OpenLister)
	if !ok {
		return 0, nil
	}

	items, err := lister.ListOpen(ctx)
	if err != nil {
		return 0, w.storageFailure(opRestore, "", err)
	}

	restored := 0

	for _, item := range items {
		if err := w.queue.Restore(item); err != nil {
			if errors.Is(err, errors.ErrQueueFull) {
				w.logger.Warn().
					Int("restored", restored).
					Int("pending", len(items)-restored).
					Msg("review queue full while restoring, remaining items stay in storage")

				break
			}

			w.logger.Warn().Err(err).Str(logFieldItemID, item.ID).Msg("skipping unrestorable review item")

			continue
		}

		restored++
	}

	observability.ReviewQueueDepth.Set(float64(w.queue.Size()))

	if restored > 0 {
		w.logger.Info().Int("restored", restored).Msg("review queue restored from storage")
	}

	return restored, nil
}

func (w *Workflow) transitioned(item domain.ReviewItem) {
	observability.ReviewTransitions.WithLabelValues(string(item.State)).Inc()
	observability.ReviewQueueDepth.Set(float64(w.queue.Size()))

	event := w.logger.Info().Str(logFieldItemID, item.ID).Str(logFieldState, string(item.State))
	if item.Reviewer != nil {
		event = event.Str(logFieldReviewer, item.Reviewer.ID)
	}

	event.Msg("review item transitioned")
}

func (w *Workflow) storageFailure(op, id string, err error) error {
	observability.ReviewStorageFailures.WithLabelValues(op).Inc()

	w.logger.Error().Err(err).Str(logFieldItemID, id).Str("operation", op).Msg("review storage failure")

	if errors.Is(err, errors.ErrStorage) {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}

	return fmt.Errorf("%s %s: %w", op, id, errors.Join(errors.ErrStorage, err))
}
