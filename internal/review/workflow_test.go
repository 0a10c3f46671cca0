package review

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/ports/mocks"
)

var testReviewer = domain.Reviewer{ID: "rev-1", Name: "Ada"}

type workflowFixture struct {
	wf    *Workflow
	queue *Queue
	store *mocks.ReviewStore
	clock *fakeClock
}

func newWorkflowFixture(t *testing.T, capacity int) workflowFixture {
	t.Helper()

	clock := newFakeClock()
	q, err := NewQueue(capacity, WithQueueClock(clock.Now))
	require.NoError(t, err)

	store := mocks.NewReviewStore()
	seq := 0
	wf := NewWorkflow(q, store, nil, WithClock(clock.Now), WithIDFunc(func() string {
		seq++

		return fmt.Sprintf("gen-%d", seq)
	}))

	return workflowFixture{wf: wf, queue: q, store: store, clock: clock}
}

func candidate(id string) domain.ResponseCandidate {
	return domain.ResponseCandidate{
		ID:      id,
		Content: "Have you tried pairing it with tests?",
		Tweet:   domain.EnrichedTweet{RawTweet: domain.RawTweet{ID: "tweet-" + id}},
	}
}

func (f workflowFixture) submitAndClaim(t *testing.T, id string) domain.ReviewItem {
	t.Helper()

	ok, err := f.wf.Submit(context.Background(), candidate(id))
	require.NoError(t, err)
	require.True(t, ok)

	item, ok, err := f.wf.ClaimNext(context.Background(), &testReviewer)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id, item.ID)

	return item
}

func failingSaves(store *mocks.ReviewStore) {
	store.SaveFn = func(context.Context, domain.ReviewItem) error { return mocks.ErrMockFailure }
}

func TestWorkflow_SubmitPersistsAndQueues(t *testing.T) {
	f := newWorkflowFixture(t, 2)

	ok, err := f.wf.Submit(context.Background(), candidate("a"))
	require.NoError(t, err)
	assert.True(t, ok)

	stored, found := f.store.Item("a")
	require.True(t, found)
	assert.Equal(t, domain.StateSubmitted, stored.State)
	assert.Equal(t, 1, f.queue.Size())
}

func TestWorkflow_SubmitGeneratesID(t *testing.T) {
	f := newWorkflowFixture(t, 2)

	ok, err := f.wf.Submit(context.Background(), candidate(""))
	require.NoError(t, err)
	require.True(t, ok)

	item, found := f.queue.Get("gen-1")
	require.True(t, found)
	assert.Equal(t, "gen-1", item.Candidate.ID)
	assert.Equal(t, f.clock.Now(), item.Candidate.CreatedAt)
}

func TestWorkflow_SubmitQueueFullIsBackpressure(t *testing.T) {
	f := newWorkflowFixture(t, 1)

	ok, err := f.wf.Submit(context.Background(), candidate("a"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.wf.Submit(context.Background(), candidate("b"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, f.queue.Size())
	assert.Equal(t, 1, f.store.Len())
}

func TestWorkflow_SubmitDuplicate(t *testing.T) {
	f := newWorkflowFixture(t, 3)

	_, err := f.wf.Submit(context.Background(), candidate("a"))
	require.NoError(t, err)

	ok, err := f.wf.Submit(context.Background(), candidate("a"))
	require.ErrorIs(t, err, errors.ErrDuplicateItem)
	assert.False(t, ok)
	assert.Equal(t, 1, f.queue.Size())
}

func TestWorkflow_SubmitStorageFailureLeavesQueueEmpty(t *testing.T) {
	f := newWorkflowFixture(t, 1)
	failingSaves(f.store)

	ok, err := f.wf.Submit(context.Background(), candidate("a"))
	require.ErrorIs(t, err, errors.ErrStorage)
	require.ErrorIs(t, err, mocks.ErrMockFailure)
	assert.False(t, ok)
	assert.Equal(t, 0, f.queue.Size())
}

func TestWorkflow_ClaimNext(t *testing.T) {
	f := newWorkflowFixture(t, 2)

	_, ok, err := f.wf.ClaimNext(context.Background(), &testReviewer)
	require.NoError(t, err)
	assert.False(t, ok, "empty queue is not an error")

	item := f.submitAndClaim(t, "a")
	assert.Equal(t, domain.StateInReview, item.State)
	require.NotNil(t, item.Reviewer)
	assert.Equal(t, testReviewer.ID, item.Reviewer.ID)

	stored, _ := f.store.Item("a")
	assert.Equal(t, domain.StateInReview, stored.State)
}

func TestWorkflow_ClaimStorageFailureReleasesItem(t *testing.T) {
	f := newWorkflowFixture(t, 2)

	_, err := f.wf.Submit(context.Background(), candidate("a"))
	require.NoError(t, err)

	failingSaves(f.store)

	_, ok, err := f.wf.ClaimNext(context.Background(), &testReviewer)
	require.ErrorIs(t, err, errors.ErrStorage)
	assert.False(t, ok)

	queued, _ := f.queue.Get("a")
	assert.Equal(t, domain.StateSubmitted, queued.State)
	assert.Nil(t, queued.ClaimedAt)
	assert.Nil(t, queued.Reviewer)

	f.store.SaveFn = nil

	item, ok, err := f.wf.ClaimNext(context.Background(), &testReviewer)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", item.ID)
}

func TestWorkflow_Decisions(t *testing.T) {
	tests := []struct {
		name   string
		decide func(f workflowFixture, id string) (domain.ReviewItem, error)
		state  domain.ApprovalState
		check  func(t *testing.T, item domain.ReviewItem)
	}{
		{
			name: "approve",
			decide: func(f workflowFixture, id string) (domain.ReviewItem, error) {
				return f.wf.Approve(context.Background(), id, testReviewer, "ship it")
			},
			state: domain.StateApproved,
			check: func(t *testing.T, item domain.ReviewItem) {
				assert.Equal(t, "ship it", item.Comments)
			},
		},
		{
			name: "reject",
			decide: func(f workflowFixture, id string) (domain.ReviewItem, error) {
				return f.wf.Reject(context.Background(), id, testReviewer, "no", "too snarky")
			},
			state: domain.StateRejected,
			check: func(t *testing.T, item domain.ReviewItem) {
				assert.Equal(t, "no", item.Comments)
				assert.Equal(t, "too snarky", item.Feedback)
			},
		},
		{
			name: "request revision",
			decide: func(f workflowFixture, id string) (domain.ReviewItem, error) {
				return f.wf.RequestRevision(context.Background(), id, testReviewer, "cite a source")
			},
			state: domain.StateRevisionRequested,
			check: func(t *testing.T, item domain.ReviewItem) {
				assert.Equal(t, "cite a source", item.RevisionInstructions)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkflowFixture(t, 2)
			f.submitAndClaim(t, "a")
			f.clock.Advance(time.Minute)

			item, err := tt.decide(f, "a")
			require.NoError(t, err)
			assert.Equal(t, tt.state, item.State)
			require.NotNil(t, item.DecidedAt)
			assert.Equal(t, f.clock.Now(), *item.DecidedAt)
			tt.check(t, item)

			assert.Equal(t, 0, f.queue.Size())

			stored, found := f.store.Item("a")
			require.True(t, found)
			assert.Equal(t, tt.state, stored.State)
			tt.check(t, stored)

			_, err = tt.decide(f, "a")
			require.ErrorIs(t, err, errors.ErrInvalidTransition, "decided items cannot be decided again")
		})
	}
}

func TestWorkflow_DecisionRequiresInReview(t *testing.T) {
	f := newWorkflowFixture(t, 2)

	_, err := f.wf.Submit(context.Background(), candidate("a"))
	require.NoError(t, err)

	saves := f.store.Saves()

	_, err = f.wf.Approve(context.Background(), "a", testReviewer, "")
	require.ErrorIs(t, err, errors.ErrInvalidTransition)

	_, err = f.wf.Reject(context.Background(), "missing", testReviewer, "", "")
	require.ErrorIs(t, err, errors.ErrInvalidTransition)

	queued, _ := f.queue.Get("a")
	assert.Equal(t, domain.StateSubmitted, queued.State)
	assert.Equal(t, saves, f.store.Saves(), "storage untouched")
}

func TestWorkflow_DecisionStorageFailureKeepsItemInReview(t *testing.T) {
	f := newWorkflowFixture(t, 2)
	f.submitAndClaim(t, "a")

	failingSaves(f.store)

	_, err := f.wf.Approve(context.Background(), "a", testReviewer, "ok")
	require.ErrorIs(t, err, errors.ErrStorage)

	queued, found := f.queue.Get("a")
	require.True(t, found)
	assert.Equal(t, domain.StateInReview, queued.State)
	assert.Empty(t, queued.Comments)

	stored, _ := f.store.Item("a")
	assert.Equal(t, domain.StateInReview, stored.State)

	f.store.SaveFn = nil

	item, err := f.wf.Approve(context.Background(), "a", testReviewer, "ok")
	require.NoError(t, err, "a failed decision is retryable")
	assert.Equal(t, domain.StateApproved, item.State)
}

func TestWorkflow_EvictStalePersistsAbandoned(t *testing.T) {
	f := newWorkflowFixture(t, 3)
	f.submitAndClaim(t, "a")

	f.clock.Advance(time.Hour)

	n, err := f.wf.EvictStale(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, f.queue.Size())

	stored, found := f.store.Item("a")
	require.True(t, found)
	assert.Equal(t, domain.StateAbandoned, stored.State)

	n, err = f.wf.EvictStale(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, ok, err := f.wf.ClaimNext(context.Background(), &testReviewer)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWorkflow_EvictStaleStorageFailureKeepsItem(t *testing.T) {
	f := newWorkflowFixture(t, 3)
	f.submitAndClaim(t, "a")
	f.clock.Advance(time.Hour)

	failingSaves(f.store)

	n, err := f.wf.EvictStale(context.Background(), 30*time.Minute)
	require.ErrorIs(t, err, errors.ErrStorage)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, f.queue.Size())

	f.store.SaveFn = nil

	n, err = f.wf.EvictStale(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWorkflow_Withdraw(t *testing.T) {
	f := newWorkflowFixture(t, 3)

	_, err := f.wf.Submit(context.Background(), candidate("a"))
	require.NoError(t, err)

	f.store.DeleteFn = func(context.Context, string) error { return mocks.ErrMockFailure }
	require.ErrorIs(t, f.wf.Withdraw(context.Background(), "a"), errors.ErrStorage)
	assert.Equal(t, 1, f.queue.Size())

	f.store.DeleteFn = nil
	require.NoError(t, f.wf.Withdraw(context.Background(), "a"))
	assert.Equal(t, 0, f.queue.Size())
	assert.Equal(t, 0, f.store.Len())

	require.NoError(t, f.wf.Withdraw(context.Background(), "a"), "withdrawing twice is a no-op")
}

func TestWorkflow_Get(t *testing.T) {
	f := newWorkflowFixture(t, 3)
	f.submitAndClaim(t, "a")

	item, err := f.wf.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StateInReview, item.State)

	_, err = f.wf.Approve(context.Background(), "a", testReviewer, "ok")
	require.NoError(t, err)

	item, err = f.wf.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StateApproved, item.State)

	_, err = f.wf.Get(context.Background(), "missing")
	require.ErrorIs(t, err, errors.ErrItemNotFound)
}

func TestWorkflow_Restore(t *testing.T) {
	f := newWorkflowFixture(t, 2)
	base := f.clock.Now()

	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, domain.ReviewItem{ID: "x", State: domain.StateSubmitted, EnqueuedAt: base.Add(time.Minute)}))
	require.NoError(t, f.store.Save(ctx, domain.ReviewItem{ID: "y", State: domain.StateInReview, EnqueuedAt: base}))
	require.NoError(t, f.store.Save(ctx, domain.ReviewItem{ID: "z", State: domain.StateSubmitted, EnqueuedAt: base.Add(2 * time.Minute)}))
	require.NoError(t, f.store.Save(ctx, domain.ReviewItem{ID: "done", State: domain.StateRejected, EnqueuedAt: base}))

	n, err := f.wf.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "restore stops at capacity")

	ids := []string{}
	for _, item := range f.queue.Items() {
		ids = append(ids, item.ID)
	}

	assert.Equal(t, []string{"y", "x"}, ids)
}

func TestWorkflow_SubmitNotClaimableUntilPersisted(t *testing.T) {
	f := newWorkflowFixture(t, 2)

	saving := make(chan struct{})
	proceed := make(chan struct{})
	f.store.SaveFn = func(_ context.Context, item domain.ReviewItem) error {
		if item.State == domain.StateSubmitted {
			close(saving)
			<-proceed
		}

		return nil
	}

	done := make(chan error, 1)

	go func() {
		_, err := f.wf.Submit(context.Background(), candidate("a"))
		done <- err
	}()

	<-saving

	_, ok := f.queue.Next()
	assert.False(t, ok, "item must not be claimable before its first save")

	close(proceed)
	require.NoError(t, <-done)

	item, ok := f.queue.Next()
	require.True(t, ok)
	assert.Equal(t, "a", item.ID)
}
