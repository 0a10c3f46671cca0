package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, ttl, nil), mr
}

func item(id string, state domain.ApprovalState, enqueued time.Time) domain.ReviewItem {
	return domain.ReviewItem{
		ID:         id,
		State:      state,
		EnqueuedAt: enqueued,
		Candidate: domain.ResponseCandidate{
			ID:      id,
			Content: "Fair point.",
			Tweet:   domain.EnrichedTweet{RawTweet: domain.RawTweet{ID: "t-" + id}, DoubtRating: 6},
		},
	}
}

func TestStore_SaveGetDelete(t *testing.T) {
	s, _ := newTestStore(t, 0)
	ctx := context.Background()
	enqueued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Get(ctx, "a")
	require.ErrorIs(t, err, errors.ErrItemNotFound)

	want := item("a", domain.StateSubmitted, enqueued)
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"))

	_, err = s.Get(ctx, "a")
	require.ErrorIs(t, err, errors.ErrItemNotFound)
}

func TestStore_ListOpenInEnqueueOrder(t *testing.T) {
	s, _ := newTestStore(t, 0)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, item("late", domain.StateSubmitted, base.Add(time.Hour))))
	require.NoError(t, s.Save(ctx, item("early", domain.StateInReview, base)))
	require.NoError(t, s.Save(ctx, item("done", domain.StateApproved, base.Add(time.Minute))))

	open, err := s.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "early", open[0].ID)
	assert.Equal(t, "late", open[1].ID)

	// Deciding an item drops it from the open index.
	require.NoError(t, s.Save(ctx, item("early", domain.StateRejected, base)))

	open, err = s.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "late", open[0].ID)
}

func TestStore_ListOpenPrunesMissingDocuments(t *testing.T) {
	s, mr := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, item("a", domain.StateSubmitted, time.Now())))
	mr.Del(itemKey("a"))

	open, err := s.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	members, err := mr.ZMembers(openKey)
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestStore_DecidedItemsExpire(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, item("open", domain.StateSubmitted, time.Now())))
	require.NoError(t, s.Save(ctx, item("done", domain.StateApproved, time.Now())))

	assert.Equal(t, time.Duration(0), mr.TTL(itemKey("open")))
	assert.Equal(t, time.Hour, mr.TTL(itemKey("done")))

	mr.FastForward(2 * time.Hour)

	_, err := s.Get(ctx, "done")
	require.ErrorIs(t, err, errors.ErrItemNotFound)

	_, err = s.Get(ctx, "open")
	require.NoError(t, err)
}

func TestStore_ConnectionFailureIsStorageError(t *testing.T) {
	s, mr := newTestStore(t, 0)
	mr.Close()

	err := s.Save(context.Background(), item("a", domain.StateSubmitted, time.Now()))
	require.ErrorIs(t, err, errors.ErrStorage)

	_, err = s.Get(context.Background(), "a")
	require.ErrorIs(t, err, errors.ErrStorage)
}

func TestStore_SaveRequiresID(t *testing.T) {
	s, _ := newTestStore(t, 0)

	require.ErrorIs(t, s.Save(context.Background(), domain.ReviewItem{}), errors.ErrInvalidInput)
}
