package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
)

func TestReviewItemDocumentRoundTrip(t *testing.T) {
	claimed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	item := domain.ReviewItem{
		ID:         "r1",
		State:      domain.StateInReview,
		EnqueuedAt: claimed.Add(-time.Minute),
		ClaimedAt:  &claimed,
		Reviewer:   &domain.Reviewer{ID: "u1", Name: "Ada"},
		Candidate: domain.ResponseCandidate{
			ID:      "r1",
			Content: "Fair point.",
			Tweet: domain.EnrichedTweet{
				RawTweet:       domain.RawTweet{ID: "t1", Text: "doubt it", Hashtags: []string{"ai"}},
				DoubtRating:    7,
				MentionedTools: []domain.ToolRef{{ID: "copilot", Name: "Copilot"}},
			},
		},
	}

	doc, err := encodeReviewItem(item)
	require.NoError(t, err)

	got, err := decodeReviewItem(doc)
	require.NoError(t, err)
	assert.Equal(t, item, got)
}

func TestEncodeReviewItem_RequiresID(t *testing.T) {
	_, err := encodeReviewItem(domain.ReviewItem{})
	require.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestDecodeReviewItem_CorruptDocumentIsStorageError(t *testing.T) {
	_, err := decodeReviewItem([]byte("{not json"))
	require.ErrorIs(t, err, errors.ErrStorage)
}

func TestApplyPoolOptions_SkipsZeroValues(t *testing.T) {
	cfg, err := parseTestConfig()
	require.NoError(t, err)

	before := cfg.MaxConns

	applyPoolOptions(cfg, PoolOptions{MinConns: 3})
	assert.Equal(t, before, cfg.MaxConns)
	assert.Equal(t, int32(3), cfg.MinConns)
}
