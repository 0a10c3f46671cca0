package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/ports"
)

// ReviewStore persists review items in the review_items table.
type ReviewStore struct {
	db *DB
}

var (
	_ ports.ReviewStore = (*ReviewStore)(nil)
	_ ports.OpenLister  = (*ReviewStore)(nil)
)

// NewReviewStore creates a store over db.
func NewReviewStore(db *DB) *ReviewStore {
	return &ReviewStore{db: db}
}

// Get loads the review item with id.
func (s *ReviewStore) Get(ctx context.Context, id string) (domain.ReviewItem, error) {
	var doc []byte

	err := s.db.Pool.QueryRow(ctx, `
		SELECT document FROM review_items WHERE id = $1
	`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ReviewItem{}, fmt.Errorf("get review item %s: %w", id, errors.ErrItemNotFound)
		}

		return domain.ReviewItem{}, storageError("get review item", err)
	}

	return decodeReviewItem(doc)
}

// Save upserts the review item.
func (s *ReviewStore) Save(ctx context.Context, item domain.ReviewItem) error {
	doc, err := encodeReviewItem(item)
	if err != nil {
		return err
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO review_items (id, state, tweet_id, enqueued_at, document)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			document = EXCLUDED.document,
			updated_at = NOW()
	`, item.ID, string(item.State), item.Candidate.Tweet.ID, item.EnqueuedAt, doc)
	if err != nil {
		return storageError("save review item", err)
	}

	return nil
}

// Delete removes the review item. Unknown ids are ignored.
func (s *ReviewStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM review_items WHERE id = $1`, id); err != nil {
		return storageError("delete review item", err)
	}

	return nil
}

// ListOpen returns submitted and in_review items, oldest first.
func (s *ReviewStore) ListOpen(ctx context.Context) ([]domain.ReviewItem, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT document
		FROM review_items
		WHERE state = ANY($1)
		ORDER BY enqueued_at, id
	`, []string{string(domain.StateSubmitted), string(domain.StateInReview)})
	if err != nil {
		return nil, storageError("query open review items", err)
	}
	defer rows.Close()

	items := make([]domain.ReviewItem, 0)

	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, storageError("scan open review item", err)
		}

		item, err := decodeReviewItem(doc)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("iterate open review items", err)
	}

	return items, nil
}

func encodeReviewItem(item domain.ReviewItem) ([]byte, error) {
	if item.ID == "" {
		return nil, fmt.Errorf("%w: review item without id", errors.ErrInvalidInput)
	}

	doc, err := json.Marshal(item)
	if err != nil {
		return nil, storageError("encode review item", err)
	}

	return doc, nil
}

func decodeReviewItem(doc []byte) (domain.ReviewItem, error) {
	var item domain.ReviewItem
	if err := json.Unmarshal(doc, &item); err != nil {
		return domain.ReviewItem{}, storageError("decode review item", err)
	}

	return item, nil
}
