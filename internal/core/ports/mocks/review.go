package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
)

// ReviewStore is a thread-safe in-memory implementation of ports.ReviewStore.
type ReviewStore struct {
	mu    sync.RWMutex
	items map[string]domain.ReviewItem
	saves int

	// GetFn allows overriding Get behavior.
	GetFn func(ctx context.Context, id string) (domain.ReviewItem, error)

	// SaveFn allows overriding Save behavior. Returning nil still stores the item.
	SaveFn func(ctx context.Context, item domain.ReviewItem) error

	// DeleteFn allows overriding Delete behavior.
	DeleteFn func(ctx context.Context, id string) error
}

// NewReviewStore creates a new mock review store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{items: make(map[string]domain.ReviewItem)}
}

// Get returns the stored item or errors.ErrItemNotFound.
func (s *ReviewStore) Get(ctx context.Context, id string) (domain.ReviewItem, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return domain.ReviewItem{}, errors.ErrItemNotFound
	}

	return item.Clone(), nil
}

// Save stores the item.
func (s *ReviewStore) Save(ctx context.Context, item domain.ReviewItem) error {
	if s.SaveFn != nil {
		if err := s.SaveFn(ctx, item); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = item.Clone()
	s.saves++

	return nil
}

// Delete removes the item. Unknown ids are ignored.
func (s *ReviewStore) Delete(ctx context.Context, id string) error {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)

	return nil
}

// ListOpen returns stored items in a queued state, oldest first.
func (s *ReviewStore) ListOpen(_ context.Context) ([]domain.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ReviewItem, 0)

	for _, item := range s.items {
		if item.State.Queued() {
			out = append(out, item.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EnqueuedAt.Before(out[j].EnqueuedAt) })

	return out, nil
}

// Item returns the stored item for assertions.
func (s *ReviewStore) Item(id string) (domain.ReviewItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]

	return item.Clone(), ok
}

// Len returns the number of stored items.
func (s *ReviewStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Saves returns the number of successful saves.
func (s *ReviewStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.saves
}
