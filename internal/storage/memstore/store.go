// Package memstore is a process-local review store for development and single-replica runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
)

type Store struct {
	mu    sync.RWMutex
	items map[string]domain.ReviewItem
}

func New() *Store {
	return &Store{items: make(map[string]domain.ReviewItem)}
}

func (s *Store) Get(_ context.Context, id string) (domain.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return domain.ReviewItem{}, fmt.Errorf("get review %s: %w", id, errors.ErrItemNotFound)
	}

	return item.Clone(), nil
}

func (s *Store) Save(_ context.Context, item domain.ReviewItem) error {
	if item.ID == "" {
		return fmt.Errorf("%w: review item id is required", errors.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = item.Clone()

	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)

	return nil
}

// ListOpen returns submitted and in-review items, oldest first.
func (s *Store) ListOpen(_ context.Context) ([]domain.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []domain.ReviewItem

	for _, item := range s.items {
		if item.State.Queued() {
			open = append(open, item.Clone())
		}
	}

	sort.Slice(open, func(i, j int) bool {
		return open[i].EnqueuedAt.Before(open[j].EnqueuedAt)
	})

	return open, nil
}

// Ping implements observability.Pinger.
func (s *Store) Ping(context.Context) error { return nil }
