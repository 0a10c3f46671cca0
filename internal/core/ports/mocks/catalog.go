package mocks

import (
	"context"
	"sync"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
)

// CatalogStore is a thread-safe in-memory implementation of ports.CatalogStore.
type CatalogStore struct {
	mu      sync.RWMutex
	entries []domain.ToolCatalogEntry
	loads   int

	// LoadFn allows overriding LoadToolCatalog behavior.
	LoadFn func(ctx context.Context) ([]domain.ToolCatalogEntry, error)
}

// NewCatalogStore creates a catalog store seeded with entries.
func NewCatalogStore(entries ...domain.ToolCatalogEntry) *CatalogStore {
	return &CatalogStore{entries: entries}
}

// LoadToolCatalog returns the current entries.
func (c *CatalogStore) LoadToolCatalog(ctx context.Context) ([]domain.ToolCatalogEntry, error) {
	c.mu.Lock()
	c.loads++
	c.mu.Unlock()

	if c.LoadFn != nil {
		return c.LoadFn(ctx)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.ToolCatalogEntry, len(c.entries))
	copy(out, c.entries)

	return out, nil
}

// Set replaces the stored entries.
func (c *CatalogStore) Set(entries ...domain.ToolCatalogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = entries
}

// Loads returns how many times the catalog was loaded.
func (c *CatalogStore) Loads() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.loads
}
