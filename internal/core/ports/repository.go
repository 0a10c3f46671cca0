// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
)

// ReviewStore is the persisted document store for review items, keyed by item id.
// Implementations return errors.ErrItemNotFound from Get for unknown ids and wrap
// every other failure with errors.ErrStorage.
type ReviewStore interface {
	Get(ctx context.Context, id string) (domain.ReviewItem, error)
	Save(ctx context.Context, item domain.ReviewItem) error
	Delete(ctx context.Context, id string) error
}

// OpenLister is implemented by review stores that can list items still owned by the queue.
// It is used to rebuild the in-memory queue after a restart.
type OpenLister interface {
	ListOpen(ctx context.Context) ([]domain.ReviewItem, error)
}

// CatalogStore supplies the tool catalog on startup and on explicit refresh.
type CatalogStore interface {
	LoadToolCatalog(ctx context.Context) ([]domain.ToolCatalogEntry, error)
}

// Drafter writes the text of a response candidate for an enriched tweet.
type Drafter interface {
	Draft(ctx context.Context, tweet domain.EnrichedTweet) (string, error)
}
