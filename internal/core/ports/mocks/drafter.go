package mocks

import (
	"context"
	"sync"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
)

// Drafter is a thread-safe implementation of ports.Drafter that returns fixed text.
type Drafter struct {
	mu    sync.Mutex
	text  string
	calls int

	// DraftFn allows overriding Draft behavior.
	DraftFn func(ctx context.Context, tweet domain.EnrichedTweet) (string, error)
}

// NewDrafter creates a drafter that always answers with text.
func NewDrafter(text string) *Drafter {
	return &Drafter{text: text}
}

// Draft returns the configured text.
func (d *Drafter) Draft(ctx context.Context, tweet domain.EnrichedTweet) (string, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	if d.DraftFn != nil {
		return d.DraftFn(ctx, tweet)
	}

	return d.text, nil
}

// Calls returns the number of Draft calls.
func (d *Drafter) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.calls
}
