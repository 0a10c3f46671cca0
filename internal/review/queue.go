// Package review holds response candidates awaiting human approval.
//
// The Queue is a bounded FIFO of review items. The Workflow drives queued items through
// submitted -> in_review -> approved | rejected | revision_requested and keeps the queue and
// the persisted review store consistent: a transition either lands in both or in neither.
package review

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/lueurxax/code-skeptic-scanner/internal/core/domain"
	"github.com/lueurxax/code-skeptic-scanner/internal/core/errors"
)

// DefaultMaxQueueSize is the queue capacity used when none is configured.
const DefaultMaxQueueSize = 100

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithQueueClock overrides the clock used to stamp enqueue and claim times.
func WithQueueClock(now func() time.Time) QueueOption {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

type slot struct {
	item domain.ReviewItem

	// busy is set while a persisted transition for the item is in flight.
	// Busy items cannot be claimed, decided, withdrawn or evicted.
	busy bool
}

// Queue is a bounded, strictly FIFO review queue. All operations are serialized.
type Queue struct {
	mu       sync.Mutex
	order    *list.List // of *slot, oldest first
	index    map[string]*list.Element
	capacity int
	now      func() time.Time
}

// NewQueue creates a queue holding at most capacity items.
func NewQueue(capacity int, opts ...QueueOption) (*Queue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: queue capacity must be positive, got %d", errors.ErrInvalidInput, capacity)
	}

	q := &Queue{
		order:    list.New(),
		index:    make(map[string]*list.Element),
		capacity: capacity,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(q)
	}

	return q, nil
}

// Add appends item in state submitted, stamped with the current time.
// It returns errors.ErrQueueFull when the queue is at capacity and errors.ErrDuplicateItem
// when an item with the same id is already queued. Refused items leave the queue untouched.
func (q *Queue) Add(item domain.ReviewItem) (domain.ReviewItem, error) {
	return q.add(item, false)
}

// add queues item; with hold set it cannot be claimed until settle is called.
func (q *Queue) add(item domain.ReviewItem, hold bool) (domain.ReviewItem, error) {
	if item.ID == "" {
		return domain.ReviewItem{}, fmt.Errorf("%w: review item without id", errors.ErrInvalidInput)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.order.Len() >= q.capacity {
		return domain.ReviewItem{}, errors.ErrQueueFull
	}

	if _, ok := q.index[item.ID]; ok {
		return domain.ReviewItem{}, fmt.Errorf("%w: %s", errors.ErrDuplicateItem, item.ID)
	}

	item = item.Clone()
	item.State = domain.StateSubmitted
	item.EnqueuedAt = q.now()
	item.ClaimedAt = nil
	item.DecidedAt = nil

	q.index[item.ID] = q.order.PushBack(&slot{item: item, busy: hold})

	return item.Clone(), nil
}

// Next claims the oldest submitted item, moving it to in_review.
// It returns false when no submitted item is queued.
func (q *Queue) Next() (domain.ReviewItem, bool) {
	return q.claim(nil, false)
}

// Remove drops the item regardless of state. Unknown ids are ignored.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(id)
}

// Size returns the number of queued items, submitted or in review.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.order.Len()
}

// Capacity returns the maximum number of queued items.
func (q *Queue) Capacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.capacity
}

// SetCapacity changes the maximum queue size. Shrinking below the current size keeps the
// queued items and refuses new ones until the queue drains below the new limit.
func (q *Queue) SetCapacity(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("%w: queue capacity must be positive, got %d", errors.ErrInvalidInput, capacity)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.capacity = capacity

	return nil
}

// evictStale removes every in_review item claimed more than maxAge ago and returns them
// without persisting anything; Workflow.EvictStale is the path that records them abandoned.
// Each stale item is returned exactly once.
func (q *Queue) evictStale(maxAge time.Duration) []domain.ReviewItem {
	stale := q.holdStale(maxAge)

	for _, item := range stale {
		q.finish(item.ID, true)
	}

	return stale
}

// Get returns a copy of the queued item.
func (q *Queue) Get(id string) (domain.ReviewItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	el, ok := q.index[id]
	if !ok {
		return domain.ReviewItem{}, false
	}

	return el.Value.(*slot).item.Clone(), true
}

// Items returns copies of all queued items, oldest first.
func (q *Queue) Items() []domain.ReviewItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.ReviewItem, 0, q.order.Len())
	for el := q.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*slot).item.Clone())
	}

	return out
}

// Restore inserts a previously persisted queued item, keeping its state and timestamps.
// Items are placed by enqueue time so FIFO order survives a restart.
func (q *Queue) Restore(item domain.ReviewItem) error {
	if item.ID == "" {
		return fmt.Errorf("%w: review item without id", errors.ErrInvalidInput)
	}

	if !item.State.Queued() {
		return fmt.Errorf("%w: cannot queue item %s in state %s", errors.ErrInvalidTransition, item.ID, item.State)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.order.Len() >= q.capacity {
		return errors.ErrQueueFull
	}

	if _, ok := q.index[item.ID]; ok {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateItem, item.ID)
	}

	s := &slot{item: item.Clone()}

	for el := q.order.Back(); el != nil; el = el.Prev() {
		if !el.Value.(*slot).item.EnqueuedAt.After(item.EnqueuedAt) {
			q.index[item.ID] = q.order.InsertAfter(s, el)

			return nil
		}
	}

	q.index[item.ID] = q.order.PushFront(s)

	return nil
}

// claim moves the oldest submitted item to in_review. With hold set the item stays busy
// until settle or release is called.
func (q *Queue) claim(reviewer *domain.Reviewer, hold bool) (domain.ReviewItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for el := q.order.Front(); el != nil; el = el.Next() {
		s := el.Value.(*slot)
		if s.item.State != domain.StateSubmitted || s.busy {
			continue
		}

		now := q.now()
		s.item.State = domain.StateInReview
		s.item.ClaimedAt = &now

		if reviewer != nil {
			rv := *reviewer
			s.item.Reviewer = &rv
		}

		s.busy = hold

		return s.item.Clone(), true
	}

	return domain.ReviewItem{}, false
}

// settle clears the busy flag of a held claim.
func (q *Queue) settle(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if el, ok := q.index[id]; ok {
		el.Value.(*slot).busy = false
	}
}

// release reverts a held claim back to submitted in its original position.
func (q *Queue) release(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	el, ok := q.index[id]
	if !ok {
		return
	}

	s := el.Value.(*slot)
	s.item.State = domain.StateSubmitted
	s.item.ClaimedAt = nil
	s.item.Reviewer = nil
	s.busy = false
}

// begin marks an in_review item busy for a decision and returns a copy of it.
func (q *Queue) begin(id string) (domain.ReviewItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	el, ok := q.index[id]
	if !ok {
		return domain.ReviewItem{}, fmt.Errorf("%w: item %s is not queued", errors.ErrInvalidTransition, id)
	}

	s := el.Value.(*slot)

	if s.item.State != domain.StateInReview {
		return domain.ReviewItem{}, fmt.Errorf("%w: item %s is %s, not %s",
			errors.ErrInvalidTransition, id, s.item.State, domain.StateInReview)
	}

	if s.busy {
		return domain.ReviewItem{}, fmt.Errorf("%w: item %s has a transition in flight", errors.ErrInvalidTransition, id)
	}

	s.busy = true

	return s.item.Clone(), nil
}

// hold marks any idle queued item busy, whatever its state.
func (q *Queue) hold(id string) (domain.ReviewItem, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	el, ok := q.index[id]
	if !ok {
		return domain.ReviewItem{}, false, nil
	}

	s := el.Value.(*slot)
	if s.busy {
		return domain.ReviewItem{}, true, fmt.Errorf("%w: item %s has a transition in flight", errors.ErrInvalidTransition, id)
	}

	s.busy = true

	return s.item.Clone(), true, nil
}

// holdStale marks idle in_review items claimed more than maxAge ago busy and returns them.
func (q *Queue) holdStale(maxAge time.Duration) []domain.ReviewItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	stale := make([]domain.ReviewItem, 0)

	for el := q.order.Front(); el != nil; el = el.Next() {
		s := el.Value.(*slot)
		if s.busy || s.item.State != domain.StateInReview || s.item.ClaimedAt == nil {
			continue
		}

		if now.Sub(*s.item.ClaimedAt) > maxAge {
			s.busy = true
			stale = append(stale, s.item.Clone())
		}
	}

	return stale
}

// finish ends a busy transition: committed transitions remove the item, others leave it
// in place unchanged.
func (q *Queue) finish(id string, committed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if committed {
		q.removeLocked(id)

		return
	}

	if el, ok := q.index[id]; ok {
		el.Value.(*slot).busy = false
	}
}

func (q *Queue) removeLocked(id string) {
	el, ok := q.index[id]
	if !ok {
		return
	}

	q.order.Remove(el)
	delete(q.index, id)
}
