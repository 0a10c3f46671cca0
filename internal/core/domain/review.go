package domain

import "time"

// ApprovalState is the lifecycle state of a review item.
type ApprovalState string

const (
	StateSubmitted         ApprovalState = "submitted"
	StateInReview          ApprovalState = "in_review"
	StateApproved          ApprovalState = "approved"
	StateRejected          ApprovalState = "rejected"
	StateRevisionRequested ApprovalState = "revision_requested"

	// StateAbandoned marks a stored item that was evicted after sitting in review too long.
	// The queue never holds items in this state.
	StateAbandoned ApprovalState = "abandoned"
)

// Queued reports whether items in this state are owned by the review queue.
func (s ApprovalState) Queued() bool {
	return s == StateSubmitted || s == StateInReview
}

// Decided reports whether the workflow instance has finished.
func (s ApprovalState) Decided() bool {
	switch s {
	case StateApproved, StateRejected, StateRevisionRequested, StateAbandoned:
		return true
	default:
		return false
	}
}

// Reviewer is the human who claimed or decided an item.
type Reviewer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResponseCandidate is a drafted reply to an enriched tweet awaiting approval.
type ResponseCandidate struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Tweet     EnrichedTweet `json:"tweet"`
	CreatedAt time.Time     `json:"created_at"`
}

// ReviewItem wraps a response candidate while it moves through human review.
type ReviewItem struct {
	ID                   string            `json:"id"`
	Candidate            ResponseCandidate `json:"candidate"`
	State                ApprovalState     `json:"state"`
	EnqueuedAt           time.Time         `json:"enqueued_at"`
	ClaimedAt            *time.Time        `json:"claimed_at,omitempty"`
	DecidedAt            *time.Time        `json:"decided_at,omitempty"`
	Reviewer             *Reviewer         `json:"reviewer,omitempty"`
	Comments             string            `json:"comments,omitempty"`
	Feedback             string            `json:"feedback,omitempty"`
	RevisionInstructions string            `json:"revision_instructions,omitempty"`
}

// Clone returns a copy that shares no pointers with the receiver.
func (r ReviewItem) Clone() ReviewItem {
	out := r

	if r.ClaimedAt != nil {
		t := *r.ClaimedAt
		out.ClaimedAt = &t
	}

	if r.DecidedAt != nil {
		t := *r.DecidedAt
		out.DecidedAt = &t
	}

	if r.Reviewer != nil {
		rv := *r.Reviewer
		out.Reviewer = &rv
	}

	return out
}
