// Package errors provides centralized error definitions for the application.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
//   - Storage adapters join ErrStorage with the driver error so callers never import drivers
package errors

import "errors"

// Pipeline outcomes.
var (
	// ErrRejectedByFilter marks a tweet that did not qualify for enrichment.
	// It is a normal outcome, reported through pipeline results rather than returned.
	ErrRejectedByFilter = errors.New("rejected by filter")
)

// Review queue and workflow errors.
var (
	// ErrQueueFull indicates the review queue is at capacity. Callers drop or retry later.
	ErrQueueFull = errors.New("review queue is full")

	// ErrDuplicateItem indicates an item with the same id is already queued.
	ErrDuplicateItem = errors.New("review item already queued")

	// ErrInvalidTransition indicates a decision on an item that is not in review.
	ErrInvalidTransition = errors.New("invalid review state transition")
)

// Storage errors.
var (
	// ErrStorage indicates the persisted storage collaborator failed.
	ErrStorage = errors.New("storage failure")

	// ErrItemNotFound indicates the requested review item does not exist in storage.
	ErrItemNotFound = errors.New("review item not found")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

// Client errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join is a convenience wrapper around errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
