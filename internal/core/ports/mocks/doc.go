// Package mocks provides test doubles for ports interfaces.
//
// These mocks are designed to be simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior backed by an in-memory map
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for inspecting state directly
//
// # Usage Example
//
//	func TestWorkflow(t *testing.T) {
//		store := mocks.NewReviewStore()
//		store.SaveFn = func(context.Context, domain.ReviewItem) error { return errBoom }
//
//		wf := review.NewWorkflow(queue, store, nil)
//		// ... exercise the workflow
//	}
//
// # Available Mocks
//
//   - ReviewStore: implements ports.ReviewStore and ports.OpenLister
//   - CatalogStore: implements ports.CatalogStore
//   - Drafter: implements ports.Drafter
package mocks
