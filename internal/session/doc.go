// Package session holds the per-run portal session state: the opaque token
// bundle, the step counter, the last raw response, and the final transaction
// id.
//
// Lifecycle: empty on New, populated once by Initialize, mutated per exchange
// through Update/Replace/RecordResponse, effectively read-only after the run
// completes or fails. All accessors fail with ErrUninitialized before
// Initialize.
package session
