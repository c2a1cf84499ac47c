package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrContentNotFound indicates the content store has no bytes for an ID.
	// Fatal to the single operation; the index is left untouched.
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidQuery indicates an empty query or non-positive top-k.
	// Rejected before any embedding call is made.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates a vector length disagrees with the
	// store's fixed dimension. Fatal configuration error; the write is
	// rejected and the store is not modified.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrAuthFailed indicates the embedding provider rejected our
	// credentials. Never retried.
	ErrAuthFailed = errors.New("embedding authentication failed")

	// ErrRateLimited indicates the embedding provider throttled the request.
	// Retried with backoff up to the attempt cap.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient indicates a temporary provider or network failure.
	// Retried with backoff up to the attempt cap.
	ErrTransient = errors.New("transient embedding failure")

	// ErrStoreCorruption indicates a persisted record failed to deserialize.
	// Reported per identifier; other records stay readable.
	ErrStoreCorruption = errors.New("store corruption")
)

// EmbeddingExhaustedError is returned when a retryable embedding failure
// persists past the attempt cap. It carries enough context for the caller to
// decide between skipping the chunk and aborting the content item.
type EmbeddingExhaustedError struct {
	// Attempts is the number of calls made before giving up.
	Attempts int

	// LastErr is the error from the final attempt.
	LastErr error
}

// Error implements the error interface.
func (e *EmbeddingExhaustedError) Error() string {
	return fmt.Sprintf("embedding failed after %d attempts: %v", e.Attempts, e.LastErr)
}

// Unwrap exposes the final attempt's error for errors.Is checks.
func (e *EmbeddingExhaustedError) Unwrap() error {
	return e.LastErr
}

// IsRetryable reports whether an embedding failure should be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}
