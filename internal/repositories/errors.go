package repositories

import "errors"

// Common repository errors
var (
	// ErrDuplicateKey means the transaction (or one of its items) has
	// already been stored. Callers treat this as "already processed",
	// never as a retryable failure.
	ErrDuplicateKey = errors.New("duplicate key violation")

	// ErrStorage covers any other persistence fault. It is retryable
	// from the caller's point of view; no retry happens here.
	ErrStorage = errors.New("storage failure")
)
