package catalog

import "errors"

// Domain errors returned to callers of the ticker and quote operations
var (
	ErrNotFound      = errors.New("value not found")
	ErrAlreadyExists = errors.New("value already exists")
	ErrInUse         = errors.New("value is referenced by other records")

	// ErrRetryLimitExceeded means the transaction kept conflicting until the
	// attempt budget ran out. The caller may try again later.
	ErrRetryLimitExceeded = errors.New("database request limit reached")

	// ErrStorageFailure wraps any store error that is not a conflict
	ErrStorageFailure = errors.New("database error")
)

// Store classification errors.
// Record store adapters wrap every error they return in exactly one of these.
// Neither escapes the retry engine.
var (
	ErrConflict     = errors.New("transaction conflict")
	ErrStoreFailure = errors.New("store failure")
)

// Validation errors
var (
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidFullName    = errors.New("invalid full name")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrInvalidPrice       = errors.New("invalid price")
)

// IsDomainError reports whether err is a deterministic business outcome
// that retrying against fresh data cannot change
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrInUse)
}
