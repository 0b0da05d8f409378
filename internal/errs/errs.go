// Package errs contains sentinel errors shared by the repository, storage, service and HTTP layers.
// Lower layers wrap them with fmt.Errorf("%w: ...") and the HTTP layer maps them once.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates missing or malformed input. Raised before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the referenced document, version or share does not exist
	// (or is not visible to the caller).
	ErrNotFound = errors.New("not found")

	// ErrNotCommitted indicates a document that has no committed version yet.
	ErrNotCommitted = errors.New("document has no committed version")

	// ErrPersistence indicates the relational store is unavailable or rejected the operation.
	ErrPersistence = errors.New("persistence failure")

	// ErrConflict indicates a transaction conflict. It is also an ErrPersistence, so callers
	// that only care about the taxonomy see a retryable persistence failure.
	ErrConflict = fmt.Errorf("%w: transaction conflict", ErrPersistence)

	// ErrStorage indicates an object-storage call failed.
	ErrStorage = errors.New("storage failure")

	// ErrObjectNotFound indicates the object does not exist at the given key.
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnauthorized indicates a missing or invalid principal.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrShareExpired indicates a share link past its expiry.
	ErrShareExpired = errors.New("share expired")
)

// Validation builds an ErrValidation carrying a caller-safe reason.
func Validation(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}
