// Package apperr defines the error kinds shared across the journal core.
// Repository and service code wraps these sentinels with context via
// fmt.Errorf("...: %w", ...); the response layer dispatches on them with
// errors.Is to pick an HTTP status.
package apperr

import "errors"

var (
	// ErrDuplicateName signals a unique-constraint violation on a
	// name-scoped entity (account name, or strategy/instrument/tag name
	// within an account).
	ErrDuplicateName = errors.New("name already exists")

	// ErrNotFound signals that an operation referenced a nonexistent id.
	ErrNotFound = errors.New("record not found")

	// ErrValidation signals invalid input: a missing required field, an
	// unparsable numeric value, or entry price equal to stop loss.
	ErrValidation = errors.New("validation failed")

	// ErrInvariant signals a relational rule violation, e.g. a second tag
	// instance on a definition that does not allow multiples.
	ErrInvariant = errors.New("invariant violation")

	// ErrPersistence signals that the store failed to load or save.
	// At startup this is fatal; mid-session it leaves in-memory state
	// ahead of durable state, which callers must treat as unrecoverable.
	ErrPersistence = errors.New("persistence failure")
)
