package domain

import "errors"

// Domain errors returned by the public API; check with errors.Is.
var (
	// ErrInvalidValue is returned when an edit carries malformed, negative
	// or non-numeric input. The cell state is unchanged.
	ErrInvalidValue = errors.New("gridsave: invalid value")

	// ErrInvalidTransition is returned when a confirm action is not legal
	// from the cell's current state. No state change occurs.
	ErrInvalidTransition = errors.New("gridsave: invalid transition")

	// ErrInvalidChange is returned when a change is recorded with an empty
	// entity id or no field updates.
	ErrInvalidChange = errors.New("gridsave: invalid change")

	// ErrFlushFailed is returned when the batched upsert call fails.
	// The pending set is retained for retry.
	ErrFlushFailed = errors.New("gridsave: flush failed")

	// ErrValidationUnavailable is returned when the validation call itself
	// fails. The cell keeps its current state: unknown, not invalid.
	ErrValidationUnavailable = errors.New("gridsave: validation unavailable")

	// ErrSessionClosed is returned when an operation is attempted on a
	// closed session.
	ErrSessionClosed = errors.New("gridsave: session closed")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("gridsave: invalid configuration")
)
