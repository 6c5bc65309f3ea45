package domain

import (
	"errors"
	"time"
)

var (
	// Activation protocol taxonomy
	ErrNotFound     = errors.New("activation code not found")
	ErrAlreadyUsed  = errors.New("activation code already used")
	ErrDisabled     = errors.New("activation code disabled")
	ErrConflict     = errors.New("activation code conflict")
	ErrUnavailable  = errors.New("activation store unavailable")
	ErrInvalidInput = errors.New("invalid input")

	// Storage-level signals, translated by the use case.
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrVersionConflict    = errors.New("version mismatch")
	ErrInvalidExecContext = errors.New("invalid exec context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	ErrUnauthorized = errors.New("unauthorized")
)

// RejectionError describes why a claim was refused, carrying enough of the
// current record for user-facing messaging. It unwraps to ErrAlreadyUsed or
// ErrDisabled.
type RejectionError struct {
	Err          error
	UsedAt       *time.Time
	MaskedDevice string
}

func (e *RejectionError) Error() string { return e.Err.Error() }

func (e *RejectionError) Unwrap() error { return e.Err }

// Reason returns the stable wire name of an error in the taxonomy.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrAlreadyUsed):
		return "ALREADY_USED"
	case errors.Is(err, ErrDisabled):
		return "DISABLED"
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyExists):
		return "CONFLICT"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	default:
		return "UNAVAILABLE"
	}
}
