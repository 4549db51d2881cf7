package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrCabinNotFound and ErrReservationNotFound name the missing resource.
// Both match ErrNotFound with errors.Is.
var (
	ErrCabinNotFound       = fmt.Errorf("cabin %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
)

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing guest identity, guests below one).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidDateRange is returned when check-out is not after check-in, or
// when a new booking starts in the past.
var ErrInvalidDateRange = errors.New("invalid date range")

// ErrDateConflict is returned when the requested stay overlaps an active
// reservation on the same cabin. The concrete error is usually *ConflictError.
var ErrDateConflict = errors.New("cabin not available for the selected dates")

// ErrCapacityExceeded is returned when the party is larger than the cabin.
var ErrCapacityExceeded = errors.New("guests exceed cabin capacity")

// Payment validation failures.
var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrOverpayment    = errors.New("amount paid exceeds total price")
)

// ErrInvalidTransition is returned for a status change the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrForbidden is returned when a guest acts on a reservation they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrStorageUnavailable wraps connection-level storage failures. Callers may
// retry these; they must never retry validation failures without new input.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ConflictError reports which reservation blocks a requested stay.
// BlockedBy is uuid.Nil when the conflict was detected by the database
// constraint rather than by the availability check.
type ConflictError struct {
	BlockedBy uuid.UUID
}

func (e *ConflictError) Error() string {
	if e.BlockedBy == uuid.Nil {
		return ErrDateConflict.Error()
	}
	return fmt.Sprintf("%s: blocked by reservation %s", ErrDateConflict, e.BlockedBy)
}

// Is makes errors.Is(err, ErrDateConflict) true for any *ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrDateConflict
}
