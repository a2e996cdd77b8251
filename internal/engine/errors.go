package engine

import (
	"errors"
	"fmt"
)

// Error represents a failure local to a single seat or operation.
//
// One seat's error never aborts processing of other seats in the same
// cycle; each seat mutation is self-contained, so there is no rollback
// semantics to worry about.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// SeatID identifies the affected seat, when the error is seat-local.
	SeatID string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeUnknownSeat indicates an operation referenced a seat that is
	// not present in the registry.
	ErrCodeUnknownSeat ErrorCode = "UNKNOWN_SEAT"

	// ErrCodeInvalidState indicates a manual override supplied a value
	// outside the occupancy state enumeration.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"

	// ErrCodeBadConfig indicates a threshold or window configuration value
	// that is zero or negative where a positive duration is required.
	// Raised at startup; the engine refuses to initialize.
	ErrCodeBadConfig ErrorCode = "BAD_CONFIG"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.SeatID != "" {
		return fmt.Sprintf("%s: %s (seat=%s)", e.Code, e.Message, e.SeatID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownSeat reports whether err is an unknown-seat error.
// Uses errors.As to handle wrapped errors.
func IsUnknownSeat(err error) bool { return hasCode(err, ErrCodeUnknownSeat) }

// IsInvalidState reports whether err is an invalid-state error.
func IsInvalidState(err error) bool { return hasCode(err, ErrCodeInvalidState) }

// IsBadConfig reports whether err is a configuration error.
func IsBadConfig(err error) bool { return hasCode(err, ErrCodeBadConfig) }

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// NewUnknownSeatError creates an Error for a seat id missing from the
// registry. The registry is unaffected by the failed call.
func NewUnknownSeatError(seatID string) *Error {
	return &Error{
		Code:    ErrCodeUnknownSeat,
		Message: "seat is not registered",
		SeatID:  seatID,
	}
}

// NewInvalidStateError creates an Error for a state value outside the
// enumeration. No mutation occurs.
func NewInvalidStateError(seatID, state string) *Error {
	return &Error{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("invalid occupancy state %q", state),
		SeatID:  seatID,
	}
}

// NewConfigError creates an Error for an invalid configuration field.
func NewConfigError(field, reason string) *Error {
	return &Error{
		Code:    ErrCodeBadConfig,
		Message: fmt.Sprintf("%s: %s", field, reason),
	}
}
