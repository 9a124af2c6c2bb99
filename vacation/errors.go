/*
errors.go - Centralized error types for the vacation engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Every failure in this package is operation-scoped and synchronous:
  nothing is retried internally and no failure leaves ledger state changed.

ERROR KINDS:
  InvalidValue        - a field violates a stated constraint at registration
  NotFound            - a referenced record is missing or soft-deleted
  InsufficientBalance - usage allocation could not be fully satisfied
  IllegalState        - an action attempted out of sequence or on a terminal row
  DuplicateName       - policy name collision at registration

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, vacation.ErrInsufficientBalance) { ... }

    var iv *vacation.InvalidValueError
    if errors.As(err, &iv) { log(iv.Field) }
*/
package vacation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidValue is returned when a policy/grant/usage field violates a
	// constraint. Always raised before any persistence.
	ErrInvalidValue = errors.New("invalid value")

	// ErrNotFound is returned when a referenced record does not exist or is
	// already soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientBalance is returned when a usage request cannot be fully
	// covered by eligible grants. The whole allocation attempt is discarded.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrIllegalState is returned for actions attempted out of sequence, on a
	// terminal approval row, or by the wrong actor.
	ErrIllegalState = errors.New("illegal state")

	// ErrDuplicateName is returned on a policy name collision.
	ErrDuplicateName = errors.New("duplicate policy name")

	// ErrGrantInUse is returned when revoking a grant that usages still draw
	// on. A kind of illegal state; errors.Is(err, ErrIllegalState) also holds.
	ErrGrantInUse = fmt.Errorf("grant in use: %w", ErrIllegalState)
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidValueError names the offending field.
type InvalidValueError struct {
	Field  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }

// NotFoundError identifies what was missing.
type NotFoundError struct {
	Kind string // "policy", "grant", "usage", "request", "approval", "enrollment"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientBalanceError details a balance shortage.
type InsufficientBalanceError struct {
	UserID       string
	VacationType string
	Available    Amount
	Requested    Amount
	Shortfall    Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s/%s: available %v, requested %v, shortfall %v",
		e.UserID, e.VacationType, e.Available, e.Requested, e.Shortfall)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// IllegalStateError explains why the action was refused.
type IllegalStateError struct {
	Op     string
	Reason string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *IllegalStateError) Unwrap() error { return ErrIllegalState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input or a
// state the caller can observe and correct.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrIllegalState) ||
		errors.Is(err, ErrDuplicateName)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
