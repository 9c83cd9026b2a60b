package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("not_found")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrConcurrentUpdate        = errors.New("booking was modified concurrently, re-fetch and retry")
	ErrGuardViolation          = errors.New("guard violation")
)

// Guard failures. Each matches ErrGuardViolation.
var (
	ErrAlreadyPaid       = fmt.Errorf("%w: booking is already paid", ErrGuardViolation)
	ErrNotPayable        = fmt.Errorf("%w: booking cannot be paid in its current status", ErrGuardViolation)
	ErrDepositRequired   = fmt.Errorf("%w: deposit has not been received", ErrGuardViolation)
	ErrNotConfirmed      = fmt.Errorf("%w: booking is not confirmed", ErrGuardViolation)
	ErrNotCheckedIn      = fmt.Errorf("%w: guest has not checked in", ErrGuardViolation)
	ErrAlreadyCheckedIn  = fmt.Errorf("%w: guest has already checked in", ErrGuardViolation)
	ErrAlreadyCheckedOut = fmt.Errorf("%w: guest has already checked out", ErrGuardViolation)
	ErrCancelNotAllowed  = fmt.Errorf("%w: booking can only be cancelled by an administrator now", ErrGuardViolation)
	ErrProofNotAccepted  = fmt.Errorf("%w: deposit proof applies to bank transfer bookings only", ErrGuardViolation)
)

// ValidationError lists the offending form fields. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Fields: map[string]string{field: reason}}
}
