package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrGuardViolation     = errors.New("operation not allowed in current state")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrSettlementConflict = errors.New("settlement conflict, re-fetch balances and retry")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("not authenticated")
	ErrForbidden          = errors.New("access denied")

	ErrInFlight    = errors.New("action already in progress")
	ErrStale       = errors.New("response discarded after navigation")
	ErrCodeExpired = errors.New("verification code expired, request a new one")
)

// APIError is a failed {success:false,error:{...}} response.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Code == "VALIDATION_ERROR"
	case ErrGuardViolation:
		return e.Code == "GUARD_VIOLATION" || e.Code == "INVALID_STATUS_TRANSITION"
	case ErrInsufficientFunds:
		return e.Code == "INSUFFICIENT_FUNDS"
	case ErrSettlementConflict:
		return e.Code == "SETTLEMENT_CONFLICT"
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

// Fields returns the per-field validation reasons, if any.
func (e *APIError) Fields() map[string]string {
	out := map[string]string{}
	for k, v := range e.Details {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func (e *APIError) amount(key string) int64 {
	if f, ok := e.Details[key].(float64); ok {
		return int64(f)
	}
	return 0
}

// Retryable is true only for settlement conflicts, after a re-fetch.
func Retryable(err error) bool {
	return errors.Is(err, ErrSettlementConflict)
}

// TransportError means the request outcome is unknown. Money-moving calls
// reconcile by re-reading state instead of re-submitting.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FormError is a locally caught validation failure; nothing was sent.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("invalid booking form: %v", e.Fields)
}

func (e *FormError) Is(target error) bool { return target == ErrValidation }
