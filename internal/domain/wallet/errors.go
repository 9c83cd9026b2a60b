package wallet

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrSettlementConflict = errors.New("wallet changed concurrently, re-fetch balances and retry")
	ErrLedgerMismatch     = errors.New("ledger does not replay to recorded balances")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrWithdrawalClosed   = errors.New("withdrawal is no longer pending")
	ErrCodeExpired        = errors.New("verification code expired, request a new one")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrTooManyAttempts    = errors.New("too many attempts, request a new code")
)

// InsufficientFundsError reports how much more is needed. It matches
// ErrInsufficientFunds with errors.Is.
type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Shortfall() int64 {
	return e.Required - e.Available
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: required %d, available %d, shortfall %d", e.Required, e.Available, e.Shortfall())
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
