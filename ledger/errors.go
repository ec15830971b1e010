/*
errors.go - Centralized error kinds for the envelope ledger

PURPOSE:
  All business error kinds in one place. Store implementations translate
  backend failures (SQL errors, HTTP statuses) into these kinds at the
  boundary so the Coordinator's logic is identical regardless of backing
  store.

ERROR CATEGORIES:
  1. Validation - bad caller input, fail before any store write
  2. Funds      - allocation/spend exceeds available capacity
  3. Lifecycle  - deletion guards (pocket has budgets, budget has expenses)
  4. Transport  - auth/server failures from remote-backed stores

All business failures are synchronous, pre-mutation, and non-retryable.

SEE ALSO:
  - coordinator.go: the operations returning these errors
  - store/remote: HTTP status translation
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record does not exist.
	// A NotFound on any referenced entity aborts the operation before
	// any store write occurs.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for caller mistakes (empty name,
	// non-positive amount, ...). Wrap with InvalidInputError for detail.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientFunds is returned when an allocation exceeds the
	// pocket balance or an expense exceeds the budget's remaining
	// capacity.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrPocketHasBudgets guards pocket deletion.
	ErrPocketHasBudgets = errors.New("pocket has budgets")

	// ErrBudgetHasExpenses guards budget deletion.
	ErrBudgetHasExpenses = errors.New("budget has expenses")

	// ErrUnauthorized is surfaced by remote-backed stores when the
	// external auth layer rejects a call.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServerError is surfaced by remote-backed stores for 5xx
	// responses. Retries belong to the I/O layer, not the coordinator.
	ErrServerError = errors.New("server error")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError carries the reason a validation failed.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func invalidInput(reason string) error {
	return &InvalidInputError{Reason: reason}
}

// InsufficientFundsError reports how short the funds fell.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, requested %s, shortfall %s",
		e.Available, e.Requested, e.Shortfall())
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

func (e *InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

func insufficientFunds(available, requested decimal.Decimal) error {
	return &InsufficientFundsError{Available: available, Requested: requested}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError reports whether the error is the caller's fault and
// should map to a 4xx, never to a retry.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrNotFound) ||
		IsConflict(err)
}

// IsConflict reports whether the error is a lifecycle guard violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrPocketHasBudgets) ||
		errors.Is(err, ErrBudgetHasExpenses)
}
