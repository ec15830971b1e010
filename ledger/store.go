/*
store.go - Persistence interfaces for the three entity collections

PURPOSE:
  Defines the contract between the Coordinator and the storage backend.
  Stores are deliberately dumb CRUD collections: no cross-entity
  knowledge, no invariant enforcement. The Coordinator composes them
  into safe transactions.

CONTRACT:
  - Get/Update/Delete fail with ErrNotFound when the record is absent.
  - Add generates the ID and timestamps when unset and returns the
    stored record.
  - AdjustBalance/AdjustSpent perform value += delta atomically with
    respect to other operations on the same record. They do NOT check
    signs or capacity - that is coordinator business.
  - List results are ordered by creation time for stable output.

IMPLEMENTATIONS:
  - ledger/store (memory): map-backed, for tests and dev
  - store/sqlite: file-backed
  - store/remote: HTTP+JSON clients against a storage service

SEE ALSO:
  - coordinator.go: the only caller that composes multiple stores
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POCKET STORE
// =============================================================================

type PocketStore interface {
	Get(ctx context.Context, id PocketID) (Pocket, error)
	List(ctx context.Context) ([]Pocket, error)
	Add(ctx context.Context, p Pocket) (Pocket, error)
	Update(ctx context.Context, p Pocket) error
	Delete(ctx context.Context, id PocketID) error

	// AdjustBalance applies balance += delta. Atomic per record.
	AdjustBalance(ctx context.Context, id PocketID, delta decimal.Decimal) error
}

// =============================================================================
// BUDGET STORE
// =============================================================================

type BudgetStore interface {
	Get(ctx context.Context, id BudgetID) (Budget, error)
	List(ctx context.Context) ([]Budget, error)
	ListByPocket(ctx context.Context, pocketID PocketID) ([]Budget, error)
	ListByPeriod(ctx context.Context, period string) ([]Budget, error)
	Add(ctx context.Context, b Budget) (Budget, error)
	Update(ctx context.Context, b Budget) error
	Delete(ctx context.Context, id BudgetID) error

	// AdjustSpent applies spentAmount += delta. Atomic per record.
	AdjustSpent(ctx context.Context, id BudgetID, delta decimal.Decimal) error
}

// =============================================================================
// EXPENSE STORE
// =============================================================================

type ExpenseStore interface {
	Get(ctx context.Context, id ExpenseID) (Expense, error)
	List(ctx context.Context) ([]Expense, error)
	ListByBudget(ctx context.Context, budgetID BudgetID) ([]Expense, error)
	ListByDateRange(ctx context.Context, from, to Date) ([]Expense, error)
	Add(ctx context.Context, e Expense) (Expense, error)
	Update(ctx context.Context, e Expense) error
	Delete(ctx context.Context, id ExpenseID) error
}

// =============================================================================
// RULE STORE
// =============================================================================

type RuleStore interface {
	Get(ctx context.Context, id RuleID) (Rule, error)
	List(ctx context.Context) ([]Rule, error)
	ListByBudget(ctx context.Context, budgetID BudgetID) ([]Rule, error)
	ListActive(ctx context.Context) ([]Rule, error)
	Add(ctx context.Context, r Rule) (Rule, error)
	Update(ctx context.Context, r Rule) error
	Delete(ctx context.Context, id RuleID) error

	// DeleteByBudget removes all rules for a budget. Used when the
	// budget itself is deleted; rules carry no funds so no guard.
	DeleteByBudget(ctx context.Context, budgetID BudgetID) error
}
