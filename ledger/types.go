/*
Package ledger implements the envelope budgeting core.

PURPOSE:
  Money sits in Pockets (cash/bank sources), is allocated into Budgets
  (spending envelopes) for a period, and is consumed by Expenses recorded
  against a Budget. This package owns the accounting logic that keeps the
  three entities mutually consistent: every allocation is funded, every
  expense fits inside its budget's remaining capacity, and every deletion
  returns unspent money to its source.

KEY CONCEPTS IN THIS FILE (types.go):
  - Pocket/Budget/Expense/Rule: the entity records
  - Date: a day-granularity calendar date (expense dates)
  - Typed IDs: prevent mixing pocket/budget/expense identifiers
  - Summary: per-period aggregate view

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all monetary amounts
  2. Type Safety: strong ID types
  3. Dumb stores: entities carry no behavior beyond derived values;
     all cross-entity logic lives in the Coordinator

SEE ALSO:
  - coordinator.go: the multi-store transaction logic
  - store.go: persistence interfaces
  - errors.go: business error kinds
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PocketID string
type BudgetID string
type ExpenseID string
type RuleID string

// =============================================================================
// MONEY HELPERS
// =============================================================================

// Money builds a decimal amount from a float. Test and seed convenience;
// production inputs arrive as decimals parsed from the wire.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// MustParseMoney parses a decimal string, panicking on malformed input.
func MustParseMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("parse money %q: %v", s, err))
	}
	return d
}

// =============================================================================
// DATE - Day-granularity calendar date
// =============================================================================

// Date is a calendar day in UTC. Expense dates have day granularity;
// comparing two Dates never depends on wall-clock time components.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                  { return d.t.IsZero() }
func (d Date) AddDays(n int) Date            { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Time() time.Time               { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// =============================================================================
// POCKET - Source of funds
// =============================================================================

type Pocket struct {
	ID          PocketID
	Name        string
	Description string
	Balance     decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// =============================================================================
// BUDGET - Spending envelope for a period
// =============================================================================

type Budget struct {
	ID              BudgetID
	Name            string
	Description     string
	PocketID        PocketID
	AllocatedAmount decimal.Decimal
	SpentAmount     decimal.Decimal
	Period          string // opaque grouping key, typically "2006-01"
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RemainingAmount is the unspent capacity of the envelope.
func (b Budget) RemainingAmount() decimal.Decimal {
	return b.AllocatedAmount.Sub(b.SpentAmount)
}

// Uncategorized reports whether this budget is the escape valve for
// unplanned spending: zero allocation, exempt from the spent<=allocated
// cap.
func (b Budget) Uncategorized() bool {
	return b.AllocatedAmount.IsZero()
}

// =============================================================================
// EXPENSE - Spend transaction against a budget
// =============================================================================

type Expense struct {
	ID          ExpenseID
	BudgetID    BudgetID
	Amount      decimal.Decimal
	Description string
	Date        Date
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// =============================================================================
// RULE - Keyword auto-categorization
// =============================================================================

// Rule maps comma-separated keywords to a budget. Higher priority rules
// match first. Rules are advisory: they never move money by themselves.
type Rule struct {
	ID        RuleID
	BudgetID  BudgetID
	Keywords  string
	Priority  int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// SUMMARY - Per-period aggregate view
// =============================================================================

type Summary struct {
	Period           string
	TotalAllocated   decimal.Decimal
	TotalSpent       decimal.Decimal
	TotalRemaining   decimal.Decimal
	UnallocatedFunds decimal.Decimal
}
