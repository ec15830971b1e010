/*
expense.go - Expense operations

Recording an expense debits its budget's remaining capacity; deleting
one credits the amount back. The uncategorized escape valve (a budget
with zero allocation) accepts any amount, so unplanned spending never
needs a pre-allocated envelope.
*/
package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// READS
// =============================================================================

func (c *Coordinator) Expenses(ctx context.Context) ([]Expense, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expenses.List(ctx)
}

func (c *Coordinator) Expense(ctx context.Context, id ExpenseID) (Expense, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expenses.Get(ctx, id)
}

func (c *Coordinator) ExpensesByBudget(ctx context.Context, budgetID BudgetID) ([]Expense, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expenses.ListByBudget(ctx, budgetID)
}

func (c *Coordinator) ExpensesByDateRange(ctx context.Context, from, to Date) ([]Expense, error) {
	if from.After(to) {
		return nil, invalidInput("date range end before start")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expenses.ListByDateRange(ctx, from, to)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateExpense records spending against a budget. A zero date means
// today.
func (c *Coordinator) CreateExpense(ctx context.Context, budgetID BudgetID, amount decimal.Decimal, description string, date Date) (Expense, error) {
	if !amount.IsPositive() {
		return Expense{}, invalidInput("amount must be greater than 0")
	}
	if strings.TrimSpace(description) == "" {
		return Expense{}, invalidInput("description cannot be empty")
	}
	if date.IsZero() {
		date = Today()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	budget, err := c.budgets.Get(ctx, budgetID)
	if err != nil {
		return Expense{}, err
	}
	// The uncategorized budget has no cap; everything else must have
	// the capacity left.
	if !budget.Uncategorized() && budget.RemainingAmount().LessThan(amount) {
		return Expense{}, insufficientFunds(budget.RemainingAmount(), amount)
	}

	expense, err := c.expenses.Add(ctx, Expense{
		BudgetID:    budgetID,
		Amount:      amount,
		Description: description,
		Date:        date,
	})
	if err != nil {
		return Expense{}, err
	}

	if err := c.budgets.AdjustSpent(ctx, budgetID, amount); err != nil {
		return Expense{}, err
	}
	return expense, nil
}

// UpdateExpense applies the non-nil fields. Three cases, in priority
// order: budget reassignment moves the full new amount between budgets;
// an amount change on the same budget applies the difference; anything
// else has no ledger side effect.
func (c *Coordinator) UpdateExpense(ctx context.Context, id ExpenseID, budgetID *BudgetID, amount *decimal.Decimal, description *string, date *Date) (Expense, error) {
	if amount != nil && !amount.IsPositive() {
		return Expense{}, invalidInput("amount must be greater than 0")
	}
	if description != nil && strings.TrimSpace(*description) == "" {
		return Expense{}, invalidInput("description cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expense, err := c.expenses.Get(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	oldAmount := expense.Amount
	oldBudgetID := expense.BudgetID

	if budgetID != nil {
		expense.BudgetID = *budgetID
	}
	if amount != nil {
		expense.Amount = *amount
	}
	if description != nil {
		expense.Description = *description
	}
	if date != nil {
		expense.Date = *date
	}

	switch {
	case expense.BudgetID != oldBudgetID:
		newBudget, err := c.budgets.Get(ctx, expense.BudgetID)
		if err != nil {
			return Expense{}, err
		}
		if !newBudget.Uncategorized() && newBudget.RemainingAmount().LessThan(expense.Amount) {
			return Expense{}, insufficientFunds(newBudget.RemainingAmount(), expense.Amount)
		}
		if err := c.budgets.AdjustSpent(ctx, oldBudgetID, oldAmount.Neg()); err != nil {
			return Expense{}, err
		}
		if err := c.budgets.AdjustSpent(ctx, expense.BudgetID, expense.Amount); err != nil {
			return Expense{}, err
		}

	case !expense.Amount.Equal(oldAmount):
		diff := expense.Amount.Sub(oldAmount)
		budget, err := c.budgets.Get(ctx, expense.BudgetID)
		if err != nil {
			return Expense{}, err
		}
		if diff.IsPositive() && !budget.Uncategorized() && budget.RemainingAmount().LessThan(diff) {
			return Expense{}, insufficientFunds(budget.RemainingAmount(), diff)
		}
		if err := c.budgets.AdjustSpent(ctx, expense.BudgetID, diff); err != nil {
			return Expense{}, err
		}
	}

	// Persist the updated expense last in all cases.
	if err := c.expenses.Update(ctx, expense); err != nil {
		return Expense{}, err
	}
	return expense, nil
}

// DeleteExpense removes the record and credits its amount back to the
// budget's spent total.
func (c *Coordinator) DeleteExpense(ctx context.Context, id ExpenseID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expense, err := c.expenses.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := c.budgets.AdjustSpent(ctx, expense.BudgetID, expense.Amount.Neg()); err != nil {
		return err
	}
	return c.expenses.Delete(ctx, id)
}
