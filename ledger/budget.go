/*
budget.go - Budget (envelope) operations

Allocating a budget debits its pocket by exactly the allocated amount;
deleting one credits the pocket with the unspent remainder. Allocation
edits re-debit or credit the pocket for the delta. Every path validates
before the first write so a failed operation leaves no trace.
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

func (c *Coordinator) Budgets(ctx context.Context) ([]Budget, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.budgets.List(ctx)
}

func (c *Coordinator) Budget(ctx context.Context, id BudgetID) (Budget, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.budgets.Get(ctx, id)
}

func (c *Coordinator) BudgetsByPocket(ctx context.Context, pocketID PocketID) ([]Budget, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.budgets.ListByPocket(ctx, pocketID)
}

func (c *Coordinator) BudgetsByPeriod(ctx context.Context, period string) ([]Budget, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.budgets.ListByPeriod(ctx, period)
}

// RemainingBudget returns allocated - spent for a single budget.
func (c *Coordinator) RemainingBudget(ctx context.Context, id BudgetID) (decimal.Decimal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	budget, err := c.budgets.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return budget.RemainingAmount(), nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateBudget allocates funds from a pocket into a new envelope.
// A zero allocation creates an uncategorized escape-valve budget.
func (c *Coordinator) CreateBudget(ctx context.Context, name, description string, pocketID PocketID, allocatedAmount decimal.Decimal, period string) (Budget, error) {
	if strings.TrimSpace(name) == "" {
		return Budget{}, invalidInput("name cannot be empty")
	}
	if strings.TrimSpace(period) == "" {
		return Budget{}, invalidInput("period cannot be empty")
	}
	if allocatedAmount.IsNegative() {
		return Budget{}, invalidInput("allocated amount must be non-negative")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pocket, err := c.pockets.Get(ctx, pocketID)
	if err != nil {
		return Budget{}, err
	}
	if pocket.Balance.LessThan(allocatedAmount) {
		return Budget{}, insufficientFunds(pocket.Balance, allocatedAmount)
	}

	budget, err := c.budgets.Add(ctx, Budget{
		Name:            name,
		Description:     description,
		PocketID:        pocketID,
		AllocatedAmount: allocatedAmount,
		SpentAmount:     decimal.Zero,
		Period:          period,
	})
	if err != nil {
		return Budget{}, err
	}

	if !allocatedAmount.IsZero() {
		if err := c.pockets.AdjustBalance(ctx, pocketID, allocatedAmount.Neg()); err != nil {
			return Budget{}, err
		}
	}
	return budget, nil
}

// UpdateBudget applies the non-nil fields. Raising the allocation
// requires pocket funds for the difference; lowering it returns the
// difference to the pocket. The allocation can never drop below what
// has already been spent (except down to zero, which converts the
// budget into the escape valve).
func (c *Coordinator) UpdateBudget(ctx context.Context, id BudgetID, name, description *string, allocatedAmount *decimal.Decimal) (Budget, error) {
	if name != nil && strings.TrimSpace(*name) == "" {
		return Budget{}, invalidInput("name cannot be empty")
	}
	if allocatedAmount != nil && allocatedAmount.IsNegative() {
		return Budget{}, invalidInput("allocated amount must be non-negative")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	budget, err := c.budgets.Get(ctx, id)
	if err != nil {
		return Budget{}, err
	}

	if name != nil {
		budget.Name = *name
	}
	if description != nil {
		budget.Description = *description
	}

	if allocatedAmount != nil {
		newAmount := *allocatedAmount
		if !newAmount.IsZero() && newAmount.LessThan(budget.SpentAmount) {
			return Budget{}, invalidInput("allocated amount cannot drop below spent amount")
		}

		diff := newAmount.Sub(budget.AllocatedAmount)
		if diff.IsPositive() {
			pocket, err := c.pockets.Get(ctx, budget.PocketID)
			if err != nil {
				return Budget{}, err
			}
			if pocket.Balance.LessThan(diff) {
				return Budget{}, insufficientFunds(pocket.Balance, diff)
			}
		}
		if !diff.IsZero() {
			if err := c.pockets.AdjustBalance(ctx, budget.PocketID, diff.Neg()); err != nil {
				return Budget{}, err
			}
		}
		budget.AllocatedAmount = newAmount
	}

	// Persist the updated budget last.
	if err := c.budgets.Update(ctx, budget); err != nil {
		return Budget{}, err
	}
	return c.budgets.Get(ctx, id)
}

// DeleteBudget removes a budget that owns no expenses, returning the
// unspent remainder to its pocket. Categorization rules pointing at the
// budget are removed with it.
func (c *Coordinator) DeleteBudget(ctx context.Context, id BudgetID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	budget, err := c.budgets.Get(ctx, id)
	if err != nil {
		return err
	}

	expenses, err := c.expenses.ListByBudget(ctx, id)
	if err != nil {
		return err
	}
	if len(expenses) > 0 {
		return ErrBudgetHasExpenses
	}

	unspent := budget.RemainingAmount()
	if unspent.IsPositive() {
		if err := c.pockets.AdjustBalance(ctx, budget.PocketID, unspent); err != nil {
			return err
		}
	}

	if err := c.rules.DeleteByBudget(ctx, id); err != nil {
		return err
	}
	return c.budgets.Delete(ctx, id)
}
