/*
pocket.go - Pocket operations

Pockets are the sources of funds. They are created with an initial
balance, grow via AddFunds, shrink when budgets are allocated against
them, and can only be deleted once they own no budgets.
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

func (c *Coordinator) Pockets(ctx context.Context) ([]Pocket, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pockets.List(ctx)
}

func (c *Coordinator) Pocket(ctx context.Context, id PocketID) (Pocket, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pockets.Get(ctx, id)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreatePocket inserts a new source of funds. The initial balance may
// be any signed amount (an overdrawn account is a valid source).
func (c *Coordinator) CreatePocket(ctx context.Context, name, description string, initialBalance decimal.Decimal) (Pocket, error) {
	if strings.TrimSpace(name) == "" {
		return Pocket{}, invalidInput("name cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pockets.Add(ctx, Pocket{
		Name:        name,
		Description: description,
		Balance:     initialBalance,
	})
}

// UpdatePocket applies the non-nil fields. A balance edit is a deposit
// correction: it changes the total ever deposited, not the allocation
// of existing budgets.
func (c *Coordinator) UpdatePocket(ctx context.Context, id PocketID, name, description *string, balance *decimal.Decimal) (Pocket, error) {
	if name != nil && strings.TrimSpace(*name) == "" {
		return Pocket{}, invalidInput("name cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pocket, err := c.pockets.Get(ctx, id)
	if err != nil {
		return Pocket{}, err
	}

	if name != nil {
		pocket.Name = *name
	}
	if description != nil {
		pocket.Description = *description
	}
	if balance != nil {
		pocket.Balance = *balance
	}

	if err := c.pockets.Update(ctx, pocket); err != nil {
		return Pocket{}, err
	}
	return c.pockets.Get(ctx, id)
}

// AddFunds deposits a positive amount into the pocket.
func (c *Coordinator) AddFunds(ctx context.Context, id PocketID, amount decimal.Decimal) (Pocket, error) {
	if !amount.IsPositive() {
		return Pocket{}, invalidInput("amount must be greater than 0")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Existence check first: NotFound must abort before any write.
	if _, err := c.pockets.Get(ctx, id); err != nil {
		return Pocket{}, err
	}
	if err := c.pockets.AdjustBalance(ctx, id, amount); err != nil {
		return Pocket{}, err
	}
	return c.pockets.Get(ctx, id)
}

// DeletePocket removes a pocket that owns no budgets.
func (c *Coordinator) DeletePocket(ctx context.Context, id PocketID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.pockets.Get(ctx, id); err != nil {
		return err
	}

	budgets, err := c.budgets.ListByPocket(ctx, id)
	if err != nil {
		return err
	}
	if len(budgets) > 0 {
		return ErrPocketHasBudgets
	}

	return c.pockets.Delete(ctx, id)
}
