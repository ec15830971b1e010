/*
summary.go - Per-period aggregate view

Pure read: totals over every budget of the period plus the unallocated
funds across all pockets. Runs under the read lock so it always sees a
fully applied ledger state.
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Summary aggregates the period's budgets and the pockets' free funds.
func (c *Coordinator) Summary(ctx context.Context, period string) (Summary, error) {
	if period == "" {
		period = CurrentPeriod()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		budgets []Budget
		pockets []Pocket
	)

	// The two lists are independent reads; fetch them concurrently.
	// Under the read lock no writer can interleave, so this is still a
	// consistent snapshot.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = c.budgets.ListByPeriod(gctx, period)
		return err
	})
	g.Go(func() error {
		var err error
		pockets, err = c.pockets.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	totalAllocated := decimal.Zero
	totalSpent := decimal.Zero
	for _, b := range budgets {
		totalAllocated = totalAllocated.Add(b.AllocatedAmount)
		totalSpent = totalSpent.Add(b.SpentAmount)
	}

	unallocated := decimal.Zero
	for _, p := range pockets {
		unallocated = unallocated.Add(p.Balance)
	}

	return Summary{
		Period:           period,
		TotalAllocated:   totalAllocated,
		TotalSpent:       totalSpent,
		TotalRemaining:   totalAllocated.Sub(totalSpent),
		UnallocatedFunds: unallocated,
	}, nil
}
