/*
seed.go - Demo data for testing and demonstrations

PURPOSE:

	Populates the ledger with a realistic month of envelope budgeting:
	two pockets, several budgets including the uncategorized escape
	valve, a handful of expenses, and categorization rules.

HOW SEEDING WORKS:
 1. Reset the store (clear all data)
 2. Create pockets via the coordinator
 3. Allocate budgets for the current period
 4. Record expenses
 5. Create categorization rules

USAGE VIA API:

	POST /api/seed
	POST /api/reset

NOTE:

	Seeding resets the database. Only wired in development/demo
	deployments (the routes exist only when a Resetter is configured).

SEE ALSO:
  - server.go: conditional route registration
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/envelope-engine/ledger"
)

// SeedDemo wipes the store and loads the demo ledger.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Resetter.Reset(ctx); err != nil {
		respondError(w, err)
		return
	}
	if err := h.loadDemoLedger(ctx); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "seeded"})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Resetter.Reset(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) loadDemoLedger(ctx context.Context) error {
	c := h.Coordinator
	period := ledger.CurrentPeriod()

	checking, err := c.CreatePocket(ctx, "Checking", "Everyday account", ledger.Money(2500))
	if err != nil {
		return fmt.Errorf("seed checking pocket: %w", err)
	}
	savings, err := c.CreatePocket(ctx, "Savings", "Emergency fund", ledger.Money(5000))
	if err != nil {
		return fmt.Errorf("seed savings pocket: %w", err)
	}

	groceries, err := c.CreateBudget(ctx, "Groceries", "Food and household", checking.ID, ledger.Money(600), period)
	if err != nil {
		return fmt.Errorf("seed groceries budget: %w", err)
	}
	transport, err := c.CreateBudget(ctx, "Transport", "Fuel and transit", checking.ID, ledger.Money(200), period)
	if err != nil {
		return fmt.Errorf("seed transport budget: %w", err)
	}
	if _, err := c.CreateBudget(ctx, "Vacation", "Summer trip", savings.ID, ledger.Money(1200), period); err != nil {
		return fmt.Errorf("seed vacation budget: %w", err)
	}
	uncategorized, err := c.CreateBudget(ctx, "Uncategorized", "Unplanned spending", checking.ID, ledger.Money(0), period)
	if err != nil {
		return fmt.Errorf("seed uncategorized budget: %w", err)
	}

	expenses := []struct {
		budget      ledger.BudgetID
		amount      float64
		description string
		daysAgo     int
	}{
		{groceries.ID, 84.20, "Weekly shop at the market", 6},
		{groceries.ID, 12.50, "Bakery", 3},
		{transport.ID, 55.00, "Fuel", 5},
		{uncategorized.ID, 39.99, "Birthday gift", 2},
	}
	for _, e := range expenses {
		if _, err := c.CreateExpense(ctx, e.budget, ledger.Money(e.amount), e.description, ledger.Today().AddDays(-e.daysAgo)); err != nil {
			return fmt.Errorf("seed expense %q: %w", e.description, err)
		}
	}

	rules := []struct {
		budget   ledger.BudgetID
		keywords string
		priority int
	}{
		{groceries.ID, "market, supermarket, bakery, grocery", 10},
		{transport.ID, "fuel, gas, transit, parking", 5},
	}
	for _, r := range rules {
		if _, err := c.CreateRule(ctx, r.budget, r.keywords, r.priority); err != nil {
			return fmt.Errorf("seed rule %q: %w", r.keywords, err)
		}
	}

	return nil
}
