package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/envelope-engine/ledger"
	"github.com/warp/envelope-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestCoordinator(t *testing.T) *ledger.Coordinator {
	st := newTestStore(t)
	return ledger.NewCoordinator(st.Pockets, st.Budgets, st.Expenses, st.Rules)
}

// =============================================================================
// STORE CONTRACT
// =============================================================================

func TestSQLite_PocketRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p, err := st.Pockets.Add(ctx, ledger.Pocket{
		Name:        "Checking",
		Description: "Everyday account",
		Balance:     ledger.MustParseMoney("123.45"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	got, err := st.Pockets.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Checking", got.Name)
	assert.True(t, got.Balance.Equal(ledger.MustParseMoney("123.45")), "decimal must survive TEXT storage exactly")
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_MissingRecord_NotFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Pockets.Get(ctx, "nope")
	assert.True(t, ledger.IsNotFound(err))

	assert.True(t, ledger.IsNotFound(st.Pockets.Update(ctx, ledger.Pocket{ID: "nope"})))
	assert.True(t, ledger.IsNotFound(st.Pockets.Delete(ctx, "nope")))
	assert.True(t, ledger.IsNotFound(st.Pockets.AdjustBalance(ctx, "nope", ledger.Money(1))))
	assert.True(t, ledger.IsNotFound(st.Budgets.AdjustSpent(ctx, "nope", ledger.Money(1))))
}

func TestSQLite_AdjustBalance_ExactDecimalMath(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p, err := st.Pockets.Add(ctx, ledger.Pocket{Name: "x", Balance: ledger.MustParseMoney("0.10")})
	require.NoError(t, err)

	// 0.1 + 0.2 is where float math falls over.
	require.NoError(t, st.Pockets.AdjustBalance(ctx, p.ID, ledger.MustParseMoney("0.20")))

	got, err := st.Pockets.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(ledger.MustParseMoney("0.30")), "got %s", got.Balance)
}

func TestSQLite_BudgetFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	add := func(pocket ledger.PocketID, period string) {
		_, err := st.Budgets.Add(ctx, ledger.Budget{
			Name: "b", PocketID: pocket, Period: period,
			AllocatedAmount: ledger.Money(10), SpentAmount: ledger.Money(0),
		})
		require.NoError(t, err)
	}
	add("p1", "2026-08")
	add("p1", "2026-09")
	add("p2", "2026-08")

	byPocket, err := st.Budgets.ListByPocket(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, byPocket, 2)

	byPeriod, err := st.Budgets.ListByPeriod(ctx, "2026-08")
	require.NoError(t, err)
	assert.Len(t, byPeriod, 2)
}

func TestSQLite_ExpenseDateRange_Inclusive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	add := func(day int) {
		_, err := st.Expenses.Add(ctx, ledger.Expense{
			BudgetID: "b1", Amount: ledger.Money(10), Description: "x",
			Date: ledger.NewDate(2026, time.August, day),
		})
		require.NoError(t, err)
	}
	add(1)
	add(10)
	add(20)
	add(31)

	got, err := st.Expenses.ListByDateRange(ctx, ledger.NewDate(2026, time.August, 10), ledger.NewDate(2026, time.August, 20))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLite_Rules_ActiveFilterAndBudgetDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	r1, err := st.Rules.Add(ctx, ledger.Rule{BudgetID: "b1", Keywords: "a", Active: true})
	require.NoError(t, err)
	_, err = st.Rules.Add(ctx, ledger.Rule{BudgetID: "b1", Keywords: "b", Active: false})
	require.NoError(t, err)
	_, err = st.Rules.Add(ctx, ledger.Rule{BudgetID: "b2", Keywords: "c", Active: true})
	require.NoError(t, err)

	active, err := st.Rules.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	require.NoError(t, st.Rules.DeleteByBudget(ctx, "b1"))
	_, err = st.Rules.Get(ctx, r1.ID)
	assert.True(t, ledger.IsNotFound(err))

	rest, err := st.Rules.List(ctx)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, ledger.BudgetID("b2"), rest[0].BudgetID)
}

func TestSQLite_Reset_DropsEverything(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Pockets.Add(ctx, ledger.Pocket{Name: "p"})
	require.NoError(t, err)
	_, err = st.Budgets.Add(ctx, ledger.Budget{Name: "b"})
	require.NoError(t, err)

	require.NoError(t, st.Reset(ctx))

	pockets, err := st.Pockets.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, pockets)
	budgets, err := st.Budgets.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, budgets)
}

// =============================================================================
// COORDINATOR OVER SQLITE
// =============================================================================

func TestSQLite_CoordinatorLifecycle(t *testing.T) {
	// GIVEN: A coordinator running on the SQLite backend
	// WHEN: Running a full allocate/spend/delete cycle
	// THEN: The same invariants hold as on the memory backend

	c := newTestCoordinator(t)
	ctx := context.Background()

	p, err := c.CreatePocket(ctx, "Checking", "", ledger.Money(500))
	require.NoError(t, err)

	b, err := c.CreateBudget(ctx, "Groceries", "", p.ID, ledger.Money(200), "2026-08")
	require.NoError(t, err)

	pocket, err := c.Pocket(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, pocket.Balance.Equal(ledger.Money(300)))

	_, err = c.CreateExpense(ctx, b.ID, ledger.Money(75), "weekly shop", ledger.NewDate(2026, time.August, 15))
	require.NoError(t, err)

	budget, err := c.Budget(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, budget.SpentAmount.Equal(ledger.Money(75)))
	assert.True(t, budget.RemainingAmount().Equal(ledger.Money(125)))

	// Over-capacity spend rejected, state unchanged.
	_, err = c.CreateExpense(ctx, b.ID, ledger.Money(200), "too much", ledger.Date{})
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	budget, err = c.Budget(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, budget.SpentAmount.Equal(ledger.Money(75)))

	// Budget with expenses cannot be deleted.
	assert.ErrorIs(t, c.DeleteBudget(ctx, b.ID), ledger.ErrBudgetHasExpenses)
}

func TestSQLite_Persistence_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/ledger.db"

	st, err := sqlite.Open(path)
	require.NoError(t, err)

	ctx := context.Background()
	p, err := st.Pockets.Add(ctx, ledger.Pocket{Name: "Checking", Balance: ledger.Money(500)})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Pockets.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Checking", got.Name)
	assert.True(t, got.Balance.Equal(ledger.Money(500)))
}
