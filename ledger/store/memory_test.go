package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/warp/envelope-engine/ledger"
	"github.com/warp/envelope-engine/ledger/store"
)

// =============================================================================
// STORE CONTRACT
// =============================================================================

func TestPocketMemory_AddGeneratesIDAndTimestamps(t *testing.T) {
	s := store.NewPocketMemory()
	ctx := context.Background()

	p, err := s.Add(ctx, ledger.Pocket{Name: "Checking", Balance: ledger.Money(100)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if p.ID == "" {
		t.Error("add should generate an ID")
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("add should stamp timestamps")
	}

	got, err := s.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Checking" || !got.Balance.Equal(ledger.Money(100)) {
		t.Errorf("stored record mismatch: %+v", got)
	}
}

func TestPocketMemory_AddKeepsGivenID(t *testing.T) {
	// Remote replication pushes records that already carry IDs.
	s := store.NewPocketMemory()

	p, err := s.Add(context.Background(), ledger.Pocket{ID: "fixed", Name: "x"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if p.ID != "fixed" {
		t.Errorf("id = %s, want fixed", p.ID)
	}
}

func TestPocketMemory_MissingRecord_NotFound(t *testing.T) {
	s := store.NewPocketMemory()
	ctx := context.Background()

	if _, err := s.Get(ctx, "nope"); !ledger.IsNotFound(err) {
		t.Errorf("get: %v", err)
	}
	if err := s.Update(ctx, ledger.Pocket{ID: "nope"}); !ledger.IsNotFound(err) {
		t.Errorf("update: %v", err)
	}
	if err := s.Delete(ctx, "nope"); !ledger.IsNotFound(err) {
		t.Errorf("delete: %v", err)
	}
	if err := s.AdjustBalance(ctx, "nope", ledger.Money(1)); !ledger.IsNotFound(err) {
		t.Errorf("adjust: %v", err)
	}
}

func TestPocketMemory_UpdatePreservesCreatedAt(t *testing.T) {
	s := store.NewPocketMemory()
	ctx := context.Background()

	p, _ := s.Add(ctx, ledger.Pocket{Name: "Checking"})
	p.Name = "Renamed"
	p.CreatedAt = time.Time{} // caller cannot clobber it

	if err := s.Update(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.Get(ctx, p.ID)
	if got.CreatedAt.IsZero() {
		t.Error("update must preserve the original CreatedAt")
	}
	if got.Name != "Renamed" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestPocketMemory_AdjustBalance_AppliesDelta(t *testing.T) {
	s := store.NewPocketMemory()
	ctx := context.Background()

	p, _ := s.Add(ctx, ledger.Pocket{Name: "Checking", Balance: ledger.Money(100)})
	if err := s.AdjustBalance(ctx, p.ID, ledger.Money(-30.50)); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	got, _ := s.Get(ctx, p.ID)
	if !got.Balance.Equal(ledger.Money(69.50)) {
		t.Errorf("balance = %s, want 69.50", got.Balance)
	}
}

func TestPocketMemory_ListPreservesInsertionOrder(t *testing.T) {
	s := store.NewPocketMemory()
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if _, err := s.Add(ctx, ledger.Pocket{Name: name}); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	pockets, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pockets) != 3 || pockets[0].Name != "a" || pockets[2].Name != "c" {
		t.Errorf("order broken: %+v", pockets)
	}
}

// =============================================================================
// FILTERED LISTS
// =============================================================================

func TestBudgetMemory_Filters(t *testing.T) {
	s := store.NewBudgetMemory()
	ctx := context.Background()

	add := func(pocket ledger.PocketID, period string) {
		if _, err := s.Add(ctx, ledger.Budget{Name: "b", PocketID: pocket, Period: period}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	add("p1", "2026-08")
	add("p1", "2026-09")
	add("p2", "2026-08")

	byPocket, err := s.ListByPocket(ctx, "p1")
	if err != nil {
		t.Fatalf("by pocket: %v", err)
	}
	if len(byPocket) != 2 {
		t.Errorf("pocket p1 budgets = %d, want 2", len(byPocket))
	}

	byPeriod, err := s.ListByPeriod(ctx, "2026-08")
	if err != nil {
		t.Fatalf("by period: %v", err)
	}
	if len(byPeriod) != 2 {
		t.Errorf("2026-08 budgets = %d, want 2", len(byPeriod))
	}
}

func TestExpenseMemory_ListByDateRange_Inclusive(t *testing.T) {
	s := store.NewExpenseMemory()
	ctx := context.Background()

	add := func(day int) {
		_, err := s.Add(ctx, ledger.Expense{
			BudgetID:    "b1",
			Amount:      ledger.Money(10),
			Description: "x",
			Date:        ledger.NewDate(2026, time.August, day),
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	add(1)
	add(10)
	add(20)
	add(31)

	got, err := s.ListByDateRange(ctx, ledger.NewDate(2026, time.August, 10), ledger.NewDate(2026, time.August, 20))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("range hits = %d, want 2 (bounds inclusive)", len(got))
	}
}

func TestRuleMemory_ListActiveAndDeleteByBudget(t *testing.T) {
	s := store.NewRuleMemory()
	ctx := context.Background()

	r1, _ := s.Add(ctx, ledger.Rule{BudgetID: "b1", Keywords: "a", Active: true})
	if _, err := s.Add(ctx, ledger.Rule{BudgetID: "b1", Keywords: "b", Active: false}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.Add(ctx, ledger.Rule{BudgetID: "b2", Keywords: "c", Active: true}); err != nil {
		t.Fatalf("add: %v", err)
	}

	active, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active rules = %d, want 2", len(active))
	}

	if err := s.DeleteByBudget(ctx, "b1"); err != nil {
		t.Fatalf("delete by budget: %v", err)
	}
	if _, err := s.Get(ctx, r1.ID); !ledger.IsNotFound(err) {
		t.Errorf("b1 rule should be gone, got %v", err)
	}
	rest, _ := s.List(ctx)
	if len(rest) != 1 || rest[0].BudgetID != "b2" {
		t.Errorf("unexpected survivors: %+v", rest)
	}
}

// =============================================================================
// RESET
// =============================================================================

func TestMemory_Reset_DropsEverything(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	if _, err := m.Pockets.Add(ctx, ledger.Pocket{Name: "p"}); err != nil {
		t.Fatalf("add pocket: %v", err)
	}
	if _, err := m.Budgets.Add(ctx, ledger.Budget{Name: "b"}); err != nil {
		t.Fatalf("add budget: %v", err)
	}

	if err := m.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	pockets, _ := m.Pockets.List(ctx)
	budgets, _ := m.Budgets.List(ctx)
	if len(pockets) != 0 || len(budgets) != 0 {
		t.Error("reset should drop all records")
	}
}
