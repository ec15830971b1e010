package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/warp/envelope-engine/ledger"
)

// =============================================================================
// MATCHING
// =============================================================================

func TestMatchExpense_KeywordHit(t *testing.T) {
	// GIVEN: A rule mapping grocery keywords to the Groceries budget
	// WHEN: Matching a description containing one of them
	// THEN: The Groceries budget is suggested

	c := newTestCoordinator()
	p := mustPocket(t, c, "Checking", 500)
	groceries := mustBudget(t, c, "Groceries", p.ID, 200)

	if _, err := c.CreateRule(context.Background(), groceries.ID, "market, supermarket, bakery", 1); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	got, err := c.MatchExpense(context.Background(), "Weekly shop at the SUPERMARKET")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got == nil || *got != groceries.ID {
		t.Errorf("matched %v, want %s", got, groceries.ID)
	}
}

func TestMatchExpense_NoMatch_ReturnsNil(t *testing.T) {
	c := newTestCoordinator()
	p := mustPocket(t, c, "Checking", 500)
	groceries := mustBudget(t, c, "Groceries", p.ID, 200)

	if _, err := c.CreateRule(context.Background(), groceries.ID, "market", 1); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	got, err := c.MatchExpense(context.Background(), "cinema tickets")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got != nil {
		t.Errorf("expected no match, got %s", *got)
	}
}

func TestMatchExpense_HigherPriorityWins(t *testing.T) {
	// GIVEN: Two rules whose keywords both appear in the description
	// WHEN: Matching
	// THEN: The higher priority rule decides the budget

	c := newTestCoordinator()
	p := mustPocket(t, c, "Checking", 500)
	groceries := mustBudget(t, c, "Groceries", p.ID, 200)
	dining := mustBudget(t, c, "Dining", p.ID, 100)

	ctx := context.Background()
	if _, err := c.CreateRule(ctx, groceries.ID, "food", 1); err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if _, err := c.CreateRule(ctx, dining.ID, "restaurant", 10); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	got, err := c.MatchExpense(ctx, "food at the restaurant")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got == nil || *got != dining.ID {
		t.Errorf("matched %v, want dining (higher priority)", got)
	}
}

func TestMatchExpense_InactiveRuleIgnored(t *testing.T) {
	c := newTestCoordinator()
	p := mustPocket(t, c, "Checking", 500)
	groceries := mustBudget(t, c, "Groceries", p.ID, 200)

	ctx := context.Background()
	rule, err := c.CreateRule(ctx, groceries.ID, "market", 1)
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	inactive := false
	if _, err := c.UpdateRule(ctx, rule.ID, nil, nil, &inactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	got, err := c.MatchExpense(ctx, "market run")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got != nil {
		t.Errorf("inactive rule matched: %s", *got)
	}
}

// =============================================================================
// RULE LIFECYCLE
// =============================================================================

func TestCreateRule_MissingBudget_NotFound(t *testing.T) {
	c := newTestCoordinator()

	_, err := c.CreateRule(context.Background(), "nope", "market", 1)
	if !ledger.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateRule_EmptyKeywords_Rejected(t *testing.T) {
	c := newTestCoordinator()
	p := mustPocket(t, c, "Checking", 500)
	b := mustBudget(t, c, "Groceries", p.ID, 200)

	_, err := c.CreateRule(context.Background(), b.ID, "   ", 1)
	if !errors.Is(err, ledger.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUpdateRule_PartialFields(t *testing.T) {
	c := newTestCoordinator()
	p := mustPocket(t, c, "Checking", 500)
	b := mustBudget(t, c, "Groceries", p.ID, 200)

	ctx := context.Background()
	rule, err := c.CreateRule(ctx, b.ID, "market", 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	priority := 5
	updated, err := c.UpdateRule(ctx, rule.ID, nil, &priority, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Priority != 5 {
		t.Errorf("priority = %d, want 5", updated.Priority)
	}
	if updated.Keywords != "market" {
		t.Errorf("keywords changed: %q", updated.Keywords)
	}
	if !updated.Active {
		t.Error("active flag changed")
	}
}
