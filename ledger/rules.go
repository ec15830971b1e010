/*
rules.go - Keyword auto-categorization

A rule maps comma-separated keywords to a budget. MatchExpense scans
active rules by descending priority and returns the first budget whose
rule has a keyword contained in the description. Rules never move money;
they only suggest a budget for an incoming expense (e.g. when importing
bank statements).
*/
package ledger

import (
	"context"
	"sort"
	"strings"
)

// =============================================================================
// READS
// =============================================================================

func (c *Coordinator) Rules(ctx context.Context) ([]Rule, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules.List(ctx)
}

func (c *Coordinator) Rule(ctx context.Context, id RuleID) (Rule, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules.Get(ctx, id)
}

func (c *Coordinator) RulesByBudget(ctx context.Context, budgetID BudgetID) ([]Rule, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules.ListByBudget(ctx, budgetID)
}

func (c *Coordinator) ActiveRules(ctx context.Context) ([]Rule, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules.ListActive(ctx)
}

// MatchExpense returns the budget the description should be filed
// under, or nil when no active rule matches.
func (c *Coordinator) MatchExpense(ctx context.Context, description string) (*BudgetID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rules, err := c.rules.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})

	descLower := strings.ToLower(description)
	for _, rule := range rules {
		for _, keyword := range strings.Split(rule.Keywords, ",") {
			keyword = strings.TrimSpace(strings.ToLower(keyword))
			if keyword != "" && strings.Contains(descLower, keyword) {
				id := rule.BudgetID
				return &id, nil
			}
		}
	}
	return nil, nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateRule adds an active categorization rule for an existing budget.
func (c *Coordinator) CreateRule(ctx context.Context, budgetID BudgetID, keywords string, priority int) (Rule, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return Rule{}, invalidInput("keywords cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.budgets.Get(ctx, budgetID); err != nil {
		return Rule{}, err
	}

	return c.rules.Add(ctx, Rule{
		BudgetID: budgetID,
		Keywords: keywords,
		Priority: priority,
		Active:   true,
	})
}

// UpdateRule applies the non-nil fields.
func (c *Coordinator) UpdateRule(ctx context.Context, id RuleID, keywords *string, priority *int, active *bool) (Rule, error) {
	if keywords != nil && strings.TrimSpace(*keywords) == "" {
		return Rule{}, invalidInput("keywords cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rule, err := c.rules.Get(ctx, id)
	if err != nil {
		return Rule{}, err
	}

	if keywords != nil {
		rule.Keywords = strings.TrimSpace(*keywords)
	}
	if priority != nil {
		rule.Priority = *priority
	}
	if active != nil {
		rule.Active = *active
	}

	if err := c.rules.Update(ctx, rule); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

func (c *Coordinator) DeleteRule(ctx context.Context, id RuleID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rules.Delete(ctx, id)
}
