/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP surface. These decouple the internal
  domain model from the external contract: amounts travel as JSON
  numbers (float64) while the ledger keeps decimals internally; dates
  travel as "2006-01-02" strings; timestamps as RFC3339.

NAMING CONVENTION:
  - *DTO:     response types
  - *Request: request body types

VALIDATION:
  Handlers parse and forward; business validation lives in the
  coordinator so every store backend enforces the same rules.

SEE ALSO:
  - handlers.go and friends: the users of these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/envelope-engine/ledger"
)

// =============================================================================
// POCKET
// =============================================================================

type PocketDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Balance     float64 `json:"balance"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

type CreatePocketRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Balance     float64 `json:"balance"`
}

type UpdatePocketRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Balance     *float64 `json:"balance,omitempty"`
}

type AddFundsRequest struct {
	Amount float64 `json:"amount"`
}

// =============================================================================
// BUDGET
// =============================================================================

type BudgetDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	PocketID        string  `json:"pocket_id"`
	AllocatedAmount float64 `json:"allocated_amount"`
	SpentAmount     float64 `json:"spent_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	Period          string  `json:"period"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

type CreateBudgetRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	PocketID        string  `json:"pocket_id"`
	AllocatedAmount float64 `json:"allocated_amount"`
	Period          string  `json:"period"`
}

type UpdateBudgetRequest struct {
	Name            *string  `json:"name,omitempty"`
	Description     *string  `json:"description,omitempty"`
	AllocatedAmount *float64 `json:"allocated_amount,omitempty"`
}

type RemainingDTO struct {
	BudgetID        string  `json:"budget_id"`
	RemainingAmount float64 `json:"remaining_amount"`
}

type SummaryDTO struct {
	Period           string  `json:"period"`
	TotalAllocated   float64 `json:"total_allocated"`
	TotalSpent       float64 `json:"total_spent"`
	TotalRemaining   float64 `json:"total_remaining"`
	UnallocatedFunds float64 `json:"unallocated_funds"`
}

// =============================================================================
// EXPENSE
// =============================================================================

type ExpenseDTO struct {
	ID          string  `json:"id"`
	BudgetID    string  `json:"budget_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

type CreateExpenseRequest struct {
	BudgetID    string  `json:"budget_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date,omitempty"` // empty = today
}

type UpdateExpenseRequest struct {
	BudgetID    *string  `json:"budget_id,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Description *string  `json:"description,omitempty"`
	Date        *string  `json:"date,omitempty"`
}

// =============================================================================
// RULE
// =============================================================================

type RuleDTO struct {
	ID        string `json:"id"`
	BudgetID  string `json:"budget_id"`
	Keywords  string `json:"keywords"`
	Priority  int    `json:"priority"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type CreateRuleRequest struct {
	BudgetID string `json:"budget_id"`
	Keywords string `json:"keywords"`
	Priority int    `json:"priority"`
}

type UpdateRuleRequest struct {
	Keywords *string `json:"keywords,omitempty"`
	Priority *int    `json:"priority,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

type MatchDTO struct {
	BudgetID *string `json:"budget_id"` // null when nothing matched
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func money(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func toPocketDTO(p ledger.Pocket) PocketDTO {
	return PocketDTO{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Balance:     money(p.Balance),
		CreatedAt:   stamp(p.CreatedAt),
		UpdatedAt:   stamp(p.UpdatedAt),
	}
}

func toPocketDTOs(pockets []ledger.Pocket) []PocketDTO {
	dtos := make([]PocketDTO, len(pockets))
	for i, p := range pockets {
		dtos[i] = toPocketDTO(p)
	}
	return dtos
}

func toBudgetDTO(b ledger.Budget) BudgetDTO {
	return BudgetDTO{
		ID:              string(b.ID),
		Name:            b.Name,
		Description:     b.Description,
		PocketID:        string(b.PocketID),
		AllocatedAmount: money(b.AllocatedAmount),
		SpentAmount:     money(b.SpentAmount),
		RemainingAmount: money(b.RemainingAmount()),
		Period:          b.Period,
		CreatedAt:       stamp(b.CreatedAt),
		UpdatedAt:       stamp(b.UpdatedAt),
	}
}

func toBudgetDTOs(budgets []ledger.Budget) []BudgetDTO {
	dtos := make([]BudgetDTO, len(budgets))
	for i, b := range budgets {
		dtos[i] = toBudgetDTO(b)
	}
	return dtos
}

func toExpenseDTO(e ledger.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:          string(e.ID),
		BudgetID:    string(e.BudgetID),
		Amount:      money(e.Amount),
		Description: e.Description,
		Date:        e.Date.String(),
		CreatedAt:   stamp(e.CreatedAt),
		UpdatedAt:   stamp(e.UpdatedAt),
	}
}

func toExpenseDTOs(expenses []ledger.Expense) []ExpenseDTO {
	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e)
	}
	return dtos
}

func toRuleDTO(r ledger.Rule) RuleDTO {
	return RuleDTO{
		ID:        string(r.ID),
		BudgetID:  string(r.BudgetID),
		Keywords:  r.Keywords,
		Priority:  r.Priority,
		Active:    r.Active,
		CreatedAt: stamp(r.CreatedAt),
		UpdatedAt: stamp(r.UpdatedAt),
	}
}

func toRuleDTOs(rules []ledger.Rule) []RuleDTO {
	dtos := make([]RuleDTO, len(rules))
	for i, r := range rules {
		dtos[i] = toRuleDTO(r)
	}
	return dtos
}

func toSummaryDTO(s ledger.Summary) SummaryDTO {
	return SummaryDTO{
		Period:           s.Period,
		TotalAllocated:   money(s.TotalAllocated),
		TotalSpent:       money(s.TotalSpent),
		TotalRemaining:   money(s.TotalRemaining),
		UnallocatedFunds: money(s.UnallocatedFunds),
	}
}

func optDecimal(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}
