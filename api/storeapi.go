/*
storeapi.go - Raw storage service surface

PURPOSE:
  Exposes the store interfaces themselves over HTTP, with none of the
  coordinator's business rules. This is the surface store/remote clients
  talk to: a deployment runs ONE coordinator against local stores and
  serves this API; other processes mount store/remote and get the same
  coordinator semantics over the wire.

  Mounting the business API here instead would double-apply every
  balance adjustment (the remote caller's coordinator debits, then the
  serving side's coordinator debits again), so this surface is
  deliberately dumb CRUD plus the two adjust endpoints.

WIRE FORMAT:
  Amounts are decimal strings (exact round-trip, unlike the float64
  numbers of the business API). Dates are "2006-01-02". Timestamps are
  RFC3339.

ROUTES:
  /store/pockets   (+/{id}, /{id}/adjust)
  /store/budgets   (+/{id}, /{id}/adjust; list filters: pocket_id, period)
  /store/expenses  (+/{id}; list filters: budget_id, from+to)
  /store/rules     (+/{id}, /by-budget/{budget_id}; list filter: active)

SEE ALSO:
  - store/remote: the client side of this contract
  - ledger/store.go: the interfaces served here
*/
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/warp/envelope-engine/ledger"
)

// =============================================================================
// WIRE RECORDS - Shared with store/remote
// =============================================================================

type StorePocket struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func StorePocketFrom(p ledger.Pocket) StorePocket {
	return StorePocket{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Balance:     p.Balance,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r StorePocket) Pocket() ledger.Pocket {
	return ledger.Pocket{
		ID:          ledger.PocketID(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Balance:     r.Balance,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type StoreBudget struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	PocketID        string          `json:"pocket_id"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	SpentAmount     decimal.Decimal `json:"spent_amount"`
	Period          string          `json:"period"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func StoreBudgetFrom(b ledger.Budget) StoreBudget {
	return StoreBudget{
		ID:              string(b.ID),
		Name:            b.Name,
		Description:     b.Description,
		PocketID:        string(b.PocketID),
		AllocatedAmount: b.AllocatedAmount,
		SpentAmount:     b.SpentAmount,
		Period:          b.Period,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (r StoreBudget) Budget() ledger.Budget {
	return ledger.Budget{
		ID:              ledger.BudgetID(r.ID),
		Name:            r.Name,
		Description:     r.Description,
		PocketID:        ledger.PocketID(r.PocketID),
		AllocatedAmount: r.AllocatedAmount,
		SpentAmount:     r.SpentAmount,
		Period:          r.Period,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type StoreExpense struct {
	ID          string          `json:"id"`
	BudgetID    string          `json:"budget_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func StoreExpenseFrom(e ledger.Expense) StoreExpense {
	return StoreExpense{
		ID:          string(e.ID),
		BudgetID:    string(e.BudgetID),
		Amount:      e.Amount,
		Description: e.Description,
		Date:        e.Date.String(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (r StoreExpense) Expense() (ledger.Expense, error) {
	var date ledger.Date
	if r.Date != "" {
		parsed, err := ledger.ParseDate(r.Date)
		if err != nil {
			return ledger.Expense{}, err
		}
		date = parsed
	}
	return ledger.Expense{
		ID:          ledger.ExpenseID(r.ID),
		BudgetID:    ledger.BudgetID(r.BudgetID),
		Amount:      r.Amount,
		Description: r.Description,
		Date:        date,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

type StoreRule struct {
	ID        string    `json:"id"`
	BudgetID  string    `json:"budget_id"`
	Keywords  string    `json:"keywords"`
	Priority  int       `json:"priority"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func StoreRuleFrom(r ledger.Rule) StoreRule {
	return StoreRule{
		ID:        string(r.ID),
		BudgetID:  string(r.BudgetID),
		Keywords:  r.Keywords,
		Priority:  r.Priority,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r StoreRule) Rule() ledger.Rule {
	return ledger.Rule{
		ID:        ledger.RuleID(r.ID),
		BudgetID:  ledger.BudgetID(r.BudgetID),
		Keywords:  r.Keywords,
		Priority:  r.Priority,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// AdjustRequest carries the delta for balance/spent adjustments.
type AdjustRequest struct {
	Delta decimal.Decimal `json:"delta"`
}

// =============================================================================
// STORE SERVER
// =============================================================================

// StoreServer serves raw store access over HTTP.
type StoreServer struct {
	Pockets  ledger.PocketStore
	Budgets  ledger.BudgetStore
	Expenses ledger.ExpenseStore
	Rules    ledger.RuleStore
}

// NewStoreRouter mounts the storage service routes.
func NewStoreRouter(s *StoreServer) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Route("/store", func(r chi.Router) {
		r.Route("/pockets", func(r chi.Router) {
			r.Get("/", s.listPockets)
			r.Post("/", s.addPocket)
			r.Get("/{id}", s.getPocket)
			r.Put("/{id}", s.updatePocket)
			r.Delete("/{id}", s.deletePocket)
			r.Post("/{id}/adjust", s.adjustPocket)
		})
		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.listBudgets)
			r.Post("/", s.addBudget)
			r.Get("/{id}", s.getBudget)
			r.Put("/{id}", s.updateBudget)
			r.Delete("/{id}", s.deleteBudget)
			r.Post("/{id}/adjust", s.adjustBudget)
		})
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.listExpenses)
			r.Post("/", s.addExpense)
			r.Get("/{id}", s.getExpense)
			r.Put("/{id}", s.updateExpense)
			r.Delete("/{id}", s.deleteExpense)
		})
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.listRules)
			r.Post("/", s.addRule)
			r.Get("/{id}", s.getRule)
			r.Put("/{id}", s.updateRule)
			r.Delete("/{id}", s.deleteRule)
			r.Delete("/by-budget/{budget_id}", s.deleteRulesByBudget)
		})
	})

	return r
}

// =============================================================================
// POCKET ENDPOINTS
// =============================================================================

func (s *StoreServer) listPockets(w http.ResponseWriter, r *http.Request) {
	pockets, err := s.Pockets.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	records := make([]StorePocket, len(pockets))
	for i, p := range pockets {
		records[i] = StorePocketFrom(p)
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *StoreServer) getPocket(w http.ResponseWriter, r *http.Request) {
	pocket, err := s.Pockets.Get(r.Context(), ledger.PocketID(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StorePocketFrom(pocket))
}

func (s *StoreServer) addPocket(w http.ResponseWriter, r *http.Request) {
	var rec StorePocket
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, err)
		return
	}
	stored, err := s.Pockets.Add(r.Context(), rec.Pocket())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, StorePocketFrom(stored))
}

func (s *StoreServer) updatePocket(w http.ResponseWriter, r *http.Request) {
	var rec StorePocket
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, err)
		return
	}
	rec.ID = chi.URLParam(r, "id")
	if err := s.Pockets.Update(r.Context(), rec.Pocket()); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StoreServer) deletePocket(w http.ResponseWriter, r *http.Request) {
	if err := s.Pockets.Delete(r.Context(), ledger.PocketID(chi.URLParam(r, "id"))); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StoreServer) adjustPocket(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := s.Pockets.AdjustBalance(r.Context(), ledger.PocketID(chi.URLParam(r, "id")), req.Delta); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BUDGET ENDPOINTS
// =============================================================================

func (s *StoreServer) listBudgets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		budgets []ledger.Budget
		err     error
	)
	switch {
	case q.Get("pocket_id") != "":
		budgets, err = s.Budgets.ListByPocket(ctx, ledger.PocketID(q.Get("pocket_id")))
	case q.Get("period") != "":
		budgets, err = s.Budgets.ListByPeriod(ctx, q.Get("period"))
	default:
		budgets, err = s.Budgets.List(ctx)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	records := make([]StoreBudget, len(budgets))
	for i, b := range budgets {
		records[i] = StoreBudgetFrom(b)
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *StoreServer) getBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := s.Budgets.Get(r.Context(), ledger.BudgetID(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StoreBudgetFrom(budget))
}

func (s *StoreServer) addBudget(w http.ResponseWriter, r *http.Request) {
	var rec StoreBudget
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, err)
		return
	}
	stored, err := s.Budgets.Add(r.Context(), rec.Budget())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, StoreBudgetFrom(stored))
}

func (s *StoreServer) updateBudget(w http.ResponseWriter, r *http.Request) {
	var rec StoreBudget
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, err)
		return
	}
	rec.ID = chi.URLParam(r, "id")
	if err := s.Budgets.Update(r.Context(), rec.Budget()); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StoreServer) deleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.Budgets.Delete(r.Context(), ledger.BudgetID(chi.URLParam(r, "id"))); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StoreServer) adjustBudget(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := s.Budgets.AdjustSpent(r.Context(), ledger.BudgetID(chi.URLParam(r, "id")), req.Delta); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EXPENSE ENDPOINTS
// =============================================================================

func (s *StoreServer) listExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		expenses []ledger.Expense
		err      error
	)
	switch {
	case q.Get("budget_id") != "":
		expenses, err = s.Expenses.ListByBudget(ctx, ledger.BudgetID(q.Get("budget_id")))
	case q.Get("from") != "" && q.Get("to") != "":
		var from, to ledger.Date
		if from, err = ledger.ParseDate(q.Get("from")); err != nil {
			respondError(w, &ledger.InvalidInputError{Reason: "invalid from date"})
			return
		}
		if to, err = ledger.ParseDate(q.Get("to")); err != nil {
			respondError(w, &ledger.InvalidInputError{Reason: "invalid to date"})
			return
		}
		expenses, err = s.Expenses.ListByDateRange(ctx, from, to)
	default:
		expenses, err = s.Expenses.List(ctx)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	records := make([]StoreExpense, len(expenses))
	for i, e := range expenses {
		records[i] = StoreExpenseFrom(e)
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *StoreServer) getExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.Expenses.Get(r.Context(), ledger.ExpenseID(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StoreExpenseFrom(expense))
}

func (s *StoreServer) addExpense(w http.ResponseWriter, r *http.Request) {
	var rec StoreExpense
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, err)
		return
	}
	expense, err := rec.Expense()
	if err != nil {
		respondError(w, &ledger.InvalidInputError{Reason: "invalid date, want YYYY-MM-DD"})
		return
	}
	stored, err := s.Expenses.Add(r.Context(), expense)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, StoreExpenseFrom(stored))
}

func (s *StoreServer) updateExpense(w http.ResponseWriter, r *http.Request) {
	var rec StoreExpense
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, err)
		return
	}
	rec.ID = chi.URLParam(r, "id")
	expense, err := rec.Expense()
	if err != nil {
		respondError(w, &ledger.InvalidInputError{Reason: "invalid date, want YYYY-MM-DD"})
		return
	}
	if err := s.Expenses.Update(r.Context(), expense); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StoreServer) deleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.Expenses.Delete(r.Context(), ledger.ExpenseID(chi.URLParam(r, "id"))); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RULE ENDPOINTS
// =============================================================================

func (s *StoreServer) listRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		rules []ledger.Rule
		err   error
	)
	switch {
	case q.Get("budget_id") != "":
		rules, err = s.Rules.ListByBudget(ctx, ledger.BudgetID(q.Get("budget_id")))
	case q.Get("active") != "":
		active, parseErr := strconv.ParseBool(q.Get("active"))
		if parseErr != nil {
			respondError(w, &ledger.InvalidInputError{Reason: "active must be true or false"})
			return
		}
		if active {
			rules, err = s.Rules.ListActive(ctx)
		} else {
			rules, err = s.Rules.List(ctx)
			rules = keepInactive(rules)
		}
	default:
		rules, err = s.Rules.List(ctx)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	records := make([]StoreRule, len(rules))
	for i, rule := range rules {
		records[i] = StoreRuleFrom(rule)
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *StoreServer) getRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.Rules.Get(r.Context(), ledger.RuleID(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StoreRuleFrom(rule))
}

func (s *StoreServer) addRule(w http.ResponseWriter, r *http.Request) {
	var rec StoreRule
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, err)
		return
	}
	stored, err := s.Rules.Add(r.Context(), rec.Rule())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, StoreRuleFrom(stored))
}

func (s *StoreServer) updateRule(w http.ResponseWriter, r *http.Request) {
	var rec StoreRule
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, err)
		return
	}
	rec.ID = chi.URLParam(r, "id")
	if err := s.Rules.Update(r.Context(), rec.Rule()); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StoreServer) deleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.Rules.Delete(r.Context(), ledger.RuleID(chi.URLParam(r, "id"))); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StoreServer) deleteRulesByBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.Rules.DeleteByBudget(r.Context(), ledger.BudgetID(chi.URLParam(r, "budget_id"))); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
