/*
handlers_expense.go - Expense handlers

Dates travel as "2006-01-02" strings. An empty date on create means
today; the coordinator fills it in.
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/envelope-engine/ledger"
)

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		expenses []ledger.Expense
		err      error
	)
	switch {
	case q.Get("budget_id") != "":
		expenses, err = h.Coordinator.ExpensesByBudget(ctx, ledger.BudgetID(q.Get("budget_id")))
	case q.Get("from") != "" || q.Get("to") != "":
		var from, to ledger.Date
		from, err = ledger.ParseDate(q.Get("from"))
		if err != nil {
			respondError(w, &ledger.InvalidInputError{Reason: "invalid from date, want YYYY-MM-DD"})
			return
		}
		to, err = ledger.ParseDate(q.Get("to"))
		if err != nil {
			respondError(w, &ledger.InvalidInputError{Reason: "invalid to date, want YYYY-MM-DD"})
			return
		}
		expenses, err = h.Coordinator.ExpensesByDateRange(ctx, from, to)
	default:
		expenses, err = h.Coordinator.Expenses(ctx)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTOs(expenses))
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id := ledger.ExpenseID(chi.URLParam(r, "id"))

	expense, err := h.Coordinator.Expense(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(expense))
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	var date ledger.Date
	if req.Date != "" {
		parsed, err := ledger.ParseDate(req.Date)
		if err != nil {
			respondError(w, &ledger.InvalidInputError{Reason: "invalid date, want YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	expense, err := h.Coordinator.CreateExpense(r.Context(),
		ledger.BudgetID(req.BudgetID), decimal.NewFromFloat(req.Amount), req.Description, date)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(expense))
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := ledger.ExpenseID(chi.URLParam(r, "id"))

	var req UpdateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	var budgetID *ledger.BudgetID
	if req.BudgetID != nil {
		b := ledger.BudgetID(*req.BudgetID)
		budgetID = &b
	}

	var date *ledger.Date
	if req.Date != nil {
		parsed, err := ledger.ParseDate(*req.Date)
		if err != nil {
			respondError(w, &ledger.InvalidInputError{Reason: "invalid date, want YYYY-MM-DD"})
			return
		}
		date = &parsed
	}

	expense, err := h.Coordinator.UpdateExpense(r.Context(), id, budgetID, optDecimal(req.Amount), req.Description, date)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(expense))
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := ledger.ExpenseID(chi.URLParam(r, "id"))

	if err := h.Coordinator.DeleteExpense(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
