/*
handlers_budget.go - Budget (envelope) handlers

Includes the two read-only aggregates: the per-period summary and the
single-budget remaining amount.
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/envelope-engine/ledger"
)

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		budgets []ledger.Budget
		err     error
	)
	q := r.URL.Query()
	switch {
	case q.Get("pocket_id") != "":
		budgets, err = h.Coordinator.BudgetsByPocket(ctx, ledger.PocketID(q.Get("pocket_id")))
	case q.Get("period") != "":
		budgets, err = h.Coordinator.BudgetsByPeriod(ctx, q.Get("period"))
	default:
		budgets, err = h.Coordinator.Budgets(ctx)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTOs(budgets))
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id := ledger.BudgetID(chi.URLParam(r, "id"))

	budget, err := h.Coordinator.Budget(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTO(budget))
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req CreateBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	period := req.Period
	if period == "" {
		period = ledger.CurrentPeriod()
	}

	budget, err := h.Coordinator.CreateBudget(r.Context(), req.Name, req.Description,
		ledger.PocketID(req.PocketID), decimal.NewFromFloat(req.AllocatedAmount), period)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetDTO(budget))
}

func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	id := ledger.BudgetID(chi.URLParam(r, "id"))

	var req UpdateBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	budget, err := h.Coordinator.UpdateBudget(r.Context(), id, req.Name, req.Description, optDecimal(req.AllocatedAmount))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTO(budget))
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := ledger.BudgetID(chi.URLParam(r, "id"))

	if err := h.Coordinator.DeleteBudget(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetRemaining(w http.ResponseWriter, r *http.Request) {
	id := ledger.BudgetID(chi.URLParam(r, "id"))

	remaining, err := h.Coordinator.RemainingBudget(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RemainingDTO{
		BudgetID:        string(id),
		RemainingAmount: money(remaining),
	})
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Coordinator.Summary(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

func (h *Handler) ListBudgetExpenses(w http.ResponseWriter, r *http.Request) {
	id := ledger.BudgetID(chi.URLParam(r, "id"))

	expenses, err := h.Coordinator.ExpensesByBudget(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTOs(expenses))
}
