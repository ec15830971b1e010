/*
handlers.go - Handler context, pocket handlers and response plumbing

PURPOSE:
  Exposes the envelope ledger via REST. Handlers parse HTTP, delegate
  to the Coordinator, and serialize responses. No business rules live
  here - the same validation runs no matter which surface calls the
  coordinator.

ERROR HANDLING:
  Business errors map to statuses:
  - 400: InvalidInput, InsufficientFunds (code distinguishes them)
  - 404: NotFound
  - 409: PocketHasBudgets, BudgetHasExpenses
  - 401: Unauthorized (from remote-backed stores)
  - 500: everything else

SECURITY NOTE:
  No authentication middleware here; auth is an external collaborator
  mounted in front of this router by the deployment.

SEE ALSO:
  - handlers_budget.go, handlers_expense.go, handlers_rule.go
  - seed.go: dev-only demo data
  - server.go: router setup
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/envelope-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter wipes a store backend. Only wired in dev deployments.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Coordinator *ledger.Coordinator

	// Resetter enables /api/reset and /api/seed when non-nil.
	Resetter Resetter
}

func NewHandler(coordinator *ledger.Coordinator) *Handler {
	return &Handler{Coordinator: coordinator}
}

// =============================================================================
// POCKET HANDLERS
// =============================================================================

func (h *Handler) ListPockets(w http.ResponseWriter, r *http.Request) {
	pockets, err := h.Coordinator.Pockets(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPocketDTOs(pockets))
}

func (h *Handler) GetPocket(w http.ResponseWriter, r *http.Request) {
	id := ledger.PocketID(chi.URLParam(r, "id"))

	pocket, err := h.Coordinator.Pocket(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPocketDTO(pocket))
}

func (h *Handler) CreatePocket(w http.ResponseWriter, r *http.Request) {
	var req CreatePocketRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	pocket, err := h.Coordinator.CreatePocket(r.Context(), req.Name, req.Description, decimal.NewFromFloat(req.Balance))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPocketDTO(pocket))
}

func (h *Handler) UpdatePocket(w http.ResponseWriter, r *http.Request) {
	id := ledger.PocketID(chi.URLParam(r, "id"))

	var req UpdatePocketRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	pocket, err := h.Coordinator.UpdatePocket(r.Context(), id, req.Name, req.Description, optDecimal(req.Balance))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPocketDTO(pocket))
}

func (h *Handler) DeletePocket(w http.ResponseWriter, r *http.Request) {
	id := ledger.PocketID(chi.URLParam(r, "id"))

	if err := h.Coordinator.DeletePocket(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddFunds(w http.ResponseWriter, r *http.Request) {
	id := ledger.PocketID(chi.URLParam(r, "id"))

	var req AddFundsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	pocket, err := h.Coordinator.AddFunds(r.Context(), id, decimal.NewFromFloat(req.Amount))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPocketDTO(pocket))
}

func (h *Handler) ListPocketBudgets(w http.ResponseWriter, r *http.Request) {
	id := ledger.PocketID(chi.URLParam(r, "id"))

	budgets, err := h.Coordinator.BudgetsByPocket(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTOs(budgets))
}

// =============================================================================
// RESPONSE PLUMBING
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ledger.InvalidInputError{Reason: "malformed request body"}
	}
	return nil
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, ledger.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		status, code = http.StatusBadRequest, "insufficient_funds"
	case errors.Is(err, ledger.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, ledger.ErrPocketHasBudgets):
		status, code = http.StatusConflict, "pocket_has_budgets"
	case errors.Is(err, ledger.ErrBudgetHasExpenses):
		status, code = http.StatusConflict, "budget_has_expenses"
	case errors.Is(err, ledger.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	}

	body := ErrorResponse{Error: http.StatusText(status), Code: code}
	if status != http.StatusInternalServerError {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}
