/*
handlers_rule.go - Categorization rule handlers

The /match endpoint is the read side of auto-categorization: given a
description it answers with the budget the highest-priority active rule
points at, or a null budget_id when nothing matches.
*/
package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warp/envelope-engine/ledger"
)

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		rules []ledger.Rule
		err   error
	)
	q := r.URL.Query()
	switch {
	case q.Get("budget_id") != "":
		rules, err = h.Coordinator.RulesByBudget(ctx, ledger.BudgetID(q.Get("budget_id")))
	case q.Get("active") != "":
		active, parseErr := strconv.ParseBool(q.Get("active"))
		if parseErr != nil {
			respondError(w, &ledger.InvalidInputError{Reason: "active must be true or false"})
			return
		}
		if active {
			rules, err = h.Coordinator.ActiveRules(ctx)
		} else {
			rules, err = h.Coordinator.Rules(ctx)
			rules = keepInactive(rules)
		}
	default:
		rules, err = h.Coordinator.Rules(ctx)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTOs(rules))
}

func keepInactive(rules []ledger.Rule) []ledger.Rule {
	inactive := make([]ledger.Rule, 0, len(rules))
	for _, rule := range rules {
		if !rule.Active {
			inactive = append(inactive, rule)
		}
	}
	return inactive
}

func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	id := ledger.RuleID(chi.URLParam(r, "id"))

	rule, err := h.Coordinator.Rule(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTO(rule))
}

func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	rule, err := h.Coordinator.CreateRule(r.Context(), ledger.BudgetID(req.BudgetID), req.Keywords, req.Priority)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRuleDTO(rule))
}

func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id := ledger.RuleID(chi.URLParam(r, "id"))

	var req UpdateRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	rule, err := h.Coordinator.UpdateRule(r.Context(), id, req.Keywords, req.Priority, req.Active)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTO(rule))
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id := ledger.RuleID(chi.URLParam(r, "id"))

	if err := h.Coordinator.DeleteRule(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MatchExpense(w http.ResponseWriter, r *http.Request) {
	description := r.URL.Query().Get("description")
	if description == "" {
		respondError(w, &ledger.InvalidInputError{Reason: "description query parameter is required"})
		return
	}

	budgetID, err := h.Coordinator.MatchExpense(r.Context(), description)
	if err != nil {
		respondError(w, err)
		return
	}

	var dto MatchDTO
	if budgetID != nil {
		s := string(*budgetID)
		dto.BudgetID = &s
	}
	writeJSON(w, http.StatusOK, dto)
}
