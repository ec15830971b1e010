/*
Package remote implements the ledger store interfaces over HTTP.

PURPOSE:
  Talks to the raw storage service (api.NewStoreRouter) so a process can
  run the coordinator against a ledger hosted elsewhere. The client is a
  dumb pipe: all business rules still run in the local coordinator; this
  package only moves records and adjust deltas across the wire.

ERROR TRANSLATION:
  Non-2xx responses become ledger error kinds so coordinator logic is
  identical regardless of backend:
  - body code first (not_found, invalid_input, insufficient_funds, ...)
  - otherwise by status: 404 NotFound, 401 Unauthorized, 400 sniffed
    for "insufficient" else InvalidInput, 5xx wraps ErrServerError

AUTH:
  An optional bearer token is attached to every request. The storage
  service itself is unauthenticated; auth is an external collaborator
  in front of it.

SEE ALSO:
  - api/storeapi.go: the server side of this contract
  - ledger/store.go: the interfaces implemented here
*/
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/envelope-engine/api"
	"github.com/warp/envelope-engine/ledger"
)

// =============================================================================
// CLIENT
// =============================================================================

// Client is the shared HTTP transport for the per-entity stores.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New creates a client and its four stores against a storage service.
func New(baseURL, token string) (*Client, *PocketStore, *BudgetStore, *ExpenseStore, *RuleStore) {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
	return c, &PocketStore{c: c}, &BudgetStore{c: c}, &ExpenseStore{c: c}, &RuleStore{c: c}
}

// do performs a request and decodes the response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrServerError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return translateError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func translateError(resp *http.Response) error {
	var body api.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)

	switch body.Code {
	case "not_found":
		return ledger.ErrNotFound
	case "insufficient_funds":
		return ledger.ErrInsufficientFunds
	case "invalid_input":
		return &ledger.InvalidInputError{Reason: body.Details}
	case "pocket_has_budgets":
		return ledger.ErrPocketHasBudgets
	case "budget_has_expenses":
		return ledger.ErrBudgetHasExpenses
	case "unauthorized":
		return ledger.ErrUnauthorized
	}

	// No recognizable code; fall back to the status line.
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ledger.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return ledger.ErrUnauthorized
	case resp.StatusCode == http.StatusBadRequest:
		if strings.Contains(strings.ToLower(string(raw)), "insufficient") {
			return ledger.ErrInsufficientFunds
		}
		return &ledger.InvalidInputError{Reason: strings.TrimSpace(string(raw))}
	default:
		return fmt.Errorf("%w: status %d", ledger.ErrServerError, resp.StatusCode)
	}
}

type adjustRequest struct {
	Delta decimal.Decimal `json:"delta"`
}

// =============================================================================
// POCKET STORE
// =============================================================================

type PocketStore struct {
	c *Client
}

func (s *PocketStore) Get(ctx context.Context, id ledger.PocketID) (ledger.Pocket, error) {
	var rec api.StorePocket
	if err := s.c.do(ctx, http.MethodGet, "/store/pockets/"+url.PathEscape(string(id)), nil, &rec); err != nil {
		return ledger.Pocket{}, err
	}
	return rec.Pocket(), nil
}

func (s *PocketStore) List(ctx context.Context) ([]ledger.Pocket, error) {
	var recs []api.StorePocket
	if err := s.c.do(ctx, http.MethodGet, "/store/pockets", nil, &recs); err != nil {
		return nil, err
	}
	pockets := make([]ledger.Pocket, len(recs))
	for i, rec := range recs {
		pockets[i] = rec.Pocket()
	}
	return pockets, nil
}

func (s *PocketStore) Add(ctx context.Context, p ledger.Pocket) (ledger.Pocket, error) {
	var rec api.StorePocket
	if err := s.c.do(ctx, http.MethodPost, "/store/pockets", api.StorePocketFrom(p), &rec); err != nil {
		return ledger.Pocket{}, err
	}
	return rec.Pocket(), nil
}

func (s *PocketStore) Update(ctx context.Context, p ledger.Pocket) error {
	return s.c.do(ctx, http.MethodPut, "/store/pockets/"+url.PathEscape(string(p.ID)), api.StorePocketFrom(p), nil)
}

func (s *PocketStore) Delete(ctx context.Context, id ledger.PocketID) error {
	return s.c.do(ctx, http.MethodDelete, "/store/pockets/"+url.PathEscape(string(id)), nil, nil)
}

func (s *PocketStore) AdjustBalance(ctx context.Context, id ledger.PocketID, delta decimal.Decimal) error {
	return s.c.do(ctx, http.MethodPost, "/store/pockets/"+url.PathEscape(string(id))+"/adjust", adjustRequest{Delta: delta}, nil)
}

// =============================================================================
// BUDGET STORE
// =============================================================================

type BudgetStore struct {
	c *Client
}

func (s *BudgetStore) Get(ctx context.Context, id ledger.BudgetID) (ledger.Budget, error) {
	var rec api.StoreBudget
	if err := s.c.do(ctx, http.MethodGet, "/store/budgets/"+url.PathEscape(string(id)), nil, &rec); err != nil {
		return ledger.Budget{}, err
	}
	return rec.Budget(), nil
}

func (s *BudgetStore) List(ctx context.Context) ([]ledger.Budget, error) {
	return s.list(ctx, "/store/budgets")
}

func (s *BudgetStore) ListByPocket(ctx context.Context, pocketID ledger.PocketID) ([]ledger.Budget, error) {
	return s.list(ctx, "/store/budgets?pocket_id="+url.QueryEscape(string(pocketID)))
}

func (s *BudgetStore) ListByPeriod(ctx context.Context, period string) ([]ledger.Budget, error) {
	return s.list(ctx, "/store/budgets?period="+url.QueryEscape(period))
}

func (s *BudgetStore) list(ctx context.Context, path string) ([]ledger.Budget, error) {
	var recs []api.StoreBudget
	if err := s.c.do(ctx, http.MethodGet, path, nil, &recs); err != nil {
		return nil, err
	}
	budgets := make([]ledger.Budget, len(recs))
	for i, rec := range recs {
		budgets[i] = rec.Budget()
	}
	return budgets, nil
}

func (s *BudgetStore) Add(ctx context.Context, b ledger.Budget) (ledger.Budget, error) {
	var rec api.StoreBudget
	if err := s.c.do(ctx, http.MethodPost, "/store/budgets", api.StoreBudgetFrom(b), &rec); err != nil {
		return ledger.Budget{}, err
	}
	return rec.Budget(), nil
}

func (s *BudgetStore) Update(ctx context.Context, b ledger.Budget) error {
	return s.c.do(ctx, http.MethodPut, "/store/budgets/"+url.PathEscape(string(b.ID)), api.StoreBudgetFrom(b), nil)
}

func (s *BudgetStore) Delete(ctx context.Context, id ledger.BudgetID) error {
	return s.c.do(ctx, http.MethodDelete, "/store/budgets/"+url.PathEscape(string(id)), nil, nil)
}

func (s *BudgetStore) AdjustSpent(ctx context.Context, id ledger.BudgetID, delta decimal.Decimal) error {
	return s.c.do(ctx, http.MethodPost, "/store/budgets/"+url.PathEscape(string(id))+"/adjust", adjustRequest{Delta: delta}, nil)
}

// =============================================================================
// EXPENSE STORE
// =============================================================================

type ExpenseStore struct {
	c *Client
}

func (s *ExpenseStore) Get(ctx context.Context, id ledger.ExpenseID) (ledger.Expense, error) {
	var rec api.StoreExpense
	if err := s.c.do(ctx, http.MethodGet, "/store/expenses/"+url.PathEscape(string(id)), nil, &rec); err != nil {
		return ledger.Expense{}, err
	}
	return rec.Expense()
}

func (s *ExpenseStore) List(ctx context.Context) ([]ledger.Expense, error) {
	return s.list(ctx, "/store/expenses")
}

func (s *ExpenseStore) ListByBudget(ctx context.Context, budgetID ledger.BudgetID) ([]ledger.Expense, error) {
	return s.list(ctx, "/store/expenses?budget_id="+url.QueryEscape(string(budgetID)))
}

func (s *ExpenseStore) ListByDateRange(ctx context.Context, from, to ledger.Date) ([]ledger.Expense, error) {
	return s.list(ctx, fmt.Sprintf("/store/expenses?from=%s&to=%s", from, to))
}

func (s *ExpenseStore) list(ctx context.Context, path string) ([]ledger.Expense, error) {
	var recs []api.StoreExpense
	if err := s.c.do(ctx, http.MethodGet, path, nil, &recs); err != nil {
		return nil, err
	}
	expenses := make([]ledger.Expense, len(recs))
	for i, rec := range recs {
		expense, err := rec.Expense()
		if err != nil {
			return nil, fmt.Errorf("decode expense %s: %w", rec.ID, err)
		}
		expenses[i] = expense
	}
	return expenses, nil
}

func (s *ExpenseStore) Add(ctx context.Context, e ledger.Expense) (ledger.Expense, error) {
	var rec api.StoreExpense
	if err := s.c.do(ctx, http.MethodPost, "/store/expenses", api.StoreExpenseFrom(e), &rec); err != nil {
		return ledger.Expense{}, err
	}
	return rec.Expense()
}

func (s *ExpenseStore) Update(ctx context.Context, e ledger.Expense) error {
	return s.c.do(ctx, http.MethodPut, "/store/expenses/"+url.PathEscape(string(e.ID)), api.StoreExpenseFrom(e), nil)
}

func (s *ExpenseStore) Delete(ctx context.Context, id ledger.ExpenseID) error {
	return s.c.do(ctx, http.MethodDelete, "/store/expenses/"+url.PathEscape(string(id)), nil, nil)
}

// =============================================================================
// RULE STORE
// =============================================================================

type RuleStore struct {
	c *Client
}

func (s *RuleStore) Get(ctx context.Context, id ledger.RuleID) (ledger.Rule, error) {
	var rec api.StoreRule
	if err := s.c.do(ctx, http.MethodGet, "/store/rules/"+url.PathEscape(string(id)), nil, &rec); err != nil {
		return ledger.Rule{}, err
	}
	return rec.Rule(), nil
}

func (s *RuleStore) List(ctx context.Context) ([]ledger.Rule, error) {
	return s.list(ctx, "/store/rules")
}

func (s *RuleStore) ListByBudget(ctx context.Context, budgetID ledger.BudgetID) ([]ledger.Rule, error) {
	return s.list(ctx, "/store/rules?budget_id="+url.QueryEscape(string(budgetID)))
}

func (s *RuleStore) ListActive(ctx context.Context) ([]ledger.Rule, error) {
	return s.list(ctx, "/store/rules?active=true")
}

func (s *RuleStore) list(ctx context.Context, path string) ([]ledger.Rule, error) {
	var recs []api.StoreRule
	if err := s.c.do(ctx, http.MethodGet, path, nil, &recs); err != nil {
		return nil, err
	}
	rules := make([]ledger.Rule, len(recs))
	for i, rec := range recs {
		rules[i] = rec.Rule()
	}
	return rules, nil
}

func (s *RuleStore) Add(ctx context.Context, r ledger.Rule) (ledger.Rule, error) {
	var rec api.StoreRule
	if err := s.c.do(ctx, http.MethodPost, "/store/rules", api.StoreRuleFrom(r), &rec); err != nil {
		return ledger.Rule{}, err
	}
	return rec.Rule(), nil
}

func (s *RuleStore) Update(ctx context.Context, r ledger.Rule) error {
	return s.c.do(ctx, http.MethodPut, "/store/rules/"+url.PathEscape(string(r.ID)), api.StoreRuleFrom(r), nil)
}

func (s *RuleStore) Delete(ctx context.Context, id ledger.RuleID) error {
	return s.c.do(ctx, http.MethodDelete, "/store/rules/"+url.PathEscape(string(id)), nil, nil)
}

func (s *RuleStore) DeleteByBudget(ctx context.Context, budgetID ledger.BudgetID) error {
	return s.c.do(ctx, http.MethodDelete, "/store/rules/by-budget/"+url.PathEscape(string(budgetID)), nil, nil)
}
