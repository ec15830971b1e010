package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warp/envelope-engine/api"
	"github.com/warp/envelope-engine/ledger"
	"github.com/warp/envelope-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := store.NewMemory()
	coordinator := ledger.NewCoordinator(mem.Pockets, mem.Budgets, mem.Expenses, mem.Rules)

	handler := api.NewHandler(coordinator)
	handler.Resetter = mem

	srv := httptest.NewServer(api.NewRouter(handler, nil))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func createPocket(t *testing.T, srv *httptest.Server, name string, balance float64) api.PocketDTO {
	t.Helper()
	var dto api.PocketDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/pockets", api.CreatePocketRequest{Name: name, Balance: balance}, &dto)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create pocket: status %d", resp.StatusCode)
	}
	return dto
}

func createBudget(t *testing.T, srv *httptest.Server, name, pocketID string, allocated float64) api.BudgetDTO {
	t.Helper()
	var dto api.BudgetDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/budgets", api.CreateBudgetRequest{
		Name: name, PocketID: pocketID, AllocatedAmount: allocated, Period: "2026-08",
	}, &dto)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create budget: status %d", resp.StatusCode)
	}
	return dto
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Code
}

// =============================================================================
// POCKETS
// =============================================================================

func TestAPI_PocketLifecycle(t *testing.T) {
	srv := newTestServer(t)

	p := createPocket(t, srv, "Checking", 500)
	if p.ID == "" || p.Balance != 500 {
		t.Fatalf("unexpected pocket: %+v", p)
	}

	var got api.PocketDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/pockets/"+p.ID, nil, &got)
	if resp.StatusCode != http.StatusOK || got.Name != "Checking" {
		t.Fatalf("get pocket: status %d, %+v", resp.StatusCode, got)
	}

	var funded api.PocketDTO
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/pockets/"+p.ID+"/funds", api.AddFundsRequest{Amount: 250}, &funded)
	if resp.StatusCode != http.StatusOK || funded.Balance != 750 {
		t.Fatalf("add funds: status %d, balance %v", resp.StatusCode, funded.Balance)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/pockets/"+p.ID, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/pockets/"+p.ID, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", resp.StatusCode)
	}
}

func TestAPI_CreatePocket_EmptyName_400(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/pockets", api.CreatePocketRequest{Name: " "}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "invalid_input" {
		t.Errorf("code = %q", code)
	}
}

func TestAPI_MalformedJSON_400(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/pockets", "application/json", bytes.NewBufferString("{nope"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

// =============================================================================
// BUDGETS AND EXPENSES
// =============================================================================

func TestAPI_BudgetAllocation_DebitsPocket(t *testing.T) {
	srv := newTestServer(t)
	p := createPocket(t, srv, "Checking", 500)
	b := createBudget(t, srv, "Groceries", p.ID, 200)

	if b.RemainingAmount != 200 {
		t.Errorf("remaining = %v, want 200", b.RemainingAmount)
	}

	var pocket api.PocketDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/pockets/"+p.ID, nil, &pocket)
	if pocket.Balance != 300 {
		t.Errorf("pocket balance = %v, want 300", pocket.Balance)
	}
}

func TestAPI_OverAllocation_InsufficientFunds(t *testing.T) {
	srv := newTestServer(t)
	p := createPocket(t, srv, "Checking", 100)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/budgets", api.CreateBudgetRequest{
		Name: "Rent", PocketID: p.ID, AllocatedAmount: 150, Period: "2026-08",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "insufficient_funds" {
		t.Errorf("code = %q", code)
	}
}

func TestAPI_ExpenseFlow(t *testing.T) {
	srv := newTestServer(t)
	p := createPocket(t, srv, "Checking", 500)
	b := createBudget(t, srv, "Groceries", p.ID, 200)

	var e api.ExpenseDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/expenses", api.CreateExpenseRequest{
		BudgetID: b.ID, Amount: 75.5, Description: "weekly shop", Date: "2026-08-15",
	}, &e)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense: status %d", resp.StatusCode)
	}
	if e.Date != "2026-08-15" {
		t.Errorf("date = %q", e.Date)
	}

	var remaining api.RemainingDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/budgets/"+b.ID+"/remaining", nil, &remaining)
	if remaining.RemainingAmount != 124.5 {
		t.Errorf("remaining = %v, want 124.5", remaining.RemainingAmount)
	}

	var list []api.ExpenseDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/budgets/"+b.ID+"/expenses", nil, &list)
	if len(list) != 1 {
		t.Errorf("budget expenses = %d, want 1", len(list))
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/expenses/"+e.ID, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete expense: status %d", resp.StatusCode)
	}

	doJSON(t, http.MethodGet, srv.URL+"/api/budgets/"+b.ID+"/remaining", nil, &remaining)
	if remaining.RemainingAmount != 200 {
		t.Errorf("remaining after delete = %v, want 200", remaining.RemainingAmount)
	}
}

func TestAPI_ExpenseBadDate_400(t *testing.T) {
	srv := newTestServer(t)
	p := createPocket(t, srv, "Checking", 500)
	b := createBudget(t, srv, "Groceries", p.ID, 200)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/expenses", api.CreateExpenseRequest{
		BudgetID: b.ID, Amount: 10, Description: "x", Date: "15/08/2026",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestAPI_DeleteGuards_409(t *testing.T) {
	srv := newTestServer(t)
	p := createPocket(t, srv, "Checking", 500)
	b := createBudget(t, srv, "Groceries", p.ID, 200)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/pockets/"+p.ID, nil, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("pocket delete: status %d, want 409", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "pocket_has_budgets" {
		t.Errorf("code = %q", code)
	}

	doJSON(t, http.MethodPost, srv.URL+"/api/expenses", api.CreateExpenseRequest{
		BudgetID: b.ID, Amount: 10, Description: "x",
	}, nil)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/budgets/"+b.ID, nil, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("budget delete: status %d, want 409", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "budget_has_expenses" {
		t.Errorf("code = %q", code)
	}
}

func TestAPI_Summary(t *testing.T) {
	srv := newTestServer(t)
	p := createPocket(t, srv, "Checking", 1000)
	b := createBudget(t, srv, "Groceries", p.ID, 300)
	doJSON(t, http.MethodPost, srv.URL+"/api/expenses", api.CreateExpenseRequest{
		BudgetID: b.ID, Amount: 120, Description: "shop",
	}, nil)

	var summary api.SummaryDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/budgets/summary?period=2026-08", nil, &summary)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: status %d", resp.StatusCode)
	}
	if summary.TotalAllocated != 300 || summary.TotalSpent != 120 || summary.TotalRemaining != 180 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.UnallocatedFunds != 700 {
		t.Errorf("unallocated = %v, want 700", summary.UnallocatedFunds)
	}
}

// =============================================================================
// RULES
// =============================================================================

func TestAPI_RuleMatch(t *testing.T) {
	srv := newTestServer(t)
	p := createPocket(t, srv, "Checking", 500)
	b := createBudget(t, srv, "Groceries", p.ID, 200)

	var rule api.RuleDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/rules", api.CreateRuleRequest{
		BudgetID: b.ID, Keywords: "market, bakery", Priority: 5,
	}, &rule)
	if resp.StatusCode != http.StatusCreated || !rule.Active {
		t.Fatalf("create rule: status %d, %+v", resp.StatusCode, rule)
	}

	var match api.MatchDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/rules/match?description=sunday+bakery+run", nil, &match)
	if match.BudgetID == nil || *match.BudgetID != b.ID {
		t.Errorf("match = %v, want %s", match.BudgetID, b.ID)
	}

	doJSON(t, http.MethodGet, srv.URL+"/api/rules/match?description=cinema", nil, &match)
	if match.BudgetID != nil {
		t.Errorf("expected null match, got %s", *match.BudgetID)
	}
}

// =============================================================================
// DEV ENDPOINTS
// =============================================================================

func TestAPI_SeedAndReset(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/seed", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed: status %d", resp.StatusCode)
	}

	var pockets []api.PocketDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/pockets", nil, &pockets)
	if len(pockets) == 0 {
		t.Fatal("seed should create pockets")
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/reset", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset: status %d", resp.StatusCode)
	}
	doJSON(t, http.MethodGet, srv.URL+"/api/pockets", nil, &pockets)
	if len(pockets) != 0 {
		t.Errorf("reset left %d pockets", len(pockets))
	}
}

func TestAPI_SeedDisabledWithoutResetter(t *testing.T) {
	mem := store.NewMemory()
	coordinator := ledger.NewCoordinator(mem.Pockets, mem.Budgets, mem.Expenses, mem.Rules)
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(coordinator), nil))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/seed", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("seed without resetter: status %d", resp.StatusCode)
	}
}

func TestAPI_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: status %d", resp.StatusCode)
	}
}

func TestAPI_ListBudgetsByPeriod(t *testing.T) {
	srv := newTestServer(t)
	p := createPocket(t, srv, "Checking", 1000)
	createBudget(t, srv, "Groceries", p.ID, 100)

	doJSON(t, http.MethodPost, srv.URL+"/api/budgets", api.CreateBudgetRequest{
		Name: "Vacation", PocketID: p.ID, AllocatedAmount: 100, Period: "2026-12",
	}, nil)

	var budgets []api.BudgetDTO
	doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/budgets?period=%s", srv.URL, "2026-08"), nil, &budgets)
	if len(budgets) != 1 {
		t.Errorf("period filter returned %d budgets, want 1", len(budgets))
	}
}

func TestAPI_ListBudgetsByPocket(t *testing.T) {
	srv := newTestServer(t)
	p1 := createPocket(t, srv, "Checking", 1000)
	p2 := createPocket(t, srv, "Savings", 1000)
	b1 := createBudget(t, srv, "Groceries", p1.ID, 100)
	createBudget(t, srv, "Vacation", p2.ID, 100)

	var budgets []api.BudgetDTO
	doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/budgets?pocket_id=%s", srv.URL, p1.ID), nil, &budgets)
	if len(budgets) != 1 {
		t.Fatalf("pocket filter returned %d budgets, want 1", len(budgets))
	}
	if budgets[0].ID != b1.ID {
		t.Errorf("pocket filter returned %s, want %s", budgets[0].ID, b1.ID)
	}
}

func TestAPI_ListRulesActiveFilter(t *testing.T) {
	srv := newTestServer(t)
	p := createPocket(t, srv, "Checking", 500)
	b := createBudget(t, srv, "Groceries", p.ID, 200)

	var kept, retired api.RuleDTO
	doJSON(t, http.MethodPost, srv.URL+"/api/rules", api.CreateRuleRequest{
		BudgetID: b.ID, Keywords: "market", Priority: 5,
	}, &kept)
	doJSON(t, http.MethodPost, srv.URL+"/api/rules", api.CreateRuleRequest{
		BudgetID: b.ID, Keywords: "bakery", Priority: 1,
	}, &retired)

	off := false
	doJSON(t, http.MethodPut, srv.URL+"/api/rules/"+retired.ID, api.UpdateRuleRequest{Active: &off}, nil)

	var rules []api.RuleDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/rules?active=true", nil, &rules)
	if len(rules) != 1 || rules[0].ID != kept.ID {
		t.Errorf("active=true returned %+v, want only %s", rules, kept.ID)
	}

	doJSON(t, http.MethodGet, srv.URL+"/api/rules?active=false", nil, &rules)
	if len(rules) != 1 || rules[0].ID != retired.ID {
		t.Errorf("active=false returned %+v, want only %s", rules, retired.ID)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/rules?active=maybe", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("active=maybe: status %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "invalid_input" {
		t.Errorf("active=maybe: code %q, want invalid_input", code)
	}
}
