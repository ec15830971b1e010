/*
Package store provides the map-backed store implementations.

PURPOSE:
  In-memory variants of the four store interfaces, used by tests, the
  demo server and anything that does not need persistence. Each store
  is independently thread-safe; none of them knows about the others -
  cross-entity consistency is the Coordinator's job.

Records are returned by value, so callers can never mutate the stored
state behind the store's back. Lists preserve insertion order.
*/
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/envelope-engine/ledger"
)

// Memory bundles one in-memory instance of every store.
type Memory struct {
	Pockets  *PocketMemory
	Budgets  *BudgetMemory
	Expenses *ExpenseMemory
	Rules    *RuleMemory
}

func NewMemory() *Memory {
	return &Memory{
		Pockets:  NewPocketMemory(),
		Budgets:  NewBudgetMemory(),
		Expenses: NewExpenseMemory(),
		Rules:    NewRuleMemory(),
	}
}

// Reset drops everything. Dev/demo use only.
func (m *Memory) Reset(ctx context.Context) error {
	m.Pockets.reset()
	m.Budgets.reset()
	m.Expenses.reset()
	m.Rules.reset()
	return nil
}

func newID() string { return uuid.NewString() }

// =============================================================================
// POCKET MEMORY
// =============================================================================

type PocketMemory struct {
	mu      sync.RWMutex
	records map[ledger.PocketID]ledger.Pocket
	order   []ledger.PocketID
}

func NewPocketMemory() *PocketMemory {
	return &PocketMemory{records: make(map[ledger.PocketID]ledger.Pocket)}
}

func (s *PocketMemory) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[ledger.PocketID]ledger.Pocket)
	s.order = nil
}

func (s *PocketMemory) Get(_ context.Context, id ledger.PocketID) (ledger.Pocket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.records[id]
	if !ok {
		return ledger.Pocket{}, ledger.ErrNotFound
	}
	return p, nil
}

func (s *PocketMemory) List(_ context.Context) ([]ledger.Pocket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ledger.Pocket, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.records[id])
	}
	return result, nil
}

func (s *PocketMemory) Add(_ context.Context, p ledger.Pocket) (ledger.Pocket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = ledger.PocketID(newID())
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.records[p.ID] = p
	s.order = append(s.order, p.ID)
	return p, nil
}

func (s *PocketMemory) Update(_ context.Context, p ledger.Pocket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[p.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.records[p.ID] = p
	return nil
}

func (s *PocketMemory) Delete(_ context.Context, id ledger.PocketID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.records, id)
	s.order = removeID(s.order, id)
	return nil
}

func (s *PocketMemory) AdjustBalance(_ context.Context, id ledger.PocketID, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.records[id]
	if !ok {
		return ledger.ErrNotFound
	}
	p.Balance = p.Balance.Add(delta)
	p.UpdatedAt = time.Now().UTC()
	s.records[id] = p
	return nil
}

// =============================================================================
// BUDGET MEMORY
// =============================================================================

type BudgetMemory struct {
	mu      sync.RWMutex
	records map[ledger.BudgetID]ledger.Budget
	order   []ledger.BudgetID
}

func NewBudgetMemory() *BudgetMemory {
	return &BudgetMemory{records: make(map[ledger.BudgetID]ledger.Budget)}
}

func (s *BudgetMemory) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[ledger.BudgetID]ledger.Budget)
	s.order = nil
}

func (s *BudgetMemory) Get(_ context.Context, id ledger.BudgetID) (ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.records[id]
	if !ok {
		return ledger.Budget{}, ledger.ErrNotFound
	}
	return b, nil
}

func (s *BudgetMemory) List(_ context.Context) ([]ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(ledger.Budget) bool { return true }), nil
}

func (s *BudgetMemory) ListByPocket(_ context.Context, pocketID ledger.PocketID) ([]ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(b ledger.Budget) bool { return b.PocketID == pocketID }), nil
}

func (s *BudgetMemory) ListByPeriod(_ context.Context, period string) ([]ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(b ledger.Budget) bool { return b.Period == period }), nil
}

func (s *BudgetMemory) filter(keep func(ledger.Budget) bool) []ledger.Budget {
	var result []ledger.Budget
	for _, id := range s.order {
		if b := s.records[id]; keep(b) {
			result = append(result, b)
		}
	}
	return result
}

func (s *BudgetMemory) Add(_ context.Context, b ledger.Budget) (ledger.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = ledger.BudgetID(newID())
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	s.records[b.ID] = b
	s.order = append(s.order, b.ID)
	return b, nil
}

func (s *BudgetMemory) Update(_ context.Context, b ledger.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[b.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	s.records[b.ID] = b
	return nil
}

func (s *BudgetMemory) Delete(_ context.Context, id ledger.BudgetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.records, id)
	s.order = removeID(s.order, id)
	return nil
}

func (s *BudgetMemory) AdjustSpent(_ context.Context, id ledger.BudgetID, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.records[id]
	if !ok {
		return ledger.ErrNotFound
	}
	b.SpentAmount = b.SpentAmount.Add(delta)
	b.UpdatedAt = time.Now().UTC()
	s.records[id] = b
	return nil
}

// =============================================================================
// EXPENSE MEMORY
// =============================================================================

type ExpenseMemory struct {
	mu      sync.RWMutex
	records map[ledger.ExpenseID]ledger.Expense
	order   []ledger.ExpenseID
}

func NewExpenseMemory() *ExpenseMemory {
	return &ExpenseMemory{records: make(map[ledger.ExpenseID]ledger.Expense)}
}

func (s *ExpenseMemory) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[ledger.ExpenseID]ledger.Expense)
	s.order = nil
}

func (s *ExpenseMemory) Get(_ context.Context, id ledger.ExpenseID) (ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.records[id]
	if !ok {
		return ledger.Expense{}, ledger.ErrNotFound
	}
	return e, nil
}

func (s *ExpenseMemory) List(_ context.Context) ([]ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(ledger.Expense) bool { return true }), nil
}

func (s *ExpenseMemory) ListByBudget(_ context.Context, budgetID ledger.BudgetID) ([]ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(e ledger.Expense) bool { return e.BudgetID == budgetID }), nil
}

func (s *ExpenseMemory) ListByDateRange(_ context.Context, from, to ledger.Date) ([]ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(e ledger.Expense) bool {
		return e.Date.AfterOrEqual(from) && e.Date.BeforeOrEqual(to)
	}), nil
}

func (s *ExpenseMemory) filter(keep func(ledger.Expense) bool) []ledger.Expense {
	var result []ledger.Expense
	for _, id := range s.order {
		if e := s.records[id]; keep(e) {
			result = append(result, e)
		}
	}
	return result
}

func (s *ExpenseMemory) Add(_ context.Context, e ledger.Expense) (ledger.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = ledger.ExpenseID(newID())
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	s.records[e.ID] = e
	s.order = append(s.order, e.ID)
	return e, nil
}

func (s *ExpenseMemory) Update(_ context.Context, e ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[e.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	s.records[e.ID] = e
	return nil
}

func (s *ExpenseMemory) Delete(_ context.Context, id ledger.ExpenseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.records, id)
	s.order = removeID(s.order, id)
	return nil
}

// =============================================================================
// RULE MEMORY
// =============================================================================

type RuleMemory struct {
	mu      sync.RWMutex
	records map[ledger.RuleID]ledger.Rule
	order   []ledger.RuleID
}

func NewRuleMemory() *RuleMemory {
	return &RuleMemory{records: make(map[ledger.RuleID]ledger.Rule)}
}

func (s *RuleMemory) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[ledger.RuleID]ledger.Rule)
	s.order = nil
}

func (s *RuleMemory) Get(_ context.Context, id ledger.RuleID) (ledger.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return ledger.Rule{}, ledger.ErrNotFound
	}
	return r, nil
}

func (s *RuleMemory) List(_ context.Context) ([]ledger.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(ledger.Rule) bool { return true }), nil
}

func (s *RuleMemory) ListByBudget(_ context.Context, budgetID ledger.BudgetID) ([]ledger.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(r ledger.Rule) bool { return r.BudgetID == budgetID }), nil
}

func (s *RuleMemory) ListActive(_ context.Context) ([]ledger.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(r ledger.Rule) bool { return r.Active }), nil
}

func (s *RuleMemory) filter(keep func(ledger.Rule) bool) []ledger.Rule {
	var result []ledger.Rule
	for _, id := range s.order {
		if r := s.records[id]; keep(r) {
			result = append(result, r)
		}
	}
	return result
}

func (s *RuleMemory) Add(_ context.Context, r ledger.Rule) (ledger.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = ledger.RuleID(newID())
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	s.records[r.ID] = r
	s.order = append(s.order, r.ID)
	return r, nil
}

func (s *RuleMemory) Update(_ context.Context, r ledger.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[r.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	s.records[r.ID] = r
	return nil
}

func (s *RuleMemory) Delete(_ context.Context, id ledger.RuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.records, id)
	s.order = removeID(s.order, id)
	return nil
}

func (s *RuleMemory) DeleteByBudget(_ context.Context, budgetID ledger.BudgetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []ledger.RuleID
	for _, id := range s.order {
		if s.records[id].BudgetID == budgetID {
			delete(s.records, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func removeID[T comparable](ids []T, id T) []T {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
