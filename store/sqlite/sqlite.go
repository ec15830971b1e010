/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  File-backed persistence for the envelope ledger. One Store owns the
  connection; the per-entity stores (Pockets, Budgets, Expenses, Rules)
  share it and each implement the matching ledger interface.

STORAGE NOTES:
  - Monetary amounts are stored as decimal TEXT and re-parsed on read;
    SQLite floating arithmetic never touches money.
  - AdjustBalance/AdjustSpent read-modify-write inside a database
    transaction under the store mutex, so adjusts on the same record
    never interleave.
  - WAL mode: readers don't block, single writer, better crash
    recovery.

MIGRATION:
  Schema is created on Open(). The schema is four tables; a versioned
  migration tool would be more ceremony than schema.

USAGE:
  st, err := sqlite.Open("./data/ledger.db")
  if err != nil { ... }
  defer st.Close()
  coord := ledger.NewCoordinator(st.Pockets, st.Budgets, st.Expenses, st.Rules)

SEE ALSO:
  - ledger/store.go: interface contracts
  - ledger/store/memory.go: in-memory equivalent
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/envelope-engine/ledger"
)

// Store owns the database handle and exposes the four entity stores.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	Pockets  *Pockets
	Budgets  *Budgets
	Expenses *Expenses
	Rules    *Rules
}

// Open creates (or opens) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single connection: writes are serialized by the store mutex anyway,
	// and ":memory:" databases exist per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	s.Pockets = &Pockets{s: s}
	s.Budgets = &Budgets{s: s}
	s.Expenses = &Expenses{s: s}
	s.Rules = &Rules{s: s}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Reset wipes every table. Dev/demo use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"expenses", "budget_rules", "budgets", "pockets"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pockets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		balance TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		pocket_id TEXT NOT NULL,
		allocated_amount TEXT NOT NULL,
		spent_amount TEXT NOT NULL,
		period TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_budgets_pocket ON budgets(pocket_id);
	CREATE INDEX IF NOT EXISTS idx_budgets_period ON budgets(period);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT NOT NULL,
		date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_budget ON expenses(budget_id);
	CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date);

	CREATE TABLE IF NOT EXISTS budget_rules (
		id TEXT PRIMARY KEY,
		budget_id TEXT NOT NULL,
		keywords TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rules_budget ON budget_rules(budget_id);
	CREATE INDEX IF NOT EXISTS idx_rules_active ON budget_rules(active, priority DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// POCKETS
// =============================================================================

type Pockets struct {
	s *Store
}

const pocketColumns = "id, name, description, balance, created_at, updated_at"

func scanPocket(row interface{ Scan(...any) error }) (ledger.Pocket, error) {
	var p ledger.Pocket
	var balance, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &balance, &createdAt, &updatedAt); err != nil {
		return ledger.Pocket{}, err
	}
	p.Balance = parseDecimal(balance)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (r *Pockets) Get(ctx context.Context, id ledger.PocketID) (ledger.Pocket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row := r.s.db.QueryRowContext(ctx, "SELECT "+pocketColumns+" FROM pockets WHERE id = ?", string(id))
	p, err := scanPocket(row)
	if err == sql.ErrNoRows {
		return ledger.Pocket{}, ledger.ErrNotFound
	}
	return p, err
}

func (r *Pockets) List(ctx context.Context) ([]ledger.Pocket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows, err := r.s.db.QueryContext(ctx, "SELECT "+pocketColumns+" FROM pockets ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Pocket
	for rows.Next() {
		p, err := scanPocket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *Pockets) Add(ctx context.Context, p ledger.Pocket) (ledger.Pocket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID == "" {
		p.ID = ledger.PocketID(uuid.NewString())
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.s.db.ExecContext(ctx,
		"INSERT INTO pockets (id, name, description, balance, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		string(p.ID), p.Name, p.Description, p.Balance.String(), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return ledger.Pocket{}, err
	}
	return p, nil
}

func (r *Pockets) Update(ctx context.Context, p ledger.Pocket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx,
		"UPDATE pockets SET name = ?, description = ?, balance = ?, updated_at = ? WHERE id = ?",
		p.Name, p.Description, p.Balance.String(), formatTime(time.Now().UTC()), string(p.ID))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Pockets) Delete(ctx context.Context, id ledger.PocketID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx, "DELETE FROM pockets WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Pockets) AdjustBalance(ctx context.Context, id ledger.PocketID, delta decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Decimal arithmetic happens in Go; the DB transaction plus the
	// store mutex keep the read-modify-write atomic per record.
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		var balance string
		err := tx.QueryRowContext(ctx, "SELECT balance FROM pockets WHERE id = ?", string(id)).Scan(&balance)
		if err == sql.ErrNoRows {
			return ledger.ErrNotFound
		}
		if err != nil {
			return err
		}
		next := parseDecimal(balance).Add(delta)
		_, err = tx.ExecContext(ctx, "UPDATE pockets SET balance = ?, updated_at = ? WHERE id = ?",
			next.String(), formatTime(time.Now().UTC()), string(id))
		return err
	})
}

// =============================================================================
// BUDGETS
// =============================================================================

type Budgets struct {
	s *Store
}

const budgetColumns = "id, name, description, pocket_id, allocated_amount, spent_amount, period, created_at, updated_at"

func scanBudget(row interface{ Scan(...any) error }) (ledger.Budget, error) {
	var b ledger.Budget
	var allocated, spent, createdAt, updatedAt string
	if err := row.Scan(&b.ID, &b.Name, &b.Description, &b.PocketID, &allocated, &spent, &b.Period, &createdAt, &updatedAt); err != nil {
		return ledger.Budget{}, err
	}
	b.AllocatedAmount = parseDecimal(allocated)
	b.SpentAmount = parseDecimal(spent)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return b, nil
}

func (r *Budgets) Get(ctx context.Context, id ledger.BudgetID) (ledger.Budget, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row := r.s.db.QueryRowContext(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE id = ?", string(id))
	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return ledger.Budget{}, ledger.ErrNotFound
	}
	return b, err
}

func (r *Budgets) List(ctx context.Context) ([]ledger.Budget, error) {
	return r.query(ctx, "SELECT "+budgetColumns+" FROM budgets ORDER BY created_at, id")
}

func (r *Budgets) ListByPocket(ctx context.Context, pocketID ledger.PocketID) ([]ledger.Budget, error) {
	return r.query(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE pocket_id = ? ORDER BY created_at, id", string(pocketID))
}

func (r *Budgets) ListByPeriod(ctx context.Context, period string) ([]ledger.Budget, error) {
	return r.query(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE period = ? ORDER BY created_at, id", period)
}

func (r *Budgets) query(ctx context.Context, q string, args ...any) ([]ledger.Budget, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *Budgets) Add(ctx context.Context, b ledger.Budget) (ledger.Budget, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if b.ID == "" {
		b.ID = ledger.BudgetID(uuid.NewString())
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.s.db.ExecContext(ctx,
		"INSERT INTO budgets (id, name, description, pocket_id, allocated_amount, spent_amount, period, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		string(b.ID), b.Name, b.Description, string(b.PocketID), b.AllocatedAmount.String(), b.SpentAmount.String(), b.Period, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return ledger.Budget{}, err
	}
	return b, nil
}

func (r *Budgets) Update(ctx context.Context, b ledger.Budget) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx,
		"UPDATE budgets SET name = ?, description = ?, pocket_id = ?, allocated_amount = ?, spent_amount = ?, period = ?, updated_at = ? WHERE id = ?",
		b.Name, b.Description, string(b.PocketID), b.AllocatedAmount.String(), b.SpentAmount.String(), b.Period, formatTime(time.Now().UTC()), string(b.ID))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Budgets) Delete(ctx context.Context, id ledger.BudgetID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx, "DELETE FROM budgets WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Budgets) AdjustSpent(ctx context.Context, id ledger.BudgetID, delta decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		var spent string
		err := tx.QueryRowContext(ctx, "SELECT spent_amount FROM budgets WHERE id = ?", string(id)).Scan(&spent)
		if err == sql.ErrNoRows {
			return ledger.ErrNotFound
		}
		if err != nil {
			return err
		}
		next := parseDecimal(spent).Add(delta)
		_, err = tx.ExecContext(ctx, "UPDATE budgets SET spent_amount = ?, updated_at = ? WHERE id = ?",
			next.String(), formatTime(time.Now().UTC()), string(id))
		return err
	})
}

// =============================================================================
// EXPENSES
// =============================================================================

type Expenses struct {
	s *Store
}

const expenseColumns = "id, budget_id, amount, description, date, created_at, updated_at"

func scanExpense(row interface{ Scan(...any) error }) (ledger.Expense, error) {
	var e ledger.Expense
	var amount, date, createdAt, updatedAt string
	if err := row.Scan(&e.ID, &e.BudgetID, &amount, &e.Description, &date, &createdAt, &updatedAt); err != nil {
		return ledger.Expense{}, err
	}
	e.Amount = parseDecimal(amount)
	if d, err := ledger.ParseDate(date); err == nil {
		e.Date = d
	}
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return e, nil
}

func (r *Expenses) Get(ctx context.Context, id ledger.ExpenseID) (ledger.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row := r.s.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", string(id))
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return ledger.Expense{}, ledger.ErrNotFound
	}
	return e, err
}

func (r *Expenses) List(ctx context.Context) ([]ledger.Expense, error) {
	return r.query(ctx, "SELECT "+expenseColumns+" FROM expenses ORDER BY date, created_at, id")
}

func (r *Expenses) ListByBudget(ctx context.Context, budgetID ledger.BudgetID) ([]ledger.Expense, error) {
	return r.query(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE budget_id = ? ORDER BY date, created_at, id", string(budgetID))
}

func (r *Expenses) ListByDateRange(ctx context.Context, from, to ledger.Date) ([]ledger.Expense, error) {
	return r.query(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE date >= ? AND date <= ? ORDER BY date, created_at, id",
		from.String(), to.String())
}

func (r *Expenses) query(ctx context.Context, q string, args ...any) ([]ledger.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *Expenses) Add(ctx context.Context, e ledger.Expense) (ledger.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e.ID == "" {
		e.ID = ledger.ExpenseID(uuid.NewString())
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.s.db.ExecContext(ctx,
		"INSERT INTO expenses (id, budget_id, amount, description, date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		string(e.ID), string(e.BudgetID), e.Amount.String(), e.Description, e.Date.String(), formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return ledger.Expense{}, err
	}
	return e, nil
}

func (r *Expenses) Update(ctx context.Context, e ledger.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx,
		"UPDATE expenses SET budget_id = ?, amount = ?, description = ?, date = ?, updated_at = ? WHERE id = ?",
		string(e.BudgetID), e.Amount.String(), e.Description, e.Date.String(), formatTime(time.Now().UTC()), string(e.ID))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Expenses) Delete(ctx context.Context, id ledger.ExpenseID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// =============================================================================
// RULES
// =============================================================================

type Rules struct {
	s *Store
}

const ruleColumns = "id, budget_id, keywords, priority, active, created_at, updated_at"

func scanRule(row interface{ Scan(...any) error }) (ledger.Rule, error) {
	var rule ledger.Rule
	var createdAt, updatedAt string
	if err := row.Scan(&rule.ID, &rule.BudgetID, &rule.Keywords, &rule.Priority, &rule.Active, &createdAt, &updatedAt); err != nil {
		return ledger.Rule{}, err
	}
	rule.CreatedAt = parseTime(createdAt)
	rule.UpdatedAt = parseTime(updatedAt)
	return rule, nil
}

func (r *Rules) Get(ctx context.Context, id ledger.RuleID) (ledger.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row := r.s.db.QueryRowContext(ctx, "SELECT "+ruleColumns+" FROM budget_rules WHERE id = ?", string(id))
	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return ledger.Rule{}, ledger.ErrNotFound
	}
	return rule, err
}

func (r *Rules) List(ctx context.Context) ([]ledger.Rule, error) {
	return r.query(ctx, "SELECT "+ruleColumns+" FROM budget_rules ORDER BY priority DESC, created_at, id")
}

func (r *Rules) ListByBudget(ctx context.Context, budgetID ledger.BudgetID) ([]ledger.Rule, error) {
	return r.query(ctx, "SELECT "+ruleColumns+" FROM budget_rules WHERE budget_id = ? ORDER BY priority DESC, created_at, id", string(budgetID))
}

func (r *Rules) ListActive(ctx context.Context) ([]ledger.Rule, error) {
	return r.query(ctx, "SELECT "+ruleColumns+" FROM budget_rules WHERE active ORDER BY priority DESC, created_at, id")
}

func (r *Rules) query(ctx context.Context, q string, args ...any) ([]ledger.Rule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows, err := r.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}

func (r *Rules) Add(ctx context.Context, rule ledger.Rule) (ledger.Rule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rule.ID == "" {
		rule.ID = ledger.RuleID(uuid.NewString())
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err := r.s.db.ExecContext(ctx,
		"INSERT INTO budget_rules (id, budget_id, keywords, priority, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		string(rule.ID), string(rule.BudgetID), rule.Keywords, rule.Priority, rule.Active, formatTime(rule.CreatedAt), formatTime(rule.UpdatedAt))
	if err != nil {
		return ledger.Rule{}, err
	}
	return rule, nil
}

func (r *Rules) Update(ctx context.Context, rule ledger.Rule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx,
		"UPDATE budget_rules SET budget_id = ?, keywords = ?, priority = ?, active = ?, updated_at = ? WHERE id = ?",
		string(rule.BudgetID), rule.Keywords, rule.Priority, rule.Active, formatTime(time.Now().UTC()), string(rule.ID))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Rules) Delete(ctx context.Context, id ledger.RuleID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, err := r.s.db.ExecContext(ctx, "DELETE FROM budget_rules WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *Rules) DeleteByBudget(ctx context.Context, budgetID ledger.BudgetID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, err := r.s.db.ExecContext(ctx, "DELETE FROM budget_rules WHERE budget_id = ?", string(budgetID))
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
