/*
coordinator.go - The multi-store transaction layer

PURPOSE:
  The Coordinator is the only component allowed to touch more than one
  store in a single operation. It validates first, then performs the
  minimal ordered sequence of store writes that moves the ledger from
  one consistent state to the next.

INVARIANTS (hold after every successful operation):
  1. allocatedAmount >= 0 and spentAmount >= 0 for every budget
  2. spentAmount <= allocatedAmount, except the uncategorized escape
     valve (allocatedAmount == 0), which may carry any spent amount
  3. Conservation: pocket.balance + sum(allocated of its live budgets)
     equals everything ever deposited into the pocket
  4. Every expense references a live budget; every budget a live pocket

CONCURRENCY:
  Every mutating operation runs its whole read-validate-write chain
  under the write lock; reads (get/list/summary) take the read lock, so
  no caller can observe a partially applied multi-store write. Stores
  stay individually thread-safe but know nothing about the aggregate
  invariant. Single in-process model; remote-backed stores make the
  network calls inside the critical section and their I/O layer owns
  retries.

SEE ALSO:
  - pocket.go, budget.go, expense.go, rules.go: the operations
  - summary.go: aggregate reads
*/
package ledger

import "sync"

// Coordinator orchestrates the pocket, budget, expense and rule stores
// and enforces the conservation invariants. Construct one per ledger;
// there are no package-level singletons.
type Coordinator struct {
	mu       sync.RWMutex
	pockets  PocketStore
	budgets  BudgetStore
	expenses ExpenseStore
	rules    RuleStore
}

func NewCoordinator(pockets PocketStore, budgets BudgetStore, expenses ExpenseStore, rules RuleStore) *Coordinator {
	return &Coordinator{
		pockets:  pockets,
		budgets:  budgets,
		expenses: expenses,
		rules:    rules,
	}
}
