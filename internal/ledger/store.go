// Package ledger holds the in-memory household ledger: transactions,
// categories, monthly incomes, loans, and investments, plus the aggregation
// queries derived from them.
package ledger

import (
	"sync"

	"github.com/google/uuid"

	"homeledger/internal/core"
)

// Store is the single state container for the ledger. It is owned by one
// coordinator and passed around explicitly; there is no package-level
// instance. Mutations are invoked from a single control path, queries may
// run concurrently.
//
// Deletes and updates keyed by an absent identifier silently no-op, matching
// the hosted backend's behavior. Callers that need feedback check membership
// first.
type Store struct {
	mu                sync.RWMutex
	transactions      []core.Transaction
	history           [][]core.Transaction
	categories        []core.Category
	incomes           []core.MonthlyIncome
	loans             []core.Loan
	investments       []core.Investment
	savingsPercentage float64
}

// Snapshot is the wholesale state used for full reloads after sign-in or an
// external change notification, and for persistence mirroring.
type Snapshot struct {
	Transactions      []core.Transaction
	Categories        []core.Category
	Incomes           []core.MonthlyIncome
	Loans             []core.Loan
	Investments       []core.Investment
	SavingsPercentage float64
}

func New() *Store {
	return &Store{savingsPercentage: 10}
}

// ReplaceAll swaps the entire state with the given snapshot. The undo
// history does not survive a reload.
func (s *Store) ReplaceAll(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append([]core.Transaction(nil), snap.Transactions...)
	s.categories = append([]core.Category(nil), snap.Categories...)
	s.incomes = append([]core.MonthlyIncome(nil), snap.Incomes...)
	s.loans = cloneLoans(snap.Loans)
	s.investments = append([]core.Investment(nil), snap.Investments...)
	if snap.SavingsPercentage > 0 {
		s.savingsPercentage = snap.SavingsPercentage
	}
	s.history = nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Transactions:      append([]core.Transaction(nil), s.transactions...),
		Categories:        append([]core.Category(nil), s.categories...),
		Incomes:           append([]core.MonthlyIncome(nil), s.incomes...),
		Loans:             cloneLoans(s.loans),
		Investments:       append([]core.Investment(nil), s.investments...),
		SavingsPercentage: s.savingsPercentage,
	}
}

// AddTransaction assigns a fresh identifier and appends. Collection order is
// insertion order; display ordering is the presenter's job.
func (s *Store) AddTransaction(t core.Transaction) core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	s.transactions = append(s.transactions, t)
	return t
}

func (s *Store) UpdateTransaction(id string, t core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			t.ID = id
			s.transactions[i] = t
			return
		}
	}
}

func (s *Store) DeleteTransaction(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return
		}
	}
}

// ImportTransactions appends a parsed statement batch. The person tag comes
// from the caller, each row gets a fresh identifier. The pre-import state is
// snapshotted so the batch can be undone.
func (s *Store) ImportTransactions(person core.Person, batch []core.TransactionCandidate) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushHistory()
	added := make([]core.Transaction, 0, len(batch))
	for _, c := range batch {
		t := core.Transaction{
			ID:          uuid.NewString(),
			Date:        c.Date,
			Amount:      c.Amount,
			Description: c.Description,
			Category:    c.Category,
			Person:      person,
			Source:      c.Source,
			Notes:       c.Notes,
		}
		s.transactions = append(s.transactions, t)
		added = append(added, t)
	}
	return added
}

// ClearTransactions empties the transaction list after snapshotting it, so
// UndoTransactions can restore it.
func (s *Store) ClearTransactions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushHistory()
	s.transactions = nil
}

// UndoTransactions restores the transaction list to its state before the
// last clear or import. No-op when there is nothing to undo.
func (s *Store) UndoTransactions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return
	}
	s.transactions = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
}

// Transactions returns a copy of the transaction list in insertion order.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.transactions...)
}

func (s *Store) AddCategory(c core.Category) core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	s.categories = append(s.categories, c)
	return c
}

// UpdateCategory replaces the category's fields. Renaming does not touch
// transactions that reference the old name; they fall back to the default
// color and lose their budget linkage. Documented soft-reference limitation.
func (s *Store) UpdateCategory(id string, c core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			c.ID = id
			s.categories[i] = c
			return
		}
	}
}

func (s *Store) DeleteCategory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return
		}
	}
}

// SetBudget sets a category's monthly budget. Zero removes the budget.
func (s *Store) SetBudget(categoryID string, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == categoryID {
			s.categories[i].Budget = amount
			return
		}
	}
}

func (s *Store) Categories() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category(nil), s.categories...)
}

func (s *Store) AddMonthlyIncome(m core.MonthlyIncome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes = append(s.incomes, m)
}

// UpdateMonthlyIncome rewrites the amount and notes of the entry matching
// person and date.
func (s *Store) UpdateMonthlyIncome(person core.Person, date core.Date, amount float64, notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.incomes {
		if s.incomes[i].Person == person && s.incomes[i].Date.Equal(date.Time) {
			s.incomes[i].Amount = amount
			s.incomes[i].Notes = notes
			return
		}
	}
}

func (s *Store) DeleteMonthlyIncome(person core.Person, date core.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.incomes {
		if s.incomes[i].Person == person && s.incomes[i].Date.Equal(date.Time) {
			s.incomes = append(s.incomes[:i], s.incomes[i+1:]...)
			return
		}
	}
}

func (s *Store) ClearMonthlyIncomes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes = nil
}

func (s *Store) MonthlyIncomes() []core.MonthlyIncome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.MonthlyIncome(nil), s.incomes...)
}

// SetSavingsPercentage sets the share of monthly income earmarked as
// savings. Values outside [0,100] are ignored.
func (s *Store) SetSavingsPercentage(pct float64) {
	if pct < 0 || pct > 100 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savingsPercentage = pct
}

func (s *Store) SavingsPercentage() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savingsPercentage
}

func (s *Store) AddLoan(l core.Loan) core.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = uuid.NewString()
	l.Payments = nil
	s.loans = append(s.loans, l)
	return l
}

// UpdateLoan replaces the loan's own fields, keeping its payment list.
func (s *Store) UpdateLoan(id string, l core.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.loans {
		if s.loans[i].ID == id {
			l.ID = id
			l.Payments = s.loans[i].Payments
			s.loans[i] = l
			return
		}
	}
}

func (s *Store) DeleteLoan(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.loans {
		if s.loans[i].ID == id {
			s.loans = append(s.loans[:i], s.loans[i+1:]...)
			return
		}
	}
}

// AddLoanPayment records a payment against the loan and reduces its
// remaining amount by the payment amount.
func (s *Store) AddLoanPayment(loanID string, p core.LoanPayment) core.LoanPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.loans {
		if s.loans[i].ID == loanID {
			p.ID = uuid.NewString()
			s.loans[i].RemainingAmount -= p.Amount
			s.loans[i].Payments = append(s.loans[i].Payments, p)
			return p
		}
	}
	return core.LoanPayment{}
}

// DeleteLoanPayment reverses a payment: the amount is added back to the
// loan's remaining amount and the payment is dropped from the list. An
// unknown payment id leaves the remaining amount untouched.
func (s *Store) DeleteLoanPayment(loanID, paymentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.loans {
		if s.loans[i].ID != loanID {
			continue
		}
		for j, p := range s.loans[i].Payments {
			if p.ID == paymentID {
				s.loans[i].RemainingAmount += p.Amount
				s.loans[i].Payments = append(s.loans[i].Payments[:j], s.loans[i].Payments[j+1:]...)
				return
			}
		}
		return
	}
}

// WithdrawFromLoan treats a withdrawal as new borrowing against the linked
// savings pool: the remaining amount grows by the withdrawn amount. Only the
// running balance records it; there is no withdrawal ledger.
func (s *Store) WithdrawFromLoan(loanID string, amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.loans {
		if s.loans[i].ID == loanID {
			s.loans[i].RemainingAmount += amount
			return
		}
	}
}

func (s *Store) Loans() []core.Loan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLoans(s.loans)
}

func (s *Store) AddInvestment(inv core.Investment) core.Investment {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.ID = uuid.NewString()
	s.investments = append(s.investments, inv)
	return inv
}

func (s *Store) UpdateInvestment(id string, inv core.Investment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.investments {
		if s.investments[i].ID == id {
			inv.ID = id
			s.investments[i] = inv
			return
		}
	}
}

func (s *Store) DeleteInvestment(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.investments {
		if s.investments[i].ID == id {
			s.investments = append(s.investments[:i], s.investments[i+1:]...)
			return
		}
	}
}

func (s *Store) Investments() []core.Investment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Investment(nil), s.investments...)
}

// pushHistory snapshots the transaction list before a destructive mutation.
// Caller holds the write lock.
func (s *Store) pushHistory() {
	s.history = append(s.history, append([]core.Transaction(nil), s.transactions...))
}

func cloneLoans(in []core.Loan) []core.Loan {
	out := make([]core.Loan, len(in))
	for i, l := range in {
		l.Payments = append([]core.LoanPayment(nil), l.Payments...)
		out[i] = l
	}
	return out
}
