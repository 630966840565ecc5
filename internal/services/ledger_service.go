package services

import (
	"context"
	"fmt"
	"log/slog"

	"homeledger/internal/amqp"
	"homeledger/internal/core"
	"homeledger/internal/ledger"
	"homeledger/internal/storage"
)

// LedgerService orchestrates ledger mutations across the in-memory store,
// the SQLite mirror, and AMQP sync messages. The store is authoritative:
// a mirror or publish failure is logged but does not fail the mutation.
type LedgerService struct {
	store      *ledger.Store
	repo       *storage.Repository
	amqpClient *amqp.Client
}

func NewLedgerService(store *ledger.Store, repo *storage.Repository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		store:      store,
		repo:       repo,
		amqpClient: amqpClient,
	}
}

// Store exposes the underlying store for aggregation queries.
func (s *LedgerService) Store() *ledger.Store {
	return s.store
}

func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	added := s.store.AddTransaction(t)

	s.mirror(ctx, "insert transaction", func(ctx context.Context) error {
		return s.repo.InsertTransaction(ctx, added)
	})
	s.publishSync(ctx, amqp.SyncUpsert, []string{added.ID})

	return added, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	s.store.UpdateTransaction(id, t)
	t.ID = id

	s.mirror(ctx, "update transaction", func(ctx context.Context) error {
		return s.repo.UpdateTransaction(ctx, t)
	})
	s.publishSync(ctx, amqp.SyncUpsert, []string{id})

	return nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) {
	s.store.DeleteTransaction(id)

	s.mirror(ctx, "delete transaction", func(ctx context.Context) error {
		return s.repo.DeleteTransaction(ctx, id)
	})
	s.publishSync(ctx, amqp.SyncDelete, []string{id})
}

// ClearTransactions empties the ledger. The store snapshots the list first,
// so UndoTransactions can bring it back.
func (s *LedgerService) ClearTransactions(ctx context.Context) {
	ids := transactionIDs(s.store.Transactions())
	s.store.ClearTransactions()

	s.mirror(ctx, "clear transactions", func(ctx context.Context) error {
		return s.repo.DeleteAllTransactions(ctx)
	})
	if len(ids) > 0 {
		s.publishSync(ctx, amqp.SyncDelete, ids)
	}
}

// UndoTransactions restores the transaction list to its state before the
// last clear or import, then rebuilds the mirror wholesale.
func (s *LedgerService) UndoTransactions(ctx context.Context) {
	s.store.UndoTransactions()
	restored := s.store.Transactions()

	s.mirror(ctx, "rebuild transactions", func(ctx context.Context) error {
		if err := s.repo.DeleteAllTransactions(ctx); err != nil {
			return err
		}
		return s.repo.BulkInsertTransactions(ctx, restored)
	})
	s.publishSync(ctx, amqp.SyncImport, transactionIDs(restored))
}

func (s *LedgerService) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("validate category: %w", err)
	}

	added := s.store.AddCategory(c)

	s.mirror(ctx, "insert category", func(ctx context.Context) error {
		return s.repo.InsertCategory(ctx, added)
	})

	return added, nil
}

func (s *LedgerService) UpdateCategory(ctx context.Context, id string, c core.Category) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate category: %w", err)
	}

	s.store.UpdateCategory(id, c)
	c.ID = id

	s.mirror(ctx, "update category", func(ctx context.Context) error {
		return s.repo.UpdateCategory(ctx, c)
	})

	return nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id string) {
	s.store.DeleteCategory(id)

	s.mirror(ctx, "delete category", func(ctx context.Context) error {
		return s.repo.DeleteCategory(ctx, id)
	})
}

// SetBudget sets a category's monthly budget ceiling. Zero removes it.
func (s *LedgerService) SetBudget(ctx context.Context, categoryID string, amount float64) {
	s.store.SetBudget(categoryID, amount)

	for _, c := range s.store.Categories() {
		if c.ID == categoryID {
			cat := c
			s.mirror(ctx, "update category budget", func(ctx context.Context) error {
				return s.repo.UpdateCategory(ctx, cat)
			})
			return
		}
	}
}

func (s *LedgerService) AddMonthlyIncome(ctx context.Context, m core.MonthlyIncome) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validate monthly income: %w", err)
	}

	s.store.AddMonthlyIncome(m)

	s.mirror(ctx, "insert monthly income", func(ctx context.Context) error {
		return s.repo.InsertMonthlyIncome(ctx, m)
	})

	return nil
}

func (s *LedgerService) UpdateMonthlyIncome(ctx context.Context, person core.Person, date core.Date, amount float64, notes string) {
	s.store.UpdateMonthlyIncome(person, date, amount, notes)

	s.mirror(ctx, "update monthly income", func(ctx context.Context) error {
		return s.repo.UpdateMonthlyIncome(ctx, core.MonthlyIncome{
			Person: person,
			Date:   date,
			Amount: amount,
			Notes:  notes,
		})
	})
}

func (s *LedgerService) DeleteMonthlyIncome(ctx context.Context, person core.Person, date core.Date) {
	s.store.DeleteMonthlyIncome(person, date)

	s.mirror(ctx, "delete monthly income", func(ctx context.Context) error {
		return s.repo.DeleteMonthlyIncome(ctx, person, date)
	})
}

func (s *LedgerService) ClearMonthlyIncomes(ctx context.Context) {
	s.store.ClearMonthlyIncomes()

	s.mirror(ctx, "clear monthly incomes", func(ctx context.Context) error {
		return s.repo.DeleteAllMonthlyIncomes(ctx)
	})
}

func (s *LedgerService) SetSavingsPercentage(ctx context.Context, pct float64) {
	s.store.SetSavingsPercentage(pct)

	// Mirror the value the store accepted, not the raw input.
	applied := s.store.SavingsPercentage()
	s.mirror(ctx, "set savings percentage", func(ctx context.Context) error {
		return s.repo.SetSavingsPercentage(ctx, applied)
	})
}

func (s *LedgerService) AddLoan(ctx context.Context, l core.Loan) (core.Loan, error) {
	if err := l.Validate(); err != nil {
		return core.Loan{}, fmt.Errorf("validate loan: %w", err)
	}

	added := s.store.AddLoan(l)

	s.mirror(ctx, "insert loan", func(ctx context.Context) error {
		return s.repo.InsertLoan(ctx, added)
	})

	return added, nil
}

func (s *LedgerService) UpdateLoan(ctx context.Context, id string, l core.Loan) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("validate loan: %w", err)
	}

	s.store.UpdateLoan(id, l)
	l.ID = id

	s.mirror(ctx, "update loan", func(ctx context.Context) error {
		return s.repo.UpdateLoan(ctx, l)
	})

	return nil
}

func (s *LedgerService) DeleteLoan(ctx context.Context, id string) {
	s.store.DeleteLoan(id)

	s.mirror(ctx, "delete loan", func(ctx context.Context) error {
		return s.repo.DeleteLoan(ctx, id)
	})
}

// AddLoanPayment records a payment and mirrors both the payment row and the
// loan's adjusted remaining amount.
func (s *LedgerService) AddLoanPayment(ctx context.Context, loanID string, p core.LoanPayment) (core.LoanPayment, error) {
	if err := p.Validate(); err != nil {
		return core.LoanPayment{}, fmt.Errorf("validate loan payment: %w", err)
	}

	added := s.store.AddLoanPayment(loanID, p)
	if added.ID == "" {
		// Unknown loan: the store no-opped, nothing to mirror.
		return added, nil
	}

	if loan, ok := s.findLoan(loanID); ok {
		s.mirror(ctx, "insert loan payment", func(ctx context.Context) error {
			return s.repo.InsertLoanPayment(ctx, loanID, added, loan.RemainingAmount)
		})
	}

	return added, nil
}

func (s *LedgerService) DeleteLoanPayment(ctx context.Context, loanID, paymentID string) {
	s.store.DeleteLoanPayment(loanID, paymentID)

	if loan, ok := s.findLoan(loanID); ok {
		s.mirror(ctx, "delete loan payment", func(ctx context.Context) error {
			return s.repo.DeleteLoanPayment(ctx, loanID, paymentID, loan.RemainingAmount)
		})
	}
}

// WithdrawFromLoan grows the loan's remaining amount by the withdrawn
// amount. Only the running balance records it.
func (s *LedgerService) WithdrawFromLoan(ctx context.Context, loanID string, amount float64) {
	s.store.WithdrawFromLoan(loanID, amount)

	if loan, ok := s.findLoan(loanID); ok {
		s.mirror(ctx, "update loan balance", func(ctx context.Context) error {
			return s.repo.UpdateLoan(ctx, loan)
		})
	}
}

func (s *LedgerService) AddInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	if err := inv.Validate(); err != nil {
		return core.Investment{}, fmt.Errorf("validate investment: %w", err)
	}

	added := s.store.AddInvestment(inv)

	s.mirror(ctx, "insert investment", func(ctx context.Context) error {
		return s.repo.InsertInvestment(ctx, added)
	})

	return added, nil
}

func (s *LedgerService) UpdateInvestment(ctx context.Context, id string, inv core.Investment) error {
	if err := inv.Validate(); err != nil {
		return fmt.Errorf("validate investment: %w", err)
	}

	s.store.UpdateInvestment(id, inv)
	inv.ID = id

	s.mirror(ctx, "update investment", func(ctx context.Context) error {
		return s.repo.UpdateInvestment(ctx, inv)
	})

	return nil
}

func (s *LedgerService) DeleteInvestment(ctx context.Context, id string) {
	s.store.DeleteInvestment(id)

	s.mirror(ctx, "delete investment", func(ctx context.Context) error {
		return s.repo.DeleteInvestment(ctx, id)
	})
}

func (s *LedgerService) findLoan(id string) (core.Loan, bool) {
	for _, l := range s.store.Loans() {
		if l.ID == id {
			return l, true
		}
	}
	return core.Loan{}, false
}

func (s *LedgerService) mirror(ctx context.Context, op string, fn func(context.Context) error) {
	if s.repo == nil {
		return
	}
	if err := fn(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to mirror ledger mutation",
			"operation", op, "error", err)
		// Don't fail the request - the in-memory store is authoritative
	}
}

func (s *LedgerService) publishSync(ctx context.Context, kind amqp.SyncKind, ids []string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishLedgerSync(ctx, kind, ids); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"kind", string(kind), "count", len(ids), "error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}

func transactionIDs(ts []core.Transaction) []string {
	ids := make([]string, 0, len(ts))
	for _, t := range ts {
		ids = append(ids, t.ID)
	}
	return ids
}
