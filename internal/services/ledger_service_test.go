package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"homeledger/internal/core"
	"homeledger/internal/ledger"
	"homeledger/internal/storage"
)

// newBareService builds a service with no mirror and no AMQP client; the
// store is authoritative so all mutations still work.
func newBareService() *LedgerService {
	return NewLedgerService(ledger.New(), nil, nil)
}

// newMirroredService backs the service with a real SQLite mirror so tests
// can verify that store and mirror stay in agreement.
func newMirroredService(t *testing.T) (*LedgerService, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewLedgerService(ledger.New(), repo, nil), repo
}

func TestLedgerService_AddTransaction(t *testing.T) {
	svc := newBareService()
	ctx := context.Background()

	added, err := svc.AddTransaction(ctx, core.Transaction{
		Date:        core.NewDate(2024, 3, 5),
		Amount:      120,
		Description: "groceries",
		Category:    "Food",
		Person:      core.PersonYuval,
		Source:      core.SourceCreditCard,
	})
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if added.ID == "" {
		t.Error("AddTransaction() did not assign an id")
	}
	if got := len(svc.Store().Transactions()); got != 1 {
		t.Errorf("transactions len = %d, want 1", got)
	}
}

func TestLedgerService_AddTransaction_Invalid(t *testing.T) {
	svc := newBareService()

	_, err := svc.AddTransaction(context.Background(), core.Transaction{
		Date:   core.NewDate(2024, 3, 5),
		Person: "nobody",
		Source: core.SourceCash,
	})
	if !errors.Is(err, core.ErrInvalidPerson) {
		t.Errorf("AddTransaction() error = %v, want ErrInvalidPerson", err)
	}
	if got := len(svc.Store().Transactions()); got != 0 {
		t.Errorf("invalid transaction reached the store, len = %d", got)
	}
}

func TestLedgerService_ClearAndUndo(t *testing.T) {
	svc := newBareService()
	ctx := context.Background()

	_, _ = svc.AddTransaction(ctx, core.Transaction{
		Date:   core.NewDate(2024, 3, 5),
		Amount: 10,
		Person: core.PersonBenny,
		Source: core.SourceCash,
	})

	svc.ClearTransactions(ctx)
	if got := len(svc.Store().Transactions()); got != 0 {
		t.Fatalf("transactions after clear = %d, want 0", got)
	}

	svc.UndoTransactions(ctx)
	if got := len(svc.Store().Transactions()); got != 1 {
		t.Errorf("transactions after undo = %d, want 1", got)
	}
}

func TestLedgerService_LoanPaymentRoundTrip(t *testing.T) {
	svc := newBareService()
	ctx := context.Background()

	loan, err := svc.AddLoan(ctx, core.Loan{
		InitialAmount:   10000,
		RemainingAmount: 10000,
		StartDate:       core.NewDate(2024, 1, 1),
		Lender:          "bank",
	})
	if err != nil {
		t.Fatalf("AddLoan() error = %v", err)
	}

	p, err := svc.AddLoanPayment(ctx, loan.ID, core.LoanPayment{
		Date:   core.NewDate(2024, 2, 1),
		Amount: 200,
	})
	if err != nil {
		t.Fatalf("AddLoanPayment() error = %v", err)
	}
	if got := svc.Store().Loans()[0].RemainingAmount; got != 9800 {
		t.Errorf("RemainingAmount = %v, want 9800", got)
	}

	svc.DeleteLoanPayment(ctx, loan.ID, p.ID)
	if got := svc.Store().Loans()[0].RemainingAmount; got != 10000 {
		t.Errorf("RemainingAmount after delete = %v, want 10000", got)
	}
}

func TestLedgerService_AddLoanPayment_UnknownLoan(t *testing.T) {
	svc := newBareService()

	p, err := svc.AddLoanPayment(context.Background(), "missing", core.LoanPayment{
		Date:   core.NewDate(2024, 2, 1),
		Amount: 200,
	})
	if err != nil {
		t.Fatalf("AddLoanPayment() error = %v", err)
	}
	if p.ID != "" {
		t.Errorf("payment against unknown loan got id %q, want empty", p.ID)
	}
}

func TestLedgerService_SameDayIncomesSurviveReload(t *testing.T) {
	svc, repo := newMirroredService(t)
	ctx := context.Background()
	day := core.NewDate(2024, 3, 1)

	// Two entries for the same person on the same day must both land in the
	// mirror; a reload has to return their sum, not the last write.
	if err := svc.AddMonthlyIncome(ctx, core.MonthlyIncome{Person: core.PersonYuval, Date: day, Amount: 100}); err != nil {
		t.Fatalf("AddMonthlyIncome() error = %v", err)
	}
	if err := svc.AddMonthlyIncome(ctx, core.MonthlyIncome{Person: core.PersonYuval, Date: day, Amount: 200}); err != nil {
		t.Fatalf("AddMonthlyIncome() second entry error = %v", err)
	}

	sum := func(incomes []core.MonthlyIncome) float64 {
		var total float64
		for _, m := range incomes {
			total += m.Amount
		}
		return total
	}

	if got := sum(svc.Store().MonthlyIncomes()); got != 300 {
		t.Fatalf("store income sum = %v, want 300", got)
	}

	snap, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(snap.Incomes) != 2 || sum(snap.Incomes) != 300 {
		t.Errorf("mirror incomes = %d entries, sum %v, want 2 summing 300", len(snap.Incomes), sum(snap.Incomes))
	}

	restored := ledger.New()
	restored.ReplaceAll(snap)
	if got := sum(restored.MonthlyIncomes()); got != 300 {
		t.Errorf("income sum after reload = %v, want 300", got)
	}
}

func TestLedgerService_UpdateMonthlyIncome_AbsentEntry(t *testing.T) {
	svc, repo := newMirroredService(t)
	ctx := context.Background()
	day := core.NewDate(2024, 3, 1)

	if err := svc.AddMonthlyIncome(ctx, core.MonthlyIncome{Person: core.PersonYuval, Date: day, Amount: 100}); err != nil {
		t.Fatalf("AddMonthlyIncome() error = %v", err)
	}

	// The store no-ops on an absent entry; the mirror must not grow a row
	// the store never had.
	svc.UpdateMonthlyIncome(ctx, core.PersonBenny, day, 999, "")

	if got := len(svc.Store().MonthlyIncomes()); got != 1 {
		t.Fatalf("store incomes = %d, want 1", got)
	}
	snap, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(snap.Incomes) != 1 || snap.Incomes[0].Amount != 100 {
		t.Errorf("mirror incomes = %+v, want the single original entry", snap.Incomes)
	}
}

func TestLedgerService_SetSavingsPercentage(t *testing.T) {
	svc := newBareService()
	ctx := context.Background()

	svc.SetSavingsPercentage(ctx, 25)
	if got := svc.Store().SavingsPercentage(); got != 25 {
		t.Errorf("SavingsPercentage() = %v, want 25", got)
	}

	svc.SetSavingsPercentage(ctx, 200)
	if got := svc.Store().SavingsPercentage(); got != 25 {
		t.Errorf("SavingsPercentage() after invalid set = %v, want 25", got)
	}
}
