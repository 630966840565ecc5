// Package storage mirrors the ledger into SQLite. The in-memory store stays
// authoritative while the process runs; this adapter gives it durability and
// feeds the full reload performed after sign-in or an external change
// notification.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"homeledger/internal/core"
	"homeledger/internal/ledger"
)

// Sync states of a mirrored transaction. Imported rows start pending; the
// worker moves them to synced once the sync message is processed.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

const savingsPercentageKey = "savings_percentage"

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, date, amount, description, category, person, source, notes, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date.ISO(), t.Amount, t.Description, t.Category, string(t.Person), string(t.Source), t.Notes, SyncPending)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET date = ?, amount = ?, description = ?, category = ?, person = ?, source = ?, notes = ?, sync_status = ?
		 WHERE id = ?`,
		t.Date.ISO(), t.Amount, t.Description, t.Category, string(t.Person), string(t.Source), t.Notes, SyncPending, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// BulkInsertTransactions writes an imported batch in one database
// transaction so a partial batch never lands in the mirror.
func (r *Repository) BulkInsertTransactions(ctx context.Context, batch []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (id, date, amount, description, category, person, source, notes, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare bulk insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range batch {
		if _, err := stmt.ExecContext(ctx,
			t.ID, t.Date.ISO(), t.Amount, t.Description, t.Category, string(t.Person), string(t.Source), t.Notes, SyncPending); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk insert: %w", err)
	}

	slog.InfoContext(ctx, "Transaction batch mirrored", "count", len(batch))
	return nil
}

func (r *Repository) DeleteAllTransactions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("delete all transactions: %w", err)
	}
	return nil
}

// PendingTransactionIDs returns ids of transactions awaiting sync, oldest
// first, for the worker's startup catch-up.
func (r *Repository) PendingTransactionIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM transactions WHERE sync_status = ? ORDER BY created_at LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending transactions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) MarkTransactionSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, SyncSynced, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return nil
}

func (r *Repository) MarkTransactionSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, SyncError, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	return nil
}

func (r *Repository) InsertCategory(ctx context.Context, c core.Category) error {
	keywords, err := json.Marshal(c.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, color, keywords, budget) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Color, string(keywords), c.Budget)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	keywords, err := json.Marshal(c.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?, keywords = ?, budget = ? WHERE id = ?`,
		c.Name, c.Color, string(keywords), c.Budget, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// InsertMonthlyIncome appends an income entry. Several entries for the same
// person and date are kept as separate rows and summed by the queries.
func (r *Repository) InsertMonthlyIncome(ctx context.Context, m core.MonthlyIncome) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO monthly_incomes (person, date, amount, notes) VALUES (?, ?, ?, ?)`,
		string(m.Person), m.Date.ISO(), m.Amount, m.Notes)
	if err != nil {
		return fmt.Errorf("insert monthly income: %w", err)
	}
	return nil
}

// UpdateMonthlyIncome rewrites the oldest entry matching person and date.
// No row is written when none matches.
func (r *Repository) UpdateMonthlyIncome(ctx context.Context, m core.MonthlyIncome) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE monthly_incomes SET amount = ?, notes = ?
		 WHERE id = (SELECT id FROM monthly_incomes WHERE person = ? AND date = ? ORDER BY id LIMIT 1)`,
		m.Amount, m.Notes, string(m.Person), m.Date.ISO())
	if err != nil {
		return fmt.Errorf("update monthly income: %w", err)
	}
	return nil
}

// DeleteMonthlyIncome removes the oldest entry matching person and date,
// leaving later same-day entries in place.
func (r *Repository) DeleteMonthlyIncome(ctx context.Context, person core.Person, date core.Date) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM monthly_incomes
		 WHERE id = (SELECT id FROM monthly_incomes WHERE person = ? AND date = ? ORDER BY id LIMIT 1)`,
		string(person), date.ISO())
	if err != nil {
		return fmt.Errorf("delete monthly income: %w", err)
	}
	return nil
}

func (r *Repository) DeleteAllMonthlyIncomes(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM monthly_incomes`)
	if err != nil {
		return fmt.Errorf("delete all monthly incomes: %w", err)
	}
	return nil
}

func (r *Repository) InsertLoan(ctx context.Context, l core.Loan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO loans (id, initial_amount, remaining_amount, start_date, lender) VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.InitialAmount, l.RemainingAmount, l.StartDate.ISO(), l.Lender)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

// UpdateLoan rewrites the loan row, including the incrementally maintained
// remaining amount. Payment rows are written separately.
func (r *Repository) UpdateLoan(ctx context.Context, l core.Loan) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE loans SET initial_amount = ?, remaining_amount = ?, start_date = ?, lender = ? WHERE id = ?`,
		l.InitialAmount, l.RemainingAmount, l.StartDate.ISO(), l.Lender, l.ID)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	return nil
}

func (r *Repository) DeleteLoan(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	return nil
}

// InsertLoanPayment writes the payment row and the loan's adjusted remaining
// amount together, so the mirror never holds one without the other.
func (r *Repository) InsertLoanPayment(ctx context.Context, loanID string, p core.LoanPayment, remaining float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin loan payment insert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO loan_payments (id, loan_id, date, amount, notes) VALUES (?, ?, ?, ?, ?)`,
		p.ID, loanID, p.Date.ISO(), p.Amount, p.Notes); err != nil {
		return fmt.Errorf("insert loan payment: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE loans SET remaining_amount = ? WHERE id = ?`, remaining, loanID); err != nil {
		return fmt.Errorf("update loan remaining amount: %w", err)
	}
	return tx.Commit()
}

// DeleteLoanPayment removes the payment row and restores the loan's
// remaining amount in one transaction.
func (r *Repository) DeleteLoanPayment(ctx context.Context, loanID, paymentID string, remaining float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin loan payment delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM loan_payments WHERE id = ? AND loan_id = ?`, paymentID, loanID); err != nil {
		return fmt.Errorf("delete loan payment: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE loans SET remaining_amount = ? WHERE id = ?`, remaining, loanID); err != nil {
		return fmt.Errorf("update loan remaining amount: %w", err)
	}
	return tx.Commit()
}

func (r *Repository) InsertInvestment(ctx context.Context, inv core.Investment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO investments (id, name, type, initial_amount, current_amount, start_date, monthly_contribution, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Name, string(inv.Type), inv.InitialAmount, inv.CurrentAmount, inv.StartDate.ISO(), inv.MonthlyContribution, inv.Notes)
	if err != nil {
		return fmt.Errorf("insert investment: %w", err)
	}
	return nil
}

func (r *Repository) UpdateInvestment(ctx context.Context, inv core.Investment) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE investments SET name = ?, type = ?, initial_amount = ?, current_amount = ?, start_date = ?, monthly_contribution = ?, notes = ?
		 WHERE id = ?`,
		inv.Name, string(inv.Type), inv.InitialAmount, inv.CurrentAmount, inv.StartDate.ISO(), inv.MonthlyContribution, inv.Notes, inv.ID)
	if err != nil {
		return fmt.Errorf("update investment: %w", err)
	}
	return nil
}

func (r *Repository) DeleteInvestment(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM investments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	return nil
}

func (r *Repository) SetSavingsPercentage(ctx context.Context, pct float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		savingsPercentageKey, strconv.FormatFloat(pct, 'f', -1, 64))
	if err != nil {
		return fmt.Errorf("set savings percentage: %w", err)
	}
	return nil
}

// LoadAll reads the whole mirror into a ledger snapshot, used for the full
// reload that replaces in-memory state wholesale.
func (r *Repository) LoadAll(ctx context.Context) (ledger.Snapshot, error) {
	var snap ledger.Snapshot
	started := time.Now()

	transactions, err := r.loadTransactions(ctx)
	if err != nil {
		return snap, err
	}
	snap.Transactions = transactions

	categories, err := r.loadCategories(ctx)
	if err != nil {
		return snap, err
	}
	snap.Categories = categories

	incomes, err := r.loadMonthlyIncomes(ctx)
	if err != nil {
		return snap, err
	}
	snap.Incomes = incomes

	loans, err := r.loadLoans(ctx)
	if err != nil {
		return snap, err
	}
	snap.Loans = loans

	investments, err := r.loadInvestments(ctx)
	if err != nil {
		return snap, err
	}
	snap.Investments = investments

	var pctValue string
	err = r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, savingsPercentageKey).Scan(&pctValue)
	switch {
	case err == sql.ErrNoRows:
		// keep the store default
	case err != nil:
		return snap, fmt.Errorf("load savings percentage: %w", err)
	default:
		if pct, parseErr := strconv.ParseFloat(pctValue, 64); parseErr == nil {
			snap.SavingsPercentage = pct
		}
	}

	slog.InfoContext(ctx, "Ledger snapshot loaded",
		"transactions", len(snap.Transactions),
		"categories", len(snap.Categories),
		"loans", len(snap.Loans),
		"elapsed", time.Since(started))
	return snap, nil
}

func (r *Repository) loadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, amount, description, category, person, source, notes
		 FROM transactions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var date, person, source string
		if err := rows.Scan(&t.ID, &date, &t.Amount, &t.Description, &t.Category, &person, &source, &t.Notes); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		t.Person = core.Person(person)
		t.Source = core.Source(source)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) loadCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, color, keywords, budget FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var keywords string
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &keywords, &c.Budget); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if keywords != "" {
			if err := json.Unmarshal([]byte(keywords), &c.Keywords); err != nil {
				return nil, fmt.Errorf("category %s keywords: %w", c.ID, err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) loadMonthlyIncomes(ctx context.Context) ([]core.MonthlyIncome, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT person, date, amount, notes FROM monthly_incomes ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("load monthly incomes: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlyIncome
	for rows.Next() {
		var m core.MonthlyIncome
		var person, date string
		if err := rows.Scan(&person, &date, &m.Amount, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan monthly income: %w", err)
		}
		if m.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("monthly income %s/%s: %w", person, date, err)
		}
		m.Person = core.Person(person)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) loadLoans(ctx context.Context) ([]core.Loan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, initial_amount, remaining_amount, start_date, lender FROM loans ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}
	defer rows.Close()

	var out []core.Loan
	for rows.Next() {
		var l core.Loan
		var startDate string
		if err := rows.Scan(&l.ID, &l.InitialAmount, &l.RemainingAmount, &startDate, &l.Lender); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		if l.StartDate, err = core.ParseDate(startDate); err != nil {
			return nil, fmt.Errorf("loan %s: %w", l.ID, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		payments, err := r.loadLoanPayments(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Payments = payments
	}
	return out, nil
}

func (r *Repository) loadLoanPayments(ctx context.Context, loanID string) ([]core.LoanPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, amount, notes FROM loan_payments WHERE loan_id = ? ORDER BY date`, loanID)
	if err != nil {
		return nil, fmt.Errorf("load loan payments: %w", err)
	}
	defer rows.Close()

	var out []core.LoanPayment
	for rows.Next() {
		var p core.LoanPayment
		var date string
		if err := rows.Scan(&p.ID, &date, &p.Amount, &p.Notes); err != nil {
			return nil, fmt.Errorf("scan loan payment: %w", err)
		}
		if p.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("loan payment %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) loadInvestments(ctx context.Context) ([]core.Investment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, initial_amount, current_amount, start_date, monthly_contribution, notes
		 FROM investments ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("load investments: %w", err)
	}
	defer rows.Close()

	var out []core.Investment
	for rows.Next() {
		var inv core.Investment
		var invType, startDate string
		if err := rows.Scan(&inv.ID, &inv.Name, &invType, &inv.InitialAmount, &inv.CurrentAmount, &startDate, &inv.MonthlyContribution, &inv.Notes); err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		if inv.StartDate, err = core.ParseDate(startDate); err != nil {
			return nil, fmt.Errorf("investment %s: %w", inv.ID, err)
		}
		inv.Type = core.InvestmentType(invType)
		out = append(out, inv)
	}
	return out, rows.Err()
}
