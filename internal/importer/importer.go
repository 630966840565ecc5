// Package importer turns a credit-card statement export (xlsx) into a
// normalized batch of transaction candidates.
//
// The pipeline runs in fixed stages: the file is read fully into memory,
// the header row is located, named columns are mapped to positions, and each
// data row is parsed best-effort. Structural problems (no header row, a
// missing required column, an unsupported source) fail the whole call;
// malformed rows only add a row-indexed error and parsing continues.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"homeledger/internal/core"
)

// SourceFormat declares which issuer exported the statement.
type SourceFormat string

const (
	// SourceCreditCard is the Israeli card-issuer export with Hebrew
	// column labels.
	SourceCreditCard SourceFormat = "credit_card"

	// SourceBankAccount is declared but has no parser yet; importing it
	// fails with ErrUnsupportedSource rather than guessing at columns.
	SourceBankAccount SourceFormat = "bank_account"
)

// Hebrew column labels of the card-issuer export. Header matching is by
// substring, so labels embedded in longer header cells still resolve.
const (
	labelDate       = "תאריך עסקה"
	labelMerchant   = "שם בית העסק"
	labelCategory   = "קטגוריה"
	labelAmount     = "סכום חיוב"
	labelChargeDate = "תאריך חיוב"

	// defaultCategory tags rows whose category cell is empty.
	defaultCategory = "כללי"
)

var (
	ErrUnsupportedSource = errors.New("statement source not supported")
	ErrEmptyWorkbook     = errors.New("workbook has no sheets")
	ErrHeaderNotFound    = errors.New("transaction date header not found")
	ErrMissingColumns    = errors.New("required columns missing (transaction date, charge amount)")
)

// Result is the outcome of one import call. Success means at least one row
// parsed; the error list is carried either way, so a successful batch can
// still report rows it had to skip.
type Result struct {
	Success          bool                        `json:"success"`
	RecordsProcessed int                         `json:"recordsProcessed"`
	Errors           []string                    `json:"errors"`
	Transactions     []core.TransactionCandidate `json:"transactions"`
}

// columnMap holds resolved column positions after header matching. Rows are
// only turned into typed records through this map; raw row slices never
// travel further.
type columnMap struct {
	date       int
	merchant   int
	category   int
	amount     int
	chargeDate int
}

// Import reads the statement from r and parses its first sheet. Cancellation
// is checked between rows; a completed run is unaffected by it.
func Import(ctx context.Context, r io.Reader, format SourceFormat) (Result, error) {
	if format != SourceCreditCard {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedSource, format)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	headerIdx := findHeaderRow(rows)
	if headerIdx < 0 {
		return Result{}, ErrHeaderNotFound
	}

	cols, err := resolveColumns(rows[headerIdx])
	if err != nil {
		return Result{}, err
	}

	result := parseRows(ctx, rows, headerIdx, cols)
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	slog.InfoContext(ctx, "Statement parsed",
		"sheet", sheets[0],
		"rows", len(rows)-headerIdx-1,
		"accepted", result.RecordsProcessed,
		"row_errors", len(result.Errors))

	return result, nil
}

// findHeaderRow scans top to bottom for the first row containing the
// transaction date label. Issuer exports carry preamble rows above it.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			if strings.Contains(cell, labelDate) {
				return i
			}
		}
	}
	return -1
}

func resolveColumns(header []string) (columnMap, error) {
	cols := columnMap{
		date:       findColumn(header, labelDate),
		merchant:   findColumn(header, labelMerchant),
		category:   findColumn(header, labelCategory),
		amount:     findColumn(header, labelAmount),
		chargeDate: findColumn(header, labelChargeDate),
	}
	if cols.date < 0 || cols.amount < 0 {
		return columnMap{}, ErrMissingColumns
	}
	return cols, nil
}

func findColumn(header []string, label string) int {
	for i, cell := range header {
		if strings.Contains(cell, label) {
			return i
		}
	}
	return -1
}

func parseRows(ctx context.Context, rows [][]string, headerIdx int, cols columnMap) Result {
	result := Result{Errors: []string{}}

	for i := headerIdx + 1; i < len(rows); i++ {
		if ctx.Err() != nil {
			return result
		}
		row := rows[i]

		// Rows without a date or amount are filler (totals, blank
		// spacing) and are skipped silently.
		if cell(row, cols.date) == "" || cell(row, cols.amount) == "" {
			continue
		}

		candidate, err := parseRow(row, cols)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Transactions = append(result.Transactions, candidate)
	}

	result.RecordsProcessed = len(result.Transactions)
	result.Success = result.RecordsProcessed > 0
	return result
}

func parseRow(row []string, cols columnMap) (core.TransactionCandidate, error) {
	date, err := ParseStatementDate(cell(row, cols.date))
	if err != nil {
		return core.TransactionCandidate{}, err
	}

	amount, err := ParseAmount(cell(row, cols.amount))
	if err != nil {
		return core.TransactionCandidate{}, err
	}

	category := cell(row, cols.category)
	if category == "" {
		category = defaultCategory
	}

	var notes string
	if charge := cell(row, cols.chargeDate); charge != "" {
		notes = labelChargeDate + ": " + charge
	}

	return core.TransactionCandidate{
		Date:        date,
		Amount:      amount,
		Description: cell(row, cols.merchant),
		Category:    category,
		Source:      core.SourceCreditCard,
		Notes:       notes,
	}, nil
}

// cell returns the trimmed cell at idx, tolerating short rows: GetRows trims
// trailing empty cells, so a row can be narrower than its header.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
