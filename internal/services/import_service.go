package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"homeledger/internal/amqp"
	"homeledger/internal/core"
	"homeledger/internal/importer"
	"homeledger/internal/ledger"
	"homeledger/internal/storage"
)

// ImportService runs a statement file through the importer and lands the
// parsed rows in the ledger, tagged with the importing person.
type ImportService struct {
	store      *ledger.Store
	repo       *storage.Repository
	amqpClient *amqp.Client
}

func NewImportService(store *ledger.Store, repo *storage.Repository, amqpClient *amqp.Client) *ImportService {
	return &ImportService{
		store:      store,
		repo:       repo,
		amqpClient: amqpClient,
	}
}

// ImportStatement parses the workbook and appends the accepted rows to the
// ledger as one undoable batch. A structural failure (unreadable file,
// missing header) returns an error and leaves the ledger untouched; row
// failures are reported in the result alongside the rows that did parse.
func (s *ImportService) ImportStatement(ctx context.Context, r io.Reader, format importer.SourceFormat, person core.Person) (importer.Result, []core.Transaction, error) {
	if !person.Valid() {
		return importer.Result{}, nil, fmt.Errorf("import statement: %w", core.ErrInvalidPerson)
	}

	result, err := importer.Import(ctx, r, format)
	if err != nil {
		return result, nil, fmt.Errorf("import statement: %w", err)
	}

	if !result.Success {
		return result, nil, nil
	}

	added := s.store.ImportTransactions(person, result.Transactions)

	if s.repo != nil {
		if err := s.repo.BulkInsertTransactions(ctx, added); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror imported transactions",
				"count", len(added), "error", err)
		}
	}

	if s.amqpClient != nil {
		ids := transactionIDs(added)
		if err := s.amqpClient.PublishLedgerSync(ctx, amqp.SyncImport, ids); err != nil {
			slog.ErrorContext(ctx, "Failed to publish import sync message",
				"count", len(ids), "error", err)
		}
	}

	slog.InfoContext(ctx, "Statement imported",
		"person", string(person),
		"imported", len(added),
		"row_errors", len(result.Errors))

	return result, added, nil
}
