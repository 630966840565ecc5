// Package worker reconciles the SQLite mirror's sync state: it consumes
// ledger sync messages and marks the referenced transaction rows as synced,
// and periodically sweeps rows whose messages were missed.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"homeledger/internal/amqp"
	"homeledger/internal/storage"
)

type SyncWorker struct {
	storage   *storage.Repository
	batchSize int
}

func NewSyncWorker(storage *storage.Repository, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single ledger sync message from AMQP.
// Upserts and imports confirm the referenced rows; deletes carry ids whose
// rows are already gone from the mirror, so there is nothing to mark.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.LedgerSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"kind", string(msg.Kind),
		"count", len(msg.IDs))

	if msg.Kind == amqp.SyncDelete {
		return nil
	}

	for _, id := range msg.IDs {
		if err := w.storage.MarkTransactionSynced(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to mark transaction synced", "id", id, "error", err)
			if markErr := w.storage.MarkTransactionSyncError(ctx, id); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
			}
			return fmt.Errorf("mark transaction synced: %w", err)
		}
	}

	return nil
}

// ProcessPendingTransactions sweeps mirror rows still marked pending. Rows
// stay pending when their sync message was published before the worker was
// listening, or when the publish failed outright.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.storage.PendingTransactionIDs(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, id := range pending {
		if err := w.storage.MarkTransactionSynced(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", id, "error", err)
			if markErr := w.storage.MarkTransactionSyncError(ctx, id); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
			}
			continue
		}
	}

	return nil
}

// StartupSyncCheck sweeps a larger pending batch at worker startup. This is
// useful to recover from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.PendingTransactionIDs(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, id := range pending {
		if err := w.storage.MarkTransactionSynced(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", id, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}
