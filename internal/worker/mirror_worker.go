// Package worker mirrors ledger transactions from the store into the
// spreadsheet copy, driven by AMQP messages with a periodic pending scan
// as backup.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

type MirrorWorker struct {
	store     *storage.SQLiteRepository
	mirror    sheets.Mirror
	batchSize int
}

func NewMirrorWorker(store *storage.SQLiteRepository, mirror sheets.Mirror, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		store:     store,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleMessage dispatches one sync message by action.
func (w *MirrorWorker) HandleMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	switch msg.Action {
	case amqp.ActionUpsert:
		return w.mirrorTransaction(ctx, msg.ID)
	case amqp.ActionDelete:
		return w.removeTransaction(ctx, msg.ID)
	default:
		// Unknown actions are dropped, not requeued.
		slog.WarnContext(ctx, "Unknown sync action, skipping",
			"action", msg.Action,
			"message_id", msg.MessageID)
		return nil
	}
}

func (w *MirrorWorker) mirrorTransaction(ctx context.Context, id int64) error {
	tx, err := w.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction from store: %w", err)
	}

	ref, err := w.mirror.AppendTransaction(ctx, tx)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to mirror: %w", err)
	}

	// The append already happened; a bookkeeping failure must not requeue it.
	if err := w.store.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"id", id,
		"mirror_ref", ref,
		"category", tx.Category)

	return nil
}

func (w *MirrorWorker) removeTransaction(ctx context.Context, id int64) error {
	if err := w.mirror.RemoveTransaction(ctx, id); err != nil {
		return fmt.Errorf("remove from mirror: %w", err)
	}

	slog.InfoContext(ctx, "Removed transaction from mirror", "id", id)
	return nil
}

// ProcessPending mirrors transactions still marked pending. Backup path for
// lost AMQP messages.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		if err := w.mirrorTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror pending transaction",
				"id", p.ID, "error", err)
		}
	}

	return nil
}

// StartupCheck drains a larger pending backlog at worker start to recover
// from downtime.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.store.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, p := range pending {
		if err := w.mirrorTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction during startup",
				"id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup mirror check completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}
