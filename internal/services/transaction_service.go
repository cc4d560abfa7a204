// Package services orchestrates ledger operations across the store and the
// mirror sync pipeline. Writes go to the store first; sync messages are
// best-effort and never fail the request.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// SyncPublisher notifies the mirror worker of ledger changes.
// *amqp.Client satisfies it.
type SyncPublisher interface {
	PublishSync(ctx context.Context, action string, id int64) error
}

type TransactionService struct {
	store     ledger.Store
	publisher SyncPublisher
}

func NewTransactionService(store ledger.Store, publisher SyncPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// CreateTransaction saves a transaction and publishes a sync message.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	id, err := s.store.AddTransaction(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publish(ctx, amqp.ActionUpsert, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
		// Transaction is saved locally; the pending scan will catch up.
	}

	return id, nil
}

// DeleteTransaction removes a transaction and publishes a delete message.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := s.publish(ctx, amqp.ActionDelete, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, f ledger.Filter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, f)
}

func (s *TransactionService) ListCategories(ctx context.Context, typ core.TxType) ([]core.Category, error) {
	return s.store.ListCategories(ctx, typ)
}

func (s *TransactionService) UpdateBudgetLimit(ctx context.Context, category string, limit decimal.Decimal) error {
	return s.store.UpdateBudgetLimit(ctx, category, limit)
}

func (s *TransactionService) publish(ctx context.Context, action string, id int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Sync publisher not available, skipping message",
			"action", action, "id", id)
		return nil
	}
	return s.publisher.PublishSync(ctx, action, id)
}

// Close releases the store and publisher if they hold resources.
func (s *TransactionService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
