// Package storage implements the ledger store on SQLite. Schema and the
// default category set are managed by embedded migrations; amounts are kept
// as decimal strings so no precision is lost crossing the driver.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Sync states for the spreadsheet mirror bookkeeping.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

const createdAtLayout = "2006-01-02 15:04:05"

type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
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

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("validate transaction: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (date, description, amount, category, type)
		VALUES (?, ?, ?, ?, ?)`,
		tx.Date.String(), tx.Description, tx.Amount.String(), tx.Category, tx.Type.String())
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"date", tx.Date.String(),
		"category", tx.Category,
		"type", tx.Type.String())

	return id, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ledger.Filter) ([]core.Transaction, error) {
	query := `SELECT id, date, description, amount, category, type, created_at FROM transactions WHERE 1=1`
	var args []any

	if !f.Start.IsZero() {
		query += " AND date >= ?"
		args = append(args, f.Start.String())
	}
	if !f.End.IsZero() {
		query += " AND date <= ?"
		args = append(args, f.End.String())
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetTransaction fetches one transaction by id; core.ErrNotFound when absent.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, description, amount, category, type, created_at
		FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, typ core.TxType) ([]core.Category, error) {
	query := `SELECT name, budget_limit, type FROM categories`
	var args []any
	if typ != "" {
		query += " WHERE type = ?"
		args = append(args, typ.String())
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			cat      core.Category
			limitStr string
			typStr   string
		)
		if err := rows.Scan(&cat.Name, &limitStr, &typStr); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if cat.BudgetLimit, err = decimal.NewFromString(limitStr); err != nil {
			return nil, fmt.Errorf("parse budget limit %q: %w", limitStr, err)
		}
		if cat.Type, err = core.ParseTxType(typStr); err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateBudgetLimit(ctx context.Context, category string, limit decimal.Decimal) error {
	if limit.Sign() < 0 {
		return fmt.Errorf("budget limit must not be negative: %s", limit)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET budget_limit = ? WHERE name = ?`,
		limit.String(), category)
	if err != nil {
		return fmt.Errorf("update budget limit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %q: %w", category, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Budget limit updated", "category", category, "limit", limit.String())
	return nil
}

// PendingTransaction identifies a transaction awaiting a mirror sync.
type PendingTransaction struct {
	ID        int64
	CreatedAt time.Time
}

// ListPendingSync returns up to limit transactions not yet mirrored,
// oldest first. Backup path for lost sync messages.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]PendingTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM transactions
		WHERE sync_status = ?
		ORDER BY id ASC
		LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending sync: %w", err)
	}
	defer rows.Close()

	var out []PendingTransaction
	for rows.Next() {
		var (
			p         PendingTransaction
			createdAt string
		)
		if err := rows.Scan(&p.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		if t, err := time.Parse(createdAtLayout, createdAt); err == nil {
			p.CreatedAt = t
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync: %w", err)
	}
	return out, nil
}

// MarkSynced records that a transaction reached the mirror.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET sync_status = ?, synced_at = datetime('now')
		WHERE id = ?`, SyncDone, id)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// MarkSyncError flags a transaction whose mirror append keeps failing so the
// pending scan stops retrying it.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET sync_status = ? WHERE id = ?`, SyncError, id)
	if err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		dateStr   string
		amountStr string
		typStr    string
		createdAt string
	)
	if err := row.Scan(&tx.ID, &dateStr, &tx.Description, &amountStr, &tx.Category, &typStr, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	var err error
	if tx.Date, err = core.ParseDate(dateStr); err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	if tx.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return core.Transaction{}, fmt.Errorf("stored amount %q: %w", amountStr, err)
	}
	if tx.Type, err = core.ParseTxType(typStr); err != nil {
		return core.Transaction{}, fmt.Errorf("stored type %q: %w", typStr, err)
	}
	if t, err := time.Parse(createdAtLayout, createdAt); err == nil {
		tx.CreatedAt = t
	}
	return tx, nil
}
