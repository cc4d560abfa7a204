// Package postgres implements the ledger store on PostgreSQL for
// deployments that outgrow the single-file SQLite setup.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    date DATE NOT NULL,
    description TEXT NOT NULL,
    amount NUMERIC(12,2) NOT NULL,
    category TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category);

CREATE TABLE IF NOT EXISTS categories (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    budget_limit NUMERIC(12,2) NOT NULL DEFAULT 0,
    type TEXT NOT NULL CHECK (type IN ('income', 'expense'))
);
`

const seed = `
INSERT INTO categories (name, budget_limit, type) VALUES
    ('Food & Dining', 500, 'expense'),
    ('Transportation', 200, 'expense'),
    ('Shopping', 300, 'expense'),
    ('Bills & Utilities', 400, 'expense'),
    ('Entertainment', 150, 'expense'),
    ('Healthcare', 200, 'expense'),
    ('Other Expenses', 100, 'expense'),
    ('Salary', 0, 'income'),
    ('Freelance', 0, 'income'),
    ('Other Income', 0, 'income')
ON CONFLICT (name) DO NOTHING;
`

type Repository struct {
	pool *pgxpool.Pool
}

var _ ledger.Store = (*Repository)(nil)

// NewRepository connects to PostgreSQL, ensures the schema and the default
// category set, and returns a ready store.
func NewRepository(ctx context.Context, connString string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if _, err := pool.Exec(ctx, seed); err != nil {
		pool.Close()
		return nil, fmt.Errorf("seed categories: %w", err)
	}

	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("validate transaction: %w", err)
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (date, description, amount, category, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		tx.Date.Time, tx.Description, tx.Amount, tx.Category, tx.Type.String()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"date", tx.Date.String(),
		"category", tx.Category,
		"type", tx.Type.String())

	return id, nil
}

func (r *Repository) ListTransactions(ctx context.Context, f ledger.Filter) ([]core.Transaction, error) {
	query := `SELECT id, date, description, amount, category, type, created_at FROM transactions WHERE 1=1`
	var args []any

	if !f.Start.IsZero() {
		args = append(args, f.Start.Time)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !f.End.IsZero() {
		args = append(args, f.End.Time)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx      core.Transaction
			date    time.Time
			typStr  string
			created time.Time
		)
		if err := rows.Scan(&tx.ID, &date, &tx.Description, &tx.Amount, &tx.Category, &typStr, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
		tx.CreatedAt = created
		if tx.Type, err = core.ParseTxType(typStr); err != nil {
			return nil, fmt.Errorf("stored type %q: %w", typStr, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

func (r *Repository) ListCategories(ctx context.Context, typ core.TxType) ([]core.Category, error) {
	query := `SELECT name, budget_limit, type FROM categories`
	var args []any
	if typ != "" {
		args = append(args, typ.String())
		query += " WHERE type = $1"
	}
	query += " ORDER BY name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			cat    core.Category
			typStr string
		)
		if err := rows.Scan(&cat.Name, &cat.BudgetLimit, &typStr); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		var err error
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

func (r *Repository) UpdateBudgetLimit(ctx context.Context, category string, limit decimal.Decimal) error {
	if limit.Sign() < 0 {
		return fmt.Errorf("budget limit must not be negative: %s", limit)
	}

	res, err := r.pool.Exec(ctx,
		`UPDATE categories SET budget_limit = $1 WHERE name = $2`, limit, category)
	if err != nil {
		return fmt.Errorf("update budget limit: %w", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("category %q: %w", category, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Budget limit updated", "category", category, "limit", limit.String())
	return nil
}

// GetTransaction fetches one transaction by id; core.ErrNotFound when absent.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var (
		tx      core.Transaction
		date    time.Time
		typStr  string
		created time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, date, description, amount, category, type, created_at
		FROM transactions WHERE id = $1`, id).
		Scan(&tx.ID, &date, &tx.Description, &tx.Amount, &tx.Category, &typStr, &created)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("query transaction: %w", err)
	}

	tx.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
	tx.CreatedAt = created
	if tx.Type, err = core.ParseTxType(typStr); err != nil {
		return core.Transaction{}, fmt.Errorf("stored type %q: %w", typStr, err)
	}
	return tx, nil
}
