// Package ledger defines the record-store port consumed by the reporting and
// import pipelines. Implementations live in internal/storage (SQLite) and
// internal/storage/postgres.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Filter narrows a transaction listing. Date bounds are inclusive on both
// sides; zero-value fields mean "no constraint".
type Filter struct {
	Start    core.Date
	End      core.Date
	Category string
}

type (
	// TransactionWriter creates canonical transactions. The store assigns
	// the id and the creation timestamp.
	TransactionWriter interface {
		AddTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	}

	// TransactionReader lists stored transactions ordered by date descending.
	TransactionReader interface {
		ListTransactions(ctx context.Context, f Filter) ([]core.Transaction, error)
	}

	// TransactionDeleter removes a transaction by id, failing with
	// core.ErrNotFound when the id does not exist.
	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, id int64) error
	}

	// CategoryReader lists categories, optionally filtered by type
	// (empty TxType means all).
	CategoryReader interface {
		ListCategories(ctx context.Context, typ core.TxType) ([]core.Category, error)
	}

	// BudgetUpdater changes a category's budget limit, failing with
	// core.ErrNotFound when the category is unknown.
	BudgetUpdater interface {
		UpdateBudgetLimit(ctx context.Context, category string, limit decimal.Decimal) error
	}

	// Store is the full record-store contract. Seeding the default
	// categories is a store responsibility performed at initialization.
	Store interface {
		TransactionWriter
		TransactionReader
		TransactionDeleter
		CategoryReader
		BudgetUpdater
	}
)
