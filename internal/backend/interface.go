// Package backend selects and wires the ledger store for a deployment:
// SQLite for the single-binary setup, PostgreSQL for shared installs.
package backend

import (
	"context"

	"fintrack/internal/ledger"
	"fintrack/internal/services"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result bundles the wired store, the transaction service on top of it,
// and an optional cleanup.
type Result struct {
	Store   ledger.Store
	Service *services.TransactionService
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// PostgreSQL specific
	PostgresURL string

	// AMQP sync pipeline (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type identifies a store implementation.
type Type string

const (
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
