package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Mirror is the outbound port for the spreadsheet copy of the ledger.
type Mirror interface {
	// AppendTransaction writes one transaction and returns a row reference.
	AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)

	// RemoveTransaction clears the mirrored row for the given transaction id.
	RemoveTransaction(ctx context.Context, id int64) error
}
