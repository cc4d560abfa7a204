// Package importer converts batches of raw rows into canonical transactions.
// It composes the normalizer and categorizer and reports per-row failures
// instead of aborting: partial success is the expected outcome of a batch,
// not an exceptional one.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/categorize"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/normalize"
)

// Row is one raw record with its original position in the input. Index is
// 1-based over data rows (the header, when present, is not counted).
type Row struct {
	Index       int
	Date        string
	Description string
	Amount      string
}

// Failure records why a single row was skipped.
type Failure struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Report is the outcome of a batch: how many rows became stored
// transactions, and which rows were skipped and why.
type Report struct {
	Imported int       `json:"imported"`
	Failures []Failure `json:"failures,omitempty"`
}

// Importer drives the normalize -> categorize -> store pipeline.
type Importer struct {
	categorizer *categorize.Categorizer
	store       ledger.TransactionWriter
}

func New(categorizer *categorize.Categorizer, store ledger.TransactionWriter) *Importer {
	return &Importer{categorizer: categorizer, store: store}
}

// ParseRow normalizes a single raw row into a canonical transaction:
// date and amount through the normalizer, type from the amount sign,
// magnitude as the absolute value, category via the sign-aware suggestion.
func (i *Importer) ParseRow(row Row) (core.Transaction, error) {
	date, err := normalize.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	signed, err := normalize.ParseAmount(row.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	typ := core.TypeFromSign(signed)
	category := i.categorizer.SuggestedCategory(row.Description, signed)

	tx := core.Transaction{
		Date:        date,
		Description: row.Description,
		Amount:      signed.Abs(),
		Category:    category,
		Type:        typ,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// ImportBatch runs every row through the pipeline and hands successes to the
// store. A failing row (unparseable date/amount, invalid record, store
// error) is recorded and the batch continues; the batch itself never fails.
func (i *Importer) ImportBatch(ctx context.Context, rows []Row) Report {
	var report Report
	for _, row := range rows {
		tx, err := i.ParseRow(row)
		if err != nil {
			report.Failures = append(report.Failures, Failure{Row: row.Index, Reason: err.Error()})
			continue
		}

		if _, err := i.store.AddTransaction(ctx, tx); err != nil {
			report.Failures = append(report.Failures, Failure{Row: row.Index, Reason: fmt.Sprintf("store transaction: %v", err)})
			continue
		}
		report.Imported++
	}

	slog.InfoContext(ctx, "Import batch completed",
		"rows", len(rows),
		"imported", report.Imported,
		"failed", len(report.Failures))

	return report
}
