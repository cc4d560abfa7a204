// Command fintrack-import loads a CSV of raw transactions into the ledger.
// Bad rows are reported on stderr and skipped; the batch always runs to the
// end.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"fintrack/internal/backend"
	"fintrack/internal/categorize"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// serviceWriter routes imported rows through the transaction service so they
// take the same path as API writes, sync notifications included.
type serviceWriter struct {
	svc *services.TransactionService
}

func (w serviceWriter) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	return w.svc.CreateTransaction(ctx, tx)
}

func main() {
	var (
		file      = flag.String("file", "", "path to the CSV file (required)")
		hasHeader = flag.Bool("header", true, "whether the first row is a header")
		dateCol   = flag.String("date-column", "Date", "name of the date column")
		descCol   = flag.String("description-column", "Description", "name of the description column")
		amountCol = flag.String("amount-column", "Amount", "name of the amount column")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: fintrack-import -file transactions.csv")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(log.ComponentImporter)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	}()

	f, err := os.Open(*file)
	if err != nil {
		logger.Error("Failed to open CSV file", "error", err, "path", *file)
		os.Exit(1)
	}
	defer f.Close()

	mapping := importer.ColumnMapping{
		Date:        *dateCol,
		Description: *descCol,
		Amount:      *amountCol,
	}

	rows, err := importer.ReadCSV(f, mapping, *hasHeader)
	if err != nil {
		logger.Error("Failed to read CSV", "error", err, "path", *file)
		os.Exit(1)
	}

	imp := importer.New(categorize.NewDefault(), serviceWriter{svc: result.Service})
	report := imp.ImportBatch(context.Background(), rows)

	fmt.Printf("Imported %d of %d rows\n", report.Imported, len(rows))
	for _, failure := range report.Failures {
		fmt.Fprintf(os.Stderr, "row %d: %s\n", failure.Row, failure.Reason)
	}

	if report.Imported == 0 && len(report.Failures) > 0 {
		os.Exit(1)
	}
}
