// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/categorize"
	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/ledger"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

type Server struct {
	http.Server

	service     *services.TransactionService
	reports     *report.Aggregator
	categorizer *categorize.Categorizer
	importer    *importer.Importer

	// summaries caches monthly summary responses, keyed by YYYY-MM. Any
	// write purges it: a new transaction can land in any month.
	summaries *cache.LRU[core.MonthlySummary]

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// serviceWriter lets the importer save rows through the transaction service
// so imported rows also flow into the sync pipeline.
type serviceWriter struct {
	svc *services.TransactionService
}

func (w serviceWriter) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	return w.svc.CreateTransaction(ctx, tx)
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, service *services.TransactionService, store ledger.Store, categorizer *categorize.Categorizer) *Server {
	mux := http.NewServeMux()

	s := &Server{
		service:     service,
		reports:     report.NewAggregator(store),
		categorizer: categorizer,
		importer:    importer.New(categorizer, serviceWriter{svc: service}),
		summaries:   cache.New[core.MonthlySummary](24, 5*time.Minute),
		limiter:     ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/reports/summary", s.handleMonthlySummary)
	mux.HandleFunc("GET /api/reports/spending", s.handleCategorySpending)
	mux.HandleFunc("GET /api/reports/alerts", s.handleBudgetAlerts)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("PUT /api/categories/{name}/budget", s.handleUpdateBudget)

	mux.HandleFunc("POST /api/import", s.handleImport)

	clientIP := security.NewClientIPExtractor()
	traceMw := trace.NewMiddleware(clientIP.ClientIP)

	var handler http.Handler = mux
	handler = traceMw.Middleware(handler)
	handler = s.limiter.Middleware(clientIP.ClientIP)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
