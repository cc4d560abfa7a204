package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/ledger"
	"fintrack/internal/normalize"
	"fintrack/internal/report"
)

type createTransactionRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Type        string `json:"type"`
}

type createTransactionResponse struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Type        string `json:"type"`
}

// handleCreateTransaction accepts raw statement values: the date may be in
// any supported input format and the amount may carry currency symbols,
// thousands separators, or accounting parentheses. Missing category or type
// are derived from the description and the amount's sign.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := normalize.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	signed, err := normalize.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	txType := core.TypeFromSign(signed)
	if req.Type != "" {
		if txType, err = core.ParseTxType(req.Type); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = s.categorizer.SuggestedCategory(req.Description, signed)
	}

	tx := core.Transaction{
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Amount:      signed.Abs(),
		Category:    category,
		Type:        txType,
	}
	if err := tx.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.service.CreateTransaction(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	s.summaries.Purge()
	writeJSON(w, http.StatusCreated, createTransactionResponse{
		ID:          id,
		Date:        tx.Date.String(),
		Description: tx.Description,
		Amount:      tx.Amount.String(),
		Category:    tx.Category,
		Type:        tx.Type.String(),
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter ledger.Filter
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("start")); v != "" {
		d, err := normalize.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date")
			return
		}
		filter.Start = d
	}
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		d, err := normalize.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date")
			return
		}
		filter.End = d
	}
	filter.Category = strings.TrimSpace(q.Get("category"))

	txs, err := s.service.ListTransactions(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}

	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if err := s.service.DeleteTransaction(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	s.summaries.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf("%04d-%02d", year, month)
	if summary, ok := s.summaries.Get(key); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := s.reports.MonthlySummary(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly summary failed",
			"year", year, "month", month, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}

	s.summaries.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCategorySpending(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}

	start, end := report.MonthInterval(year, month)
	totals, err := s.reports.CategorySpending(r.Context(), start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category spending failed",
			"year", year, "month", month, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build spending report")
		return
	}
	if totals == nil {
		totals = []core.CategoryTotal{}
	}

	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}

	alerts, err := s.reports.BudgetAlerts(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget alerts failed",
			"year", year, "month", month, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build alerts")
		return
	}
	if alerts == nil {
		alerts = []core.BudgetAlert{}
	}

	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var typ core.TxType
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		parsed, err := core.ParseTxType(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		typ = parsed
	}

	cats, err := s.service.ListCategories(r.Context(), typ)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}

	writeJSON(w, http.StatusOK, cats)
}

type updateBudgetRequest struct {
	Limit string `json:"limit"`
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req updateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	limit, err := decimal.NewFromString(strings.TrimSpace(req.Limit))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid budget limit")
		return
	}
	if limit.Sign() < 0 {
		writeError(w, http.StatusUnprocessableEntity, "budget limit must not be negative")
		return
	}

	if err := s.service.UpdateBudgetLimit(r.Context(), name, limit); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update budget failed", "category", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update budget")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleImport reads a CSV body and imports it row by row. Bad rows are
// reported, never abort the batch; the response always carries the full
// import report.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	hasHeader := true
	if v := strings.TrimSpace(r.URL.Query().Get("header")); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid header parameter")
			return
		}
		hasHeader = parsed
	}

	rows, err := importer.ReadCSV(r.Body, importer.DefaultColumns(), hasHeader)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.importer.ImportBatch(r.Context(), rows)
	if result.Imported > 0 {
		s.summaries.Purge()
	}
	writeJSON(w, http.StatusOK, result)
}

// parseYearMonth reads year and month query parameters, defaulting to the
// current month. A false return means the response was already written.
func parseYearMonth(w http.ResponseWriter, r *http.Request) (year, month int, ok bool) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			writeError(w, http.StatusBadRequest, "invalid year parameter")
			return 0, 0, false
		}
		year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "invalid month parameter")
			return 0, 0, false
		}
		month = m
	}

	return year, month, true
}
