package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/categorize"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/services"
)

type memStore struct {
	nextID     int64
	txs        map[int64]core.Transaction
	categories []core.Category
}

func newMemStore() *memStore {
	return &memStore{
		txs: make(map[int64]core.Transaction),
		categories: []core.Category{
			{Name: "Food & Dining", BudgetLimit: decimal.NewFromInt(500), Type: core.Expense},
			{Name: "Transportation", BudgetLimit: decimal.NewFromInt(200), Type: core.Expense},
			{Name: "Salary", BudgetLimit: decimal.Zero, Type: core.Income},
		},
	}
}

func (s *memStore) AddTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	s.nextID++
	tx.ID = s.nextID
	s.txs[tx.ID] = tx
	return tx.ID, nil
}

func (s *memStore) ListTransactions(_ context.Context, f ledger.Filter) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, tx := range s.txs {
		if !f.Start.IsZero() && tx.Date.Before(f.Start.Time) {
			continue
		}
		if !f.End.IsZero() && tx.Date.After(f.End.Time) {
			continue
		}
		if f.Category != "" && tx.Category != f.Category {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *memStore) DeleteTransaction(_ context.Context, id int64) error {
	if _, ok := s.txs[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *memStore) ListCategories(_ context.Context, typ core.TxType) ([]core.Category, error) {
	if typ == "" {
		return s.categories, nil
	}
	var out []core.Category
	for _, c := range s.categories {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) UpdateBudgetLimit(_ context.Context, category string, limit decimal.Decimal) error {
	for i, c := range s.categories {
		if c.Name == category {
			s.categories[i].BudgetLimit = limit
			return nil
		}
	}
	return core.ErrNotFound
}

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	store := newMemStore()
	service := services.NewTransactionService(store, nil)
	srv := NewServer(":0", service, store, categorize.NewDefault())
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCreateTransaction(t *testing.T) {
	ts, store := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/transactions", `{
		"date": "03/15/2024",
		"description": "Starbucks coffee",
		"amount": "($4.50)"
	}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	got := decodeBody[createTransactionResponse](t, resp)
	if got.Date != "2024-03-15" {
		t.Errorf("date = %s, want 2024-03-15", got.Date)
	}
	if got.Amount != "4.5" {
		t.Errorf("amount = %s, want 4.5", got.Amount)
	}
	if got.Category != "Food & Dining" {
		t.Errorf("category = %s, want Food & Dining", got.Category)
	}
	if got.Type != "expense" {
		t.Errorf("type = %s, want expense", got.Type)
	}

	if len(store.txs) != 1 {
		t.Errorf("store has %d transactions, want 1", len(store.txs))
	}
}

func TestCreateTransactionIncomeOverride(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/transactions", `{
		"date": "2024-03-01",
		"description": "Mystery payment",
		"amount": "100.00"
	}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	got := decodeBody[createTransactionResponse](t, resp)
	if got.Category != "Other Income" {
		t.Errorf("category = %s, want Other Income", got.Category)
	}
	if got.Type != "income" {
		t.Errorf("type = %s, want income", got.Type)
	}
}

func TestCreateTransactionBadDate(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/transactions", `{
		"date": "not-a-date",
		"description": "Coffee",
		"amount": "4.50"
	}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestCreateTransactionBadJSON(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/transactions", `{not json`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListTransactionsEmpty(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/transactions")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	got := decodeBody[[]core.Transaction](t, resp)
	if len(got) != 0 {
		t.Errorf("got %d transactions, want 0", len(got))
	}
}

func TestDeleteTransaction(t *testing.T) {
	ts, store := newTestServer(t)

	date, _ := core.ParseDate("2024-03-15")
	id, _ := store.AddTransaction(context.Background(), core.Transaction{
		Date: date, Description: "Coffee",
		Amount: decimal.RequireFromString("4.50"),
		Category: "Food & Dining", Type: core.Expense,
	})

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/transactions/%d", ts.URL, id), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	// Deleting again reports not found.
	req, _ = http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/transactions/%d", ts.URL, id), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMonthlySummaryEndpoint(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := context.Background()

	add := func(dateStr, desc, amount, category string, typ core.TxType) {
		date, _ := core.ParseDate(dateStr)
		store.AddTransaction(ctx, core.Transaction{
			Date: date, Description: desc,
			Amount: decimal.RequireFromString(amount), Category: category, Type: typ,
		})
	}
	add("2024-03-01", "Salary", "3000", "Salary", core.Income)
	add("2024-03-10", "Groceries", "120.50", "Food & Dining", core.Expense)
	add("2024-04-01", "Next month", "999", "Food & Dining", core.Expense)

	resp, err := http.Get(ts.URL + "/api/reports/summary?year=2024&month=3")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	got := decodeBody[core.MonthlySummary](t, resp)
	if !got.Income.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("income = %s, want 3000", got.Income)
	}
	if !got.Expenses.Equal(decimal.RequireFromString("120.50")) {
		t.Errorf("expenses = %s, want 120.50", got.Expenses)
	}
	if got.Label != "2024-03" {
		t.Errorf("label = %s, want 2024-03", got.Label)
	}
}

func TestMonthlySummaryCacheInvalidation(t *testing.T) {
	ts, _ := newTestServer(t)

	fetch := func() core.MonthlySummary {
		t.Helper()
		resp, err := http.Get(ts.URL + "/api/reports/summary?year=2024&month=3")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		return decodeBody[core.MonthlySummary](t, resp)
	}

	if got := fetch(); !got.Expenses.IsZero() {
		t.Fatalf("expenses before any writes = %s, want 0", got.Expenses)
	}

	// A write through the API must purge the cached summary.
	resp := postJSON(t, ts.URL+"/api/transactions", `{
		"date": "2024-03-10",
		"description": "Groceries",
		"amount": "-120.50"
	}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}

	if got := fetch(); !got.Expenses.Equal(decimal.RequireFromString("120.50")) {
		t.Errorf("expenses after write = %s, want 120.50", got.Expenses)
	}
}

func TestBudgetAlertsEndpoint(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := context.Background()

	date, _ := core.ParseDate("2024-03-10")
	store.AddTransaction(ctx, core.Transaction{
		Date: date, Description: "Big shop",
		Amount: decimal.NewFromInt(450), Category: "Food & Dining", Type: core.Expense,
	})

	resp, err := http.Get(ts.URL + "/api/reports/alerts?year=2024&month=3")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	got := decodeBody[[]core.BudgetAlert](t, resp)
	if len(got) != 1 {
		t.Fatalf("got %d alerts, want 1", len(got))
	}
	if got[0].Category != "Food & Dining" || got[0].Severity != core.SeverityWarning {
		t.Errorf("alert = %+v", got[0])
	}
}

func TestReportsBadMonth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/reports/summary?year=2024&month=13")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUpdateBudgetEndpoint(t *testing.T) {
	ts, store := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPut,
		ts.URL+"/api/categories/Food & Dining/budget",
		strings.NewReader(`{"limit": "750"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if !store.categories[0].BudgetLimit.Equal(decimal.NewFromInt(750)) {
		t.Errorf("limit = %s, want 750", store.categories[0].BudgetLimit)
	}

	req, _ = http.NewRequest(http.MethodPut,
		ts.URL+"/api/categories/Unknown/budget",
		strings.NewReader(`{"limit": "100"}`))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestImportEndpoint(t *testing.T) {
	ts, store := newTestServer(t)

	csv := "date,description,amount\n" +
		"01/15/2024,Grocery Store,-85.50\n" +
		"bad-date,Broken Row,10.00\n" +
		"2024-01-31,Salary Deposit,3500.00\n"

	resp := postJSON(t, ts.URL+"/api/import", csv)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	type importReport struct {
		Imported int `json:"imported"`
		Failures []struct {
			Row    int    `json:"row"`
			Reason string `json:"reason"`
		} `json:"failures"`
	}
	got := decodeBody[importReport](t, resp)
	if got.Imported != 2 {
		t.Errorf("imported = %d, want 2", got.Imported)
	}
	if len(got.Failures) != 1 || got.Failures[0].Row != 2 {
		t.Errorf("failures = %+v, want one failure on row 2", got.Failures)
	}
	if len(store.txs) != 2 {
		t.Errorf("store has %d transactions, want 2", len(store.txs))
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}
