// Package report rolls stored transactions up into monthly summaries,
// category spending rankings and budget alerts. The Aggregator owns no data:
// every operation is a pure function of the store's contents for a date range.
package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// alertThreshold is the fraction of a budget limit at which a category
// becomes alert-worthy.
var alertThreshold = decimal.RequireFromString("0.8")

// Aggregator computes reports by issuing range queries against the store.
type Aggregator struct {
	store interface {
		ledger.TransactionReader
		ledger.CategoryReader
	}
}

func NewAggregator(store interface {
	ledger.TransactionReader
	ledger.CategoryReader
}) *Aggregator {
	return &Aggregator{store: store}
}

// MonthInterval returns the half-open interval [first-of-month,
// first-of-next-month) for the given calendar month. December rolls over
// into January of the next year.
func MonthInterval(year, month int) (start, end core.Date) {
	start = core.NewDate(year, month, 1)
	if month == 12 {
		end = core.NewDate(year+1, 1, 1)
	} else {
		end = core.NewDate(year, month+1, 1)
	}
	return start, end
}

// MonthlySummary sums the month's magnitudes by type. Missing types sum to
// zero; balance is income minus expenses.
func (a *Aggregator) MonthlySummary(ctx context.Context, year, month int) (core.MonthlySummary, error) {
	start, end := MonthInterval(year, month)

	txs, err := a.monthTransactions(ctx, start, end)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}

	income := decimal.Zero
	expenses := decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expenses = expenses.Add(tx.Amount)
		}
	}

	return core.MonthlySummary{
		Income:   income,
		Expenses: expenses,
		Balance:  income.Sub(expenses),
		Label:    fmt.Sprintf("%04d-%02d", year, month),
	}, nil
}

// CategorySpending sums expense magnitudes per category over the caller's
// inclusive date range, ordered by total descending with ties broken by
// category name ascending.
func (a *Aggregator) CategorySpending(ctx context.Context, start, end core.Date) ([]core.CategoryTotal, error) {
	txs, err := a.store.ListTransactions(ctx, ledger.Filter{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("category spending: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
	}

	out := make([]core.CategoryTotal, 0, len(totals))
	for category, total := range totals {
		out = append(out, core.CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Total.Cmp(out[j].Total); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// BudgetAlerts evaluates every alert-eligible expense category for the
// month. A category is included once its spending reaches 80% of the limit;
// EXCEEDED at or above 100%, WARNING below. Categories with a zero limit are
// never eligible. Ordered by percentage descending, ties by name ascending.
func (a *Aggregator) BudgetAlerts(ctx context.Context, year, month int) ([]core.BudgetAlert, error) {
	categories, err := a.store.ListCategories(ctx, core.Expense)
	if err != nil {
		return nil, fmt.Errorf("budget alerts: %w", err)
	}

	start, end := MonthInterval(year, month)
	txs, err := a.monthTransactions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("budget alerts: %w", err)
	}

	spent := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		spent[tx.Category] = spent[tx.Category].Add(tx.Amount)
	}

	var alerts []core.BudgetAlert
	for _, cat := range categories {
		if !cat.AlertEligible() {
			continue
		}
		catSpent, ok := spent[cat.Name]
		if !ok || catSpent.Cmp(cat.BudgetLimit.Mul(alertThreshold)) < 0 {
			continue
		}

		percentage, _ := catSpent.Div(cat.BudgetLimit).Mul(decimal.NewFromInt(100)).Float64()
		severity := core.SeverityWarning
		if percentage >= 100 {
			severity = core.SeverityExceeded
		}
		alerts = append(alerts, core.BudgetAlert{
			Category:   cat.Name,
			Spent:      catSpent,
			Limit:      cat.BudgetLimit,
			Percentage: percentage,
			Severity:   severity,
		})
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Percentage != alerts[j].Percentage {
			return alerts[i].Percentage > alerts[j].Percentage
		}
		return alerts[i].Category < alerts[j].Category
	})
	return alerts, nil
}

// monthTransactions queries the store for the interval and enforces the
// half-open upper bound itself, so month boundaries cannot double-count even
// though the store's filter is inclusive on both sides.
func (a *Aggregator) monthTransactions(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	txs, err := a.store.ListTransactions(ctx, ledger.Filter{Start: start, End: end})
	if err != nil {
		return nil, err
	}
	out := txs[:0]
	for _, tx := range txs {
		if tx.Date.Before(end.Time) {
			out = append(out, tx)
		}
	}
	return out, nil
}
