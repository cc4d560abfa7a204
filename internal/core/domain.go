package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	SeverityWarning  Severity = "WARNING"
	SeverityExceeded Severity = "EXCEEDED"
)

type (
	// TxType discriminates how a transaction's magnitude affects balances.
	// It is a closed two-value type; construct it via ParseTxType.
	TxType string

	// Severity classifies a budget alert: WARNING at 80-99% of the limit,
	// EXCEEDED at 100% or more.
	Severity string

	// Date is a calendar date normalized to day granularity. Its canonical
	// string form YYYY-MM-DD compares lexicographically in date order.
	Date struct {
		time.Time
	}

	// Transaction is the canonical, immutable record produced by the
	// normalization and categorization pipeline. Amount is always a
	// non-negative magnitude; the sign lives in Type.
	Transaction struct {
		ID          int64
		Date        Date
		Description string
		Amount      decimal.Decimal
		Category    string
		Type        TxType
		CreatedAt   time.Time
	}

	// Category is a spending or income bucket. A zero BudgetLimit means
	// "no limit" and the category is never alert-eligible.
	Category struct {
		Name        string
		BudgetLimit decimal.Decimal
		Type        TxType
	}

	// BudgetAlert is derived on demand from a month's spending and a
	// category's budget limit. It is never persisted.
	BudgetAlert struct {
		Category   string
		Spent      decimal.Decimal
		Limit      decimal.Decimal
		Percentage float64
		Severity   Severity
	}

	// MonthlySummary aggregates one calendar month.
	MonthlySummary struct {
		Income   decimal.Decimal
		Expenses decimal.Decimal
		Balance  decimal.Decimal
		Label    string // YYYY-MM
	}

	// CategoryTotal is one row of a category spending ranking.
	CategoryTotal struct {
		Category string
		Total    decimal.Decimal
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a canonical YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month as an int.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseTxType validates a type string, eliminating invalid-string states.
func ParseTxType(s string) (TxType, error) {
	switch TxType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (t TxType) String() string {
	return string(t)
}

// TypeFromSign derives the transaction type from a signed amount.
// Positive amounts are income, zero or negative amounts are expenses.
func TypeFromSign(signed decimal.Decimal) TxType {
	if signed.Sign() > 0 {
		return Income
	}
	return Expense
}

func (tx Transaction) Validate() error {
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.Description) == "" {
		return ErrEmptyDescription
	}
	if tx.Amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if !tx.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, tx.Type)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if c.BudgetLimit.Sign() < 0 {
		return fmt.Errorf("budget limit must not be negative: %s", c.BudgetLimit)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, c.Type)
	}
	return nil
}

// AlertEligible reports whether the category can ever produce budget alerts.
func (c Category) AlertEligible() bool {
	return c.Type == Expense && c.BudgetLimit.Sign() > 0
}
