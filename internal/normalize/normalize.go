// Package normalize turns free-form date and amount strings into canonical
// values. Both parsers try a fixed, documented set of input shapes; anything
// outside the set fails with a *ParseError that the importer records per row.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// dateLayouts is the ordered list of accepted date formats. Order matters:
// ambiguous MM/DD vs DD/MM inputs resolve to the first layout that parses,
// so US month-first forms win. This is a documented choice, not inference.
var dateLayouts = []string{
	"2006-01-02",      // ISO
	"01/02/2006",      // MM/DD/YYYY
	"02/01/2006",      // DD/MM/YYYY
	"2006/01/02",      // YYYY/MM/DD
	"01-02-2006",      // MM-DD-YYYY
	"02-01-2006",      // DD-MM-YYYY
	"Jan 2, 2006",     // Mon DD, YYYY
	"January 2, 2006", // Month DD, YYYY
}

// currencySymbols are stripped from amount strings before parsing.
var currencySymbols = []string{"$", "€", "£"}

// ParseError reports a malformed date or amount string. The importer
// recovers from it per row; standalone callers surface it directly.
type ParseError struct {
	Field string // "date" or "amount"
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse %s: %q", e.Field, e.Input)
}

// ParseDate parses raw against the accepted format list after trimming
// whitespace; the first layout that fully matches wins. Invalid calendar
// dates (e.g. Feb 30) are rejected by every layout.
func ParseDate(raw string) (core.Date, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return core.Date{}, &ParseError{Field: "date", Input: raw}
}

// ParseAmount strips surrounding whitespace, the supported currency symbols
// and thousands separators, and treats a parenthesized value as negative.
// Sign is preserved: downstream code derives the transaction type from it
// and stores only the magnitude.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")

	if strings.Contains(s, "(") && strings.Contains(s, ")") {
		s = strings.ReplaceAll(s, "(", "-")
		s = strings.ReplaceAll(s, ")", "")
	}
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &ParseError{Field: "amount", Input: raw}
	}
	return d, nil
}
