package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ColumnMapping names the three logical import columns in the input.
type ColumnMapping struct {
	Date        string
	Description string
	Amount      string
}

// DefaultColumns is the mapping used when the caller supplies none.
func DefaultColumns() ColumnMapping {
	return ColumnMapping{Date: "Date", Description: "Description", Amount: "Amount"}
}

// ReadCSV extracts raw rows from CSV input. With hasHeader the columns are
// resolved by case-insensitive header name through the mapping; without it
// the first three columns are taken as date, description, amount in that
// order. Short
// records surface as rows that later fail normalization rather than
// aborting the read.
func ReadCSV(r io.Reader, mapping ColumnMapping, hasHeader bool) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	dateIdx, descIdx, amountIdx := 0, 1, 2
	if hasHeader {
		col := headerIndex(records[0])
		var ok bool
		if dateIdx, ok = col[strings.ToLower(mapping.Date)]; !ok {
			return nil, fmt.Errorf("missing column: %s", mapping.Date)
		}
		if descIdx, ok = col[strings.ToLower(mapping.Description)]; !ok {
			return nil, fmt.Errorf("missing column: %s", mapping.Description)
		}
		if amountIdx, ok = col[strings.ToLower(mapping.Amount)]; !ok {
			return nil, fmt.Errorf("missing column: %s", mapping.Amount)
		}
		records = records[1:]
	}

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		rows = append(rows, Row{
			Index:       i + 1,
			Date:        fieldAt(rec, dateIdx),
			Description: fieldAt(rec, descIdx),
			Amount:      fieldAt(rec, amountIdx),
		})
	}
	return rows, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func fieldAt(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
