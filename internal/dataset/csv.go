// Package dataset loads raw per-country corpora from disk.
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Table is a raw tabular dataset: named columns over string cells, exactly
// as read from the country's corpus file. Schema adapters interpret it.
type Table struct {
	Headers []string
	rows    [][]string
	index   map[string]int
}

// LoadCSV reads a raw dataset from a CSV file. The first row is the header.
func LoadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, missing cells become ""
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", path)
	}

	headers := records[0]
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.TrimSpace(h)] = i
	}
	return &Table{Headers: headers, rows: records[1:], index: index}, nil
}

// NewTable builds an in-memory table, mainly for tests.
func NewTable(headers []string, rows [][]string) *Table {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	return &Table{Headers: headers, rows: rows, index: index}
}

// Rows returns the number of data rows.
func (t *Table) Rows() int { return len(t.rows) }

// HasColumn reports whether the raw dataset contains a column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cell returns the raw string cell for a row/column, or "" when the row is
// ragged or the column is unknown.
func (t *Table) Cell(row int, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(t.rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.rows[row][i])
}

// NumericColumn parses a raw column as float64 values. Unparseable or empty
// cells become NaN so the feature pipeline can apply its missing-value policy.
func (t *Table) NumericColumn(name string) []float64 {
	out := make([]float64, len(t.rows))
	for i := range t.rows {
		out[i] = ParseNumber(t.Cell(i, name))
	}
	return out
}

// StringColumn returns a raw column verbatim, "" for missing cells.
func (t *Table) StringColumn(name string) []string {
	out := make([]string, len(t.rows))
	for i := range t.rows {
		out[i] = t.Cell(i, name)
	}
	return out
}

// ParseNumber converts a raw cell into a float64, tolerating thousands
// separators and common currency prefixes. Empty or unparseable cells
// return NaN.
func ParseNumber(cell string) float64 {
	s := strings.TrimSpace(cell)
	if s == "" {
		return math.NaN()
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimLeft(s, "$₹£€ ")
	switch strings.ToLower(s) {
	case "yes", "true":
		return 1
	case "no", "false":
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
