// ABOUTME: In-memory tabular dataset loaded from CSV with header-addressed column access.
// ABOUTME: Provides Table with Column lookup that skips missing values, used by the qualitative branch.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table holds a CSV dataset in memory. The first CSV record is treated as
// the header row; all cells are kept as strings.
type Table struct {
	headers []string
	index   map[string]int
	rows    [][]string
}

// Load reads a CSV file from disk into a Table.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV data from r into a Table. Rows shorter than the header
// are padded with empty cells; ragged rows are tolerated rather than rejected
// because real survey exports frequently contain them.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset has no header row")
	}

	headers := records[0]
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, rec)
			rec = padded
		}
		rows = append(rows, rec)
	}

	return &Table{headers: headers, index: index, rows: rows}, nil
}

// Headers returns the column names in file order.
func (t *Table) Headers() []string {
	return t.headers
}

// RowCount returns the number of data rows (excluding the header).
func (t *Table) RowCount() int {
	return len(t.rows)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns all non-missing values of the named column in row order.
// A value is missing if it is empty or whitespace-only. The second return
// is false when the column does not exist.
func (t *Table) Column(name string) ([]string, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}

	values := make([]string, 0, len(t.rows))
	for _, row := range t.rows {
		if i >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			continue
		}
		values = append(values, row[i])
	}
	return values, true
}

// UniqueCount returns the number of distinct non-missing values in the
// named column, or 0 if the column does not exist.
func (t *Table) UniqueCount(name string) int {
	values, ok := t.Column(name)
	if !ok {
		return 0
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[strings.TrimSpace(v)] = struct{}{}
	}
	return len(seen)
}
