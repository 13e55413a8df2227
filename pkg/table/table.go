// Package table reads the comma-separated organisms and data files written by
// earlier experiment runs and joins them on a key column.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// KeyColumn is the identifier column every organisms file must carry.
const KeyColumn = "ID"

// Table is a header row plus data rows. Every row has one cell per column.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// Read loads a table from a CSV file with a header row.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// Parse reads a table from r. Quoted cells may contain commas, which is how
// list-valued attributes such as "[1,2,3]" are stored.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, err
	}

	t := &Table{Columns: make([]string, len(header)), index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := t.index[h]; dup {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		t.Columns[i] = h
		t.index[h] = i
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns every value of the named column in row order.
func (t *Table) Column(name string) ([]string, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// RowMap returns row r as a column -> value map.
func (t *Table) RowMap(r int) map[string]string {
	m := make(map[string]string, len(t.Columns))
	for i, c := range t.Columns {
		m[c] = t.Rows[r][i]
	}
	return m
}

// Merge joins other's columns into t by the shared key column. Columns t
// already has keep t's values; rows of t without a partner in other get
// empty cells for the new columns.
func (t *Table) Merge(other *Table, key string) error {
	ti, ok := t.index[key]
	if !ok {
		return fmt.Errorf("no column %q to merge on", key)
	}
	oi, ok := other.index[key]
	if !ok {
		return fmt.Errorf("merged table has no column %q", key)
	}

	byKey := make(map[string][]string, len(other.Rows))
	for _, row := range other.Rows {
		if _, dup := byKey[row[oi]]; !dup {
			byKey[row[oi]] = row
		}
	}

	var added []int
	for i, c := range other.Columns {
		if _, exists := t.index[c]; exists {
			continue
		}
		t.index[c] = len(t.Columns)
		t.Columns = append(t.Columns, c)
		added = append(added, i)
	}

	for r, row := range t.Rows {
		partner := byKey[row[ti]]
		for _, i := range added {
			v := ""
			if partner != nil {
				v = partner[i]
			}
			row = append(row, v)
		}
		t.Rows[r] = row
	}
	return nil
}

// DataFileName returns the companion data file for an organisms file: the
// last "organisms" in the name becomes "data", or "_data" is inserted before
// the extension when the name has no "organisms".
func DataFileName(path string) string {
	if i := strings.LastIndex(path, "organisms"); i >= 0 {
		return path[:i] + "data" + path[i+len("organisms"):]
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_data" + ext
}
