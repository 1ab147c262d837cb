package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a header plus data rows read from one file.
type Table struct {
	Path   string
	Header []string
	Rows   [][]string

	index map[string]int
}

// ReadTable loads a CSV, TSV or XLSX file by extension. The first row is the
// header. Blank rows are dropped.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		r, err := ReadXLSX(path, XLSXOptions{})
		if err != nil {
			return nil, eris.Wrapf(err, "table: read %s", path)
		}
		rows = r
	case ".csv", ".tsv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "table: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		opts := CSVOptions{TrimSpace: true, LazyQuotes: true}
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			opts.Delimiter = '\t'
		}
		rowCh, errCh := StreamCSV(ctx, f, opts)
		for row := range rowCh {
			rows = append(rows, row)
		}
		for err := range errCh {
			if err != nil {
				return nil, eris.Wrapf(err, "table: read %s", path)
			}
		}
	default:
		return nil, eris.Errorf("table: unsupported file type %q", filepath.Ext(path))
	}

	return NewTable(path, rows), nil
}

// NewTable builds a Table from raw rows where rows[0] is the header.
func NewTable(path string, rows [][]string) *Table {
	t := &Table{Path: path}
	if len(rows) == 0 {
		t.index = map[string]int{}
		return t
	}
	t.Header = rows[0]
	for _, r := range rows[1:] {
		if blankRow(r) {
			continue
		}
		t.Rows = append(t.Rows, r)
	}
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		key := NormalizeColumn(h)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	return t
}

// NormalizeColumn lowercases and folds separators so "Species Code",
// "species.code" and "species_code" match.
func NormalizeColumn(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", ".", "_", "-", "_").Replace(s)
}

// Has reports whether any of the named columns exists.
func (t *Table) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := t.index[NormalizeColumn(n)]; ok {
			return true
		}
	}
	return false
}

// Require returns an error naming the first missing column.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if !t.Has(n) {
			return eris.Errorf("table: %s: missing required column %q", t.Path, n)
		}
	}
	return nil
}

// Get returns the value of the first present column among names, or "".
func (t *Table) Get(row []string, names ...string) string {
	for _, n := range names {
		idx, ok := t.index[NormalizeColumn(n)]
		if !ok {
			continue
		}
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func blankRow(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
