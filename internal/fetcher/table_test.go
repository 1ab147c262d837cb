package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTable_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.csv")
	content := "Species Code,site,Count\nHETO, A1 ,4\n,,\nCASP,B2,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Species Code", "site", "Count"}, tbl.Header)
	require.Len(t, tbl.Rows, 2, "blank rows are dropped")

	assert.Equal(t, "HETO", tbl.Get(tbl.Rows[0], "species_code"))
	assert.Equal(t, "A1", tbl.Get(tbl.Rows[0], "site"))
	assert.Equal(t, "", tbl.Get(tbl.Rows[1], "count"))
	assert.Equal(t, "4", tbl.Get(tbl.Rows[0], "num", "count"), "falls through to later aliases")
	assert.True(t, tbl.Has("species.code"))
	assert.False(t, tbl.Has("year"))
}

func TestReadTable_TSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.tsv")
	require.NoError(t, os.WriteFile(path, []byte("a\tb\n1\t2\n"), 0o644))

	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "2", tbl.Get(tbl.Rows[0], "b"))
}

func TestReadTable_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts.xlsx")
	require.NoError(t, WriteXLSX(path, []Sheet{
		{Name: "counts", Header: []string{"species_code", "count"}, Rows: [][]string{{"HETO", "3"}}},
	}))

	tbl, err := ReadTable(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "3", tbl.Get(tbl.Rows[0], "count"))
}

func TestReadTable_Errors(t *testing.T) {
	_, err := ReadTable(context.Background(), "layers.shp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")

	_, err = ReadTable(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table: open")
}

func TestTable_Require(t *testing.T) {
	tbl := NewTable("obs.csv", [][]string{{"species_code", "site"}})
	assert.NoError(t, tbl.Require("species_code", "site"))

	err := tbl.Require("species_code", "year")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "year"`)
}

func TestTable_GetShortRow(t *testing.T) {
	tbl := NewTable("obs.csv", [][]string{{"a", "b", "c"}, {"1"}})
	assert.Equal(t, "1", tbl.Get(tbl.Rows[0], "a"))
	assert.Equal(t, "", tbl.Get(tbl.Rows[0], "c"))
}

func TestNewTable_Empty(t *testing.T) {
	tbl := NewTable("empty.csv", nil)
	assert.Empty(t, tbl.Rows)
	assert.False(t, tbl.Has("a"))
}

func TestNormalizeColumn(t *testing.T) {
	assert.Equal(t, "species_code", NormalizeColumn(" Species Code "))
	assert.Equal(t, "count_unit", NormalizeColumn("count.unit"))
	assert.Equal(t, "high_low", NormalizeColumn("high-low"))
}
