package pipeline

import (
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/nectar-cli/internal/fetcher"
	"github.com/sells-group/nectar-cli/internal/survey"
)

// WorkbookName is the file written for the xlsx output format.
const WorkbookName = "nectar_results.xlsx"

// WriteTables writes tables under dir as one CSV per table or a single
// workbook with a sheet per table. It returns the written paths.
func WriteTables(dir, format string, tables []survey.Rendered) ([]string, error) {
	switch format {
	case "", "csv":
		paths := make([]string, 0, len(tables))
		for _, t := range tables {
			path := filepath.Join(dir, t.Name+".csv")
			if err := fetcher.WriteCSV(path, t.Header, t.Rows); err != nil {
				return paths, eris.Wrapf(err, "pipeline: write %s", t.Name)
			}
			paths = append(paths, path)
		}
		return paths, nil
	case "xlsx":
		sheets := make([]fetcher.Sheet, 0, len(tables))
		for _, t := range tables {
			sheets = append(sheets, fetcher.Sheet{Name: t.Name, Header: t.Header, Rows: t.Rows})
		}
		path := filepath.Join(dir, WorkbookName)
		if err := fetcher.WriteXLSX(path, sheets); err != nil {
			return nil, eris.Wrap(err, "pipeline: write workbook")
		}
		return []string{path}, nil
	default:
		return nil, eris.Errorf("pipeline: unknown output format %q", format)
	}
}
