// Package survey maps the raw field tables onto domain records and renders
// stage outputs back into their column contracts.
package survey

import (
	"strconv"
	"strings"

	"github.com/sells-group/nectar-cli/internal/model"
)

// parseIntOr parses a string as an integer, returning def if parsing fails or the string is empty.
func parseIntOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// Spreadsheet exports write whole numbers as "2019.0".
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return def
		}
		return int(f)
	}
	return v
}

// parseBool reads the yes/no spellings used on field sheets.
func parseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "t", "1":
		return true
	case "n", "no", "false", "f", "0":
		return false
	}
	return def
}

// numCell parses a numeric cell and counts text that is neither a number nor
// a missing marker.
type numCell struct {
	bad int
}

func (n *numCell) parse(s string) model.Num {
	v := model.ParseNum(s)
	if !v.Valid && !isMissingMarker(s) {
		n.bad++
	}
	return v
}

func isMissingMarker(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NA", "N/A", "NAN", "NULL", "-":
		return true
	}
	return false
}
