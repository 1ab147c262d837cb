package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Num is a float that may be undefined. Undefined values propagate through
// arithmetic and render as "NA" in tables, so missing data stays visible
// instead of collapsing to zero.
type Num struct {
	V     float64
	Valid bool
}

// NA is the undefined Num.
var NA = Num{}

// Some returns a defined Num.
func Some(v float64) Num {
	return Num{V: v, Valid: true}
}

// ParseNum parses a table cell. Empty cells, NA markers and unparseable
// text are undefined.
func ParseNum(s string) Num {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "NA", "N/A", "NAN", "NULL", "-":
		return NA
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return NA
	}
	return Some(v)
}

// Mul returns n*o, undefined if either side is.
func (n Num) Mul(o Num) Num {
	if !n.Valid || !o.Valid {
		return NA
	}
	return Some(n.V * o.V)
}

// Or returns n if defined, otherwise o.
func (n Num) Or(o Num) Num {
	if n.Valid {
		return n
	}
	return o
}

// String renders the value for tabular output.
func (n Num) String() string {
	if !n.Valid {
		return "NA"
	}
	return strconv.FormatFloat(n.V, 'f', -1, 64)
}

// Ptr returns nil for undefined values, for database parameters.
func (n Num) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.V
	return &v
}

// NumFromPtr is the inverse of Ptr.
func NumFromPtr(p *float64) Num {
	if p == nil {
		return NA
	}
	return Some(*p)
}

// MarshalJSON encodes undefined values as null.
func (n Num) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.V)
}

// UnmarshalJSON decodes null as undefined.
func (n *Num) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NA
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Some(v)
	return nil
}
