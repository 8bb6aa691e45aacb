package query

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Scalars are the values derived from a single-row, single-column result.
type Scalars struct {
	String  string
	Int     int64
	Decimal decimal.Decimal
}

// Project refreshes s from t when t holds exactly one row with exactly one
// column, and reports whether it did. A cell reading "true" in any case
// becomes "1". Each numeric field is only replaced when the text parses.
func (s *Scalars) Project(t *Table) bool {
	if t.RowCount() != 1 || t.ColumnCount() != 1 || t.Rows[0].Len() != 1 {
		return false
	}

	str := t.Rows[0].At(0).String()
	if strings.EqualFold(str, "true") {
		str = "1"
	}
	s.String = str

	trimmed := strings.TrimSpace(str)

	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		s.Int = i
	}

	if d, err := decimal.NewFromString(trimmed); err == nil {
		s.Decimal = d
	}

	return true
}
