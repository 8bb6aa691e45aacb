package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindDecimal
	KindBool
	KindTime
	KindBytes
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindBytes:
		return "bytes"
	default:
		return "other"
	}
}

// Value is a single cell of a result table.
type Value struct {
	kind  Kind
	str   string
	i     int64
	dec   decimal.Decimal
	b     bool
	t     time.Time
	bytes []byte
	other interface{}
}

func Null() Value { return Value{kind: KindNull} }
func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func IntegerValue(i int64) Value { return Value{kind: KindInteger, i: i} }
func DecimalValue(d decimal.Decimal) Value { return Value{kind: KindDecimal, dec: d} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }
func BytesValue(b []byte) Value { return Value{kind: KindBytes, bytes: b} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell was SQL NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the integer held by v.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInteger }

// Decimal returns the decimal held by v.
func (v Value) Decimal() (decimal.Decimal, bool) { return v.dec, v.kind == KindDecimal }

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Time returns the timestamp held by v.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindTime }

// String renders the cell as text. NULL renders as the empty string and
// booleans as True/False. Decimals keep their scale, so NUMERIC(10,2) 1.50
// stays 1.50.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.str
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindDecimal:
		return formatDecimal(v.dec)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindBytes:
		return string(v.bytes)
	default:
		return toString(v.other)
	}
}

// Interface returns the value as a plain Go value for encoding. Decimals are
// returned as json.Number so the encoded number keeps its scale.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindString:
		return v.str
	case KindInteger:
		return v.i
	case KindDecimal:
		return json.Number(formatDecimal(v.dec))
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	case KindBytes:
		return string(v.bytes)
	default:
		return v.other
	}
}

// NewValue converts a scanned driver value. dbType is the column's database
// type name and decides how text-encoded numbers are read.
func NewValue(src interface{}, dbType string) Value {
	switch x := src.(type) {
	case nil:
		return Null()
	case int64:
		return IntegerValue(x)
	case int32:
		return IntegerValue(int64(x))
	case int:
		return IntegerValue(int64(x))
	case float64:
		return DecimalValue(decimal.NewFromFloat(x))
	case float32:
		return DecimalValue(decimal.NewFromFloat32(x))
	case bool:
		return BoolValue(x)
	case time.Time:
		return TimeValue(x)
	case string:
		return fromText(x, dbType)
	case []byte:
		if isBinaryType(dbType) {
			return BytesValue(append([]byte(nil), x...))
		}
		return fromText(string(x), dbType)
	default:
		return Value{kind: KindOther, other: src}
	}
}

// fromText reads numeric column types sent as text (PostgreSQL NUMERIC,
// MySQL text protocol) into typed values; anything else stays a string.
func fromText(s string, dbType string) Value {
	switch {
	case isIntegerType(dbType):
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntegerValue(i)
		}
	case isDecimalType(dbType):
		if d, err := decimal.NewFromString(s); err == nil {
			return DecimalValue(d)
		}
	}
	return StringValue(s)
}

func isIntegerType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "INT", "INT2", "INT4", "INT8", "INTEGER", "SMALLINT", "BIGINT",
		"TINYINT", "MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT",
		"UNSIGNED SMALLINT", "UNSIGNED TINYINT", "UNSIGNED MEDIUMINT", "YEAR":
		return true
	}
	return false
}

func isDecimalType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "NUMERIC", "DECIMAL", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "REAL", "MONEY":
		return true
	}
	return false
}

func isBinaryType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "BYTEA", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY":
		return true
	}
	return false
}

// formatDecimal renders d with as many fractional digits as its exponent
// carries. decimal.String trims trailing zeros.
func formatDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

func toString(v interface{}) string {
	return fmt.Sprint(v)
}
