package models

import (
	"math"
	"strconv"
	"time"
)

// ValueKind tags a sampled cell value once at scan time so downstream
// normalization and matching can dispatch on the tag instead of
// re-inspecting raw driver values.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindText
	KindTimestamp
)

// Value is a single sampled cell.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Time   time.Time
}

// Row is one sampled record restricted to the mapping's key columns, in
// key-column order.
type Row []Value

func NullValue() Value             { return Value{Kind: KindNull} }
func NumberValue(f float64) Value  { return Value{Kind: KindNumber, Number: f} }
func TextValue(s string) Value     { return Value{Kind: KindText, Text: s} }
func TimestampValue(t time.Time) Value { return Value{Kind: KindTimestamp, Time: t} }

// IsNull reports whether the value is SQL NULL or a floating-point NaN.
func (v Value) IsNull() bool {
	return v.Kind == KindNull || (v.Kind == KindNumber && math.IsNaN(v.Number))
}

// IsNaN reports whether the value is a numeric NaN, as opposed to NULL.
func (v Value) IsNaN() bool {
	return v.Kind == KindNumber && math.IsNaN(v.Number)
}

// String renders the canonical string form used for set matching and
// reporting. Numbers render without a trailing ".0" so 123.0 and 123
// compare equal across engines.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindNumber:
		if math.IsNaN(v.Number) {
			return "nan"
		}
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindTimestamp:
		return v.Time.Format("2006-01-02 15:04:05")
	default:
		return v.Text
	}
}

// Column is one introspected table column.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
