// Package models provides the data model for records exported by oraexport.
//
// Upstream query results are semi-structured: each row is an ordered map of
// field name to a dynamically typed value. Value models that as a closed sum
// type with exactly five variants.
package models

import (
	"math"
	"strconv"
)

// Kind identifies the variant held by a Value
type Kind uint8

const (
	// KindNull is an explicit SQL NULL / JSON null
	KindNull Kind = iota
	// KindBool is a boolean
	KindBool
	// KindInt is an integral number
	KindInt
	// KindFloat is a number with a fractional or exponent part
	KindFloat
	// KindString is text
	KindString
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged union {Null, Bool, Int, Float, String}.
// The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Null returns the null value
func Null() Value { return Value{} }

// Bool returns a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integral value
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a text value
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the variant held by v
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integral payload
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the numeric payload as float64. Int values convert.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsString returns the text payload
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Text returns the textual representation of v. Strings are returned as-is,
// other variants the way they appear in JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	default:
		return "null"
	}
}

// GoString makes values readable in test failure output
func (v Value) GoString() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	return v.Text()
}

// formatFloat mirrors JSON number formatting: plain decimal notation unless
// the magnitude is tiny or huge.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.FormatFloat(f, format, -1, 64)
}
