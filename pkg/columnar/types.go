package columnar

import (
	"fmt"
)

// TypeKind is the physical type of a column
type TypeKind uint8

const (
	// Utf8 holds text
	Utf8 TypeKind = iota
	// Int64 holds 64-bit signed integers
	Int64
	// Float64 holds IEEE doubles
	Float64
	// Bool holds booleans
	Bool
	// Binary holds raw bytes decoded from hex
	Binary
	// Date32 holds days since 1970-01-01
	Date32
	// Timestamp64 holds microseconds since 1970-01-01T00:00:00 UTC
	Timestamp64
)

// String returns the type name
func (k TypeKind) String() string {
	switch k {
	case Utf8:
		return "utf8"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case Binary:
		return "binary"
	case Date32:
		return "date32"
	case Timestamp64:
		return "timestamp64"
	default:
		return "unknown"
	}
}

// ColumnType is a TypeKind plus, for Timestamp64, an optional timezone tag
// ("UTC" or a fixed ±HH:MM offset). Values of a tagged timestamp column are
// always normalised to UTC.
type ColumnType struct {
	Kind     TypeKind
	TimeZone string
}

// String renders the type, e.g. "timestamp64[+02:00]"
func (t ColumnType) String() string {
	if t.Kind == Timestamp64 && t.TimeZone != "" {
		return fmt.Sprintf("%s[%s]", t.Kind, t.TimeZone)
	}
	return t.Kind.String()
}

// Convenience constructors
var (
	TypeUtf8    = ColumnType{Kind: Utf8}
	TypeInt64   = ColumnType{Kind: Int64}
	TypeFloat64 = ColumnType{Kind: Float64}
	TypeBool    = ColumnType{Kind: Bool}
	TypeBinary  = ColumnType{Kind: Binary}
	TypeDate32  = ColumnType{Kind: Date32}
)

// TypeTimestamp returns a Timestamp64 type with the given timezone tag ("" for none)
func TypeTimestamp(tz string) ColumnType {
	return ColumnType{Kind: Timestamp64, TimeZone: tz}
}

// Column is one typed, dense column. Values holds a slice whose element type
// depends on Type.Kind:
//
//	Int64, Timestamp64 → []int64
//	Float64            → []float64
//	Utf8               → []string
//	Bool               → []bool
//	Binary             → [][]byte
//	Date32             → []int32
//
// Valid[i] == false means the value at i is a placeholder with no meaning.
type Column struct {
	Name   string
	Type   ColumnType
	Values interface{}
	Valid  []bool

	// Mismatches counts present, non-null values that could not be decoded
	// for Type and were written as invalid placeholders.
	Mismatches int
}

// Len returns the number of rows in the column
func (c *Column) Len() int {
	return len(c.Valid)
}

// NullCount returns the number of invalid positions
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Valid {
		if !v {
			n++
		}
	}
	return n
}

// Int64s returns the values of an Int64 or Timestamp64 column
func (c *Column) Int64s() []int64 {
	v, _ := c.Values.([]int64)
	return v
}

// Float64s returns the values of a Float64 column
func (c *Column) Float64s() []float64 {
	v, _ := c.Values.([]float64)
	return v
}

// Strings returns the values of a Utf8 column
func (c *Column) Strings() []string {
	v, _ := c.Values.([]string)
	return v
}

// Bools returns the values of a Bool column
func (c *Column) Bools() []bool {
	v, _ := c.Values.([]bool)
	return v
}

// Binaries returns the values of a Binary column
func (c *Column) Binaries() [][]byte {
	v, _ := c.Values.([][]byte)
	return v
}

// Int32s returns the values of a Date32 column
func (c *Column) Int32s() []int32 {
	v, _ := c.Values.([]int32)
	return v
}

// valuesLen returns the length of the Values slice
func (c *Column) valuesLen() int {
	switch v := c.Values.(type) {
	case []int64:
		return len(v)
	case []float64:
		return len(v)
	case []string:
		return len(v)
	case []bool:
		return len(v)
	case [][]byte:
		return len(v)
	case []int32:
		return len(v)
	default:
		return -1
	}
}

// ColumnSet is the ordered set of columns produced by one flush; it is the
// hand-off to a serializer.
type ColumnSet struct {
	Columns []*Column
	NumRows int
}

// Names returns the column names in schema order
func (cs *ColumnSet) Names() []string {
	names := make([]string, len(cs.Columns))
	for i, c := range cs.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column or nil
func (cs *ColumnSet) Column(name string) *Column {
	for _, c := range cs.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Validate checks that every column's values and validity have exactly NumRows entries
func (cs *ColumnSet) Validate() error {
	for _, c := range cs.Columns {
		if len(c.Valid) != cs.NumRows {
			return fmt.Errorf("column %q: validity length %d, expected %d", c.Name, len(c.Valid), cs.NumRows)
		}
		if n := c.valuesLen(); n != cs.NumRows {
			return fmt.Errorf("column %q: %d values for type %s, expected %d", c.Name, n, c.Type, cs.NumRows)
		}
	}
	return nil
}
