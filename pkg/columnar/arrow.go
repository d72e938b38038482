package columnar

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ArrowType maps a column type to its Arrow data type
func ArrowType(t ColumnType) arrow.DataType {
	switch t.Kind {
	case Int64:
		return arrow.PrimitiveTypes.Int64
	case Float64:
		return arrow.PrimitiveTypes.Float64
	case Bool:
		return arrow.FixedWidthTypes.Boolean
	case Binary:
		return arrow.BinaryTypes.Binary
	case Date32:
		return arrow.FixedWidthTypes.Date32
	case Timestamp64:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: t.TimeZone}
	default:
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema returns the Arrow schema of the set. Every field is nullable.
func (cs *ColumnSet) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(cs.Columns))
	for i, c := range cs.Columns {
		fields[i] = arrow.Field{Name: c.Name, Type: ArrowType(c.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// ToArrow converts the set to an Arrow record. Validity becomes the null
// bitmap. The caller owns the record and must Release it.
func (cs *ColumnSet) ToArrow(mem memory.Allocator) (arrow.Record, error) {
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	b := array.NewRecordBuilder(mem, cs.ArrowSchema())
	defer b.Release()

	for i, c := range cs.Columns {
		if err := appendColumn(b.Field(i), c); err != nil {
			return nil, err
		}
	}
	return b.NewRecord(), nil
}

func appendColumn(fb array.Builder, c *Column) error {
	switch c.Type.Kind {
	case Int64:
		fb.(*array.Int64Builder).AppendValues(c.Int64s(), c.Valid)
	case Float64:
		fb.(*array.Float64Builder).AppendValues(c.Float64s(), c.Valid)
	case Bool:
		fb.(*array.BooleanBuilder).AppendValues(c.Bools(), c.Valid)
	case Binary:
		fb.(*array.BinaryBuilder).AppendValues(c.Binaries(), c.Valid)
	case Date32:
		src := c.Int32s()
		days := make([]arrow.Date32, len(src))
		for i, d := range src {
			days[i] = arrow.Date32(d)
		}
		fb.(*array.Date32Builder).AppendValues(days, c.Valid)
	case Timestamp64:
		src := c.Int64s()
		ts := make([]arrow.Timestamp, len(src))
		for i, t := range src {
			ts[i] = arrow.Timestamp(t)
		}
		fb.(*array.TimestampBuilder).AppendValues(ts, c.Valid)
	case Utf8:
		fb.(*array.StringBuilder).AppendValues(c.Strings(), c.Valid)
	default:
		return fmt.Errorf("column %q: unsupported type %s", c.Name, c.Type)
	}
	return nil
}
