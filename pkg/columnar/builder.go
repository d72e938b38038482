package columnar

import (
	"github.com/ajitpratap0/oraexport/pkg/models"
)

// BuildColumn encodes field name of every record as one dense column of type
// typ. Absent and null values become invalid placeholders; values that cannot
// be decoded for typ become invalid placeholders and are counted in
// Column.Mismatches. Row order is preserved.
func BuildColumn(name string, typ ColumnType, records []*models.Record) *Column {
	col := &Column{
		Name:  name,
		Type:  typ,
		Valid: make([]bool, len(records)),
	}

	switch typ.Kind {
	case Int64:
		col.Values = fill(col, records, func(v models.Value) (int64, bool) {
			return v.AsInt()
		})
	case Float64:
		col.Values = fill(col, records, func(v models.Value) (float64, bool) {
			return v.AsFloat()
		})
	case Bool:
		col.Values = fill(col, records, func(v models.Value) (bool, bool) {
			return v.AsBool()
		})
	case Binary:
		col.Values = fill(col, records, func(v models.Value) ([]byte, bool) {
			s, ok := v.AsString()
			if !ok {
				return nil, false
			}
			return HexToBinary(s)
		})
	case Date32:
		col.Values = fill(col, records, func(v models.Value) (int32, bool) {
			s, ok := v.AsString()
			if !ok {
				return 0, false
			}
			return DateToDays(s)
		})
	case Timestamp64:
		col.Values = fill(col, records, decodeTimestamp)
	default:
		// string columns accept any shape through its text form
		col.Values = fill(col, records, func(v models.Value) (string, bool) {
			if s, ok := v.AsString(); ok {
				return s, true
			}
			return v.Text(), true
		})
	}

	return col
}

// decodeTimestamp uses the UTC-normalising path when the value carries a
// timezone marker and falls back to the naive parse when that fails.
func decodeTimestamp(v models.Value) (int64, bool) {
	s, ok := v.AsString()
	if !ok {
		return 0, false
	}
	if IsISOTimestampTZ(s) {
		if micros, ok := TZTimestampToUTCMicros(s); ok {
			return micros, true
		}
	}
	return TimestampToMicros(s)
}

// fill walks records in order, decoding the column's field with decode
func fill[T any](col *Column, records []*models.Record, decode func(models.Value) (T, bool)) []T {
	values := make([]T, len(records))
	for i, r := range records {
		v, ok := r.Get(col.Name)
		if !ok || v.IsNull() {
			continue
		}
		out, ok := decode(v)
		if !ok {
			col.Mismatches++
			continue
		}
		values[i] = out
		col.Valid[i] = true
	}
	return values
}
