package columnar

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/oraexport/pkg/models"
)

// Infer returns the column type implied by a single value.
//
// Strings go through the classifier in fixed precedence: date, timestamp
// with timezone, timestamp without timezone, hex, text. A timestamp whose
// timezone marker cannot be extracted falls back to Utf8.
func Infer(v models.Value) ColumnType {
	switch v.Kind() {
	case models.KindBool:
		return TypeBool
	case models.KindInt:
		return TypeInt64
	case models.KindFloat:
		return TypeFloat64
	case models.KindString:
		s, _ := v.AsString()
		return inferString(s)
	default:
		// null carries no type signal
		return TypeUtf8
	}
}

func inferString(s string) ColumnType {
	switch {
	case IsISODate(s):
		return TypeDate32
	case IsISOTimestampTZ(s):
		tz, ok := ExtractTimezone(s)
		if !ok {
			return TypeUtf8
		}
		return TypeTimestamp(tz)
	case IsISOTimestamp(s):
		return TypeTimestamp("")
	case IsHexString(s):
		return TypeBinary
	default:
		return TypeUtf8
	}
}

// firstNonNull returns the first non-null value of field across records
func firstNonNull(field string, records []*models.Record) (models.Value, bool) {
	for _, r := range records {
		if v, ok := r.Get(field); ok && !v.IsNull() {
			return v, true
		}
	}
	return models.Null(), false
}

// InferencePolicy decides the type of a column and whether a built column is acceptable
type InferencePolicy interface {
	// Name identifies the policy in configuration and logs
	Name() string
	// ColumnType returns the type to build field with
	ColumnType(field string, records []*models.Record) ColumnType
	// Check inspects a built column; a non-nil error aborts the flush
	Check(col *Column) error
}

const (
	// PolicyFirstNonNull is the name of the FirstNonNull policy
	PolicyFirstNonNull = "first-non-null"
	// PolicyStrict is the name of the Strict policy
	PolicyStrict = "strict"
)

// FirstNonNull types each column from the first record holding a non-null
// value for it; an all-null column is Utf8. Values of another shape become
// invalid cells.
type FirstNonNull struct{}

// Name implements InferencePolicy
func (FirstNonNull) Name() string { return PolicyFirstNonNull }

// ColumnType implements InferencePolicy
func (FirstNonNull) ColumnType(field string, records []*models.Record) ColumnType {
	v, ok := firstNonNull(field, records)
	if !ok {
		return TypeUtf8
	}
	return Infer(v)
}

// Check implements InferencePolicy. Mismatches are absorbed.
func (FirstNonNull) Check(*Column) error { return nil }

// Strict chooses types like FirstNonNull but rejects any column in which a
// present value could not be decoded for the chosen type.
type Strict struct{}

// Name implements InferencePolicy
func (Strict) Name() string { return PolicyStrict }

// ColumnType implements InferencePolicy
func (Strict) ColumnType(field string, records []*models.Record) ColumnType {
	return FirstNonNull{}.ColumnType(field, records)
}

// Check implements InferencePolicy
func (Strict) Check(col *Column) error {
	if col.Mismatches == 0 {
		return nil
	}
	return &TypeConflictError{Column: col.Name, Type: col.Type, Count: col.Mismatches}
}

// TypeConflictError reports values that did not match their column's inferred type
type TypeConflictError struct {
	Column string
	Type   ColumnType
	Count  int
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("column %q inferred as %s has %d conflicting value(s)", e.Column, e.Type, e.Count)
}

// PolicyByName resolves a policy name; the empty string selects FirstNonNull
func PolicyByName(name string) (InferencePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyFirstNonNull:
		return FirstNonNull{}, nil
	case PolicyStrict:
		return Strict{}, nil
	default:
		return nil, fmt.Errorf("unknown inference policy %q (want %s or %s)", name, PolicyFirstNonNull, PolicyStrict)
	}
}
