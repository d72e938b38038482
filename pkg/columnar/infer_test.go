package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/oraexport/pkg/errors"
	"github.com/ajitpratap0/oraexport/pkg/models"
)

// rec builds a record from alternating names and values
func rec(pairs ...interface{}) *models.Record {
	r := models.NewRecord(len(pairs) / 2)
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1].(models.Value))
	}
	return r
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name string
		in   models.Value
		want ColumnType
	}{
		{"null", models.Null(), TypeUtf8},
		{"bool", models.Bool(true), TypeBool},
		{"int", models.Int(42), TypeInt64},
		{"float", models.Float(1.5), TypeFloat64},
		{"date", models.String("2024-03-15"), TypeDate32},
		{"timestamp", models.String("2024-03-15T10:00:00"), TypeTimestamp("")},
		{"timestamp fraction", models.String("2024-03-15T10:00:00.123"), TypeTimestamp("")},
		{"timestamp zulu", models.String("2024-03-15T10:00:00Z"), TypeTimestamp("UTC")},
		{"timestamp offset", models.String("2024-03-15T10:00:00.000000 +02:00"), TypeTimestamp("+02:00")},
		{"timestamp negative offset", models.String("2024-03-15T10:00:00-05:00"), TypeTimestamp("-05:00")},
		{"hex", models.String("DEADBEEF"), TypeBinary},
		{"digits as hex", models.String("12345678"), TypeBinary},
		{"short digits", models.String("1234"), TypeUtf8},
		{"text", models.String("hello"), TypeUtf8},
		{"json text", models.String(`{"a":1}`), TypeUtf8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Infer(tt.in))
		})
	}
}

func TestFirstNonNullColumnType(t *testing.T) {
	p := FirstNonNull{}

	records := []*models.Record{
		rec("A", models.Null()),
		rec("B", models.Int(1)),
		rec("A", models.String("2024-01-01")),
		rec("A", models.Int(7)),
	}
	assert.Equal(t, TypeDate32, p.ColumnType("A", records))
	assert.Equal(t, TypeInt64, p.ColumnType("B", records))
	assert.Equal(t, TypeUtf8, p.ColumnType("missing", records))

	allNull := []*models.Record{rec("A", models.Null()), rec("A", models.Null())}
	assert.Equal(t, TypeUtf8, p.ColumnType("A", allNull))
}

// The type comes from one sample; later values of another shape are nulled.
func TestSingleSampleCoercion(t *testing.T) {
	p := FirstNonNull{}

	text := []*models.Record{
		rec("A", models.String("hello")),
		rec("A", models.String("2024-01-01")),
	}
	typ := p.ColumnType("A", text)
	require.Equal(t, TypeUtf8, typ)
	col := BuildColumn("A", typ, text)
	assert.Equal(t, []string{"hello", "2024-01-01"}, col.Strings())
	assert.Equal(t, []bool{true, true}, col.Valid)

	ints := []*models.Record{
		rec("A", models.Int(1)),
		rec("A", models.String("x")),
		rec("A", models.Float(2.5)),
	}
	typ = p.ColumnType("A", ints)
	require.Equal(t, TypeInt64, typ)
	col = BuildColumn("A", typ, ints)
	assert.Equal(t, []int64{1, 0, 0}, col.Int64s())
	assert.Equal(t, []bool{true, false, false}, col.Valid)
	assert.Equal(t, 2, col.Mismatches)
	assert.NoError(t, p.Check(col))
}

func TestStrictPolicy(t *testing.T) {
	p := Strict{}
	records := []*models.Record{
		rec("A", models.Int(1)),
		rec("A", models.Null()),
		rec("A", models.String("x")),
	}
	typ := p.ColumnType("A", records)
	require.Equal(t, TypeInt64, typ)

	col := BuildColumn("A", typ, records)
	err := p.Check(col)
	require.Error(t, err)

	var conflict *TypeConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "A", conflict.Column)
	assert.Equal(t, 1, conflict.Count)
	assert.Equal(t, TypeInt64, conflict.Type)

	// nulls alone are not conflicts
	clean := BuildColumn("A", typ, records[:2])
	assert.NoError(t, p.Check(clean))
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFirstNonNull, p.Name())

	p, err = PolicyByName("first-non-null")
	require.NoError(t, err)
	assert.IsType(t, FirstNonNull{}, p)

	p, err = PolicyByName(" STRICT ")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p.Name())

	_, err = PolicyByName("majority")
	assert.Error(t, err)
}
