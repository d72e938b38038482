package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/oraexport/pkg/models"
)

func TestBuildColumnUtf8AcceptsAnyShape(t *testing.T) {
	records := []*models.Record{
		rec("A", models.String("a")),
		rec("A", models.Int(5)),
		rec("A", models.Bool(true)),
		rec("A", models.Float(1.5)),
		rec("A", models.Null()),
		rec("B", models.String("other")),
	}
	col := BuildColumn("A", TypeUtf8, records)

	assert.Equal(t, []string{"a", "5", "true", "1.5", "", ""}, col.Strings())
	assert.Equal(t, []bool{true, true, true, true, false, false}, col.Valid)
	assert.Equal(t, 0, col.Mismatches)
	assert.Equal(t, 2, col.NullCount())
}

func TestBuildColumnFloatWidensInts(t *testing.T) {
	records := []*models.Record{
		rec("A", models.Float(1.5)),
		rec("A", models.Int(2)),
		rec("A", models.String("x")),
	}
	col := BuildColumn("A", TypeFloat64, records)

	assert.Equal(t, []float64{1.5, 2, 0}, col.Float64s())
	assert.Equal(t, []bool{true, true, false}, col.Valid)
	assert.Equal(t, 1, col.Mismatches)
}

func TestBuildColumnBinary(t *testing.T) {
	records := []*models.Record{
		rec("A", models.String("DEADBEEF")),
		rec("A", models.String("ABC")),
		rec("A", models.Int(1)),
	}
	col := BuildColumn("A", TypeBinary, records)

	assert.Equal(t, [][]byte{{0xDE, 0xAD, 0xBE, 0xEF}, nil, nil}, col.Binaries())
	assert.Equal(t, []bool{true, false, false}, col.Valid)
	assert.Equal(t, 2, col.Mismatches)
}

func TestBuildColumnDate32(t *testing.T) {
	records := []*models.Record{
		rec("A", models.String("2024-03-15")),
		rec("A", models.String("not a date")),
		rec("A", models.String("2024-03-16T00:00:00")),
	}
	col := BuildColumn("A", TypeDate32, records)

	assert.Equal(t, []int32{19797, 0, 0}, col.Int32s())
	assert.Equal(t, []bool{true, false, false}, col.Valid)
}

func TestBuildColumnTimestamp(t *testing.T) {
	records := []*models.Record{
		rec("T", models.String("1970-01-01T00:00:00 +02:00")),
		rec("T", models.String("1970-01-01T00:00:01")),
		// unparseable offset falls back to the naive parse
		rec("T", models.String("1970-01-01T00:00:00 +xx:yy")),
		rec("T", models.String("yesterday")),
		rec("T", models.Int(0)),
	}
	col := BuildColumn("T", TypeTimestamp("+02:00"), records)

	assert.Equal(t, []int64{-7_200_000_000, 1_000_000, 0, 0, 0}, col.Int64s())
	assert.Equal(t, []bool{true, true, true, false, false}, col.Valid)
	assert.Equal(t, 2, col.Mismatches)
}

func TestBuildColumnBool(t *testing.T) {
	records := []*models.Record{
		rec("A", models.Bool(true)),
		rec("A", models.String("true")),
		rec("A", models.Bool(false)),
	}
	col := BuildColumn("A", TypeBool, records)

	assert.Equal(t, []bool{true, false, false}, col.Bools())
	assert.Equal(t, []bool{true, false, true}, col.Valid)
}

func TestBuildColumnEmpty(t *testing.T) {
	col := BuildColumn("A", TypeInt64, nil)
	assert.Equal(t, 0, col.Len())
	assert.Empty(t, col.Int64s())
}
