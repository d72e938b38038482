package columnar

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/oraexport/pkg/errors"
	"github.com/ajitpratap0/oraexport/pkg/models"
)

// captureSink records every column set it receives
type captureSink struct {
	sets []*ColumnSet
	err  error
}

func (s *captureSink) WriteColumnSet(_ context.Context, set *ColumnSet) error {
	s.sets = append(s.sets, set)
	return s.err
}

func TestWriterFlushScenario(t *testing.T) {
	w := NewWriter(WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, w.AddRecord(rec("A", models.Int(1), "B", models.String("2024-03-15"))))
	require.NoError(t, w.AddRecord(rec("A", models.Null(), "B", models.String("2024-03-16"))))

	sink := &captureSink{}
	set, err := w.Flush(context.Background(), sink)
	require.NoError(t, err)
	require.Len(t, sink.sets, 1)
	assert.Same(t, set, sink.sets[0])

	assert.Equal(t, 2, set.NumRows)
	assert.Equal(t, []string{"A", "B"}, set.Names())

	a := set.Column("A")
	assert.Equal(t, TypeInt64, a.Type)
	assert.Equal(t, []int64{1, 0}, a.Int64s())
	assert.Equal(t, []bool{true, false}, a.Valid)

	b := set.Column("B")
	assert.Equal(t, TypeDate32, b.Type)
	assert.Equal(t, []int32{19797, 19798}, b.Int32s())
	assert.Equal(t, []bool{true, true}, b.Valid)
}

func TestWriterSkipsLOBs(t *testing.T) {
	w := NewWriter(WithSkipLOBs(true), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, w.AddRecord(rec("A", models.Int(1), "B", models.String(strings.Repeat("x", 5000)))))

	assert.Equal(t, []string{"A"}, w.Schema())
	assert.Equal(t, 1, w.LOBFieldsSkipped())

	set, err := w.Flush(context.Background(), &captureSink{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, set.Names())
}

func TestWriterKeepsLOBsByDefault(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.AddRecord(rec("A", models.Int(1), "B", models.String(strings.Repeat("x", 5000)))))
	assert.Equal(t, []string{"A", "B"}, w.Schema())
}

func TestWriterEmptyFlush(t *testing.T) {
	w := NewWriter(WithLogger(zaptest.NewLogger(t)))
	sink := &captureSink{}

	set, err := w.Flush(context.Background(), sink)
	assert.NoError(t, err)
	assert.Nil(t, set)
	assert.Empty(t, sink.sets)
}

func TestWriterSchemaStability(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.AddRecord(rec("A", models.Int(1), "B", models.String("x"))))
	require.NoError(t, w.AddRecord(rec("B", models.String("y"), "C", models.Bool(true))))
	require.NoError(t, w.AddRecord(rec("A", models.Int(3))))

	assert.Equal(t, []string{"A", "B"}, w.Schema())

	set, err := w.Flush(context.Background(), &captureSink{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, set.Names())
	assert.Equal(t, []bool{true, false, true}, set.Column("A").Valid)
	assert.Equal(t, []bool{true, true, false}, set.Column("B").Valid)
}

func TestWriterColumnLengthInvariant(t *testing.T) {
	shapes := []models.Value{
		models.Int(1),
		models.Float(2.5),
		models.String("2024-01-01"),
		models.String("2024-01-01T00:00:00Z"),
		models.String("DEADBEEF"),
		models.Bool(false),
		models.Null(),
		models.String("text"),
	}

	w := NewWriter()
	const rows = 50
	for i := 0; i < rows; i++ {
		r := models.NewRecord()
		for c := 0; c < len(shapes); c++ {
			// skip some fields to exercise absent values
			if (i+c)%5 == 0 && i > 0 {
				continue
			}
			r.Set(fmt.Sprintf("C%d", c), shapes[(i+c)%len(shapes)])
		}
		require.NoError(t, w.AddRecord(r))
	}

	set, err := w.Flush(context.Background(), &captureSink{})
	require.NoError(t, err)
	require.NoError(t, set.Validate())
	assert.Len(t, set.Columns, len(shapes))
	for _, c := range set.Columns {
		assert.Equal(t, rows, c.Len(), c.Name)
		assert.Equal(t, rows, c.valuesLen(), c.Name)
	}
}

func TestWriterEmptySchema(t *testing.T) {
	w := NewWriter()
	err := w.AddRecord(models.NewRecord())
	assert.True(t, errors.Is(err, ErrEmptySchema))
	assert.Equal(t, 0, w.Len())

	w = NewWriter(WithSkipLOBs(true))
	err = w.AddRecord(rec("CLOB", models.String("HEXTORAW('00')")))
	assert.True(t, errors.Is(err, ErrEmptySchema))

	// later empty records are fine once the schema is fixed
	w = NewWriter()
	require.NoError(t, w.AddRecord(rec("A", models.Int(1))))
	require.NoError(t, w.AddRecord(models.NewRecord()))
	assert.Equal(t, 2, w.Len())
}

func TestWriterSinkError(t *testing.T) {
	boom := fmt.Errorf("disk full")
	w := NewWriter()
	require.NoError(t, w.AddRecord(rec("A", models.Int(1))))

	_, err := w.Flush(context.Background(), &captureSink{err: boom})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestWriterStrictPolicyAbortsFlush(t *testing.T) {
	w := NewWriter(WithPolicy(Strict{}), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, w.AddRecord(rec("A", models.Int(1))))
	require.NoError(t, w.AddRecord(rec("A", models.String("x"))))

	sink := &captureSink{}
	_, err := w.Flush(context.Background(), sink)
	require.Error(t, err)
	assert.Empty(t, sink.sets)

	var conflict *TypeConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestWriterFlushKeepsBuffer(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.AddRecord(rec("A", models.Int(1))))
	require.NoError(t, w.AddRecord(rec("A", models.Int(2))))

	set, err := w.Flush(context.Background(), SinkFunc(func(context.Context, *ColumnSet) error { return nil }))
	require.NoError(t, err)

	require.NoError(t, w.AddRecord(rec("A", models.Int(3))))
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 2, set.NumRows)
	assert.Equal(t, []int64{1, 2}, set.Column("A").Int64s())
}

func TestFilterLOBsLeavesInputUntouched(t *testing.T) {
	in := rec("A", models.Int(1), "B", models.String("HEXTORAW('AB')"), "C", models.String("ok"))
	out, skipped := FilterLOBs(in)

	assert.Equal(t, []string{"A", "C"}, out.Fields())
	assert.Equal(t, []string{"B"}, skipped)
	assert.Equal(t, []string{"A", "B", "C"}, in.Fields())
}
