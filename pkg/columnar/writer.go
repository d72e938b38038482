package columnar

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/oraexport/pkg/errors"
	"github.com/ajitpratap0/oraexport/pkg/models"
)

// ErrEmptySchema is returned by AddRecord when the record that would fix the
// schema has no fields left after LOB filtering
var ErrEmptySchema = errors.New(errors.ErrorTypeValidation, "first record has no fields, schema cannot be fixed")

// Sink receives the encoded column set of a flush
type Sink interface {
	WriteColumnSet(ctx context.Context, set *ColumnSet) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, set *ColumnSet) error

// WriteColumnSet implements Sink
func (f SinkFunc) WriteColumnSet(ctx context.Context, set *ColumnSet) error {
	return f(ctx, set)
}

// Option configures a Writer
type Option func(*Writer)

// WithSkipLOBs enables dropping of large-object fields before buffering
func WithSkipLOBs(skip bool) Option {
	return func(w *Writer) {
		w.skipLOBs = skip
	}
}

// WithPolicy sets the inference policy. nil keeps the default.
func WithPolicy(p InferencePolicy) Option {
	return func(w *Writer) {
		if p != nil {
			w.policy = p
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// Writer buffers records and encodes them into columns on Flush.
// It is not safe for concurrent use.
type Writer struct {
	skipLOBs bool
	policy   InferencePolicy
	logger   *zap.Logger

	schema  []string
	records []*models.Record

	lobFieldsSkipped int
	lobLogged        bool
}

// NewWriter creates a Writer. By default LOB filtering is off and the
// FirstNonNull policy is used.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		policy: FirstNonNull{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(zap.String("component", "columnar_writer"))
	return w
}

// AddRecord filters r, fixes the schema if this is the first record and buffers it
func (w *Writer) AddRecord(r *models.Record) error {
	if r == nil {
		return errors.New(errors.ErrorTypeValidation, "nil record")
	}

	if w.skipLOBs {
		filtered, skipped := FilterLOBs(r)
		if len(skipped) > 0 {
			w.lobFieldsSkipped += len(skipped)
			if !w.lobLogged {
				w.logger.Info("skipping LOB columns", zap.Strings("fields", skipped))
				w.lobLogged = true
			}
		}
		r = filtered
	}

	if w.schema == nil {
		if r.Len() == 0 {
			return ErrEmptySchema
		}
		w.schema = append([]string(nil), r.Fields()...)
		w.logger.Debug("schema fixed", zap.Strings("fields", w.schema))
	}

	w.records = append(w.records, r)
	return nil
}

// Schema returns the fixed field order, or nil before the first record
func (w *Writer) Schema() []string {
	return w.schema
}

// Len returns the number of buffered records
func (w *Writer) Len() int {
	return len(w.records)
}

// LOBFieldsSkipped returns how many field values the LOB filter has dropped
func (w *Writer) LOBFieldsSkipped() int {
	return w.lobFieldsSkipped
}

// Policy returns the inference policy in use
func (w *Writer) Policy() InferencePolicy {
	return w.policy
}

// Encode builds the column set for the buffered records without handing it
// to a sink. It returns nil when nothing is buffered.
func (w *Writer) Encode() (*ColumnSet, error) {
	if len(w.records) == 0 {
		return nil, nil
	}

	set := &ColumnSet{
		Columns: make([]*Column, 0, len(w.schema)),
		NumRows: len(w.records),
	}
	for _, field := range w.schema {
		typ := w.policy.ColumnType(field, w.records)
		col := BuildColumn(field, typ, w.records)
		if col.Mismatches > 0 {
			w.logger.Debug("values coerced to null",
				zap.String("column", field),
				zap.Stringer("type", typ),
				zap.Int("count", col.Mismatches))
		}
		if err := w.policy.Check(col); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "inference policy "+w.policy.Name()+" rejected column "+field)
		}
		set.Columns = append(set.Columns, col)
	}
	return set, nil
}

// Flush encodes every buffered record and passes the result to sink once.
// An empty buffer is not an error: nothing is written and (nil, nil) is
// returned. The buffer is kept, so records added afterwards are not part of
// the returned set.
func (w *Writer) Flush(ctx context.Context, sink Sink) (*ColumnSet, error) {
	if len(w.records) == 0 {
		w.logger.Warn("no records to flush, output not written")
		return nil, nil
	}

	set, err := w.Encode()
	if err != nil {
		return nil, err
	}

	if err := sink.WriteColumnSet(ctx, set); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to write column set")
	}

	w.logger.Info("flushed records",
		zap.Int("records", set.NumRows),
		zap.Int("columns", len(set.Columns)))
	return set, nil
}
