package pipeline

import (
	"context"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/ajitpratap0/oraexport/pkg/columnar"
	"github.com/ajitpratap0/oraexport/pkg/errors"
	"github.com/ajitpratap0/oraexport/pkg/formats"
	"github.com/ajitpratap0/oraexport/pkg/metrics"
	"github.com/ajitpratap0/oraexport/pkg/observability"
	"github.com/ajitpratap0/oraexport/pkg/storage"
)

// OutputSink serializes a column set and streams it into a store. Encoding
// and upload run concurrently over a pipe, so the serialized file is never
// held in memory as a whole.
type OutputSink struct {
	store   storage.Store
	key     string
	config  formats.WriterConfig
	logger  *zap.Logger
	metrics *metrics.Collector

	bytesWritten int64
}

// NewOutputSink creates a sink writing to key in store
func NewOutputSink(store storage.Store, key string, config *formats.WriterConfig, logger *zap.Logger, m *metrics.Collector) *OutputSink {
	if config == nil {
		config = formats.DefaultWriterConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	return &OutputSink{
		store:   store,
		key:     key,
		config:  *config,
		logger:  logger.With(zap.String("component", "output_sink"), zap.String("key", key)),
		metrics: m,
	}
}

// BytesWritten returns the serialized size of the last column set
func (s *OutputSink) BytesWritten() int64 {
	return s.bytesWritten
}

// WriteColumnSet implements columnar.Sink
func (s *OutputSink) WriteColumnSet(ctx context.Context, set *columnar.ColumnSet) error {
	meta := storage.Metadata{
		Attributes: map[string]string{
			"format":  string(s.config.Format),
			"rows":    strconv.Itoa(set.NumRows),
			"columns": strconv.Itoa(len(set.Columns)),
		},
	}
	if info := formats.GetFormatInfo(s.config.Format); info != nil {
		meta.ContentType = info.MIMEType
	}

	pr, pw := io.Pipe()
	encoded := make(chan error, 1)
	go func() {
		err := s.encode(ctx, pw, set)
		// nil closes the pipe with io.EOF
		_ = pw.CloseWithError(err)
		encoded <- err
	}()

	storeCtx, span := observability.StartSpan(ctx, "store")
	span.SetAttribute("key", s.key)
	timer := metrics.NewTimer("store")
	putErr := s.store.Put(storeCtx, s.key, pr, meta)
	s.metrics.ObserveStage(timer)
	span.End(putErr)

	// unblocks the encoder if the store gave up early
	if putErr != nil {
		_ = pr.CloseWithError(putErr)
	} else {
		_ = pr.Close()
	}
	encErr := <-encoded

	if putErr != nil {
		return putErr
	}
	if encErr != nil {
		return errors.Wrap(encErr, errors.ErrorTypeFile, "failed to serialize column set").
			WithDetail("format", string(s.config.Format))
	}

	s.metrics.BytesWritten.Add(float64(s.bytesWritten))
	s.logger.Info("output stored",
		zap.String("format", string(s.config.Format)),
		zap.Int("rows", set.NumRows),
		zap.Int64("bytes", s.bytesWritten))
	return nil
}

func (s *OutputSink) encode(ctx context.Context, w io.Writer, set *columnar.ColumnSet) (err error) {
	_, span := observability.StartSpan(ctx, "serialize")
	span.SetAttribute("format", string(s.config.Format))
	timer := metrics.NewTimer("serialize")
	defer func() {
		s.metrics.ObserveStage(timer)
		span.End(err)
	}()

	fw, err := formats.NewWriter(w, &s.config)
	if err != nil {
		return err
	}
	if err := fw.WriteColumnSet(set); err != nil {
		_ = fw.Close()
		return err
	}
	if err := fw.Close(); err != nil {
		return err
	}
	s.bytesWritten = fw.BytesWritten()
	span.SetAttribute("bytes", s.bytesWritten)
	return nil
}
