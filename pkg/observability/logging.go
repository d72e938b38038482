package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/oraexport/pkg/metrics"
)

// WithTrace adds trace_id and span_id fields when ctx carries a valid span
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// DefaultProgressEvery is how many records pass between progress lines
const DefaultProgressEvery = 1000

// Progress logs a line every time the record count crosses a multiple of
// its interval, and a summary at the end
type Progress struct {
	logger    *zap.Logger
	every     int64
	total     int64
	next      int64
	startTime time.Time
	tracker   *metrics.ThroughputTracker
}

// NewProgress creates a progress logger. tracker may be nil.
func NewProgress(logger *zap.Logger, every int64, tracker *metrics.ThroughputTracker) *Progress {
	if every <= 0 {
		every = DefaultProgressEvery
	}
	return &Progress{
		logger:    logger,
		every:     every,
		next:      every,
		startTime: time.Now(),
		tracker:   tracker,
	}
}

// Add counts n more records
func (p *Progress) Add(n int) {
	p.total += int64(n)
	if p.tracker != nil {
		p.tracker.Increment(int64(n))
	}
	if p.total < p.next {
		return
	}

	fields := []zap.Field{zap.Int64("records", p.total)}
	if p.tracker != nil {
		fields = append(fields, zap.Float64("records_per_second", p.tracker.GetAndReset()))
	}
	p.logger.Info("processing progress", fields...)
	p.next = (p.total/p.every + 1) * p.every
}

// Total returns the records counted so far
func (p *Progress) Total() int64 {
	return p.total
}

// Done logs the final count and rate
func (p *Progress) Done() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if s := elapsed.Seconds(); s > 0 {
		rate = float64(p.total) / s
	}
	p.logger.Info("processing completed",
		zap.Int64("total_records", p.total),
		zap.Float64("avg_records_per_second", rate),
		zap.Duration("total_duration", elapsed),
	)
}
