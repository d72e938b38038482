// Package metrics records what an export run did using Prometheus
// collectors on a private registry.
//
// A run is a batch job, so nothing is served over HTTP. The registry is
// written once at the end in the text exposition format, ready for the
// node-exporter textfile collector:
//
//	m := metrics.NewCollector()
//	timer := metrics.NewTimer("query")
//	out, err := runner.Run(ctx, query)
//	m.ObserveStage(timer)
//	...
//	_ = m.WriteTextfile("/var/lib/node_exporter/oraexport.prom")
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/oraexport/pkg/columnar"
	"github.com/ajitpratap0/oraexport/pkg/errors"
)

const namespace = "oraexport"

// Collector holds the counters of one export run
type Collector struct {
	registry *prometheus.Registry

	RecordsRead      prometheus.Counter
	LOBFieldsSkipped prometheus.Counter
	Batches          prometheus.Counter
	BytesWritten     prometheus.Counter
	// InvalidCells counts present values that did not decode as their column's type
	InvalidCells  *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	Throughput    prometheus.Gauge
	LastSuccess   prometheus.Gauge
}

// NewCollector creates a collector with a fresh registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		RecordsRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Records extracted from query output",
		}),
		LOBFieldsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lob_fields_skipped_total",
			Help:      "Fields dropped by the LOB filter",
		}),
		Batches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Queries run against the database",
		}),
		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Serialized output bytes",
		}),
		InvalidCells: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_cells_total",
			Help:      "Values written as null because they did not match the inferred column type",
		}, []string{"column_type"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300, 900},
		}, []string{"stage"}),
		Throughput: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "throughput_records_per_second",
			Help:      "Records per second over the last progress window",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed export",
		}),
	}
}

// Registry exposes the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveStage records the time elapsed on t under its name
func (c *Collector) ObserveStage(t *Timer) time.Duration {
	d := t.Stop()
	c.StageDuration.WithLabelValues(t.name).Observe(d.Seconds())
	return d
}

// ObserveColumnSet counts type mismatches per column type
func (c *Collector) ObserveColumnSet(set *columnar.ColumnSet) {
	if set == nil {
		return
	}
	for _, col := range set.Columns {
		if col.Mismatches > 0 {
			c.InvalidCells.WithLabelValues(col.Type.Kind.String()).Add(float64(col.Mismatches))
		}
	}
}

// MarkSuccess stamps the completion time
func (c *Collector) MarkSuccess() {
	c.LastSuccess.SetToCurrentTime()
}

// WriteTextfile writes every metric to path atomically
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics textfile").
			WithDetail("path", path)
	}
	return nil
}

// Timer provides a simple timing mechanism for measuring stage durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the stage name
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called
// more than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks records per second over progress windows.
// Safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
	gauge     prometheus.Gauge
}

// NewThroughputTracker creates a tracker that publishes to gauge, which may be nil
func NewThroughputTracker(gauge prometheus.Gauge) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		gauge:     gauge,
	}
}

// Increment adds n to the record count
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset returns records per second since the last reset and starts a new window
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed
	t.count = 0
	t.lastReset = time.Now()

	if t.gauge != nil {
		t.gauge.Set(throughput)
	}
	return throughput
}
