// Package pipeline runs an export: query the database through a Runner,
// extract records from its output, buffer them in a columnar.Writer and
// flush the encoded column set to a Sink once.
//
// Two modes exist. Single-query mode runs the query as written. Auto-batched
// mode wraps it in OFFSET/FETCH pages of AutoBatchRows and keeps querying
// until a page comes back empty or short; every page lands in the same
// writer, so the output is still one file with one schema.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/oraexport/pkg/columnar"
	"github.com/ajitpratap0/oraexport/pkg/errors"
	"github.com/ajitpratap0/oraexport/pkg/metrics"
	"github.com/ajitpratap0/oraexport/pkg/models"
	"github.com/ajitpratap0/oraexport/pkg/observability"
	"github.com/ajitpratap0/oraexport/pkg/source"
)

// Config contains pipeline configuration parameters
type Config struct {
	// AutoBatchRows pages the query when > 0
	AutoBatchRows int
	// BatchSize is reported but unused; the whole result is loaded at once
	BatchSize int
	SkipLOBs  bool
	Policy    columnar.InferencePolicy
	// ProgressEvery is the number of records between progress lines
	ProgressEvery int64
}

// DefaultConfig returns single-query mode with the permissive policy
func DefaultConfig() *Config {
	return &Config{
		Policy:        columnar.FirstNonNull{},
		ProgressEvery: observability.DefaultProgressEvery,
	}
}

// Result summarises a run
type Result struct {
	Records          int64
	Batches          int
	Columns          []string
	LOBFieldsSkipped int
	// Written is false when the query returned nothing and no output was produced
	Written  bool
	Duration time.Duration
}

// Pipeline orchestrates one export
type Pipeline struct {
	runner  source.Runner
	sink    columnar.Sink
	config  *Config
	logger  *zap.Logger
	metrics *metrics.Collector
}

// New creates a pipeline. A nil config means DefaultConfig, a nil collector
// gets a private one.
func New(runner source.Runner, sink columnar.Sink, config *Config, logger *zap.Logger, m *metrics.Collector) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Policy == nil {
		config.Policy = columnar.FirstNonNull{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Pipeline{
		runner:  runner,
		sink:    sink,
		config:  config,
		logger:  logger.With(zap.String("component", "pipeline")),
		metrics: m,
	}
}

// Metrics returns the collector the pipeline records into
func (p *Pipeline) Metrics() *metrics.Collector {
	return p.metrics
}

// Run executes query and writes its result through the sink. An empty
// result is not an error: a warning is logged and nothing is written.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	if source.CleanQuery(query) == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "query is empty")
	}
	start := time.Now()
	p.logger.Info("SQL query loaded", zap.Int("bytes", len(query)))

	writer := columnar.NewWriter(
		columnar.WithSkipLOBs(p.config.SkipLOBs),
		columnar.WithPolicy(p.config.Policy),
		columnar.WithLogger(p.logger),
	)
	progress := observability.NewProgress(p.logger, p.config.ProgressEvery,
		metrics.NewThroughputTracker(p.metrics.Throughput))

	var (
		batches int
		err     error
	)
	switch {
	case p.config.AutoBatchRows == 0:
		batches, err = p.runSingleQuery(ctx, query, writer, progress)
	case source.HasPagination(source.CleanQuery(query)):
		p.logger.Warn("query already contains OFFSET/FETCH, running it once without auto-batching",
			zap.Int("auto_batch_rows", p.config.AutoBatchRows))
		batches, err = p.runSingleQuery(ctx, query, writer, progress)
	default:
		batches, err = p.runAutoBatched(ctx, query, writer, progress)
	}
	if err != nil {
		return nil, err
	}
	progress.Done()
	p.metrics.LOBFieldsSkipped.Add(float64(writer.LOBFieldsSkipped()))

	result := &Result{
		Records:          progress.Total(),
		Batches:          batches,
		Columns:          writer.Schema(),
		LOBFieldsSkipped: writer.LOBFieldsSkipped(),
	}

	if writer.Len() == 0 {
		p.logger.Warn("no records to write")
		result.Duration = time.Since(start)
		return result, nil
	}
	observability.LogMemory(ctx, p.logger, "buffered")

	set, err := p.flush(ctx, writer)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveColumnSet(set)
	p.metrics.MarkSuccess()

	result.Written = true
	result.Duration = time.Since(start)
	p.logger.Info("pipeline completed successfully",
		zap.Int64("records", result.Records),
		zap.Int("columns", len(result.Columns)),
		zap.Int("batches", result.Batches),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (p *Pipeline) runSingleQuery(ctx context.Context, query string, w *columnar.Writer, progress *observability.Progress) (int, error) {
	p.logger.Info("starting single-query export",
		zap.Int("batch_size", p.config.BatchSize),
		zap.String("note", "the whole result set is loaded at once"))

	records, err := p.fetch(ctx, query, 1)
	if err != nil {
		return 1, err
	}
	p.logger.Info("loaded records", zap.Int("records", len(records)))

	if err := p.buffer(w, records, progress); err != nil {
		return 1, err
	}
	return 1, nil
}

func (p *Pipeline) runAutoBatched(ctx context.Context, query string, w *columnar.Writer, progress *observability.Progress) (int, error) {
	rows := p.config.AutoBatchRows
	p.logger.Info("starting auto-batched export", zap.Int("rows_per_query", rows))

	batch := 0
	for offset := 0; ; offset += rows {
		batch++
		log := p.logger.With(zap.Int("batch", batch))
		log.Info("fetching rows", zap.Int("from", offset), zap.Int("to", offset+rows-1))

		records, err := p.fetch(ctx, source.WrapWithOffset(query, offset, rows), batch)
		if err != nil {
			log.Error("batch failed", zap.Int("offset", offset), zap.Error(err))
			return batch, err
		}
		log.Info("received records", zap.Int("records", len(records)))

		if len(records) == 0 {
			log.Info("no more records, stopping")
			break
		}
		if err := p.buffer(w, records, progress); err != nil {
			return batch, err
		}
		if len(records) < rows {
			log.Info("last batch was partial, stopping", zap.Int("records", len(records)))
			break
		}
	}

	p.logger.Info("auto-batching complete",
		zap.Int("batches", batch),
		zap.Int64("records", progress.Total()))
	return batch, nil
}

// fetch runs one query and extracts its records
func (p *Pipeline) fetch(ctx context.Context, query string, batch int) ([]*models.Record, error) {
	p.metrics.Batches.Inc()

	qctx, span := observability.StartSpan(ctx, "query")
	span.SetAttribute("batch", batch)
	timer := metrics.NewTimer("query")
	out, err := p.runner.Run(qctx, query)
	p.metrics.ObserveStage(timer)
	span.SetAttribute("output_bytes", len(out))
	span.End(err)
	if err != nil {
		return nil, err
	}

	_, span = observability.StartSpan(ctx, "extract")
	timer = metrics.NewTimer("extract")
	records, err := source.Extract(out)
	p.metrics.ObserveStage(timer)
	span.SetAttribute("records", len(records))
	span.End(err)
	if err != nil {
		return nil, err
	}

	p.metrics.RecordsRead.Add(float64(len(records)))
	return records, nil
}

func (p *Pipeline) buffer(w *columnar.Writer, records []*models.Record, progress *observability.Progress) error {
	for _, r := range records {
		if err := w.AddRecord(r); err != nil {
			return err
		}
		progress.Add(1)
	}
	return nil
}

func (p *Pipeline) flush(ctx context.Context, w *columnar.Writer) (*columnar.ColumnSet, error) {
	ctx, span := observability.StartSpan(ctx, "encode")
	span.SetAttribute("records", w.Len())
	span.SetAttribute("policy", w.Policy().Name())
	timer := metrics.NewTimer("flush")
	set, err := w.Flush(ctx, p.sink)
	p.metrics.ObserveStage(timer)
	span.End(err)
	return set, err
}
