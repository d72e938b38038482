package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/oraexport/internal/pipeline"
	"github.com/ajitpratap0/oraexport/pkg/columnar"
	"github.com/ajitpratap0/oraexport/pkg/config"
	"github.com/ajitpratap0/oraexport/pkg/formats"
	"github.com/ajitpratap0/oraexport/pkg/logger"
	"github.com/ajitpratap0/oraexport/pkg/metrics"
	"github.com/ajitpratap0/oraexport/pkg/observability"
	"github.com/ajitpratap0/oraexport/pkg/source"
	"github.com/ajitpratap0/oraexport/pkg/storage"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run a query and write its result",
		Long: `Run the query in --sql-file through SQLcl and write the result to --output.

Example:
  oraexport export -f employees.sql -o employees.parquet \
    --host db.internal --user scott --password tiger --sid ORCLPDB1 --skip-lobs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runExport(cmd, cfg)
		},
	}
	addConfigFlags(cmd)
	return cmd
}

func runExport(cmd *cobra.Command, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("export_id", time.Now().UTC().Format("20060102T150405.000")))

	if cmd.Flags().Changed("batch-size") && cfg.Export.AutoBatchRows == 0 {
		log.Warn("--batch-size has no effect in single-query mode, the whole result is loaded at once; use --auto-batch-rows to page the query")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Export.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Export.Timeout)
		defer cancel()
	}

	if cfg.Observability.Trace {
		shutdown, closeTrace, err := startTracing(ctx, cfg.Observability.TraceFile)
		if err != nil {
			return err
		}
		defer closeTrace()
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn("failed to flush traces", zap.Error(err))
			}
		}()
	}

	query, err := os.ReadFile(cfg.Export.SQLFile)
	if err != nil {
		return fmt.Errorf("failed to read SQL file: %w", err)
	}

	format, err := cfg.OutputFormat()
	if err != nil {
		return err
	}
	policy, err := columnar.PolicyByName(cfg.Export.Policy)
	if err != nil {
		return err
	}
	loc, err := storage.ParseURI(cfg.Export.Output)
	if err != nil {
		return err
	}
	store, err := storage.Open(ctx, loc, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()

	log.Info("starting export",
		zap.String("sql_file", cfg.Export.SQLFile),
		zap.Stringer("output", loc),
		zap.String("format", string(format)),
		zap.String("policy", policy.Name()),
		zap.Int("auto_batch_rows", cfg.Export.AutoBatchRows),
		zap.Bool("skip_lobs", cfg.Export.SkipLOBs))

	m := metrics.NewCollector()
	sink := pipeline.NewOutputSink(store, loc.Key, &formats.WriterConfig{
		Format:       format,
		Compression:  cfg.Export.Compression,
		RowGroupSize: cfg.Export.RowGroupSize,
	}, log, m)
	runner := source.NewSQLclRunner(source.SQLclConfig{
		Path:          cfg.Oracle.SQLclPath,
		ConnectString: cfg.ResolvedConnectString(),
		Thick:         cfg.Oracle.Thick,
	}, log)

	p := pipeline.New(runner, sink, &pipeline.Config{
		AutoBatchRows: cfg.Export.AutoBatchRows,
		BatchSize:     cfg.Export.BatchSize,
		SkipLOBs:      cfg.Export.SkipLOBs,
		Policy:        policy,
		ProgressEvery: observability.DefaultProgressEvery,
	}, log, m)

	result, runErr := p.Run(ctx, string(query))

	if path := cfg.Observability.MetricsFile; path != "" {
		if err := m.WriteTextfile(path); err != nil {
			log.Warn("failed to write metrics", zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	if !result.Written {
		fmt.Fprintln(out, "No records returned; nothing written.")
		return nil
	}
	fmt.Fprintf(out, "Wrote %d records (%d columns) to %s in %s\n",
		result.Records, len(result.Columns), loc, result.Duration.Round(time.Millisecond))
	return nil
}

// startTracing installs the span exporter. The returned closer releases the trace file.
func startTracing(ctx context.Context, path string) (observability.ShutdownFunc, func(), error) {
	var w io.Writer = os.Stderr
	closer := func() {}
	if path != "" {
		f, err := os.Create(path) //nolint:gosec // G304: path comes from the operator
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		w = f
		closer = func() { _ = f.Close() }
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "oraexport",
		ServiceVersion: version,
		Writer:         w,
	})
	if err != nil {
		closer()
		return nil, nil, err
	}
	return shutdown, closer, nil
}
