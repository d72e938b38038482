package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ajitpratap0/oraexport/pkg/columnar"
	"github.com/ajitpratap0/oraexport/pkg/config"
	"github.com/ajitpratap0/oraexport/pkg/source"
)

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"sql-file":        "export.sql_file",
	"output":          "export.output",
	"format":          "export.format",
	"compression":     "export.compression",
	"batch-size":      "export.batch_size",
	"auto-batch-rows": "export.auto_batch_rows",
	"skip-lobs":       "export.skip_lobs",
	"policy":          "export.policy",
	"row-group-size":  "export.row_group_size",
	"timeout":         "export.timeout",
	"connect-string":  "oracle.connect_string",
	"host":            "oracle.host",
	"port":            "oracle.port",
	"user":            "oracle.user",
	"password":        "oracle.password",
	"sid":             "oracle.sid",
	"sqlcl-path":      "oracle.sqlcl_path",
	"thick":           "oracle.thick",
	"log-level":       "logging.level",
	"metrics-file":    "observability.metrics_file",
	"trace":           "observability.trace",
	"trace-file":      "observability.trace_file",
}

// addConfigFlags registers every flag that feeds the configuration
func addConfigFlags(cmd *cobra.Command) {
	defaults := config.Default()
	f := cmd.Flags()

	f.String("config", "", "Path to a YAML configuration file")

	f.StringP("sql-file", "f", "", "SQL file to execute")
	f.StringP("output", "o", "", "Output path or s3://bucket/key, gs://bucket/key")
	f.String("format", "", "Output format: arrow, parquet, avro, jsonl (default: from the output extension, else arrow)")
	f.String("compression", "", "Codec for the chosen format (arrow: zstd, lz4; parquet: snappy, gzip, zstd, lz4, brotli; avro: snappy, deflate; jsonl: gzip, zstd, snappy, s2, lz4)")
	f.Int("batch-size", defaults.Export.BatchSize, "Rows per batch (single-query mode loads everything at once and ignores this)")
	f.Int("auto-batch-rows", 0, "Page the query with OFFSET/FETCH in chunks of this many rows (0 disables)")
	f.Bool("skip-lobs", false, "Drop CLOB/BLOB-like values instead of exporting them")
	f.String("policy", columnar.PolicyFirstNonNull, "Type inference policy: first-non-null or strict")
	f.Int64("row-group-size", defaults.Export.RowGroupSize, "Parquet rows per row group")
	f.Duration("timeout", 0, "Abort the export after this long (0 means no limit)")

	f.StringP("connect-string", "c", "", "SQLcl connect string, e.g. user/pass@//host:1521/service")
	f.String("host", "", "Database host")
	f.Int("port", config.DefaultPort, "Database port")
	f.StringP("user", "u", "", "Database user")
	f.StringP("password", "p", "", "Database password")
	f.String("sid", "", "Database SID or service name")
	f.String("sqlcl-path", source.DefaultSQLclPath, "Path to the SQLcl executable")
	f.Bool("thick", false, "Use the thick (OCI) driver")

	f.String("log-level", defaults.Logging.Level, "Log level (debug, info, warn, error)")
	f.String("metrics-file", "", "Write run metrics to this file in Prometheus text format")
	f.Bool("trace", false, "Print trace spans")
	f.String("trace-file", "", "Write trace spans here instead of stderr")
}

// loadConfig merges the configuration file, environment and flags of cmd
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = loader.BindFlag(key, f)
	})
	if bindErr != nil {
		return nil, bindErr
	}

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return loader.Load(path)
}
