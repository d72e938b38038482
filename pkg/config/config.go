package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ajitpratap0/oraexport/pkg/columnar"
	"github.com/ajitpratap0/oraexport/pkg/errors"
	"github.com/ajitpratap0/oraexport/pkg/formats"
	"github.com/ajitpratap0/oraexport/pkg/logger"
	"github.com/ajitpratap0/oraexport/pkg/source"
	"github.com/ajitpratap0/oraexport/pkg/storage"
)

const (
	// DefaultPort is the Oracle listener port
	DefaultPort = 1521
	// DefaultBatchSize is the legacy per-batch row count
	DefaultBatchSize = 50000

	redacted = "********"
)

// Config is the complete configuration of an export run.
// Sections map one to one onto the YAML file layout.
type Config struct {
	Oracle        OracleConfig        `mapstructure:"oracle" yaml:"oracle"`
	Export        ExportConfig        `mapstructure:"export" yaml:"export"`
	Storage       storage.Config      `mapstructure:"storage" yaml:"storage"`
	Logging       logger.Config       `mapstructure:"logging" yaml:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
}

// OracleConfig says how to reach the database. ConnectString wins over the
// individual Host/Port/User/Password/SID fields when both are present.
type OracleConfig struct {
	ConnectString string `mapstructure:"connect_string" yaml:"connect_string"`
	Host          string `mapstructure:"host" yaml:"host"`
	Port          int    `mapstructure:"port" yaml:"port"`
	User          string `mapstructure:"user" yaml:"user"`
	Password      string `mapstructure:"password" yaml:"password"`
	SID           string `mapstructure:"sid" yaml:"sid"`
	SQLclPath     string `mapstructure:"sqlcl_path" yaml:"sqlcl_path"`
	Thick         bool   `mapstructure:"thick" yaml:"thick"`
}

// ExportConfig controls what is run and how the result is written
type ExportConfig struct {
	SQLFile string `mapstructure:"sql_file" yaml:"sql_file"`
	Output  string `mapstructure:"output" yaml:"output"`

	// Format is arrow, parquet, avro or jsonl; empty means infer from Output
	Format      string `mapstructure:"format" yaml:"format"`
	Compression string `mapstructure:"compression" yaml:"compression"`

	// BatchSize is accepted for compatibility; single-query mode ignores it
	BatchSize     int           `mapstructure:"batch_size" yaml:"batch_size"`
	AutoBatchRows int           `mapstructure:"auto_batch_rows" yaml:"auto_batch_rows"`
	SkipLOBs      bool          `mapstructure:"skip_lobs" yaml:"skip_lobs"`
	Policy        string        `mapstructure:"policy" yaml:"policy"`
	RowGroupSize  int64         `mapstructure:"row_group_size" yaml:"row_group_size"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ObservabilityConfig holds the optional metrics and tracing outputs
type ObservabilityConfig struct {
	// MetricsFile receives the run's counters in Prometheus text format
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`

	// Trace prints spans to TraceFile, or stderr when empty
	Trace     bool   `mapstructure:"trace" yaml:"trace"`
	TraceFile string `mapstructure:"trace_file" yaml:"trace_file"`
}

// Default returns a configuration with every default filled in
func Default() *Config {
	return &Config{
		Oracle: OracleConfig{
			Port:      DefaultPort,
			SQLclPath: source.DefaultSQLclPath,
		},
		Export: ExportConfig{
			BatchSize:    DefaultBatchSize,
			Policy:       columnar.PolicyFirstNonNull,
			RowGroupSize: formats.DefaultWriterConfig().RowGroupSize,
		},
		Logging: logger.Config{
			Level:       "info",
			Encoding:    "console",
			OutputPaths: []string{"stderr"},
		},
	}
}

// ResolvedConnectString returns the SQLcl connect string
func (c *Config) ResolvedConnectString() string {
	if c.Oracle.ConnectString != "" {
		return c.Oracle.ConnectString
	}
	if c.Oracle.User == "" || c.Oracle.Password == "" || c.Oracle.Host == "" || c.Oracle.SID == "" {
		return ""
	}
	port := c.Oracle.Port
	if port == 0 {
		port = DefaultPort
	}
	return source.ConnectString(c.Oracle.User, c.Oracle.Password, c.Oracle.Host, port, c.Oracle.SID)
}

// OutputFormat resolves the serializer: an explicit format wins, otherwise
// the output extension decides, falling back to Arrow.
func (c *Config) OutputFormat() (formats.Format, error) {
	if c.Export.Format != "" {
		return formats.ParseFormat(c.Export.Format)
	}
	if f, ok := formats.FormatFromPath(c.Export.Output); ok {
		return f, nil
	}
	return formats.Arrow, nil
}

// Validate checks the configuration before an export starts
func (c *Config) Validate() error {
	if c.Export.SQLFile == "" {
		return errors.New(errors.ErrorTypeConfig, "sql_file is required")
	}
	info, err := os.Stat(c.Export.SQLFile)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "sql_file is not readable").
			WithDetail("sql_file", c.Export.SQLFile)
	}
	if info.IsDir() {
		return errors.Newf(errors.ErrorTypeConfig, "sql_file %s is a directory", c.Export.SQLFile)
	}
	if c.Export.Output == "" {
		return errors.New(errors.ErrorTypeConfig, "output is required")
	}
	if _, err := storage.ParseURI(c.Export.Output); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid output")
	}

	if c.ResolvedConnectString() == "" {
		var missing []string
		for _, f := range []struct{ name, value string }{
			{"user", c.Oracle.User},
			{"password", c.Oracle.Password},
			{"host", c.Oracle.Host},
			{"sid", c.Oracle.SID},
		} {
			if f.value == "" {
				missing = append(missing, f.name)
			}
		}
		return errors.Newf(errors.ErrorTypeConfig,
			"either connect_string or user, password, host and sid are required (missing %s)",
			strings.Join(missing, ", "))
	}
	if c.Oracle.Port < 0 || c.Oracle.Port > 65535 {
		return errors.Newf(errors.ErrorTypeConfig, "port %d out of range", c.Oracle.Port)
	}

	if _, err := c.OutputFormat(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid format")
	}
	if _, err := columnar.PolicyByName(c.Export.Policy); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid policy")
	}
	if c.Export.BatchSize < 0 {
		return errors.New(errors.ErrorTypeConfig, "batch_size cannot be negative")
	}
	if c.Export.AutoBatchRows < 0 {
		return errors.New(errors.ErrorTypeConfig, "auto_batch_rows cannot be negative")
	}
	if c.Export.RowGroupSize < 0 {
		return errors.New(errors.ErrorTypeConfig, "row_group_size cannot be negative")
	}
	return nil
}

// Redacted returns a copy safe to print
func (c *Config) Redacted() *Config {
	out := *c
	if out.Oracle.Password != "" {
		out.Oracle.Password = redacted
	}
	if out.Oracle.ConnectString != "" {
		out.Oracle.ConnectString = redactConnectString(out.Oracle.ConnectString)
	}
	return &out
}

// redactConnectString masks the password of a user/password@target string
func redactConnectString(s string) string {
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return s
	}
	slash := strings.Index(s[:at], "/")
	if slash < 0 {
		return s
	}
	return fmt.Sprintf("%s/%s%s", s[:slash], redacted, s[at:])
}
