package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/oraexport/pkg/errors"
	"github.com/ajitpratap0/oraexport/pkg/formats"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := Default()
	cfg.Export.SQLFile = writeFile(t, "q.sql", "SELECT 1 FROM dual")
	cfg.Export.Output = filepath.Join(t.TempDir(), "out.arrow")
	cfg.Oracle.ConnectString = "scott/tiger@//db:1521/ORCL"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TEST_ORACLE_PASSWORD", "s3cret")
	path := writeFile(t, "oraexport.yaml", `
oracle:
  host: db.internal
  user: scott
  password: ${TEST_ORACLE_PASSWORD}
  sid: ORCLPDB1
export:
  sql_file: employees.sql
  output: out/employees.parquet
  auto_batch_rows: 10000
  skip_lobs: true
  timeout: 5m
storage:
  s3_region: eu-west-1
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Oracle.Password)
	assert.Equal(t, DefaultPort, cfg.Oracle.Port, "unset keys keep their defaults")
	assert.Equal(t, "sql", cfg.Oracle.SQLclPath)
	assert.Equal(t, 10000, cfg.Export.AutoBatchRows)
	assert.Equal(t, DefaultBatchSize, cfg.Export.BatchSize)
	assert.True(t, cfg.Export.SkipLOBs)
	assert.Equal(t, 5*time.Minute, cfg.Export.Timeout)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3Region)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "scott/s3cret@//db.internal:1521/ORCLPDB1", cfg.ResolvedConnectString())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, "oraexport.yaml", "export:\n  output: from-file.arrow\n")
	t.Setenv("ORAEXPORT_EXPORT_OUTPUT", "from-env.parquet")
	t.Setenv("ORAEXPORT_EXPORT_SKIP_LOBS", "true")
	t.Setenv("ORAEXPORT_ORACLE_PORT", "1600")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.parquet", cfg.Export.Output)
	assert.True(t, cfg.Export.SkipLOBs)
	assert.Equal(t, 1600, cfg.Oracle.Port)
}

func TestLoadFlagOverride(t *testing.T) {
	path := writeFile(t, "oraexport.yaml", "export:\n  output: from-file.arrow\n  auto_batch_rows: 5\n")

	flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
	flags.String("output", "", "")
	flags.Int("auto-batch-rows", 0, "")
	require.NoError(t, flags.Parse([]string{"--output", "from-flag.avro"}))

	l := NewLoader()
	require.NoError(t, l.BindFlag("export.output", flags.Lookup("output")))
	require.NoError(t, l.BindFlag("export.auto_batch_rows", flags.Lookup("auto-batch-rows")))
	assert.Error(t, l.BindFlag("export.format", flags.Lookup("format")))

	cfg, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-flag.avro", cfg.Export.Output)
	assert.Equal(t, 5, cfg.Export.AutoBatchRows, "an unchanged flag must not mask the file")
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig(t).Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no sql file", func(c *Config) { c.Export.SQLFile = "" }},
		{"missing sql file", func(c *Config) { c.Export.SQLFile = filepath.Join(t.TempDir(), "nope.sql") }},
		{"sql file is a directory", func(c *Config) { c.Export.SQLFile = t.TempDir() }},
		{"no output", func(c *Config) { c.Export.Output = "" }},
		{"bad output scheme", func(c *Config) { c.Export.Output = "ftp://host/x.arrow" }},
		{"no credentials", func(c *Config) { c.Oracle.ConnectString = "" }},
		{"partial credentials", func(c *Config) {
			c.Oracle.ConnectString = ""
			c.Oracle.User = "scott"
			c.Oracle.Host = "db"
		}},
		{"bad port", func(c *Config) { c.Oracle.Port = 70000 }},
		{"bad format", func(c *Config) { c.Export.Format = "orc" }},
		{"bad policy", func(c *Config) { c.Export.Policy = "majority" }},
		{"negative batch size", func(c *Config) { c.Export.BatchSize = -1 }},
		{"negative auto batch", func(c *Config) { c.Export.AutoBatchRows = -1 }},
		{"negative row group", func(c *Config) { c.Export.RowGroupSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), err.Error())
		})
	}
}

func TestValidateListsMissingCredentials(t *testing.T) {
	cfg := validConfig(t)
	cfg.Oracle.ConnectString = ""
	cfg.Oracle.User = "scott"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing password, host, sid")
}

func TestValidateSeparateFields(t *testing.T) {
	cfg := validConfig(t)
	cfg.Oracle = OracleConfig{User: "u", Password: "p", Host: "h", SID: "s"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "u/p@//h:1521/s", cfg.ResolvedConnectString())
}

func TestOutputFormat(t *testing.T) {
	cfg := Default()
	cfg.Export.Output = "out/emp.avro"
	f, err := cfg.OutputFormat()
	require.NoError(t, err)
	assert.Equal(t, formats.Avro, f)

	cfg.Export.Output = "out/emp"
	f, err = cfg.OutputFormat()
	require.NoError(t, err)
	assert.Equal(t, formats.Arrow, f)
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Oracle.Password = "tiger"
	cfg.Oracle.ConnectString = "scott/tiger@//db:1521/ORCL"

	r := cfg.Redacted()
	assert.Equal(t, "********", r.Oracle.Password)
	assert.Equal(t, "scott/********@//db:1521/ORCL", r.Oracle.ConnectString)
	assert.Equal(t, "tiger", cfg.Oracle.Password, "original untouched")

	assert.Equal(t, "/ as sysdba", redactConnectString("/ as sysdba"))
}

func TestDump(t *testing.T) {
	cfg := Default()
	cfg.Oracle.User = "scott"
	cfg.Oracle.Password = "tiger"

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, cfg))
	out := buf.String()
	assert.Contains(t, out, "user: scott")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "tiger")
	assert.Contains(t, out, "sqlcl_path: sql")
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TEST_SUB_A", "alpha")
	assert.Equal(t, "x alpha y", substituteEnvVars("x ${TEST_SUB_A} y"))
	assert.Equal(t, "x  y", substituteEnvVars("x ${TEST_SUB_UNSET_VAR} y"))
	assert.Equal(t, "x ${open", substituteEnvVars("x ${open"))
}
