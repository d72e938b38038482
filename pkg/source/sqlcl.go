// Package source runs queries through Oracle SQLcl and turns its JSON output
// into records.
package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/oraexport/pkg/errors"
)

// DefaultSQLclPath is the executable looked up on PATH when none is configured
const DefaultSQLclPath = "sql"

// sessionSettings are sent after CONNECT so that the JSON output is
// unambiguous: no banners, '.' as the decimal separator and ISO-8601
// date/timestamp rendering that the columnar classifier recognises.
var sessionSettings = []string{
	"SET FEEDBACK OFF",
	"SET TIMING OFF",
	"SET VERIFY OFF",
	"SET HEADING OFF",
	"SET PAGESIZE 0",
	"SET TERMOUT OFF",
	"SET TRIMSPOOL ON",
	"SET ENCODING UTF-8",
	"ALTER SESSION SET NLS_NUMERIC_CHARACTERS = '.,';",
	`ALTER SESSION SET NLS_DATE_FORMAT = 'YYYY-MM-DD"T"HH24:MI:SS';`,
	`ALTER SESSION SET NLS_TIMESTAMP_FORMAT = 'YYYY-MM-DD"T"HH24:MI:SS.FF';`,
	`ALTER SESSION SET NLS_TIMESTAMP_TZ_FORMAT = 'YYYY-MM-DD"T"HH24:MI:SS.FF TZH:TZM';`,
	"SET SQLFORMAT JSON",
}

// SQLclConfig configures a SQLcl session
type SQLclConfig struct {
	// Path to the SQLcl executable
	Path string
	// ConnectString is user/password@connect_identifier
	ConnectString string
	// Thick switches SQLcl to the OCI driver
	Thick bool
}

// ConnectString builds user/password@//host:port/sid
func ConnectString(user, password, host string, port int, sid string) string {
	return fmt.Sprintf("%s/%s@//%s:%d/%s", user, password, host, port, sid)
}

// BuildScript renders the stdin script for one query: connect, session
// settings, the query terminated by ';', then EXIT.
func BuildScript(cfg SQLclConfig, query string) string {
	var b strings.Builder
	b.WriteString("CONNECT " + cfg.ConnectString + "\n")
	if cfg.Thick {
		b.WriteString("SET DRIVER THICK\n")
	}
	for _, line := range sessionSettings {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(query)
	if !strings.HasSuffix(strings.TrimSpace(query), ";") {
		b.WriteByte(';')
	}
	b.WriteString("\nEXIT\n")
	return b.String()
}

// Runner executes one query and returns the raw output of the query engine
type Runner interface {
	Run(ctx context.Context, query string) ([]byte, error)
}

// SQLclRunner runs every query in a fresh `sql /nolog` subprocess
type SQLclRunner struct {
	cfg    SQLclConfig
	logger *zap.Logger
}

// NewSQLclRunner creates a runner. An empty Path defaults to DefaultSQLclPath.
func NewSQLclRunner(cfg SQLclConfig, logger *zap.Logger) *SQLclRunner {
	if cfg.Path == "" {
		cfg.Path = DefaultSQLclPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLclRunner{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "sqlcl")),
	}
}

// Run implements Runner. Cancelling ctx kills the subprocess.
func (r *SQLclRunner) Run(ctx context.Context, query string) ([]byte, error) {
	if r.cfg.ConnectString == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "connect string is required")
	}

	cmd := exec.CommandContext(ctx, r.cfg.Path, "/nolog")
	cmd.Stdin = strings.NewReader(BuildScript(r.cfg, query))
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	// stderr stays closed: SQLcl prints prompts there

	r.logger.Info("launching SQLcl", zap.String("path", r.cfg.Path), zap.Bool("thick", r.cfg.Thick))
	start := time.Now()

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "SQLcl cancelled")
		}
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "SQLcl execution failed").
			WithDetail("path", r.cfg.Path)
	}

	r.logger.Info("SQLcl finished",
		zap.Int("bytes", stdout.Len()),
		zap.Duration("duration", time.Since(start)))
	return stdout.Bytes(), nil
}
