package source

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/oraexport/pkg/errors"
	"github.com/ajitpratap0/oraexport/pkg/models"
)

func TestConnectString(t *testing.T) {
	assert.Equal(t, "hr/secret@//db.local:1521/ORCL", ConnectString("hr", "secret", "db.local", 1521, "ORCL"))
}

func TestBuildScript(t *testing.T) {
	script := BuildScript(SQLclConfig{ConnectString: "hr/secret@//db:1521/ORCL", Thick: true}, "SELECT * FROM emp")
	lines := strings.Split(strings.TrimSuffix(script, "\n"), "\n")

	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "CONNECT hr/secret@//db:1521/ORCL", lines[0])
	assert.Equal(t, "SET DRIVER THICK", lines[1])
	assert.Equal(t, "SET SQLFORMAT JSON", lines[len(lines)-3])
	assert.Equal(t, "SELECT * FROM emp;", lines[len(lines)-2])
	assert.Equal(t, "EXIT", lines[len(lines)-1])
	assert.Contains(t, script, `ALTER SESSION SET NLS_TIMESTAMP_TZ_FORMAT = 'YYYY-MM-DD"T"HH24:MI:SS.FF TZH:TZM';`)

	thin := BuildScript(SQLclConfig{ConnectString: "x"}, "SELECT 1 FROM dual;")
	assert.NotContains(t, thin, "THICK")
	assert.Contains(t, thin, "SELECT 1 FROM dual;\nEXIT\n")
	assert.NotContains(t, thin, ";;")
}

func TestExtractResultsEnvelope(t *testing.T) {
	out := []byte("SQLcl: Release 23.4\n\nConnected.\n" +
		`{"results":[{"columns":[{"name":"ID","type":"NUMBER"}],"items":[` +
		`{"ZETA":1,"alpha":"x","price":9.50,"big":1e3,"nested":{"b": 1, "a": [1, 2]},"missing":null,"flag":true},` +
		`{"ZETA":2,"alpha":"y"}` +
		"]}]}\n\nDisconnected from Oracle Database 19c\n")

	records, err := Extract(out)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, []string{"ZETA", "alpha", "price", "big", "nested", "missing", "flag"}, first.Fields())

	v, _ := first.Get("ZETA")
	assert.Equal(t, models.KindInt, v.Kind())
	v, _ = first.Get("price")
	assert.Equal(t, models.KindFloat, v.Kind())
	v, _ = first.Get("big")
	assert.Equal(t, models.KindFloat, v.Kind())
	v, _ = first.Get("nested")
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, `{"b":1,"a":[1,2]}`, s)
	v, _ = first.Get("missing")
	assert.True(t, v.IsNull())
	v, _ = first.Get("flag")
	assert.Equal(t, models.KindBool, v.Kind())
}

func TestExtractKeepsBannerWordsInValues(t *testing.T) {
	out := []byte(`{"results":[{"items":[` +
		`{"PRODUCT":"Oracle Database","NOTE":"Version 19c Disconnected"}` +
		"]}]}\nDisconnected from Oracle Database 19c\nVersion 19.3.0.0.0\n")

	records, err := Extract(out)
	require.NoError(t, err)
	require.Len(t, records, 1)
	v, _ := records[0].Get("PRODUCT")
	s, _ := v.AsString()
	assert.Equal(t, "Oracle Database", s)
	v, _ = records[0].Get("NOTE")
	s, _ = v.AsString()
	assert.Equal(t, "Version 19c Disconnected", s)
}

func TestExtractShapes(t *testing.T) {
	records, err := Extract([]byte(`[{"A":1},{"A":2}]`))
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = Extract([]byte(`{"A":"only"}`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"A"}, records[0].Fields())

	records, err = Extract([]byte(`{"results":[]}`))
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = Extract([]byte("   \n"))
	require.NoError(t, err)
	assert.Empty(t, records)

	// int64 overflow degrades to float
	records, err = Extract([]byte(`[{"N":99999999999999999999}]`))
	require.NoError(t, err)
	v, _ := records[0].Get("N")
	assert.Equal(t, models.KindFloat, v.Kind())
}

func TestExtractMalformed(t *testing.T) {
	_, err := Extract([]byte(`{"results":[{"items":[{"A":1,}]}]}`))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Contains(t, e.Details, "snippet")

	_, err = Extract([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestWrapWithOffset(t *testing.T) {
	query := "-- employees\nSELECT *\n\nFROM emp;\n"
	got := WrapWithOffset(query, 100, 50)
	assert.Equal(t, "SELECT * FROM (\nSELECT *\nFROM emp\n) \nOFFSET 100 ROWS FETCH NEXT 50 ROWS ONLY", got)

	paged := "SELECT * FROM emp offset 0 rows fetch next 10 rows only;"
	assert.Equal(t, "SELECT * FROM emp offset 0 rows fetch next 10 rows only", WrapWithOffset(paged, 10, 10))
}

// fakeSQLcl writes an executable that ignores stdin and prints body
func fakeSQLcl(t *testing.T, body string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "sql")
	script := "#!/bin/sh\ncat >/dev/null\nprintf '%s' '" + body + "'\nexit " + string(rune('0'+exitCode)) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestSQLclRunner(t *testing.T) {
	path := fakeSQLcl(t, `[{"A":1}]`, 0)
	r := NewSQLclRunner(SQLclConfig{Path: path, ConnectString: "u/p@//h:1521/s"}, zaptest.NewLogger(t))

	out, err := r.Run(context.Background(), "SELECT 1 FROM dual")
	require.NoError(t, err)
	assert.Equal(t, `[{"A":1}]`, string(out))
}

func TestSQLclRunnerFailure(t *testing.T) {
	path := fakeSQLcl(t, "", 3)
	r := NewSQLclRunner(SQLclConfig{Path: path, ConnectString: "u/p@//h:1521/s"}, nil)

	_, err := r.Run(context.Background(), "SELECT 1 FROM dual")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQuery))

	_, err = NewSQLclRunner(SQLclConfig{Path: path}, nil).Run(context.Background(), "SELECT 1 FROM dual")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
