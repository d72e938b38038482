package config_test

import (
	"fmt"

	"github.com/ajitpratap0/oraexport/pkg/config"
)

func ExampleConfig_ResolvedConnectString() {
	cfg := config.Default()
	cfg.Oracle.Host = "db.internal"
	cfg.Oracle.User = "scott"
	cfg.Oracle.Password = "tiger"
	cfg.Oracle.SID = "ORCLPDB1"

	fmt.Println(cfg.ResolvedConnectString())
	fmt.Println(cfg.Redacted().Oracle.Password)
	// Output:
	// scott/tiger@//db.internal:1521/ORCLPDB1
	// ********
}

func ExampleConfig_OutputFormat() {
	cfg := config.Default()
	cfg.Export.Output = "s3://exports/employees.parquet"
	f, _ := cfg.OutputFormat()
	fmt.Println(f)

	cfg.Export.Format = "jsonl"
	f, _ = cfg.OutputFormat()
	fmt.Println(f)
	// Output:
	// parquet
	// jsonl
}
