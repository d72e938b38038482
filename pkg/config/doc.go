// Package config loads the configuration of an export run.
//
// Values are layered with viper. From lowest to highest priority:
//
//   - Default()
//   - an optional YAML file, with ${VAR} references expanded
//   - ORAEXPORT_* environment variables (ORAEXPORT_EXPORT_OUTPUT sets export.output)
//   - command line flags bound with Loader.BindFlag
//
// A file looks like:
//
//	oracle:
//	  host: db.internal
//	  user: scott
//	  password: ${ORACLE_PASSWORD}
//	  sid: ORCLPDB1
//	export:
//	  sql_file: queries/employees.sql
//	  output: s3://exports/employees.parquet
//	  skip_lobs: true
//	storage:
//	  s3_region: eu-west-1
//
// Dump prints the effective configuration with the password masked.
package config
