package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "oraexport",
		Short: "Export Oracle query results to columnar files",
		Long: `oraexport runs a SQL query through SQLcl, infers a column type for every
field of the result and writes it as Arrow IPC, Parquet, Avro or JSON Lines,
to a local path or to s3:// and gs:// buckets.`,
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "oraexport v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newExportCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newInspectCmd())

	return root
}
