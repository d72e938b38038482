package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/oraexport/pkg/formats"
)

func newInspectCmd() *cobra.Command {
	var formatName, printAs string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the schema and row count of an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var format formats.Format
			if formatName != "" {
				f, err := formats.ParseFormat(formatName)
				if err != nil {
					return err
				}
				format = f
			} else {
				f, ok := formats.FormatFromPath(path)
				if !ok {
					return fmt.Errorf("cannot tell the format of %s, pass --format", path)
				}
				format = f
			}

			file, err := os.Open(path) //nolint:gosec // G304: path comes from the operator
			if err != nil {
				return err
			}
			defer file.Close()

			summary, err := formats.Describe(cmd.Context(), file, format)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch printAs {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			case "yaml", "":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(summary); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown output %q, want yaml or json", printAs)
			}
		},
	}
	cmd.Flags().StringVar(&formatName, "format", "", "File format (default: from the extension)")
	cmd.Flags().StringVar(&printAs, "print", "yaml", "Print as yaml or json")
	return cmd
}
