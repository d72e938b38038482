package main

import (
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/oraexport/pkg/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration an export would run with, after merging defaults,
the --config file, ORAEXPORT_* environment variables and flags. The password is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return config.Dump(cmd.OutOrStdout(), cfg)
		},
	}
	addConfigFlags(cmd)
	return cmd
}
