package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/cmd/clausegraph/internal"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect clausegraph configuration",
		Long: `The config command shows and validates the effective configuration:
defaults, then the config file, then environment overrides.`,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shown := a.cfg.Redacted()
			if a.format == internal.FormatJSON {
				return a.formatter(cmd).PrintJSON(shown)
			}

			data, err := yaml.Marshal(shown)
			if err != nil {
				return internal.WrapError(internal.ExitError, "failed to marshal config", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long:  `Validate loads the configuration and reports every problem found. It exits with status 10 when the configuration is invalid.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Loading in setup already validated the configuration.
			return a.formatter(cmd).PrintSuccess("configuration is valid")
		},
	})

	return configCmd
}
