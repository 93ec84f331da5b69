package main

import (
	"github.com/spf13/cobra"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/cmd/clausegraph/internal"
)

// GlobalFlags holds global flags available to all commands
type GlobalFlags struct {
	Verbose      bool
	OutputFormat string
	ConfigFile   string
	HomeDir      string
	LogLevel     string
	LogFormat    string
}

// RegisterGlobalFlags registers persistent flags on the root command
func RegisterGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose error output")
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output-format", "f", "text", "Output format (text|json)")
	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "Path to config file (default: $CLAUSEGRAPH_HOME/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.HomeDir, "home", "", "clausegraph home directory (default: ~/.clausegraph)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Override logging.level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "Override logging.format (json|text)")
}

// ParseGlobalFlags validates the global flags and returns the output format.
func ParseGlobalFlags(flags *GlobalFlags) (internal.OutputFormat, error) {
	format, err := internal.ParseOutputFormat(flags.OutputFormat)
	if err != nil {
		return "", internal.WrapError(internal.ExitError, "invalid --output-format", err)
	}
	return format, nil
}
