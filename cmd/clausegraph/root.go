package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clausegraph",
		Short: "clausegraph - contract audit over a property graph",
		Long: `clausegraph audits legal contracts by extracting clauses, parties and
risks into a Neo4j knowledge graph and querying that graph for
contradictions that text similarity cannot detect.

Configuration is read from $CLAUSEGRAPH_HOME/config.yaml (default
~/.clausegraph/config.yaml). NEO4J_* and OPENAI_* environment variables
and a .env file in the working directory override it.`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	RegisterGlobalFlags(rootCmd, &a.flags)

	rootCmd.AddCommand(newAuditCmd(a))
	rootCmd.AddCommand(newHealthCmd(a))
	rootCmd.AddCommand(newStatsCmd(a))
	rootCmd.AddCommand(newContradictionsCmd(a))
	rootCmd.AddCommand(newRisksCmd(a))
	rootCmd.AddCommand(newClearCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command with signal handling and releases every
// resource the command opened before returning.
func Execute(ctx context.Context, a *app, rootCmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	return rootCmd.ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the clausegraph version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetupAnnotation: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "clausegraph", version)
		},
	}
}
