package main

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/cmd/clausegraph/internal"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/observability"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

type healthReport struct {
	State      types.HealthState             `json:"state"`
	Components map[string]types.HealthStatus `json:"components"`
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to Neo4j and the configured extractor",
		Long: `Health pings the graph database once, without retry, and checks the
LLM endpoint when the llm extractor is configured. It exits non-zero if
any component is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			monitor := observability.NewHealthMonitor(a.logger)

			pool, err := a.graphPool()
			if err != nil {
				return err
			}
			monitor.Register("neo4j", pool)

			if a.cfg.Extractor.Type == "llm" {
				extractor, err := a.extractor("llm")
				if err != nil {
					return err
				}
				if checker, ok := extractor.(observability.HealthChecker); ok {
					monitor.Register("llm", checker)
				}
			}

			statuses := monitor.Check(cmd.Context())
			report := healthReport{State: observability.Overall(statuses), Components: statuses}

			f := a.formatter(cmd)
			if a.format == internal.FormatJSON {
				if err := f.PrintJSON(report); err != nil {
					return err
				}
			} else {
				if err := f.PrintTable([]string{"component", "state", "latency", "message"}, healthRows(statuses), ""); err != nil {
					return err
				}
			}

			if report.State != types.HealthStateHealthy {
				return internal.NewCLIError(internal.ExitError, "one or more components are unhealthy")
			}
			return nil
		},
	}
}

func healthRows(statuses map[string]types.HealthStatus) [][]string {
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		status := statuses[name]
		rows = append(rows, []string{name, status.State.String(), status.Latency.Round(time.Millisecond).String(), status.Message})
	}
	return rows
}
