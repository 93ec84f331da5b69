package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/cmd/clausegraph/internal"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
)

// Commands in this file query or reset the Neo4j graph written by audit.

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show node and relationship counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.graphStore(false)
			if err != nil {
				return err
			}
			stats, err := store.GetGraphStats(cmd.Context())
			if err != nil {
				return err
			}

			f := a.formatter(cmd)
			if a.format == internal.FormatJSON {
				return f.PrintJSON(stats)
			}
			return f.PrintTable([]string{"kind", "name", "count"}, statsRows(stats), "The graph is empty.")
		},
	}
}

func statsRows(stats contract.GraphStats) [][]string {
	var rows [][]string
	for _, name := range sortedKeys(stats.NodesByLabel) {
		rows = append(rows, []string{"node", name, strconv.FormatInt(stats.NodesByLabel[name], 10)})
	}
	for _, name := range sortedKeys(stats.RelationshipsByType) {
		rows = append(rows, []string{"relationship", name, strconv.FormatInt(stats.RelationshipsByType[name], 10)})
	}
	return rows
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newContradictionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "contradictions",
		Short: "List clause pairs linked by CONTRADICTS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.graphStore(false)
			if err != nil {
				return err
			}
			contradictions, err := store.GetContradictions(cmd.Context())
			if err != nil {
				return err
			}

			f := a.formatter(cmd)
			if a.format == internal.FormatJSON {
				return f.PrintJSON(contradictions)
			}
			rows := make([][]string, 0, len(contradictions))
			for _, c := range contradictions {
				rows = append(rows, []string{clauseLabel(c.ClauseA), clauseLabel(c.ClauseB), c.Reason})
			}
			return f.PrintTable([]string{"clause a", "clause b", "reason"}, rows, "No contradictions found.")
		},
	}
}

func clauseLabel(ref contract.ClauseRef) string {
	if ref.Topic == "" {
		return ref.ID
	}
	return fmt.Sprintf("%s (%s)", ref.ID, ref.Topic)
}

func newRisksCmd(a *app) *cobra.Command {
	var minSeverity string

	cmd := &cobra.Command{
		Use:   "risks",
		Short: "List risks, most severe first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold := a.cfg.Audit.Severity()
			if minSeverity != "" {
				parsed, err := contract.ParseSeverity(minSeverity)
				if err != nil {
					return internal.WrapError(internal.ExitError, "invalid --min-severity", err)
				}
				threshold = parsed
			}

			store, err := a.graphStore(false)
			if err != nil {
				return err
			}
			risks, err := store.GetRisks(cmd.Context(), threshold)
			if err != nil {
				return err
			}

			f := a.formatter(cmd)
			if a.format == internal.FormatJSON {
				return f.PrintJSON(risks)
			}
			rows := make([][]string, 0, len(risks))
			for _, r := range risks {
				rows = append(rows, []string{r.ID, string(r.Severity), r.ClauseID, r.Description})
			}
			return f.PrintTable([]string{"id", "severity", "clause", "description"}, rows, "No risks found.")
		},
	}

	cmd.Flags().StringVar(&minSeverity, "min-severity", "", "Only list risks at or above this severity")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every node and relationship in the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return internal.NewCLIError(internal.ExitError, "refusing to clear the graph without --yes")
			}
			store, err := a.graphStore(false)
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("graph cleared", "uri", a.cfg.Neo4j.URI)
			return a.formatter(cmd).PrintSuccess("graph cleared")
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
