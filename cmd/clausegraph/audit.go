package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/cmd/clausegraph/internal"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/audit"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

type auditOptions struct {
	memory         bool
	extractor      string
	minSeverity    string
	output         string
	failOnCritical bool
}

func newAuditCmd(a *app) *cobra.Command {
	opts := &auditOptions{}

	cmd := &cobra.Command{
		Use:   "audit [file]",
		Short: "Audit a contract and print the compliance report",
		Long: `Audit extracts clauses, parties and risks from a contract, writes them
to the graph, queries the graph for contradictions and risks, and prints
a markdown report. The contract is read from stdin when no file is given.

Failures while writing individual elements or running analysis queries
are listed in the report; only an extraction failure aborts the run.`,
		Example: `  clausegraph audit contract.txt
  cat contract.txt | clausegraph audit --memory
  clausegraph audit contract.txt --extractor llm --min-severity high --output report.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, args, a, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.memory, "memory", false, "Use an in-memory graph instead of Neo4j")
	cmd.Flags().StringVar(&opts.extractor, "extractor", "", "Extractor to use (pattern|llm, default: extractor.type)")
	cmd.Flags().StringVar(&opts.minSeverity, "min-severity", "", "Only report risks at or above this severity (default: audit.min_severity)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.failOnCritical, "fail-on-critical", false, "Exit with status 2 when a critical risk is reported")
	return cmd
}

func runAudit(cmd *cobra.Command, args []string, a *app, opts *auditOptions) error {
	ctx := cmd.Context()

	text, err := readContract(cmd, args)
	if err != nil {
		return err
	}

	minSeverity := a.cfg.Audit.Severity()
	if opts.minSeverity != "" {
		if minSeverity, err = contract.ParseSeverity(opts.minSeverity); err != nil {
			return internal.WrapError(internal.ExitError, "invalid --min-severity", err)
		}
	}

	extractor, err := a.extractor(strings.ToLower(opts.extractor))
	if err != nil {
		return err
	}

	store, err := a.graphStore(opts.memory)
	if err != nil {
		return err
	}

	metrics, err := audit.NewMetrics(a.metrics.Meter("clausegraph/audit"))
	if err != nil {
		return err
	}

	pipeline := audit.New(extractor, store,
		audit.WithLogger(a.logger),
		audit.WithTracer(a.tracing.Tracer("clausegraph/audit")),
		audit.WithMetrics(metrics),
		audit.WithMinSeverity(minSeverity),
	)
	state := pipeline.Run(ctx, text)

	if err := writeAuditResult(cmd, a, opts, state); err != nil {
		return err
	}
	return auditOutcome(cmd, opts, state)
}

// readContract reads the file named by args, or stdin.
func readContract(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 && isTerminal(cmd.InOrStdin()) {
		return "", internal.NewCLIError(internal.ExitError, "no contract given: pass a file or pipe the text on stdin")
	}
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", internal.WrapError(internal.ExitError, "failed to read contract from stdin", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", internal.WrapError(internal.ExitError, fmt.Sprintf("failed to read contract %s", args[0]), err)
	}
	return string(data), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeAuditResult(cmd *cobra.Command, a *app, opts *auditOptions, state *audit.PipelineState) (err error) {
	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, createErr := os.Create(opts.output)
		if createErr != nil {
			return internal.WrapError(internal.ExitError, "failed to create report file", createErr)
		}
		defer closeReport(f, &err)
		out = f
	}

	if a.format == internal.FormatJSON {
		return internal.NewJSONFormatter(out).PrintJSON(state)
	}
	if state.Report != "" {
		if _, err := io.WriteString(out, state.Report); err != nil {
			return internal.WrapError(internal.ExitError, "failed to write report", err)
		}
	}
	if opts.output != "" {
		cmd.PrintErrf("Report written to %s\n", opts.output)
	}
	return nil
}

// closeReport closes the report file, keeping its error in *err unless an
// earlier one is already there.
func closeReport(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = internal.WrapError(internal.ExitError, "failed to write report file", cerr)
	}
}

// auditOutcome lists recorded errors on stderr and turns a failed run, a
// run with recorded errors or a critical finding into an exit status. The
// report has already been written in every case.
func auditOutcome(cmd *cobra.Command, opts *auditOptions, state *audit.PipelineState) error {
	if state.HasErrors() {
		cmd.PrintErrf("%d error(s) recorded during the audit:\n", len(state.Errors))
		for _, e := range state.Errors {
			cmd.PrintErrln("  " + e.String())
		}
	}

	if state.Failed() {
		fatal := state.ErrorsFor(audit.StageExtract)
		if len(fatal) == 0 {
			return internal.NewCLIError(internal.ExitError, "audit failed")
		}
		return internal.WrapError(internal.ExitCodeFor(types.CodeOf(fatal[0].Err)), "audit failed", fatal[0].Err)
	}
	if state.HasErrors() {
		first := state.Errors[0].Err
		return internal.WrapError(internal.ExitCodeFor(types.CodeOf(first)),
			fmt.Sprintf("audit completed with %d error(s)", len(state.Errors)), first)
	}

	if opts.failOnCritical {
		for _, risk := range state.Risks {
			if risk.Severity == contract.SeverityCritical {
				return internal.NewCLIError(internal.ExitCriticalRisks, "critical risks reported")
			}
		}
	}
	return nil
}
