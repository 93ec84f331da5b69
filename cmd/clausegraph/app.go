package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/cmd/clausegraph/internal"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/audit"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/config"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/extract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/graph"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/observability"
)

const (
	skipSetupAnnotation = "clausegraph/skip-setup"
	closeTimeout        = 10 * time.Second
)

// app holds what the commands share: configuration, the logger, telemetry
// providers and the lazily created graph pool. Resources are registered
// with onClose and released in reverse order by close.
type app struct {
	flags  GlobalFlags
	format internal.OutputFormat

	cfg     *config.Config
	logger  *slog.Logger
	tracing *sdktrace.TracerProvider
	metrics *observability.MetricsProvider
	pool    *graph.Pool
	closers []func(context.Context) error

	// Overridable in tests.
	loaderOpts    []config.LoaderOption
	driverFactory graph.DriverFactory
}

func newApp() *app {
	return &app{logger: slog.Default()}
}

// setup loads configuration and initializes logging, tracing and metrics.
// It runs before every command that is not annotated to skip it.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	format, err := ParseGlobalFlags(&a.flags)
	if err != nil {
		return err
	}
	a.format = format

	if cmd.Annotations[skipSetupAnnotation] == "true" {
		return nil
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to load config", err)
	}
	if a.flags.LogLevel != "" {
		cfg.Logging.Level = a.flags.LogLevel
	}
	if a.flags.LogFormat != "" {
		cfg.Logging.Format = a.flags.LogFormat
	}
	a.cfg = cfg

	output, closeOutput, err := observability.OpenLogOutput(cfg.Logging.Output)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to open log output", err)
	}
	a.onClose(func(context.Context) error { return closeOutput() })

	logger, err := observability.NewLogger(cfg.Logging, output)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to create logger", err)
	}
	a.logger = logger.With("command", cmd.Name())

	tracing, err := observability.InitTracing(cmd.Context(), cfg.Tracing)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to initialize tracing", err)
	}
	a.tracing = tracing
	a.onClose(func(ctx context.Context) error { return observability.ShutdownTracing(ctx, tracing) })

	metrics, err := observability.InitMetrics(cfg.Metrics)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to initialize metrics", err)
	}
	a.metrics = metrics
	a.onClose(metrics.Shutdown)
	if err := metrics.Serve(a.logger); err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to serve metrics", err)
	}

	return nil
}

// loadConfig reads an explicit --config strictly and otherwise falls back
// to defaults when the home config does not exist.
func (a *app) loadConfig() (*config.Config, error) {
	loader := config.NewConfigLoader(config.NewValidator(), a.loaderOpts...)
	if a.flags.ConfigFile != "" {
		return loader.Load(a.flags.ConfigFile)
	}

	homeDir := a.flags.HomeDir
	if homeDir == "" {
		homeDir = os.Getenv("CLAUSEGRAPH_HOME")
	}
	if homeDir == "" {
		homeDir = config.DefaultHomeDir()
	}
	return loader.LoadWithDefaults(config.DefaultConfigPath(homeDir))
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse registration order. Failures are
// logged; there is nothing left to do about them at exit.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("failed to release resource", "error", err)
		}
	}
	a.closers = nil
}

// graphPool returns the connection pool, configuring the process-wide
// default pool on first use.
func (a *app) graphPool() (*graph.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}

	opts := []graph.PoolOption{graph.WithPoolLogger(a.logger)}
	if a.driverFactory != nil {
		a.pool = graph.NewPool(a.cfg.Neo4j.ClientConfig(), append(opts, graph.WithDriverFactory(a.driverFactory))...)
	} else {
		if err := graph.ConfigureDefault(a.cfg.Neo4j.ClientConfig(), opts...); err != nil {
			return nil, err
		}
		a.pool = graph.DefaultPool()
	}
	a.onClose(a.pool.CloseAll)
	return a.pool, nil
}

// graphStore returns a traced store, in memory when memory is set.
func (a *app) graphStore(memory bool) (graph.GraphStore, error) {
	tracer := a.tracing.Tracer("clausegraph/graph")
	if memory {
		return graph.NewTracedStore(graph.NewMemoryStore(), tracer), nil
	}

	pool, err := a.graphPool()
	if err != nil {
		return nil, err
	}
	store := graph.NewStore(pool,
		graph.WithRetryPolicy(a.cfg.Retry.Policy()),
		graph.WithStoreLogger(a.logger),
	)
	return graph.NewTracedStore(store, tracer), nil
}

// extractor builds the extractor named by kind, or the configured one when
// kind is empty.
func (a *app) extractor(kind string) (audit.Extractor, error) {
	if kind == "" {
		kind = a.cfg.Extractor.Type
	}

	switch kind {
	case "pattern":
		return extract.NewPatternExtractor(), nil
	case "llm":
		e, err := extract.NewLLMExtractor(a.cfg.LLMConfig(), extract.WithLLMLogger(a.logger))
		if err != nil {
			return nil, internal.WrapError(internal.ExitConfigError, "failed to create llm extractor", err)
		}
		return e, nil
	default:
		return nil, internal.NewCLIError(internal.ExitConfigError,
			fmt.Sprintf("unknown extractor %q (want pattern or llm)", kind))
	}
}

func (a *app) formatter(cmd *cobra.Command) internal.Formatter {
	return internal.NewFormatter(a.format, cmd.OutOrStdout())
}
