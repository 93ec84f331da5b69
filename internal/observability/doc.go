// Package observability wires structured logging, tracing and metrics.
//
//   - Logging: NewLogger builds a log/slog logger (json or text) that redacts
//     credentials; WithTrace adds trace_id and span_id from the context.
//   - Tracing: InitTracing installs an OpenTelemetry tracer provider exporting
//     over OTLP/gRPC or to stdout.
//   - Metrics: InitMetrics creates a meter provider exported through a
//     private Prometheus registry, served by Handler.
//   - Health: HealthMonitor aggregates HealthChecker components.
package observability
