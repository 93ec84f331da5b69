package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// sensitiveKeys are attribute keys whose values never reach the log output.
// Keys are compared lower-cased with underscores removed.
var sensitiveKeys = map[string]bool{
	"password":  true,
	"apikey":    true,
	"secret":    true,
	"secretkey": true,
	"token":     true,
	"authtoken": true,
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger builds a slog.Logger from cfg writing to w. Sensitive
// attributes are redacted at every level.
func NewLogger(cfg LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED, "invalid logging configuration", err)
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, types.NewError(types.OBSERVABILITY_INIT_FAILED,
			fmt.Sprintf("unknown log format %q", cfg.Format))
	}

	return slog.New(handler), nil
}

// OpenLogOutput resolves an output name to a writer. The returned close
// function is a no-op for stdout and stderr.
func OpenLogOutput(output string) (io.Writer, func() error, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, func() error { return nil }, nil
	case "stdout":
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED, "failed to open log output", err).
			WithDetail("output", output)
	}
	return f, f.Close, nil
}

// WithTrace returns logger annotated with the trace_id and span_id of the
// span in ctx, if there is one.
func WithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(strings.ReplaceAll(a.Key, "_", ""))
	if sensitiveKeys[key] {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}
