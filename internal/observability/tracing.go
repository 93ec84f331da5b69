package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

const (
	defaultBatchTimeout = 5 * time.Second
	defaultServiceName  = "clausegraph"
)

// TracingOption is a functional option for configuring tracing initialization.
type TracingOption func(*tracingOptions)

type tracingOptions struct {
	sampler      sdktrace.Sampler
	batchTimeout time.Duration
	writer       io.Writer
}

// WithSampler sets a custom sampler for the tracer provider.
func WithSampler(sampler sdktrace.Sampler) TracingOption {
	return func(o *tracingOptions) {
		o.sampler = sampler
	}
}

// WithBatchTimeout sets the maximum time between batch exports.
func WithBatchTimeout(timeout time.Duration) TracingOption {
	return func(o *tracingOptions) {
		o.batchTimeout = timeout
	}
}

// WithTraceWriter sets where the stdout provider writes spans. Defaults to
// os.Stderr so spans never mix with report output.
func WithTraceWriter(w io.Writer) TracingOption {
	return func(o *tracingOptions) {
		o.writer = w
	}
}

// InitTracing initializes tracing for cfg and installs the provider as the
// global tracer provider. Supported providers are "otlp" (gRPC), "stdout"
// and "noop".
//
// When cfg.Enabled is false a provider without exporters is returned; it
// records nothing and is cheap to keep around.
func InitTracing(ctx context.Context, cfg TracingConfig, opts ...TracingOption) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return sdktrace.NewTracerProvider(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED, "invalid tracing configuration", err)
	}

	options := &tracingOptions{
		batchTimeout: defaultBatchTimeout,
		writer:       os.Stderr,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.sampler == nil {
		options.sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", serviceName)),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED, "failed to create resource", err)
	}

	var exporter sdktrace.SpanExporter
	switch strings.ToLower(cfg.Provider) {
	case "otlp":
		otlpOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			otlpOpts = append(otlpOpts, otlptracegrpc.WithInsecure())
		} else {
			otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(nil)))
		}
		exporter, err = otlptracegrpc.New(ctx, otlpOpts...)
		if err != nil {
			return nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED, "failed to create otlp exporter", err).
				WithDetail("endpoint", cfg.Endpoint)
		}

	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(options.writer))
		if err != nil {
			return nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED, "failed to create stdout exporter", err)
		}

	case "noop":
		return sdktrace.NewTracerProvider(), nil

	default:
		return nil, types.NewError(types.OBSERVABILITY_INIT_FAILED,
			fmt.Sprintf("unsupported tracing provider: %s", cfg.Provider))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(options.batchTimeout)),
		sdktrace.WithSampler(options.sampler),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp, nil
}

// ShutdownTracing flushes pending spans and shuts the provider down.
func ShutdownTracing(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}
	if err := provider.Shutdown(ctx); err != nil {
		return types.WrapError(types.OBSERVABILITY_INIT_FAILED, "failed to shutdown tracer provider", err)
	}
	return nil
}
