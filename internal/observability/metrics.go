package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// MetricsProvider owns the meter provider and the Prometheus registry it
// exports to.
type MetricsProvider struct {
	provider metric.MeterProvider
	sdk      *sdkmetric.MeterProvider
	registry *prometheus.Registry
	cfg      MetricsConfig
	server   *http.Server
}

// InitMetrics creates a meter provider backed by an OpenTelemetry
// Prometheus exporter on a private registry. When metrics are disabled the
// provider is a no-op and Handler serves 404.
func InitMetrics(cfg MetricsConfig) (*MetricsProvider, error) {
	if !cfg.Enabled {
		return &MetricsProvider{provider: noop.NewMeterProvider(), cfg: cfg}, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED, "invalid metrics configuration", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, types.WrapError(types.OBSERVABILITY_INIT_FAILED, "failed to create prometheus exporter", err)
	}

	sdk := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	return &MetricsProvider{provider: sdk, sdk: sdk, registry: registry, cfg: cfg}, nil
}

// Meter returns a named meter.
func (m *MetricsProvider) Meter(name string) metric.Meter {
	return m.provider.Meter(name)
}

// Handler serves the registry in Prometheus exposition format.
func (m *MetricsProvider) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes Handler on the configured address in the background until
// Shutdown. It returns once the listener is bound.
func (m *MetricsProvider) Serve(logger *slog.Logger) error {
	if !m.cfg.Enabled {
		return nil
	}

	listener, err := net.Listen("tcp", m.cfg.Address)
	if err != nil {
		return types.WrapError(types.OBSERVABILITY_INIT_FAILED, "failed to bind metrics listener", err).
			WithDetail("address", m.cfg.Address)
	}

	mux := http.NewServeMux()
	mux.Handle(m.cfg.Path, m.Handler())
	m.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := m.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "address", listener.Addr().String(), "path", m.cfg.Path)
	return nil
}

// Shutdown stops the metrics server and flushes the meter provider.
func (m *MetricsProvider) Shutdown(ctx context.Context) error {
	var errs []error
	if m.server != nil {
		errs = append(errs, m.server.Shutdown(ctx))
	}
	if m.sdk != nil {
		errs = append(errs, m.sdk.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
