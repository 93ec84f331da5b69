package audit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric names recorded by the pipeline.
const (
	MetricStageDuration = "clausegraph.audit.stage.duration"
	MetricStageErrors   = "clausegraph.audit.stage.errors"
	MetricGraphWrites   = "clausegraph.audit.graph.writes"
	MetricRuns          = "clausegraph.audit.runs"
)

// Metrics holds the pipeline instruments.
type Metrics struct {
	stageDuration metric.Float64Histogram
	stageErrors   metric.Int64Counter
	graphWrites   metric.Int64Counter
	runs          metric.Int64Counter
}

// NewMetrics creates the pipeline instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	stageDuration, err := meter.Float64Histogram(MetricStageDuration,
		metric.WithDescription("Duration of each audit pipeline stage"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	stageErrors, err := meter.Int64Counter(MetricStageErrors,
		metric.WithDescription("Errors recorded per audit pipeline stage"))
	if err != nil {
		return nil, err
	}
	graphWrites, err := meter.Int64Counter(MetricGraphWrites,
		metric.WithDescription("Graph writes issued while building the contract graph"))
	if err != nil {
		return nil, err
	}
	runs, err := meter.Int64Counter(MetricRuns,
		metric.WithDescription("Completed audit runs by final stage"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		stageDuration: stageDuration,
		stageErrors:   stageErrors,
		graphWrites:   graphWrites,
		runs:          runs,
	}, nil
}

// noopMetrics returns instruments that record nothing.
func noopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("clausegraph/audit"))
	return m
}

func (m *Metrics) recordStage(ctx context.Context, stage Stage, elapsed time.Duration, errCount int) {
	attrs := metric.WithAttributes(attribute.String("stage", string(stage)))
	m.stageDuration.Record(ctx, elapsed.Seconds(), attrs)
	if errCount > 0 {
		m.stageErrors.Add(ctx, int64(errCount), attrs)
	}
}

func (m *Metrics) recordWrite(ctx context.Context, kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.graphWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome)))
}

func (m *Metrics) recordRun(ctx context.Context, final Stage) {
	m.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("final_stage", string(final))))
}
