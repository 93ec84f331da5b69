package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/graph"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func staticExtractor(extraction contract.Extraction) Extractor {
	return ExtractorFunc(func(context.Context, string) (contract.Extraction, error) {
		return extraction, nil
	})
}

func scenarioExtraction() contract.Extraction {
	return contract.Extraction{
		Clauses: []contract.Clause{
			{ID: "1", Text: "Indemnify...", Topic: "Indemnification"},
			{ID: "2", Text: "Liability cap...", Topic: "Liability"},
		},
		Relationships: []contract.Relationship{
			contract.ClauseLink("1", "2", contract.RelContradicts,
				map[string]any{"reason": "unlimited indemnity vs capped liability"}),
		},
	}
}

// failingStore is a MemoryStore whose analysis queries fail.
type failingStore struct {
	*graph.MemoryStore
	failContradictions bool
	failRisks          bool
}

func (s *failingStore) GetContradictions(ctx context.Context) ([]contract.Contradiction, error) {
	if s.failContradictions {
		return nil, types.NewComplianceCheckError("contradictions", errors.New("query timed out"))
	}
	return s.MemoryStore.GetContradictions(ctx)
}

func (s *failingStore) GetRisks(ctx context.Context, min contract.Severity) ([]contract.Risk, error) {
	if s.failRisks {
		return nil, types.NewComplianceCheckError("risks", errors.New("query timed out"))
	}
	return s.MemoryStore.GetRisks(ctx, min)
}

func contradictionBullets(report string) []string {
	start := strings.Index(report, "## Contradictions Detected")
	end := strings.Index(report, "## Risk Summary")
	if start < 0 || end < 0 {
		return nil
	}
	var bullets []string
	for _, line := range strings.Split(report[start:end], "\n") {
		if strings.HasPrefix(line, "- ") {
			bullets = append(bullets, line)
		}
	}
	return bullets
}

func TestPipeline_ContradictionScenario(t *testing.T) {
	store := graph.NewMemoryStore()
	p := New(staticExtractor(scenarioExtraction()), store, WithClock(fixedClock))

	state := p.Run(context.Background(), "contract text")

	assert.Equal(t, StageDone, state.Current)
	assert.Empty(t, state.Errors)
	for _, stage := range Stages {
		assert.True(t, state.Completed[stage], "stage %s completed", stage)
	}

	stats, err := store.GetGraphStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Clause": 2}, stats.NodesByLabel)
	assert.Equal(t, map[string]int64{"CONTRADICTS": 1}, stats.RelationshipsByType)
	assert.Equal(t, stats, state.Stats)

	require.Len(t, state.Contradictions, 1)
	assert.Equal(t, "unlimited indemnity vs capped liability", state.Contradictions[0].Reason)

	bullets := contradictionBullets(state.Report)
	require.Len(t, bullets, 1)
	assert.Contains(t, bullets[0], "Clause 1")
	assert.Contains(t, bullets[0], "Clause 2")
	assert.Contains(t, bullets[0], "Indemnify...")
	assert.Contains(t, bullets[0], "Liability cap...")
	assert.Contains(t, bullets[0], "unlimited indemnity vs capped liability")
	assert.Contains(t, state.Report, "No risks found.")
	assert.NotContains(t, state.Report, "## Errors")
}

func TestPipeline_ExtractionFailure(t *testing.T) {
	driver := graph.NewMockDriver()
	store := graph.NewStore(graph.NewPool(graph.DefaultClientConfig(), graph.WithDriverFactory(driver.Factory())))

	extractor := ExtractorFunc(func(context.Context, string) (contract.Extraction, error) {
		return contract.Extraction{}, types.NewExtractionError("model returned garbage", "", nil)
	})
	state := New(extractor, store).Run(context.Background(), "contract text")

	assert.Equal(t, StageFailed, state.Current)
	assert.True(t, state.Failed())
	require.Len(t, state.Errors, 1)
	assert.Equal(t, StageExtract, state.Errors[0].Stage)
	assert.Equal(t, types.EXTRACTION_FAILED, state.Errors[0].Code)
	assert.Empty(t, state.Report)
	assert.False(t, state.Completed[StageExtract])
	assert.False(t, state.Completed[StageBuildGraph])

	assert.Empty(t, driver.Runs(), "no graph write attempted")
	assert.Equal(t, 0, driver.Created())
}

func TestPipeline_ExtractorErrorIsWrapped(t *testing.T) {
	extractor := ExtractorFunc(func(context.Context, string) (contract.Extraction, error) {
		return contract.Extraction{}, errors.New("connection refused")
	})
	state := New(extractor, graph.NewMemoryStore()).Run(context.Background(), "contract text")

	require.Len(t, state.Errors, 1)
	assert.Equal(t, types.EXTRACTION_FAILED, state.Errors[0].Code)
	assert.True(t, errors.Is(state.Errors[0].Err, types.ErrExtraction))
	assert.Contains(t, state.Errors[0].Message, "connection refused")
}

func TestPipeline_EmptyText(t *testing.T) {
	called := false
	extractor := ExtractorFunc(func(context.Context, string) (contract.Extraction, error) {
		called = true
		return contract.Extraction{}, nil
	})
	state := New(extractor, graph.NewMemoryStore()).Run(context.Background(), "   \n\t")

	assert.False(t, called)
	assert.Equal(t, StageFailed, state.Current)
	require.Len(t, state.Errors, 1)
	assert.Equal(t, types.EXTRACTION_FAILED, state.Errors[0].Code)
}

func TestPipeline_MissingEndpointDoesNotBlockBatch(t *testing.T) {
	extraction := contract.Extraction{
		Clauses: []contract.Clause{
			{ID: "1", Text: "a"}, {ID: "2", Text: "b"}, {ID: "3", Text: "c"},
		},
		Relationships: []contract.Relationship{
			contract.ClauseLink("1", "2", contract.RelReferences, nil),
			contract.ClauseLink("2", "99", contract.RelReferences, nil),
			contract.ClauseLink("1", "3", contract.RelContradicts, map[string]any{"reason": "r"}),
		},
	}
	store := graph.NewMemoryStore()
	state := New(staticExtractor(extraction), store).Run(context.Background(), "text")

	require.Len(t, state.Errors, 1)
	assert.Equal(t, StageBuildGraph, state.Errors[0].Stage)
	assert.Equal(t, types.GRAPH_BUILD_FAILED, state.Errors[0].Code)
	assert.Equal(t, "(Clause:2)-[REFERENCES]->(Clause:99)", state.Errors[0].Element)
	assert.Equal(t, 2, state.Written.Relationships)

	stats, err := store.GetGraphStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.RelationshipsByType["REFERENCES"])
	assert.Equal(t, int64(1), stats.RelationshipsByType["CONTRADICTS"])

	assert.True(t, state.Completed[StageGenerateReport])
	assert.Equal(t, StageDone, state.Current)
	assert.Contains(t, state.Report, "## Errors")
	assert.Contains(t, state.Report, "(Clause:2)-[REFERENCES]->(Clause:99)")
}

func TestPipeline_ValidationErrorsAreRecordedPerElement(t *testing.T) {
	extraction := contract.Extraction{
		Clauses: []contract.Clause{
			{ID: "1", Text: "a"},
			{ID: "bad id", Text: "b"},
		},
		Entities: []contract.Entity{{Name: "Acme Corp", Type: "Party"}},
		Relationships: []contract.Relationship{
			{SourceLabel: contract.LabelClause, SourceKey: "id", SourceValue: "1",
				TargetLabel: contract.LabelEntity, TargetKey: "name", TargetValue: "Acme Corp",
				Type: "SUPERSEDES"},
			contract.Obligation("1", "Acme Corp"),
		},
		Risks: []contract.Risk{
			{ID: "risk-1", Severity: contract.SeverityHigh, Description: "uncapped", ClauseID: "1"},
		},
	}
	state := New(staticExtractor(extraction), graph.NewMemoryStore()).Run(context.Background(), "text")

	require.Len(t, state.Errors, 2)
	assert.Equal(t, "Clause:bad id", state.Errors[0].Element)
	assert.Equal(t, types.VALIDATION_FAILED, state.Errors[0].Code)
	assert.Contains(t, state.Errors[1].Element, "SUPERSEDES")
	assert.Equal(t, types.VALIDATION_FAILED, state.Errors[1].Code)

	assert.Equal(t, WriteCounts{Clauses: 1, Entities: 1, Relationships: 1, Risks: 1}, state.Written)
	require.Len(t, state.Risks, 1)
	assert.Equal(t, "1", state.Risks[0].ClauseID)
	assert.Equal(t, StageDone, state.Current)
}

func TestPipeline_ComplianceFailureStillReports(t *testing.T) {
	store := &failingStore{MemoryStore: graph.NewMemoryStore(), failContradictions: true, failRisks: true}
	state := New(staticExtractor(scenarioExtraction()), store).Run(context.Background(), "text")

	assert.Equal(t, StageDone, state.Current)
	require.Len(t, state.ErrorsFor(StageCheckCompliance), 2)
	for _, e := range state.ErrorsFor(StageCheckCompliance) {
		assert.Equal(t, types.COMPLIANCE_CHECK_FAILED, e.Code)
	}

	assert.Contains(t, state.Report, "No contradictions found.")
	assert.Contains(t, state.Report, "No risks found.")
	assert.Contains(t, state.Report, "## Errors")
	assert.Contains(t, state.Report, "contradictions query failed")
	assert.Equal(t, int64(2), state.Stats.NodesByLabel["Clause"], "stats still collected")
}

func TestPipeline_MinSeverity(t *testing.T) {
	extraction := scenarioExtraction()
	extraction.Risks = []contract.Risk{
		{ID: "r-low", Severity: contract.SeverityLow, Description: "minor"},
		{ID: "r-crit", Severity: contract.SeverityCritical, Description: "unlimited", ClauseID: "1"},
	}
	state := New(staticExtractor(extraction), graph.NewMemoryStore(),
		WithMinSeverity(contract.SeverityHigh)).Run(context.Background(), "text")

	require.Len(t, state.Risks, 1)
	assert.Equal(t, "r-crit", state.Risks[0].ID)
	assert.Contains(t, state.Report, "**CRITICAL** r-crit")
	assert.NotContains(t, state.Report, "r-low")
}

func TestPipeline_SpansAndMetrics(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)

	p := New(staticExtractor(scenarioExtraction()), graph.NewMemoryStore(),
		WithTracer(tp.Tracer("test")), WithMetrics(metrics))
	state := p.Run(context.Background(), "text")
	require.Equal(t, StageDone, state.Current)

	names := make(map[string]bool)
	for _, span := range recorder.Ended() {
		names[span.Name()] = true
	}
	for _, want := range []string{
		"clausegraph.audit.run",
		"clausegraph.audit.extract",
		"clausegraph.audit.build_graph",
		"clausegraph.audit.check_compliance",
		"clausegraph.audit.generate_report",
	} {
		assert.True(t, names[want], "missing span %s", want)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = m.Data
		}
	}
	require.Contains(t, found, MetricStageDuration)
	require.Contains(t, found, MetricGraphWrites)
	require.Contains(t, found, MetricRuns)

	writes, ok := found[MetricGraphWrites].(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range writes.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total, "two clauses and one relationship")

	hist, ok := found[MetricStageDuration].(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, len(Stages))
}

func TestPipeline_StateIsPerRun(t *testing.T) {
	p := New(staticExtractor(scenarioExtraction()), graph.NewMemoryStore())

	a := p.Run(context.Background(), "text")
	b := p.Run(context.Background(), "text")

	assert.NotEqual(t, a.RunID, b.RunID)
	assert.NotSame(t, a, b)
	assert.Len(t, b.Contradictions, 1, "re-running is idempotent")
}
