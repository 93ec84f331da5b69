package graph

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// Span names emitted by TracedStore.
const (
	SpanUpsertNode         = "clausegraph.graph.upsert_node"
	SpanCreateRelationship = "clausegraph.graph.create_relationship"
	SpanGetContradictions  = "clausegraph.graph.get_contradictions"
	SpanGetRisks           = "clausegraph.graph.get_risks"
	SpanGetGraphStats      = "clausegraph.graph.get_graph_stats"
	SpanEnsureConstraints  = "clausegraph.graph.ensure_constraints"
	SpanClear              = "clausegraph.graph.clear"
	SpanHealth             = "clausegraph.graph.health"
)

// Span attribute keys.
const (
	AttrLabel     = "clausegraph.graph.label"
	AttrKey       = "clausegraph.graph.key"
	AttrRelType   = "clausegraph.graph.relationship_type"
	AttrRelation  = "clausegraph.graph.relationship"
	AttrResults   = "clausegraph.graph.result_count"
	AttrSeverity  = "clausegraph.graph.min_severity"
	AttrDuration  = "clausegraph.graph.duration_ms"
	AttrErrorCode = "clausegraph.error.code"
)

// TracedStore wraps a GraphStore with one OpenTelemetry span per operation.
//
// Thread-safety: Safe for concurrent access (delegates to inner store).
type TracedStore struct {
	inner  GraphStore
	tracer trace.Tracer
}

var _ GraphStore = (*TracedStore)(nil)

// NewTracedStore wraps inner.
func NewTracedStore(inner GraphStore, tracer trace.Tracer) *TracedStore {
	return &TracedStore{inner: inner, tracer: tracer}
}

// finish records the duration and outcome on span.
func finish(span trace.Span, start time.Time, err error) {
	span.SetAttributes(attribute.Float64(AttrDuration, float64(time.Since(start).Milliseconds())))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := types.CodeOf(err); code != "" {
			span.SetAttributes(attribute.String(AttrErrorCode, string(code)))
		}
		return
	}
	span.SetStatus(codes.Ok, "")
}

func (t *TracedStore) UpsertNode(ctx context.Context, label contract.Label, keyField, keyValue string, props map[string]any) error {
	ctx, span := t.tracer.Start(ctx, SpanUpsertNode)
	defer span.End()
	span.SetAttributes(attribute.String(AttrLabel, string(label)), attribute.String(AttrKey, keyValue))

	start := time.Now()
	err := t.inner.UpsertNode(ctx, label, keyField, keyValue, props)
	finish(span, start, err)
	return err
}

func (t *TracedStore) UpsertClause(ctx context.Context, clause contract.Clause) error {
	ctx, span := t.tracer.Start(ctx, SpanUpsertNode)
	defer span.End()
	span.SetAttributes(attribute.String(AttrLabel, string(contract.LabelClause)), attribute.String(AttrKey, clause.ID))

	start := time.Now()
	err := t.inner.UpsertClause(ctx, clause)
	finish(span, start, err)
	return err
}

func (t *TracedStore) UpsertEntity(ctx context.Context, entity contract.Entity) error {
	ctx, span := t.tracer.Start(ctx, SpanUpsertNode)
	defer span.End()
	span.SetAttributes(attribute.String(AttrLabel, string(contract.LabelEntity)), attribute.String(AttrKey, entity.Name))

	start := time.Now()
	err := t.inner.UpsertEntity(ctx, entity)
	finish(span, start, err)
	return err
}

func (t *TracedStore) UpsertRisk(ctx context.Context, risk contract.Risk) error {
	ctx, span := t.tracer.Start(ctx, SpanUpsertNode)
	defer span.End()
	span.SetAttributes(attribute.String(AttrLabel, string(contract.LabelRisk)), attribute.String(AttrKey, risk.ID))

	start := time.Now()
	err := t.inner.UpsertRisk(ctx, risk)
	finish(span, start, err)
	return err
}

func (t *TracedStore) CreateRelationship(ctx context.Context, rel contract.Relationship) error {
	ctx, span := t.tracer.Start(ctx, SpanCreateRelationship)
	defer span.End()
	span.SetAttributes(attribute.String(AttrRelType, string(rel.Type)), attribute.String(AttrRelation, rel.Identity()))

	start := time.Now()
	err := t.inner.CreateRelationship(ctx, rel)
	finish(span, start, err)
	return err
}

func (t *TracedStore) GetContradictions(ctx context.Context) ([]contract.Contradiction, error) {
	ctx, span := t.tracer.Start(ctx, SpanGetContradictions)
	defer span.End()

	start := time.Now()
	out, err := t.inner.GetContradictions(ctx)
	span.SetAttributes(attribute.Int(AttrResults, len(out)))
	finish(span, start, err)
	return out, err
}

func (t *TracedStore) GetRisks(ctx context.Context, minSeverity contract.Severity) ([]contract.Risk, error) {
	ctx, span := t.tracer.Start(ctx, SpanGetRisks)
	defer span.End()
	span.SetAttributes(attribute.String(AttrSeverity, string(minSeverity)))

	start := time.Now()
	out, err := t.inner.GetRisks(ctx, minSeverity)
	span.SetAttributes(attribute.Int(AttrResults, len(out)))
	finish(span, start, err)
	return out, err
}

func (t *TracedStore) GetGraphStats(ctx context.Context) (contract.GraphStats, error) {
	ctx, span := t.tracer.Start(ctx, SpanGetGraphStats)
	defer span.End()

	start := time.Now()
	stats, err := t.inner.GetGraphStats(ctx)
	finish(span, start, err)
	return stats, err
}

func (t *TracedStore) EnsureConstraints(ctx context.Context) error {
	ctx, span := t.tracer.Start(ctx, SpanEnsureConstraints)
	defer span.End()

	start := time.Now()
	err := t.inner.EnsureConstraints(ctx)
	finish(span, start, err)
	return err
}

func (t *TracedStore) Clear(ctx context.Context) error {
	ctx, span := t.tracer.Start(ctx, SpanClear)
	defer span.End()

	start := time.Now()
	err := t.inner.Clear(ctx)
	finish(span, start, err)
	return err
}

func (t *TracedStore) Health(ctx context.Context) types.HealthStatus {
	ctx, span := t.tracer.Start(ctx, SpanHealth)
	defer span.End()

	status := t.inner.Health(ctx)
	span.SetAttributes(attribute.String("clausegraph.graph.health", status.State.String()))
	if !status.IsHealthy() {
		span.SetStatus(codes.Error, status.Message)
	}
	return status
}
