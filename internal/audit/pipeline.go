package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/graph"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/observability"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// Extractor turns contract text into graph elements.
type Extractor interface {
	Extract(ctx context.Context, text string) (contract.Extraction, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, text string) (contract.Extraction, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, text string) (contract.Extraction, error) {
	return f(ctx, text)
}

// Pipeline runs the four audit stages over one contract at a time:
// EXTRACT, BUILD_GRAPH, CHECK_COMPLIANCE and GENERATE_REPORT.
//
// A Pipeline holds no per-run state and may be shared; each Run owns its
// PipelineState exclusively.
type Pipeline struct {
	extractor   Extractor
	store       graph.GraphStore
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *Metrics
	minSeverity contract.Severity
	now         func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTracer sets the tracer used for stage spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// WithMetrics sets the metric instruments.
func WithMetrics(metrics *Metrics) Option {
	return func(p *Pipeline) {
		if metrics != nil {
			p.metrics = metrics
		}
	}
}

// WithMinSeverity filters the risks reported by CHECK_COMPLIANCE.
func WithMinSeverity(severity contract.Severity) Option {
	return func(p *Pipeline) {
		p.minSeverity = severity
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a pipeline.
func New(extractor Extractor, store graph.GraphStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		store:     store,
		logger:    slog.Default(),
		tracer:    otel.Tracer("clausegraph/audit"),
		metrics:   noopMetrics(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run audits text and returns the final state. It never returns an error:
// failures are recorded on the state. Only an extraction failure ends the
// run in FAILED; every other failure is accumulated and the report is
// still generated.
func (p *Pipeline) Run(ctx context.Context, text string) *PipelineState {
	state := NewPipelineState(text, p.now())
	state.Metadata["min_severity"] = string(p.minSeverity)

	ctx, span := p.tracer.Start(ctx, "clausegraph.audit.run",
		trace.WithAttributes(attribute.String("clausegraph.run_id", state.RunID.String())))
	defer span.End()

	logger := observability.WithTrace(ctx, p.logger).With("run_id", state.RunID.String())
	logger.Info("audit started", "text_length", len(text))

	stages := []struct {
		stage Stage
		run   func(context.Context, *slog.Logger, *PipelineState) error
	}{
		{StageExtract, p.extract},
		{StageBuildGraph, p.buildGraph},
		{StageCheckCompliance, p.checkCompliance},
		{StageGenerateReport, p.generateReport},
	}

	for _, s := range stages {
		if err := p.runStage(ctx, logger, state, s.stage, s.run); err != nil {
			state.Current = StageFailed
			break
		}
	}
	if state.Current != StageFailed {
		state.Current = StageDone
	}
	state.CompletedAt = p.now()

	p.metrics.recordRun(ctx, state.Current)
	span.SetAttributes(
		attribute.String("clausegraph.final_stage", string(state.Current)),
		attribute.Int("clausegraph.error_count", len(state.Errors)),
	)
	if state.Failed() {
		span.SetStatus(codes.Error, "audit failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}

	logger.Info("audit finished",
		"stage", state.Current,
		"errors", len(state.Errors),
		"contradictions", len(state.Contradictions),
		"risks", len(state.Risks))
	return state
}

// runStage wraps one stage with a span, timing and completion bookkeeping.
// A non-nil return is fatal for the run.
func (p *Pipeline) runStage(ctx context.Context, logger *slog.Logger, state *PipelineState, stage Stage,
	fn func(context.Context, *slog.Logger, *PipelineState) error) error {
	ctx, span := p.tracer.Start(ctx, "clausegraph.audit."+strings.ToLower(string(stage)))
	defer span.End()

	state.Current = stage
	errsBefore := len(state.Errors)
	start := p.now()
	logger = logger.With("stage", stage)
	logger.Debug("stage started")

	err := fn(ctx, logger, state)

	elapsed := p.now().Sub(start)
	stageErrs := len(state.Errors) - errsBefore
	p.metrics.recordStage(ctx, stage, elapsed, stageErrs)
	span.SetAttributes(attribute.Int("clausegraph.stage.errors", stageErrs))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("stage failed", "error", err)
		return err
	}

	state.Completed[stage] = true
	span.SetStatus(codes.Ok, "")
	logger.Debug("stage completed", "errors", stageErrs, "duration", elapsed)
	return nil
}

// extract is the only stage whose failure is fatal: without elements
// there is nothing to build.
func (p *Pipeline) extract(ctx context.Context, logger *slog.Logger, state *PipelineState) error {
	if strings.TrimSpace(state.RawText) == "" {
		err := types.NewExtractionError("contract text is empty", "", nil)
		state.RecordError(StageExtract, "", err)
		return err
	}

	extraction, err := p.extractor.Extract(ctx, state.RawText)
	if err != nil {
		if types.CodeOf(err) != types.EXTRACTION_FAILED {
			err = types.NewExtractionError("extractor failed", state.RawText, err)
		}
		state.RecordError(StageExtract, "", err)
		return err
	}

	state.Clauses = extraction.Clauses
	state.Entities = extraction.Entities
	state.Relationships = extraction.Relationships
	state.ExtractedRisks = extraction.Risks

	logger.Info("extraction complete",
		"clauses", len(state.Clauses),
		"entities", len(state.Entities),
		"relationships", len(state.Relationships),
		"risks", len(state.ExtractedRisks))
	return nil
}

// buildGraph writes every element in order: clauses, entities,
// relationships, risks. Each failure is recorded against its element and
// the batch continues.
func (p *Pipeline) buildGraph(ctx context.Context, logger *slog.Logger, state *PipelineState) error {
	if err := p.store.EnsureConstraints(ctx); err != nil {
		state.RecordError(StageBuildGraph, "constraints", err)
		logger.Warn("ensure constraints failed", "error", err)
	}

	for _, clause := range state.Clauses {
		err := p.store.UpsertClause(ctx, clause)
		p.recordWrite(ctx, logger, state, "clause", "Clause:"+clause.ID, err)
		if err == nil {
			state.Written.Clauses++
		}
	}

	for _, entity := range state.Entities {
		err := p.store.UpsertEntity(ctx, entity)
		p.recordWrite(ctx, logger, state, "entity", "Entity:"+entity.Name, err)
		if err == nil {
			state.Written.Entities++
		}
	}

	for _, rel := range state.Relationships {
		err := p.store.CreateRelationship(ctx, rel)
		p.recordWrite(ctx, logger, state, "relationship", rel.Identity(), err)
		if err == nil {
			state.Written.Relationships++
		}
	}

	for _, risk := range state.ExtractedRisks {
		err := p.store.UpsertRisk(ctx, risk)
		p.recordWrite(ctx, logger, state, "risk", "Risk:"+risk.ID, err)
		if err == nil {
			state.Written.Risks++
		}
	}

	logger.Info("graph built",
		"clauses", state.Written.Clauses,
		"entities", state.Written.Entities,
		"relationships", state.Written.Relationships,
		"risks", state.Written.Risks,
		"errors", len(state.ErrorsFor(StageBuildGraph)))
	return nil
}

func (p *Pipeline) recordWrite(ctx context.Context, logger *slog.Logger, state *PipelineState, kind, element string, err error) {
	p.metrics.recordWrite(ctx, kind, err)
	if err == nil {
		return
	}
	state.RecordError(StageBuildGraph, element, err)
	logger.Warn("graph write failed", "element", element, "code", types.CodeOf(err), "error", err)
}

// checkCompliance runs the analysis queries. Failures are recorded and the
// report is produced from whatever succeeded.
func (p *Pipeline) checkCompliance(ctx context.Context, logger *slog.Logger, state *PipelineState) error {
	contradictions, err := p.store.GetContradictions(ctx)
	if err != nil {
		state.RecordError(StageCheckCompliance, "contradictions", err)
		logger.Warn("contradiction query failed", "error", err)
	} else {
		state.Contradictions = contradictions
	}

	risks, err := p.store.GetRisks(ctx, p.minSeverity)
	if err != nil {
		state.RecordError(StageCheckCompliance, "risks", err)
		logger.Warn("risk query failed", "error", err)
	} else {
		state.Risks = risks
	}

	stats, err := p.store.GetGraphStats(ctx)
	if err != nil {
		state.RecordError(StageCheckCompliance, "stats", err)
		logger.Warn("graph stats query failed", "error", err)
	} else {
		state.Stats = stats
	}

	logger.Info("compliance check complete",
		"contradictions", len(state.Contradictions),
		"risks", len(state.Risks))
	return nil
}

func (p *Pipeline) generateReport(_ context.Context, _ *slog.Logger, state *PipelineState) error {
	state.Report = RenderReport(state)
	return nil
}
