package audit

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

func TestRenderReport_Empty(t *testing.T) {
	state := NewPipelineState("text", fixedTime)
	report := RenderReport(state)

	assert.True(t, strings.HasPrefix(report, "# Contract Compliance Report\n"))
	assert.Contains(t, report, "- **Started:** 2026-03-01T12:00:00Z")
	assert.Contains(t, report, "## Contradictions Detected\n\nNo contradictions found.\n")
	assert.Contains(t, report, "## Risk Summary\n\nNo risks found.\n")
	assert.NotContains(t, report, "## Errors")
	assert.Contains(t, report, "## No Critical Issues Found\n")
	assert.NotContains(t, report, "## Recommendations")
	assert.True(t, strings.HasSuffix(report, "consult qualified legal counsel.*\n"))
}

func TestRenderReport_IsDeterministic(t *testing.T) {
	state := NewPipelineState("text", fixedTime)
	state.Stats = contract.GraphStats{
		NodesByLabel:        map[string]int64{"Risk": 1, "Clause": 2, "Entity": 1},
		RelationshipsByType: map[string]int64{"PARTY_TO": 1, "CONTRADICTS": 1},
	}
	state.Risks = []contract.Risk{
		{ID: "r1", Severity: contract.SeverityCritical, Description: "d", Recommendation: "cap it", ClauseID: "1", ClauseTopic: "Indemnification"},
		{ID: "r2", Severity: contract.SeverityLow, Description: "minor"},
	}

	first := RenderReport(state)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, RenderReport(state))
	}
	assert.Contains(t, first, "- **Graph nodes:** Clause=2, Entity=1, Risk=1\n")
	assert.Contains(t, first, "- **Graph relationships:** CONTRADICTS=1, PARTY_TO=1\n")
	assert.Contains(t, first, "2 risk(s): 1 critical, 1 low\n")
	assert.Contains(t, first, "- **CRITICAL** r1: d (Clause 1 (Indemnification)). Recommendation: cap it\n")
	assert.Contains(t, first, "- **LOW** r2: minor\n")
	assert.Contains(t, first, "## Recommendations\n\n1. **Immediate legal review**")
	assert.Contains(t, first, "3. **Add precedence language**")
	assert.NotContains(t, first, "## No Critical Issues Found")
}

func TestRenderReport_ContradictionExcerpts(t *testing.T) {
	long := strings.Repeat("word ", 40)
	state := NewPipelineState("text", fixedTime)
	state.Contradictions = []contract.Contradiction{{
		ClauseA: contract.ClauseRef{ID: "1", Text: "The Supplier shall\n\tindemnify   without limit.", Topic: "Indemnification"},
		ClauseB: contract.ClauseRef{ID: "2", Text: long},
		Reason:  "",
	}}

	bullets := contradictionBullets(RenderReport(state))
	assert.Len(t, bullets, 1)
	assert.Contains(t, bullets[0], `**Clause 1** (Indemnification) "The Supplier shall indemnify without limit."`)
	assert.Contains(t, bullets[0], `..."`)
	assert.Contains(t, bullets[0], "Reason: no reason given")
	assert.NotContains(t, bullets[0], "\t")
}

func TestRenderReport_ErrorsVerbatim(t *testing.T) {
	state := NewPipelineState("text", fixedTime)
	state.RecordError(StageBuildGraph, "Clause:7", types.NewGraphBuildError("Clause", "7", "failed to upsert Clause node", errors.New("boom")))
	state.RecordError(StageCheckCompliance, "risks", types.NewComplianceCheckError("risks", errors.New("timeout")))

	report := RenderReport(state)
	assert.Contains(t, report, "## Errors\n\n")
	assert.Contains(t, report, "- [BUILD_GRAPH] Clause:7: [GRAPH_BUILD_FAILED] failed to upsert Clause node: boom\n")
	assert.Contains(t, report, "- [CHECK_COMPLIANCE] risks: [COMPLIANCE_CHECK_FAILED] risks query failed: timeout\n")
	assert.Less(t, strings.Index(report, "## Errors"), strings.Index(report, "\n---\n"), "footer comes last")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short"))
	assert.Equal(t, "a b", excerpt("  a \n b "))

	runes := strings.Repeat("é", excerptLength+5)
	got := excerpt(runes)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, excerptLength+3, len([]rune(got)))
}

func TestPipelineState(t *testing.T) {
	state := NewPipelineState("text", fixedTime)
	assert.NotEmpty(t, state.RunID)
	assert.Equal(t, StageExtract, state.Current)
	assert.False(t, state.HasErrors())
	assert.Len(t, state.Completed, len(Stages))
	assert.Zero(t, state.Duration())

	state.RecordError(StageExtract, "", types.NewExtractionError("bad", "", nil))
	assert.True(t, state.HasErrors())
	assert.Len(t, state.ErrorsFor(StageExtract), 1)
	assert.Empty(t, state.ErrorsFor(StageBuildGraph))
	assert.Equal(t, "[EXTRACT] [EXTRACTION_FAILED] bad", state.Errors[0].String())

	assert.True(t, StageDone.IsTerminal())
	assert.True(t, StageFailed.IsTerminal())
	assert.False(t, StageBuildGraph.IsTerminal())
}
