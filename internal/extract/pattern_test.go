package extract

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/audit"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/graph"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

func loadContract(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/contract.txt")
	require.NoError(t, err)
	return string(data)
}

func TestPatternExtractor_SampleContract(t *testing.T) {
	out, err := NewPatternExtractor().Extract(context.Background(), loadContract(t))
	require.NoError(t, err)

	require.Len(t, out.Clauses, 4)
	topics := make([]string, len(out.Clauses))
	for i, c := range out.Clauses {
		topics[i] = c.Topic
		assert.Equal(t, string(rune('1'+i)), c.ID)
	}
	assert.Equal(t, []string{"Indemnification", "Liability", "Confidentiality", "Termination"}, topics)
	assert.Equal(t, "5", out.Clauses[3].SectionNumber, "payment section has no topic and is skipped")

	assert.Equal(t, []contract.Entity{
		{Name: "Developer", Type: PartyType},
		{Name: "Client", Type: PartyType},
	}, out.Entities)

	assert.Contains(t, out.Relationships, contract.PartyTo("Developer", "1"))
	assert.Contains(t, out.Relationships, contract.Obligation("1", "Client"))
	assert.Contains(t, out.Relationships, contract.Obligation("3", "Client"))
	assert.NotContains(t, out.Relationships, contract.PartyTo("Client", "2"))
	assert.Contains(t, out.Relationships, contract.ClauseLink("3", "4", contract.RelReferences, nil))

	var contradictions []contract.Relationship
	for _, r := range out.Relationships {
		if r.Type == contract.RelContradicts {
			contradictions = append(contradictions, r)
		}
	}
	require.Len(t, contradictions, 1)
	assert.Equal(t, "1", contradictions[0].SourceValue)
	assert.Equal(t, "2", contradictions[0].TargetValue)
	assert.Contains(t, contradictions[0].Reason(), "unlimited indemnification")

	require.Len(t, out.Risks, 1)
	assert.Equal(t, "risk-1-2", out.Risks[0].ID)
	assert.Equal(t, contract.SeverityCritical, out.Risks[0].Severity)
	assert.Equal(t, "1", out.Risks[0].ClauseID)
}

func TestPatternExtractor_Deterministic(t *testing.T) {
	text := loadContract(t)
	first, err := NewPatternExtractor().Extract(context.Background(), text)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := NewPatternExtractor().Extract(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPatternExtractor_NoContradictionWithoutCap(t *testing.T) {
	text := `1. Indemnification. The Vendor shall indemnify the Customer without limit.

2. Limitation of Liability. Neither party excludes liability for fraud.`

	out, err := NewPatternExtractor().Extract(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, out.Clauses, 2)
	assert.Empty(t, out.Risks)
	for _, r := range out.Relationships {
		assert.NotEqual(t, contract.RelContradicts, r.Type)
	}
}

func TestPatternExtractor_EmptyText(t *testing.T) {
	_, err := NewPatternExtractor().Extract(context.Background(), " \n ")
	assert.Equal(t, types.EXTRACTION_FAILED, types.CodeOf(err))
}

func TestPatternExtractor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPatternExtractor().Extract(ctx, "1. Termination. Either side may terminate.")
	assert.Equal(t, types.EXTRACTION_FAILED, types.CodeOf(err))
}

func TestSplitSections(t *testing.T) {
	sections := splitSections("Preamble\n1. First\n  2. Second\n3. \n")
	require.Len(t, sections, 3)
	assert.Equal(t, section{text: "Preamble"}, sections[0])
	assert.Equal(t, section{number: "1", text: "First"}, sections[1])
	assert.Equal(t, section{number: "2", text: "Second"}, sections[2])

	assert.Equal(t, []section{{text: "no headings"}}, splitSections("  no headings "))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"The Supplier shall indemnify the Buyer.", "Indemnification"},
		{"Limitation of Liability. Total liability, including indemnification claims, is capped.", "Liability"},
		{"Each party keeps the terms confidential.", "Confidentiality"},
		{"This agreement may be terminated for convenience.", "Termination"},
		{"All intellectual property remains with the Licensor.", "IP Rights"},
		{"Payment is due in 30 days.", ""},
	}
	for _, tt := range tests {
		got, ok := classify(tt.text)
		assert.Equal(t, tt.want != "", ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestMentions(t *testing.T) {
	assert.True(t, mentions("the client shall pay", "client"))
	assert.True(t, mentions("client.", "client"))
	assert.False(t, mentions("the clientele is large", "client"))
	assert.False(t, mentions("subclient rules", "client"))
}

func TestPatternExtractor_DrivesPipeline(t *testing.T) {
	store := graph.NewMemoryStore()
	state := audit.New(NewPatternExtractor(), store).Run(context.Background(), loadContract(t))

	require.Empty(t, state.Errors)
	assert.Equal(t, audit.StageDone, state.Current)
	require.Len(t, state.Contradictions, 1)
	assert.Equal(t, "1", state.Contradictions[0].ClauseA.ID)
	assert.Equal(t, "2", state.Contradictions[0].ClauseB.ID)
	require.Len(t, state.Risks, 1)
	assert.Equal(t, "Indemnification", state.Risks[0].ClauseTopic)

	assert.Equal(t, int64(4), state.Stats.NodesByLabel["Clause"])
	assert.Equal(t, int64(2), state.Stats.NodesByLabel["Entity"])
	assert.Equal(t, int64(1), state.Stats.NodesByLabel["Risk"])
	assert.Equal(t, int64(1), state.Stats.RelationshipsByType["HAS_RISK"])
	assert.Equal(t, int64(1), state.Stats.RelationshipsByType["REFERENCES"])
	assert.True(t, strings.Contains(state.Report, "**CRITICAL** risk-1-2"))
}
