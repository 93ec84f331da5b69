package audit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
)

const excerptLength = 100

// RenderReport renders state as markdown. The output depends only on
// state, so the same state always renders the same report.
func RenderReport(state *PipelineState) string {
	var b strings.Builder

	b.WriteString("# Contract Compliance Report\n\n")
	fmt.Fprintf(&b, "- **Run ID:** %s\n", state.RunID)
	fmt.Fprintf(&b, "- **Started:** %s\n", state.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Clauses extracted:** %d\n", len(state.Clauses))
	fmt.Fprintf(&b, "- **Entities extracted:** %d\n", len(state.Entities))
	fmt.Fprintf(&b, "- **Relationships extracted:** %d\n", len(state.Relationships))
	if len(state.Stats.NodesByLabel) > 0 || len(state.Stats.RelationshipsByType) > 0 {
		fmt.Fprintf(&b, "- **Graph nodes:** %s\n", formatCounts(state.Stats.NodesByLabel))
		fmt.Fprintf(&b, "- **Graph relationships:** %s\n", formatCounts(state.Stats.RelationshipsByType))
	}

	b.WriteString("\n## Contradictions Detected\n\n")
	if len(state.Contradictions) == 0 {
		b.WriteString("No contradictions found.\n")
	}
	for _, c := range state.Contradictions {
		fmt.Fprintf(&b, "- **Clause %s**%s \"%s\" contradicts **Clause %s**%s \"%s\". Reason: %s\n",
			c.ClauseA.ID, topicSuffix(c.ClauseA.Topic), excerpt(c.ClauseA.Text),
			c.ClauseB.ID, topicSuffix(c.ClauseB.Topic), excerpt(c.ClauseB.Text),
			reasonOrDefault(c.Reason))
	}

	b.WriteString("\n## Risk Summary\n\n")
	if len(state.Risks) == 0 {
		b.WriteString("No risks found.\n")
	} else {
		fmt.Fprintf(&b, "%d risk(s): %s\n\n", len(state.Risks), severityBreakdown(state.Risks))
	}
	for _, r := range state.Risks {
		fmt.Fprintf(&b, "- **%s** %s: %s", strings.ToUpper(string(r.Severity)), r.ID, oneLine(r.Description))
		if r.ClauseID != "" {
			fmt.Fprintf(&b, " (Clause %s%s)", r.ClauseID, topicSuffix(r.ClauseTopic))
		}
		if r.Recommendation != "" {
			fmt.Fprintf(&b, ". Recommendation: %s", oneLine(r.Recommendation))
		}
		b.WriteString("\n")
	}

	if hasCriticalIssues(state) {
		b.WriteString("\n## Recommendations\n\n")
		for i, rec := range recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
	} else {
		b.WriteString("\n## No Critical Issues Found\n\n")
		b.WriteString("No contradicting clauses or critical risks were identified. ")
		b.WriteString("Automated analysis may miss issues; review important contracts manually.\n")
	}

	if len(state.Errors) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, e := range state.Errors {
			fmt.Fprintf(&b, "- %s\n", e.String())
		}
	}

	b.WriteString("\n---\n\n")
	b.WriteString("*Generated by clausegraph. For complex legal matters, consult qualified legal counsel.*\n")

	return b.String()
}

var recommendations = []string{
	"**Immediate legal review**: critical contradictions require expert analysis.",
	"**Reconcile conflicting terms**: clarify which clause takes precedence.",
	"**Add precedence language**: include a clause specifying the order of precedence.",
	"**Clarify scope**: define clear boundaries for indemnification obligations.",
}

func hasCriticalIssues(state *PipelineState) bool {
	if len(state.Contradictions) > 0 {
		return true
	}
	for _, r := range state.Risks {
		if r.Severity == contract.SeverityCritical {
			return true
		}
	}
	return false
}

// excerpt collapses whitespace and truncates to excerptLength runes.
func excerpt(text string) string {
	text = oneLine(text)
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}
	return strings.TrimSpace(string(runes[:excerptLength])) + "..."
}

func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func topicSuffix(topic string) string {
	if topic == "" {
		return ""
	}
	return " (" + topic + ")"
}

func reasonOrDefault(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return "no reason given"
	}
	return oneLine(reason)
}

// severityBreakdown lists counts from critical down to low, skipping zeros.
func severityBreakdown(risks []contract.Risk) string {
	counts := make(map[contract.Severity]int)
	for _, r := range risks {
		counts[r.Severity]++
	}
	parts := make([]string, 0, len(contract.Severities))
	for i := len(contract.Severities) - 1; i >= 0; i-- {
		sev := contract.Severities[i]
		if counts[sev] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[sev], sev))
		}
	}
	return strings.Join(parts, ", ")
}

func formatCounts(counts map[string]int64) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
