// Package contract defines the values that make up a contract knowledge
// graph: clauses, entities, risks and the typed relationships between them.
//
// These values are persisted entirely inside the graph database. After a
// write succeeds the process keeps no authoritative copy; reads are queries.
package contract

import (
	"fmt"
	"strings"
	"time"
)

// Label is a node label in the contract graph.
type Label string

const (
	LabelClause Label = "Clause"
	LabelEntity Label = "Entity"
	LabelRisk   Label = "Risk"
)

// Labels lists every valid node label.
var Labels = []Label{LabelClause, LabelEntity, LabelRisk}

// String returns the string representation of Label
func (l Label) String() string {
	return string(l)
}

// IsValid reports whether l is one of the known labels.
func (l Label) IsValid() bool {
	switch l {
	case LabelClause, LabelEntity, LabelRisk:
		return true
	default:
		return false
	}
}

// KeyField returns the uniqueness key property for nodes with this label.
func (l Label) KeyField() string {
	if l == LabelEntity {
		return "name"
	}
	return "id"
}

// RelationshipType is a directed edge type in the contract graph.
type RelationshipType string

const (
	RelContradicts RelationshipType = "CONTRADICTS"
	RelObligates   RelationshipType = "OBLIGATES"
	RelHasRisk     RelationshipType = "HAS_RISK"
	RelReferences  RelationshipType = "REFERENCES"
	RelPartyTo     RelationshipType = "PARTY_TO"
)

// RelationshipTypes lists every valid relationship type.
var RelationshipTypes = []RelationshipType{RelContradicts, RelObligates, RelHasRisk, RelReferences, RelPartyTo}

// String returns the string representation of RelationshipType
func (t RelationshipType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the known relationship types.
func (t RelationshipType) IsValid() bool {
	switch t {
	case RelContradicts, RelObligates, RelHasRisk, RelReferences, RelPartyTo:
		return true
	default:
		return false
	}
}

// Severity is the severity of a risk. Severities are totally ordered:
// low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity from lowest to highest.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Rank returns the ordinal of s, 1 for low through 4 for critical, and 0
// for an unknown severity.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// AtLeast reports whether s meets the threshold min. An empty min is no
// threshold at all.
func (s Severity) AtLeast(min Severity) bool {
	if min == "" {
		return true
	}
	return s.Rank() >= min.Rank()
}

// AtLeastSet returns every severity that meets the threshold min.
func AtLeastSet(min Severity) []Severity {
	out := make([]Severity, 0, len(Severities))
	for _, s := range Severities {
		if s.AtLeast(min) {
			out = append(out, s)
		}
	}
	return out
}

// ParseSeverity parses a case-insensitive severity name.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("invalid severity %q: must be one of low, medium, high, critical", s)
	}
	return sev, nil
}

// Clause is a discrete contractual provision.
type Clause struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Topic         string    `json:"topic"`
	SectionNumber string    `json:"section_number,omitempty"`
	PageNumber    int       `json:"page_number,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Entity is a named party or organisation mentioned by the contract.
type Entity struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Risk is a compliance risk. ClauseID, when set, links the risk to the
// clause it was raised against with a HAS_RISK edge.
type Risk struct {
	ID             string    `json:"id"`
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	Recommendation string    `json:"recommendation,omitempty"`
	ClauseID       string    `json:"clause_id,omitempty"`
	ClauseTopic    string    `json:"clause_topic,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// Relationship is a directed edge between two existing nodes, each
// addressed by label and a key property.
type Relationship struct {
	SourceLabel Label            `json:"source_label"`
	SourceKey   string           `json:"source_key"`
	SourceValue string           `json:"source_value"`
	TargetLabel Label            `json:"target_label"`
	TargetKey   string           `json:"target_key"`
	TargetValue string           `json:"target_value"`
	Type        RelationshipType `json:"type"`
	Properties  map[string]any   `json:"properties,omitempty"`
}

// Identity renders the relationship as a compact pattern, used to tag
// errors with the element that caused them.
func (r Relationship) Identity() string {
	return fmt.Sprintf("(%s:%s)-[%s]->(%s:%s)",
		r.SourceLabel, r.SourceValue, r.Type, r.TargetLabel, r.TargetValue)
}

// Reason returns the "reason" property, if any.
func (r Relationship) Reason() string {
	reason, _ := r.Properties["reason"].(string)
	return reason
}

// ClauseLink builds a relationship between two clauses keyed by id.
func ClauseLink(sourceID, targetID string, relType RelationshipType, props map[string]any) Relationship {
	return Relationship{
		SourceLabel: LabelClause,
		SourceKey:   "id",
		SourceValue: sourceID,
		TargetLabel: LabelClause,
		TargetKey:   "id",
		TargetValue: targetID,
		Type:        relType,
		Properties:  props,
	}
}

// Obligation builds a clause OBLIGATES entity relationship.
func Obligation(clauseID, entityName string) Relationship {
	return Relationship{
		SourceLabel: LabelClause,
		SourceKey:   "id",
		SourceValue: clauseID,
		TargetLabel: LabelEntity,
		TargetKey:   "name",
		TargetValue: entityName,
		Type:        RelObligates,
	}
}

// PartyTo builds an entity PARTY_TO clause relationship.
func PartyTo(entityName, clauseID string) Relationship {
	return Relationship{
		SourceLabel: LabelEntity,
		SourceKey:   "name",
		SourceValue: entityName,
		TargetLabel: LabelClause,
		TargetKey:   "id",
		TargetValue: clauseID,
		Type:        RelPartyTo,
	}
}

// ClauseRef is the part of a clause returned by analysis queries.
type ClauseRef struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Topic string `json:"topic,omitempty"`
}

// Contradiction is a CONTRADICTS edge between two clauses.
type Contradiction struct {
	ClauseA ClauseRef `json:"clause_a"`
	ClauseB ClauseRef `json:"clause_b"`
	Reason  string    `json:"reason"`
}

// GraphStats counts nodes by label and relationships by type.
type GraphStats struct {
	NodesByLabel        map[string]int64 `json:"node_count_by_label"`
	RelationshipsByType map[string]int64 `json:"relationship_count_by_type"`
}

// Extraction is what an extractor produces from contract text.
type Extraction struct {
	Clauses       []Clause       `json:"clauses"`
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	Risks         []Risk         `json:"risks,omitempty"`
}
