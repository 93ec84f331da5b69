package graph

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// MemoryStore is an in-process GraphStore with the same validation and
// merge semantics as Store. It backs the CLI's --memory mode and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int
	nodes  map[int]*memNode
	edges  map[memEdgeKey]map[string]any
	now    func() time.Time
}

type memNode struct {
	id    int
	label contract.Label
	props map[string]any
}

type memEdgeKey struct {
	src     int
	dst     int
	relType contract.RelationshipType
}

var _ GraphStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory graph.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[int]*memNode),
		edges: make(map[memEdgeKey]map[string]any),
		now:   time.Now,
	}
}

// find returns the first node with label whose key property equals value.
// Callers hold the lock.
func (m *MemoryStore) find(label contract.Label, keyField, value string) *memNode {
	for _, n := range m.nodes {
		if n.label != label {
			continue
		}
		if v, ok := n.props[keyField].(string); ok && v == value {
			return n
		}
	}
	return nil
}

func (m *MemoryStore) UpsertNode(_ context.Context, label contract.Label, keyField, keyValue string, props map[string]any) error {
	if _, err := ValidateLabel(string(label)); err != nil {
		return err
	}
	if _, err := ValidateIdentifier(keyField, "key_field"); err != nil {
		return err
	}
	if strings.TrimSpace(keyValue) == "" {
		return types.NewValidationError("key_value", "", fmt.Sprintf("%s %s must not be empty", label, keyField))
	}
	if err := validateProperties(props); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	node := m.find(label, keyField, keyValue)
	if node == nil {
		m.nextID++
		node = &memNode{id: m.nextID, label: label, props: map[string]any{keyField: keyValue}}
		m.nodes[node.id] = node
	}
	for k, v := range nodeProperties(keyField, props) {
		if v == nil {
			delete(node.props, k)
			continue
		}
		node.props[k] = v
	}
	node.props["updated_at"] = m.now()
	return nil
}

func (m *MemoryStore) UpsertClause(ctx context.Context, clause contract.Clause) error {
	if err := validateClause(clause); err != nil {
		return err
	}
	return m.UpsertNode(ctx, contract.LabelClause, "id", clause.ID, clauseProperties(clause))
}

func (m *MemoryStore) UpsertEntity(ctx context.Context, entity contract.Entity) error {
	if err := validateEntity(entity); err != nil {
		return err
	}
	return m.UpsertNode(ctx, contract.LabelEntity, "name", entity.Name, entityProperties(entity))
}

func (m *MemoryStore) UpsertRisk(ctx context.Context, risk contract.Risk) error {
	if err := validateRisk(risk); err != nil {
		return err
	}
	if err := m.UpsertNode(ctx, contract.LabelRisk, "id", risk.ID, riskProperties(risk)); err != nil {
		return err
	}
	if risk.ClauseID == "" {
		return nil
	}
	return m.CreateRelationship(ctx, hasRisk(risk))
}

func (m *MemoryStore) CreateRelationship(_ context.Context, rel contract.Relationship) error {
	if err := validateRelationship(rel); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.find(rel.SourceLabel, rel.SourceKey, rel.SourceValue)
	dst := m.find(rel.TargetLabel, rel.TargetKey, rel.TargetValue)
	if src == nil || dst == nil {
		identity := rel.Identity()
		return types.NewGraphBuildError("relationship", identity,
			fmt.Sprintf("endpoint not found for %s", identity), nil)
	}

	key := memEdgeKey{src: src.id, dst: dst.id, relType: rel.Type}
	props, ok := m.edges[key]
	if !ok {
		props = make(map[string]any)
		m.edges[key] = props
	}
	maps.Copy(props, copyProperties(rel.Properties))
	props["updated_at"] = m.now()
	return nil
}

func (m *MemoryStore) GetContradictions(_ context.Context) ([]contract.Contradiction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []contract.Contradiction
	for key, props := range m.edges {
		if key.relType != contract.RelContradicts {
			continue
		}
		a, b := m.nodes[key.src], m.nodes[key.dst]
		if a.label != contract.LabelClause || b.label != contract.LabelClause {
			continue
		}
		reason, _ := props["reason"].(string)
		out = append(out, contract.Contradiction{
			ClauseA: clauseRef(a),
			ClauseB: clauseRef(b),
			Reason:  reason,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ClauseA.ID != out[j].ClauseA.ID {
			return out[i].ClauseA.ID < out[j].ClauseA.ID
		}
		return out[i].ClauseB.ID < out[j].ClauseB.ID
	})
	return out, nil
}

func (m *MemoryStore) GetRisks(_ context.Context, minSeverity contract.Severity) ([]contract.Risk, error) {
	if minSeverity != "" && !minSeverity.IsValid() {
		return nil, types.NewValidationError("min_severity", string(minSeverity),
			fmt.Sprintf("invalid severity %q: must be one of low, medium, high, critical", minSeverity))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []contract.Risk
	for _, n := range m.nodes {
		if n.label != contract.LabelRisk {
			continue
		}
		sev := contract.Severity(propString(n.props, "severity"))
		if !sev.IsValid() || !sev.AtLeast(minSeverity) {
			continue
		}
		risk := contract.Risk{
			ID:             propString(n.props, "id"),
			Severity:       sev,
			Description:    propString(n.props, "description"),
			Recommendation: propString(n.props, "recommendation"),
		}
		if clause := m.riskClause(n.id); clause != nil {
			risk.ClauseID = propString(clause.props, "id")
			risk.ClauseTopic = propString(clause.props, "topic")
		}
		out = append(out, risk)
	}

	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// riskClause returns the clause with the lowest id that has a HAS_RISK edge
// to the risk node.
func (m *MemoryStore) riskClause(riskID int) *memNode {
	var found *memNode
	for key := range m.edges {
		if key.relType != contract.RelHasRisk || key.dst != riskID {
			continue
		}
		n := m.nodes[key.src]
		if n.label != contract.LabelClause {
			continue
		}
		if found == nil || propString(n.props, "id") < propString(found.props, "id") {
			found = n
		}
	}
	return found
}

func (m *MemoryStore) GetGraphStats(_ context.Context) (contract.GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := contract.GraphStats{
		NodesByLabel:        map[string]int64{},
		RelationshipsByType: map[string]int64{},
	}
	for _, n := range m.nodes {
		stats.NodesByLabel[string(n.label)]++
	}
	for key := range m.edges {
		stats.RelationshipsByType[string(key.relType)]++
	}
	return stats, nil
}

// EnsureConstraints is a no-op; uniqueness is inherent to the merge logic.
func (m *MemoryStore) EnsureConstraints(context.Context) error {
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[int]*memNode)
	m.edges = make(map[memEdgeKey]map[string]any)
	return nil
}

func (m *MemoryStore) Health(context.Context) types.HealthStatus {
	status := types.Healthy("in-memory graph")
	status.URI = "memory://"
	return status
}

func clauseRef(n *memNode) contract.ClauseRef {
	return contract.ClauseRef{
		ID:    propString(n.props, "id"),
		Text:  propString(n.props, "text"),
		Topic: propString(n.props, "topic"),
	}
}

func propString(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}
