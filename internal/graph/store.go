package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// GraphStore is the read/write API over the contract graph.
//
// Writes are idempotent: nodes merge on their key and relationships merge
// on (source, target, type), overwriting properties. Relationship writes
// never create their endpoints.
type GraphStore interface {
	UpsertNode(ctx context.Context, label contract.Label, keyField, keyValue string, props map[string]any) error
	UpsertClause(ctx context.Context, clause contract.Clause) error
	UpsertEntity(ctx context.Context, entity contract.Entity) error
	UpsertRisk(ctx context.Context, risk contract.Risk) error
	CreateRelationship(ctx context.Context, rel contract.Relationship) error

	GetContradictions(ctx context.Context) ([]contract.Contradiction, error)
	GetRisks(ctx context.Context, minSeverity contract.Severity) ([]contract.Risk, error)
	GetGraphStats(ctx context.Context) (contract.GraphStats, error)

	EnsureConstraints(ctx context.Context) error
	Clear(ctx context.Context) error
	Health(ctx context.Context) types.HealthStatus
}

// Store is the Neo4j-backed GraphStore. Every operation validates its
// input, then runs one query in its own session under the retry policy.
type Store struct {
	pool   *Pool
	policy RetryPolicy
	logger *slog.Logger
}

var _ GraphStore = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(policy RetryPolicy) StoreOption {
	return func(s *Store) {
		s.policy = policy
	}
}

// WithStoreLogger sets the store logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store on top of pool.
func NewStore(pool *Pool, opts ...StoreOption) *Store {
	s := &Store{
		pool:   pool,
		policy: DefaultRetryPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run executes one query under the retry policy. classify turns raw driver
// errors into audit errors inside each attempt, so retryability is decided
// on the classified error.
func (s *Store) run(ctx context.Context, mode AccessMode, cypher string, params map[string]any,
	classify func(error) error, check func(QueryResult) error) (QueryResult, error) {
	return WithRetry(ctx, s.policy, IsTransient, func(ctx context.Context) (QueryResult, error) {
		var result QueryResult
		err := s.pool.WithSession(ctx, func(ctx context.Context, session Session) error {
			var err error
			result, err = session.Run(ctx, mode, cypher, params)
			return err
		})
		if err != nil {
			return QueryResult{}, classify(err)
		}
		if check != nil {
			if err := check(result); err != nil {
				return QueryResult{}, err
			}
		}
		return result, nil
	})
}

// UpsertNode merges a node by (label, keyValue) and overwrites the given
// properties plus updated_at.
func (s *Store) UpsertNode(ctx context.Context, label contract.Label, keyField, keyValue string, props map[string]any) error {
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

	params := map[string]any{
		"key":   keyValue,
		"props": nodeProperties(keyField, props),
	}
	_, err := s.run(ctx, AccessWrite, upsertNodeQuery(string(label), keyField), params,
		func(err error) error {
			return classifyWriteError(s.pool.URI(), string(label), keyValue,
				fmt.Sprintf("failed to upsert %s node", label), err)
		}, nil)
	if err != nil {
		return err
	}

	s.logger.Debug("upserted node", "label", label, "key", keyValue)
	return nil
}

// UpsertClause merges a Clause by id.
func (s *Store) UpsertClause(ctx context.Context, clause contract.Clause) error {
	if err := validateClause(clause); err != nil {
		return err
	}
	return s.UpsertNode(ctx, contract.LabelClause, "id", clause.ID, clauseProperties(clause))
}

// UpsertEntity merges an Entity by name.
func (s *Store) UpsertEntity(ctx context.Context, entity contract.Entity) error {
	if err := validateEntity(entity); err != nil {
		return err
	}
	return s.UpsertNode(ctx, contract.LabelEntity, "name", entity.Name, entityProperties(entity))
}

// UpsertRisk merges a Risk by id and, when ClauseID is set, links the clause
// to it with HAS_RISK. The clause must already exist.
func (s *Store) UpsertRisk(ctx context.Context, risk contract.Risk) error {
	if err := validateRisk(risk); err != nil {
		return err
	}
	if err := s.UpsertNode(ctx, contract.LabelRisk, "id", risk.ID, riskProperties(risk)); err != nil {
		return err
	}
	if risk.ClauseID == "" {
		return nil
	}
	return s.CreateRelationship(ctx, hasRisk(risk))
}

// CreateRelationship merges an edge between two existing nodes. If either
// endpoint is missing nothing is written and GRAPH_BUILD_FAILED is returned.
func (s *Store) CreateRelationship(ctx context.Context, rel contract.Relationship) error {
	if err := validateRelationship(rel); err != nil {
		return err
	}

	identity := rel.Identity()
	cypher := createRelationshipQuery(string(rel.SourceLabel), rel.SourceKey, string(rel.Type),
		string(rel.TargetLabel), rel.TargetKey)
	params := map[string]any{
		"source_value": rel.SourceValue,
		"target_value": rel.TargetValue,
		"props":        copyProperties(rel.Properties),
	}

	_, err := s.run(ctx, AccessWrite, cypher, params,
		func(err error) error {
			return classifyWriteError(s.pool.URI(), "relationship", identity,
				fmt.Sprintf("failed to create %s relationship", rel.Type), err)
		},
		func(result QueryResult) error {
			if len(result.Records) == 0 {
				return types.NewGraphBuildError("relationship", identity,
					fmt.Sprintf("endpoint not found for %s", identity), nil)
			}
			return nil
		})
	if err != nil {
		return err
	}

	s.logger.Debug("created relationship", "relationship", identity)
	return nil
}

// GetContradictions returns every CONTRADICTS edge between clauses, ordered
// by the ids of both endpoints.
func (s *Store) GetContradictions(ctx context.Context) ([]contract.Contradiction, error) {
	result, err := s.run(ctx, AccessRead, contradictionsQuery, nil, s.readClassifier("contradictions"), nil)
	if err != nil {
		return nil, err
	}

	out := make([]contract.Contradiction, 0, len(result.Records))
	for _, rec := range result.Records {
		out = append(out, contract.Contradiction{
			ClauseA: contract.ClauseRef{
				ID:    stringValue(rec, "a_id"),
				Text:  stringValue(rec, "a_text"),
				Topic: stringValue(rec, "a_topic"),
			},
			ClauseB: contract.ClauseRef{
				ID:    stringValue(rec, "b_id"),
				Text:  stringValue(rec, "b_text"),
				Topic: stringValue(rec, "b_topic"),
			},
			Reason: stringValue(rec, "reason"),
		})
	}
	return out, nil
}

// GetRisks returns risks at or above minSeverity, most severe first. An
// empty minSeverity returns every risk.
func (s *Store) GetRisks(ctx context.Context, minSeverity contract.Severity) ([]contract.Risk, error) {
	if minSeverity != "" && !minSeverity.IsValid() {
		return nil, types.NewValidationError("min_severity", string(minSeverity),
			fmt.Sprintf("invalid severity %q: must be one of low, medium, high, critical", minSeverity))
	}

	severities := make([]string, 0, len(contract.Severities))
	for _, sev := range contract.AtLeastSet(minSeverity) {
		severities = append(severities, string(sev))
	}

	result, err := s.run(ctx, AccessRead, risksQuery, map[string]any{"severities": severities},
		s.readClassifier("risks"), nil)
	if err != nil {
		return nil, err
	}

	out := make([]contract.Risk, 0, len(result.Records))
	for _, rec := range result.Records {
		out = append(out, contract.Risk{
			ID:             stringValue(rec, "id"),
			Severity:       contract.Severity(stringValue(rec, "severity")),
			Description:    stringValue(rec, "description"),
			Recommendation: stringValue(rec, "recommendation"),
			ClauseID:       stringValue(rec, "clause_id"),
			ClauseTopic:    stringValue(rec, "clause_topic"),
		})
	}
	return out, nil
}

// GetGraphStats counts nodes by label and relationships by type. Labels and
// types with no members are absent from the maps.
func (s *Store) GetGraphStats(ctx context.Context) (contract.GraphStats, error) {
	stats := contract.GraphStats{
		NodesByLabel:        map[string]int64{},
		RelationshipsByType: map[string]int64{},
	}

	nodes, err := s.run(ctx, AccessRead, nodeCountsQuery, nil, s.readClassifier("node counts"), nil)
	if err != nil {
		return stats, err
	}
	for _, rec := range nodes.Records {
		stats.NodesByLabel[stringValue(rec, "label")] = int64Value(rec, "count")
	}

	rels, err := s.run(ctx, AccessRead, relationshipCountsQuery, nil, s.readClassifier("relationship counts"), nil)
	if err != nil {
		return stats, err
	}
	for _, rec := range rels.Records {
		stats.RelationshipsByType[stringValue(rec, "type")] = int64Value(rec, "count")
	}
	return stats, nil
}

// EnsureConstraints creates the uniqueness constraints on Clause.id,
// Entity.name and Risk.id if they do not exist.
func (s *Store) EnsureConstraints(ctx context.Context) error {
	for _, cypher := range constraintQueries {
		_, err := s.run(ctx, AccessWrite, cypher, nil, func(err error) error {
			return classifyWriteError(s.pool.URI(), "constraint", "", "failed to create constraint", err)
		}, nil)
		if err != nil {
			return err
		}
	}
	return nil
}

// Clear deletes every node and relationship.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.run(ctx, AccessWrite, clearQuery, nil, func(err error) error {
		return classifyWriteError(s.pool.URI(), "", "", "failed to clear graph", err)
	}, nil)
	if err != nil {
		return err
	}
	s.logger.Info("graph cleared")
	return nil
}

// Health reports database reachability without retry.
func (s *Store) Health(ctx context.Context) types.HealthStatus {
	return s.pool.Health(ctx)
}

func (s *Store) readClassifier(query string) func(error) error {
	return func(err error) error {
		return classifyReadError(s.pool.URI(), query, err)
	}
}

func hasRisk(risk contract.Risk) contract.Relationship {
	return contract.Relationship{
		SourceLabel: contract.LabelClause,
		SourceKey:   "id",
		SourceValue: risk.ClauseID,
		TargetLabel: contract.LabelRisk,
		TargetKey:   "id",
		TargetValue: risk.ID,
		Type:        contract.RelHasRisk,
	}
}

// The typed property builders always emit every optional key. An empty
// optional is sent as nil, which SET n += $props removes, so a repeated
// upsert leaves exactly the second call's properties.
func clauseProperties(c contract.Clause) map[string]any {
	props := map[string]any{
		"text":           c.Text,
		"topic":          c.Topic,
		"section_number": optionalString(c.SectionNumber),
		"page_number":    nil,
	}
	if c.PageNumber > 0 {
		props["page_number"] = int64(c.PageNumber)
	}
	return props
}

func entityProperties(e contract.Entity) map[string]any {
	return map[string]any{
		"type":        e.Type,
		"description": optionalString(e.Description),
	}
}

func riskProperties(r contract.Risk) map[string]any {
	return map[string]any{
		"severity":       string(r.Severity),
		"description":    r.Description,
		"recommendation": optionalString(r.Recommendation),
	}
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nodeProperties copies props without the key field, which the MERGE pattern
// already sets, and without updated_at, which the store owns.
func nodeProperties(keyField string, props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k == keyField || k == "updated_at" {
			continue
		}
		out[k] = v
	}
	return out
}

func copyProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k == "updated_at" {
			continue
		}
		out[k] = v
	}
	return out
}

func stringValue(rec map[string]any, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func int64Value(rec map[string]any, key string) int64 {
	switch v := rec[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
