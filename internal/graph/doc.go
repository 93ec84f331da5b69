// Package graph is the access layer for the contract knowledge graph.
//
// It is built from four layers, leaves first:
//
//   - Validation: ValidateIdentifier, ValidateLabel and ValidateRelationshipType
//     guard every name that is interpolated into Cypher. Values are always
//     bound as parameters.
//   - Retry: WithRetry re-runs an operation on transient errors with
//     exponential backoff and surfaces the last error on exhaustion.
//   - Pool: a lazily initialized, shared Neo4j driver handing out one
//     session per unit of work. DefaultPool is the process-wide instance.
//   - Store: the GraphStore API (upserts, relationship merges, contradiction,
//     risk and statistics queries).
//
// # Usage
//
//	cfg := graph.DefaultClientConfig()
//	cfg.URI = "neo4j://localhost:7687"
//
//	pool := graph.NewPool(cfg)
//	defer pool.CloseAll(ctx)
//
//	store := graph.NewStore(pool)
//	if err := store.UpsertClause(ctx, contract.Clause{ID: "1", Text: "..."}); err != nil {
//	    return err
//	}
//
// MemoryStore implements the same GraphStore contract without a database,
// and TracedStore decorates any GraphStore with OpenTelemetry spans.
//
// # Errors
//
// Every error returned is a *types.AuditError:
//
//   - VALIDATION_FAILED: rejected before any session is acquired, never retried
//   - GRAPH_BUILD_FAILED: a write failed, including a missing relationship endpoint
//   - COMPLIANCE_CHECK_FAILED: an analysis query failed
//   - DATABASE_CONNECTION_FAILED: the database was unreachable after retries
package graph
