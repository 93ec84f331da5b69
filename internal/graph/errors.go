package graph

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// Neo4j status codes that are safe to retry even though the server does not
// classify them as transient. Every Neo.TransientError.* code is retried.
var retryableNeo4jCodes = map[string]bool{
	"Neo.ClientError.Cluster.NotALeader":                  true,
	"Neo.ClientError.General.ForbiddenOnReadOnlyDatabase": true,
	"Neo.ClientError.Transaction.LockAcquisitionTimeout":  true,
}

// IsTransient reports whether err is worth retrying: connection resets,
// leader switches, deadlocks and errors explicitly marked retryable.
// Validation failures and constraint violations are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var auditErr *types.AuditError
	if errors.As(err, &auditErr) {
		return auditErr.Retryable
	}
	return isTransientDriverError(err)
}

func isTransientDriverError(err error) bool {
	if neo4j.IsConnectivityError(err) {
		return true
	}
	var connErr *neo4j.ConnectivityError
	if errors.As(err, &connErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		if retryableNeo4jCodes[neoErr.Code] {
			return true
		}
		return strings.HasPrefix(neoErr.Code, "Neo.TransientError.")
	}
	return false
}

// isConstraintViolation reports whether err is a uniqueness or existence
// constraint failure.
func isConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return strings.HasPrefix(neoErr.Code, "Neo.ClientError.Schema.Constraint")
	}
	return false
}

// classifyWriteError converts a raw driver error from a write into the
// taxonomy. Transient failures stay retryable as DATABASE_CONNECTION_FAILED
// so exhaustion surfaces the connection kind; anything else is a build
// failure for the given element.
func classifyWriteError(uri, nodeType, nodeID, message string, err error) error {
	var auditErr *types.AuditError
	if errors.As(err, &auditErr) {
		return err
	}
	if isTransientDriverError(err) {
		return types.NewDatabaseConnectionError(uri, err)
	}
	built := types.NewGraphBuildError(nodeType, nodeID, message, err)
	if isConstraintViolation(err) {
		built.WithDetail("constraint_violation", true)
	}
	return built
}

// classifyReadError is classifyWriteError for analysis queries.
func classifyReadError(uri, query string, err error) error {
	var auditErr *types.AuditError
	if errors.As(err, &auditErr) {
		return err
	}
	if isTransientDriverError(err) {
		return types.NewDatabaseConnectionError(uri, err)
	}
	return types.NewComplianceCheckError(query, err)
}
