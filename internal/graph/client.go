package graph

import (
	"context"
	"net/url"
	"time"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// AccessMode selects a read or write transaction.
type AccessMode int

const (
	AccessRead AccessMode = iota
	AccessWrite
)

// String returns the string representation of AccessMode
func (m AccessMode) String() string {
	if m == AccessWrite {
		return "write"
	}
	return "read"
}

// Session is a lightweight handle scoped to one logical unit of work.
// A session is never shared between concurrent operations.
type Session interface {
	// Run executes cypher with bound params inside one managed transaction.
	Run(ctx context.Context, mode AccessMode, cypher string, params map[string]any) (QueryResult, error)

	// Close releases the session. Safe to call more than once.
	Close(ctx context.Context) error
}

// Driver is the long-lived, expensive connection owned by a Pool.
// Implementations must be safe for concurrent NewSession calls.
type Driver interface {
	NewSession(ctx context.Context) Session
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// DriverFactory creates a Driver from configuration.
type DriverFactory func(ctx context.Context, cfg ClientConfig) (Driver, error)

// QueryResult represents the result of a Cypher query execution.
type QueryResult struct {
	// Records contains the result rows as maps of column name to value.
	Records []map[string]any

	// Columns contains the names of the columns in the result set.
	Columns []string

	// Summary contains metadata about the query execution.
	Summary QuerySummary
}

// QuerySummary provides metadata about query execution.
type QuerySummary struct {
	ExecutionTime        time.Duration
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
}

// ClientConfig contains the connection settings consumed by the Pool at
// first acquisition.
type ClientConfig struct {
	// URI is the connection URI for the graph database.
	//   - "bolt://host:port" for unencrypted connections
	//   - "bolt+s://host:port" for TLS encrypted connections
	//   - "bolt+ssc://host:port" for TLS with self-signed certificates
	//   - "neo4j://", "neo4j+s://" or "neo4j+ssc://" for routing
	URI string

	Username string
	Password string

	// Database name to connect to. Empty string uses the default database.
	Database string

	// MaxConnectionPoolSize limits the number of connections in the pool.
	// Zero or negative values use the driver default.
	MaxConnectionPoolSize int

	// ConnectionTimeout is the maximum time to wait for a connection.
	ConnectionTimeout time.Duration

	// MaxTransactionRetryTime bounds the driver's own transaction retries.
	MaxTransactionRetryTime time.Duration
}

// DefaultClientConfig returns a ClientConfig for a local Neo4j.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		Password:                "password",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 5 * time.Second,
	}
}

var validSchemes = map[string]bool{
	"bolt":      true,
	"bolt+s":    true,
	"bolt+ssc":  true,
	"neo4j":     true,
	"neo4j+s":   true,
	"neo4j+ssc": true,
}

// IsSupportedURI reports whether uri parses and uses a Bolt or Neo4j scheme.
func IsSupportedURI(uri string) bool {
	u, err := url.Parse(uri)
	return err == nil && validSchemes[u.Scheme] && u.Host != ""
}

// Validate checks if the configuration is valid.
func (c ClientConfig) Validate() error {
	if c.URI == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "URI cannot be empty")
	}
	if !IsSupportedURI(c.URI) {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"URI must use one of bolt://, bolt+s://, bolt+ssc://, neo4j://, neo4j+s://, neo4j+ssc://").
			WithDetail("uri", c.URI)
	}
	if c.Username == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "Username cannot be empty")
	}
	if c.Password == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "Password cannot be empty")
	}
	if c.ConnectionTimeout <= 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "ConnectionTimeout must be positive")
	}
	if c.MaxTransactionRetryTime < 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "MaxTransactionRetryTime must not be negative")
	}
	return nil
}
