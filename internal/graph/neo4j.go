package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// neo4jDriver adapts neo4j.DriverWithContext to Driver.
type neo4jDriver struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver creates a Neo4j driver. It does not verify connectivity;
// the Pool does that once before publishing the driver.
func NewNeo4jDriver(_ context.Context, cfg ClientConfig) (Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(config *neo4j.Config) {
		if cfg.MaxConnectionPoolSize > 0 {
			config.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		config.ConnectionAcquisitionTimeout = cfg.ConnectionTimeout
		config.SocketConnectTimeout = cfg.ConnectionTimeout
		config.MaxTransactionRetryTime = cfg.MaxTransactionRetryTime
	})
	if err != nil {
		return nil, err
	}

	return &neo4jDriver{driver: driver, database: cfg.Database}, nil
}

func (d *neo4jDriver) NewSession(ctx context.Context) Session {
	return &neo4jSession{
		session: d.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database}),
	}
}

func (d *neo4jDriver) VerifyConnectivity(ctx context.Context) error {
	return d.driver.VerifyConnectivity(ctx)
}

func (d *neo4jDriver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

type neo4jSession struct {
	session neo4j.SessionWithContext
}

// Run executes the query in a managed transaction of the requested mode.
func (s *neo4jSession) Run(ctx context.Context, mode AccessMode, cypher string, params map[string]any) (QueryResult, error) {
	startTime := time.Now()

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		records, err := neoResult.Collect(ctx)
		if err != nil {
			return nil, err
		}

		summary, err := neoResult.Consume(ctx)
		if err != nil {
			return nil, err
		}

		return convertNeo4jResult(records, summary), nil
	}

	var (
		result any
		err    error
	)
	if mode == AccessWrite {
		result, err = s.session.ExecuteWrite(ctx, work)
	} else {
		result, err = s.session.ExecuteRead(ctx, work)
	}
	if err != nil {
		return QueryResult{}, err
	}

	queryResult := result.(QueryResult)
	queryResult.Summary.ExecutionTime = time.Since(startTime)
	return queryResult, nil
}

func (s *neo4jSession) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

// convertNeo4jResult converts Neo4j records and summary to a QueryResult.
func convertNeo4jResult(records []*neo4j.Record, summary neo4j.ResultSummary) QueryResult {
	result := QueryResult{
		Records: make([]map[string]any, 0, len(records)),
		Columns: []string{},
	}

	if len(records) > 0 {
		result.Columns = records[0].Keys
	}

	for _, record := range records {
		recordMap := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			recordMap[key] = record.Values[i]
		}
		result.Records = append(result.Records, recordMap)
	}

	if summary != nil && summary.Counters() != nil {
		counters := summary.Counters()
		result.Summary = QuerySummary{
			NodesCreated:         counters.NodesCreated(),
			NodesDeleted:         counters.NodesDeleted(),
			RelationshipsCreated: counters.RelationshipsCreated(),
			RelationshipsDeleted: counters.RelationshipsDeleted(),
			PropertiesSet:        counters.PropertiesSet(),
		}
	}

	return result
}
