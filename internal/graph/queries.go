package graph

import "fmt"

// Cypher templates. Only validated labels, relationship types and key
// fields are substituted with fmt; every value is a bound parameter.

const pingQuery = "RETURN 1 AS ok"

func upsertNodeQuery(label, keyField string) string {
	return fmt.Sprintf(`MERGE (n:%s {%s: $key})
SET n += $props, n.updated_at = datetime()
RETURN n.%s AS key`, label, keyField, keyField)
}

func createRelationshipQuery(srcLabel, srcKey, relType, dstLabel, dstKey string) string {
	return fmt.Sprintf(`MATCH (a:%s {%s: $source_value})
MATCH (b:%s {%s: $target_value})
MERGE (a)-[r:%s]->(b)
SET r += $props, r.updated_at = datetime()
RETURN type(r) AS type`, srcLabel, srcKey, dstLabel, dstKey, relType)
}

const contradictionsQuery = `MATCH (a:Clause)-[r:CONTRADICTS]->(b:Clause)
RETURN a.id AS a_id, a.text AS a_text, coalesce(a.topic, '') AS a_topic,
       b.id AS b_id, b.text AS b_text, coalesce(b.topic, '') AS b_topic,
       coalesce(r.reason, '') AS reason
ORDER BY a_id, b_id`

const risksQuery = `MATCH (r:Risk)
WHERE r.severity IN $severities
OPTIONAL MATCH (c:Clause)-[:HAS_RISK]->(r)
WITH r, head(collect(c)) AS c
WITH r, c, CASE r.severity
    WHEN 'critical' THEN 4
    WHEN 'high' THEN 3
    WHEN 'medium' THEN 2
    WHEN 'low' THEN 1
    ELSE 0 END AS rank
RETURN r.id AS id, r.severity AS severity,
       coalesce(r.description, '') AS description,
       coalesce(r.recommendation, '') AS recommendation,
       coalesce(c.id, '') AS clause_id, coalesce(c.topic, '') AS clause_topic
ORDER BY rank DESC, id`

const nodeCountsQuery = `MATCH (n)
UNWIND labels(n) AS label
RETURN label, count(*) AS count
ORDER BY label`

const relationshipCountsQuery = `MATCH ()-[r]->()
RETURN type(r) AS type, count(r) AS count
ORDER BY type`

const clearQuery = "MATCH (n) DETACH DELETE n"

var constraintQueries = []string{
	"CREATE CONSTRAINT clause_id_unique IF NOT EXISTS FOR (n:Clause) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT entity_name_unique IF NOT EXISTS FOR (n:Entity) REQUIRE n.name IS UNIQUE",
	"CREATE CONSTRAINT risk_id_unique IF NOT EXISTS FOR (n:Risk) REQUIRE n.id IS UNIQUE",
}
