package storage

import (
	"context"
	"encoding/json"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	mergeNodeCypher = `
		MERGE (e:Entity {id: $id})
		SET e.type = $type,
			e.label = $label,
			e.meta = $meta,
			e.updated_at = datetime()
	`

	mergePlaceholderCypher = `
		MERGE (e:Entity {id: $id})
		ON CREATE SET e.placeholder = true, e.updated_at = datetime()
	`

	createLinkCypher = `
		MATCH (from:Entity {id: $fromID})
		MATCH (to:Entity {id: $toID})
		CREATE (from)-[r:RELATES {
			type: $type,
			created_at: datetime()
		}]->(to)
	`
)

// statement is one parameterised Cypher call issued by an export.
type statement struct {
	cypher string
	params map[string]interface{}
}

// Neo4jExporter writes snapshots into a Neo4j database. Nodes are merged by
// id; every link becomes its own RELATES relationship, so parallel edges
// survive the export.
type Neo4jExporter struct {
	driver neo4j.Driver
	uri    string
	logger *logrus.Logger
}

// NewNeo4jExporter creates a driver for the given database
func NewNeo4jExporter(uri, username, password string, logger *logrus.Logger) (*Neo4jExporter, error) {
	auth := neo4j.BasicAuth(username, password, "")
	driver, err := neo4j.NewDriver(uri, auth)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Neo4j driver")
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Neo4jExporter{
		driver: driver,
		uri:    uri,
		logger: logger,
	}, nil
}

// Export writes the whole snapshot in a single write transaction.
func (e *Neo4jExporter) Export(ctx context.Context, snapshot *graph.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	statements, err := exportStatements(snapshot)
	if err != nil {
		return err
	}

	session := e.driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err = session.WriteTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		for _, st := range statements {
			if _, err := tx.Run(st.cypher, st.params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return errors.Wrapf(err, "export to %s", e.uri)
	}

	e.logger.WithFields(logrus.Fields{
		"uri":        e.uri,
		"nodes":      len(snapshot.Nodes),
		"links":      len(snapshot.Links),
		"statements": len(statements),
	}).Info("Exported graph to Neo4j")
	return nil
}

// Close releases the driver
func (e *Neo4jExporter) Close() error {
	if e.driver != nil {
		return e.driver.Close()
	}
	return nil
}

// exportStatements orders the statements so every link endpoint exists before
// its relationship is created. Endpoints missing from the node list are
// merged as placeholder entities.
func exportStatements(snapshot *graph.Snapshot) ([]statement, error) {
	if snapshot == nil {
		return nil, nil
	}

	statements := make([]statement, 0, len(snapshot.Nodes)+len(snapshot.Links))
	known := make(map[string]struct{}, len(snapshot.Nodes))

	for _, node := range snapshot.Nodes {
		meta, err := encodeMeta(node.Meta)
		if err != nil {
			return nil, errors.Wrapf(err, "encode meta of %s", node.ID)
		}
		statements = append(statements, statement{
			cypher: mergeNodeCypher,
			params: map[string]interface{}{
				"id":    node.ID,
				"type":  node.Type,
				"label": node.Label,
				"meta":  meta,
			},
		})
		known[node.ID] = struct{}{}
	}

	for _, link := range snapshot.Links {
		for _, id := range []string{link.Source, link.Target} {
			if _, ok := known[id]; ok {
				continue
			}
			known[id] = struct{}{}
			statements = append(statements, statement{
				cypher: mergePlaceholderCypher,
				params: map[string]interface{}{"id": id},
			})
		}
	}

	for _, link := range snapshot.Links {
		statements = append(statements, statement{
			cypher: createLinkCypher,
			params: map[string]interface{}{
				"fromID": link.Source,
				"toID":   link.Target,
				"type":   link.Type,
			},
		})
	}

	return statements, nil
}

// Neo4j properties cannot hold nested maps, so meta is stored as JSON text.
func encodeMeta(meta map[string]interface{}) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
