package query

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/pkg/errors"
)

type RequestType string

const (
	Build    RequestType = "BUILD"
	Subgraph RequestType = "SUBGRAPH"
	Stats    RequestType = "STATS"
)

// BuildRequest rebuilds the graph from one document's entities.
type BuildRequest struct {
	DocumentID string         `json:"document_id,omitempty"`
	Entities   graph.Entities `json:"entities"`
}

// SubgraphQuery asks for the neighborhood around a labelled node.
type SubgraphQuery struct {
	CenterNodeLabel string `json:"center_node_label"`
	NodeType        string `json:"node_type,omitempty"`
	Depth           int    `json:"depth"`
}

// Request is the decoded form of a combined knowledge-graph call.
type Request struct {
	Type     RequestType    `json:"type"`
	Build    *BuildRequest  `json:"build,omitempty"`
	Subgraph *SubgraphQuery `json:"subgraph,omitempty"`
}

func NewSubgraphQuery(centerLabel string) *SubgraphQuery {
	return &SubgraphQuery{
		CenterNodeLabel: centerLabel,
		Depth:           graph.DefaultSubgraphDepth,
	}
}

func (q *SubgraphQuery) WithNodeType(nodeType string) *SubgraphQuery {
	q.NodeType = nodeType
	return q
}

func (q *SubgraphQuery) WithDepth(depth int) *SubgraphQuery {
	q.Depth = depth
	return q
}

// Validate rejects queries the engine would refuse.
func (q *SubgraphQuery) Validate() error {
	if q.Depth < 0 {
		return errors.Wrapf(graph.ErrInvalidArgument, "depth must not be negative, got %d", q.Depth)
	}
	return nil
}

// Run executes the query against an engine.
func (q *SubgraphQuery) Run(engine *graph.KnowledgeGraphEngine) (*graph.Snapshot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return engine.GetSubgraph(q.CenterNodeLabel, q.NodeType, q.Depth)
}

func (q *SubgraphQuery) String() string {
	bytes, _ := json.MarshalIndent(q, "", "  ")
	return fmt.Sprintf("%s", bytes)
}

func (r Request) String() string {
	bytes, _ := json.MarshalIndent(r, "", "  ")
	return fmt.Sprintf("%s", bytes)
}

// ParseRequest decodes tool-style arguments. A non-empty "entities" object
// selects a build, otherwise a non-empty "center_node_label" selects a
// subgraph query, otherwise the request asks for stats.
func ParseRequest(args map[string]interface{}) (Request, error) {
	if raw, ok := args["entities"]; ok && raw != nil {
		entities, err := ParseEntities(raw)
		if err != nil {
			return Request{}, err
		}
		if len(entities) > 0 {
			docID, _ := args["document_id"].(string)
			return Request{
				Type:  Build,
				Build: &BuildRequest{DocumentID: docID, Entities: entities},
			}, nil
		}
	}

	if label, _ := args["center_node_label"].(string); label != "" {
		q, err := ParseSubgraphQuery(args)
		if err != nil {
			return Request{}, err
		}
		return Request{Type: Subgraph, Subgraph: q}, nil
	}

	return Request{Type: Stats}, nil
}

// ParseSubgraphQuery reads center_node_label, node_type and depth.
func ParseSubgraphQuery(args map[string]interface{}) (*SubgraphQuery, error) {
	label, ok := args["center_node_label"].(string)
	if !ok || label == "" {
		return nil, errors.Wrap(graph.ErrInvalidArgument, "center_node_label must be a non-empty string")
	}

	q := NewSubgraphQuery(label)
	if nodeType, ok := args["node_type"]; ok && nodeType != nil {
		s, isString := nodeType.(string)
		if !isString {
			return nil, errors.Wrapf(graph.ErrInvalidArgument, "node_type must be a string, got %T", nodeType)
		}
		q.WithNodeType(s)
	}

	if raw, ok := args["depth"]; ok && raw != nil {
		depth, err := toInt(raw)
		if err != nil {
			return nil, err
		}
		q.WithDepth(depth)
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseEntities converts a decoded JSON object into graph.Entities.
func ParseEntities(raw interface{}) (graph.Entities, error) {
	switch v := raw.(type) {
	case graph.Entities:
		return v, nil
	case map[string]interface{}:
		entities := make(graph.Entities, len(v))
		for bucket, items := range v {
			list, ok := items.([]interface{})
			if !ok {
				return nil, errors.Wrapf(graph.ErrInvalidArgument, "entities.%s must be an array, got %T", bucket, items)
			}
			records := make([]graph.EntityRecord, 0, len(list))
			for i, item := range list {
				record, ok := item.(map[string]interface{})
				if !ok {
					return nil, errors.Wrapf(graph.ErrInvalidArgument, "entities.%s[%d] must be an object, got %T", bucket, i, item)
				}
				records = append(records, graph.EntityRecord(record))
			}
			entities[bucket] = records
		}
		return entities, nil
	default:
		return nil, errors.Wrapf(graph.ErrInvalidArgument, "entities must be an object, got %T", raw)
	}
}

// ParseRelations converts a decoded JSON array of {source, target, type}.
func ParseRelations(raw interface{}) ([]graph.Relation, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errors.Wrapf(graph.ErrInvalidArgument, "relations must be an array, got %T", raw)
	}

	relations := make([]graph.Relation, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.Wrapf(graph.ErrInvalidArgument, "relations[%d] must be an object", i)
		}
		var rel graph.Relation
		for field, dst := range map[string]*string{"source": &rel.Source, "target": &rel.Target, "type": &rel.Type} {
			s, ok := obj[field].(string)
			if !ok {
				return nil, errors.Wrapf(graph.ErrInvalidArgument, "relations[%d].%s must be a string", i, field)
			}
			*dst = s
		}
		relations = append(relations, rel)
	}
	return relations, nil
}

// toInt accepts whole numbers in [0, math.MaxInt32].
func toInt(raw interface{}) (int, error) {
	var n float64
	switch v := raw.(type) {
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, errors.Wrapf(graph.ErrInvalidArgument, "depth must be an integer, got %v", v)
		}
		n = v
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, errors.Wrapf(graph.ErrInvalidArgument, "depth must be an integer, got %s", v)
		}
		n = float64(i)
	default:
		return 0, errors.Wrapf(graph.ErrInvalidArgument, "depth must be an integer, got %T", raw)
	}

	if n < 0 || n > math.MaxInt32 {
		return 0, errors.Wrapf(graph.ErrInvalidArgument, "depth %v out of range [0, %d]", n, math.MaxInt32)
	}
	return int(n), nil
}
