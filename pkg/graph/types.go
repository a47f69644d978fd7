package graph

import (
	"context"
	"time"
)

// EntityRecord is one extracted entity. Its display text lives under "text"
// (or "name"); every other field is carried into the node's meta.
type EntityRecord map[string]interface{}

// Entities maps an entity type (e.g. "cases", "statutes") to its records.
type Entities map[string][]EntityRecord

// Relation is a directed, typed edge between two node ids.
type Relation struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Node represents a node in the knowledge graph
type Node struct {
	ID    string                 `json:"id"`
	Label string                 `json:"label"`
	Type  string                 `json:"type"`
	Meta  map[string]interface{} `json:"meta"`
}

// Link represents a relationship between nodes in the knowledge graph
type Link struct {
	Source string `json:"source"` // Source node ID
	Target string `json:"target"` // Target node ID
	Type   string `json:"type"`
}

// Snapshot is the serialized form of a graph or of an induced subgraph. A
// link's source or target may be absent from Nodes.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// NewSnapshot returns an empty snapshot whose slices marshal as [] rather than null.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Nodes: make([]Node, 0),
		Links: make([]Link, 0),
	}
}

// Stats summarizes the current graph.
type Stats struct {
	Nodes  int            `json:"nodes"`
	Edges  int            `json:"edges"`
	ByType map[string]int `json:"by_type"`
}

// Document represents a processed document with extracted entities
type Document struct {
	ID          string
	Content     string
	Entities    Entities
	Metadata    map[string]interface{}
	ProcessedAt time.Time
}

// DocumentProcessor interface for processing different document types
type DocumentProcessor interface {
	Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*Document, error)
	SupportedTypes() []string
}

// Pipeline represents the text processing pipeline
type Pipeline interface {
	Process(ctx context.Context, doc *Document) error
	AddProcessor(processor DocumentProcessor)
}
