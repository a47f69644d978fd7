package services

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/athapong/lexgraph-mcp/pkg/analysis"
	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/athapong/lexgraph-mcp/pkg/graph/processors"
	"github.com/athapong/lexgraph-mcp/pkg/graph/storage"
	"github.com/athapong/lexgraph-mcp/pkg/literature"
	"github.com/pkg/errors"
)

// DefaultGraphEngine is the graph every knowledge_graph tool shares.
// GRAPH_INFERENCE=bucket types inferred endpoints by bucket name.
var DefaultGraphEngine = sync.OnceValue(func() *graph.KnowledgeGraphEngine {
	return graph.NewKnowledgeGraphEngine(
		graph.WithInferenceRules(graph.InferenceRulesByName(os.Getenv("GRAPH_INFERENCE"))),
	)
})

var DefaultAnalyzer = sync.OnceValue(func() *analysis.Analyzer {
	return analysis.NewAnalyzer()
})

var DefaultLegalProcessor = sync.OnceValue(func() *processors.LegalProcessor {
	return processors.NewLegalProcessor()
})

var DefaultLiteratureAggregator = sync.OnceValue(func() *literature.Aggregator {
	return literature.NewAggregator(
		literature.WithHTTPClient(DefaultHttpClient()),
		literature.WithEndpoints(os.Getenv("SEMANTIC_SCHOLAR_URL"), os.Getenv("CROSSREF_URL")),
		literature.WithUserAgent(os.Getenv("LITERATURE_USER_AGENT")),
	)
})

var neo4jConnected atomic.Bool

// Neo4jExporter connects on first use from NEO4J_URI, NEO4J_USERNAME and
// NEO4J_PASSWORD.
var Neo4jExporter = sync.OnceValues(func() (*storage.Neo4jExporter, error) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		return nil, errors.New("NEO4J_URI is not set, please set it in MCP Config")
	}
	exporter, err := storage.NewNeo4jExporter(uri, os.Getenv("NEO4J_USERNAME"), os.Getenv("NEO4J_PASSWORD"), nil)
	if err != nil {
		return nil, err
	}
	neo4jConnected.Store(true)
	return exporter, nil
})

// CloseNeo4j closes the driver opened by Neo4jExporter. It never connects.
func CloseNeo4j() error {
	if !neo4jConnected.Load() {
		return nil
	}
	exporter, _ := Neo4jExporter()
	return exporter.Close()
}
