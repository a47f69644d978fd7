package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/athapong/lexgraph-mcp/pkg/graph/algorithms"
	"github.com/athapong/lexgraph-mcp/pkg/graph/metrics"
	"github.com/athapong/lexgraph-mcp/pkg/graph/query"
	"github.com/athapong/lexgraph-mcp/pkg/graph/storage"
	"github.com/athapong/lexgraph-mcp/pkg/graph/visualizer"
	"github.com/athapong/lexgraph-mcp/services"
	"github.com/athapong/lexgraph-mcp/util"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// graphHandlers serves the knowledge_graph tools from one engine.
type graphHandlers struct {
	engine *graph.KnowledgeGraphEngine
	export func(ctx context.Context, snapshot *graph.Snapshot) error
}

func newGraphHandlers(engine *graph.KnowledgeGraphEngine) *graphHandlers {
	return &graphHandlers{
		engine: engine,
		export: exportToNeo4j,
	}
}

func RegisterKnowledgeGraphTools(s *server.MCPServer) {
	h := newGraphHandlers(services.DefaultGraphEngine())

	buildTool := mcp.NewTool("knowledge_graph_build",
		mcp.WithDescription("Replace the knowledge graph with the entities of one document. Nodes are created per entity and case-centred relations (cites, heard_by, party_in, decided_on) are inferred. Returns the full graph as {nodes, links}."),
		mcp.WithString("document_id", mcp.Description("Identifier of the source document; generated when omitted")),
		mcp.WithObject("entities", mcp.Required(), mcp.Description("Map of entity type to records, e.g. {\"cases\": [{\"text\": \"Smith v. Jones\"}], \"statutes\": [{\"text\": \"Section 5\"}]}")),
	)
	s.AddTool(buildTool, util.ErrorGuard(h.buildHandler))

	subgraphTool := mcp.NewTool("knowledge_graph_subgraph",
		mcp.WithDescription("Return the subgraph within depth hops of the first node with the given label, ignoring edge direction."),
		mcp.WithString("center_node_label", mcp.Required(), mcp.Description("Label of the centre node, e.g. \"Smith v. Jones\"")),
		mcp.WithString("node_type", mcp.Description("Restrict the centre node to this type, e.g. \"cases\"")),
		mcp.WithNumber("depth", mcp.DefaultNumber(graph.DefaultSubgraphDepth), mcp.Description("Number of hops to expand (default 2)")),
	)
	s.AddTool(subgraphTool, util.ErrorGuard(h.subgraphHandler))

	statsTool := mcp.NewTool("knowledge_graph_stats",
		mcp.WithDescription("Count nodes and edges in the knowledge graph, with nodes broken down by type."),
	)
	s.AddTool(statsTool, util.ErrorGuard(h.statsHandler))

	relationsTool := mcp.NewTool("knowledge_graph_add_relations",
		mcp.WithDescription("Append directed relations to the knowledge graph. Endpoints are node ids (\"type:label\") and need not exist."),
		mcp.WithArray("relations", mcp.Required(),
			mcp.Description("List of {source, target, type} objects"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"source": map[string]any{"type": "string"},
					"target": map[string]any{"type": "string"},
					"type":   map[string]any{"type": "string"},
				},
				"required": []string{"source", "target", "type"},
			}),
		),
	)
	s.AddTool(relationsTool, util.ErrorGuard(h.addRelationsHandler))

	combinedTool := mcp.NewTool("knowledge_graph",
		mcp.WithDescription("Build the graph when entities are given, otherwise return a subgraph when center_node_label is given, otherwise return graph statistics."),
		mcp.WithString("document_id", mcp.Description("Identifier of the source document")),
		mcp.WithObject("entities", mcp.Description("Map of entity type to records")),
		mcp.WithString("center_node_label", mcp.Description("Label of the centre node")),
		mcp.WithString("node_type", mcp.Description("Type filter for the centre node")),
		mcp.WithNumber("depth", mcp.Description("Number of hops to expand (default 2)")),
	)
	s.AddTool(combinedTool, util.ErrorGuard(h.combinedHandler))

	traverseTool := mcp.NewTool("knowledge_graph_traverse",
		mcp.WithDescription("List the nodes reachable from a node id in breadth-first or depth-first order."),
		mcp.WithString("start_id", mcp.Required(), mcp.Description("Node id to start from, e.g. \"cases:Smith v. Jones\"")),
		mcp.WithNumber("max_depth", mcp.DefaultNumber(graph.DefaultSubgraphDepth), mcp.Description("Maximum number of hops")),
		mcp.WithString("order", mcp.Enum(string(algorithms.BFS), string(algorithms.DFS)), mcp.DefaultString(string(algorithms.BFS)), mcp.Description("Visit order")),
	)
	s.AddTool(traverseTool, util.ErrorGuard(h.traverseHandler))

	exportTool := mcp.NewTool("knowledge_graph_export",
		mcp.WithDescription("Write the current knowledge graph to a JSON file, an HTML visualization or a Neo4j database."),
		mcp.WithString("format", mcp.Required(), mcp.Enum("json", "html", "neo4j"), mcp.Description("Export target")),
		mcp.WithString("path", mcp.Description("Output file for json and html exports")),
	)
	s.AddTool(exportTool, util.ErrorGuard(h.exportHandler))
}

func (h *graphHandlers) buildHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arguments := request.GetArguments()

	entities, err := query.ParseEntities(arguments["entities"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	documentID, _ := arguments["document_id"].(string)
	return h.build(documentID, entities)
}

func (h *graphHandlers) build(documentID string, entities graph.Entities) (*mcp.CallToolResult, error) {
	if documentID == "" {
		documentID = uuid.NewString()
	}

	snapshot, err := h.engine.BuildFromDocument(documentID, entities)
	metrics.RecordBuild(snapshot, err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return util.JSONResult(snapshot)
}

func (h *graphHandlers) subgraphHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := query.ParseSubgraphQuery(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.subgraph(q)
}

func (h *graphHandlers) subgraph(q *query.SubgraphQuery) (*mcp.CallToolResult, error) {
	snapshot, err := q.Run(h.engine)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return util.JSONResult(snapshot)
}

func (h *graphHandlers) statsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return util.JSONResult(h.engine.Stats())
}

func (h *graphHandlers) addRelationsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	relations, err := query.ParseRelations(request.GetArguments()["relations"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	h.engine.AddRelations(relations)
	metrics.RecordSnapshot(h.engine.ToJSON())
	return util.JSONResult(h.engine.Stats())
}

func (h *graphHandlers) combinedHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arguments := request.GetArguments()
	if arguments == nil {
		arguments = map[string]interface{}{}
	}

	req, err := query.ParseRequest(arguments)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch req.Type {
	case query.Build:
		return h.build(req.Build.DocumentID, req.Build.Entities)
	case query.Subgraph:
		return h.subgraph(req.Subgraph)
	default:
		return util.JSONResult(h.engine.Stats())
	}
}

func (h *graphHandlers) traverseHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	startID, err := request.RequireString("start_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	order := algorithms.TraversalType(strings.ToUpper(request.GetString("order", string(algorithms.BFS))))
	maxDepth := request.GetInt("max_depth", graph.DefaultSubgraphDepth)

	nodes, err := h.engine.Walk(startID, maxDepth, order)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return util.JSONResult(map[string]interface{}{
		"start_id": startID,
		"order":    order,
		"nodes":    nodes,
	})
}

func (h *graphHandlers) exportHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := request.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := request.GetString("path", "")
	snapshot := h.engine.ToJSON()

	switch format {
	case "json":
		if path == "" {
			return mcp.NewToolResultError("path is required for json export"), nil
		}
		if err := storage.NewJSONGraphStore(path).StoreGraph(ctx, snapshot); err != nil {
			return nil, err
		}
	case "html":
		if path == "" {
			return mcp.NewToolResultError("path is required for html export"), nil
		}
		if err := visualizer.NewD3Visualizer(path).Visualize(snapshot); err != nil {
			return nil, err
		}
	case "neo4j":
		if err := h.export(ctx, snapshot); err != nil {
			return nil, err
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q, use json, html or neo4j", format)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Exported %d nodes and %d links as %s", len(snapshot.Nodes), len(snapshot.Links), format)), nil
}

func exportToNeo4j(ctx context.Context, snapshot *graph.Snapshot) error {
	exporter, err := services.Neo4jExporter()
	if err != nil {
		return err
	}
	return exporter.Export(ctx, snapshot)
}
