package tools

import (
	"context"

	"github.com/athapong/lexgraph-mcp/pkg/graph/metrics"
	"github.com/athapong/lexgraph-mcp/pkg/literature"
	"github.com/athapong/lexgraph-mcp/pkg/orchestrator"
	"github.com/athapong/lexgraph-mcp/services"
	"github.com/athapong/lexgraph-mcp/util"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const defaultLiteratureLimit = 10

func RegisterLiteratureTool(s *server.MCPServer) {
	searcher := services.DefaultLiteratureAggregator()

	tool := mcp.NewTool("literature_search",
		mcp.WithDescription("Search Semantic Scholar and Crossref for academic papers. Results are deduplicated by title and ordered by citation count."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query, e.g. \"judicial review\"")),
		mcp.WithNumber("limit", mcp.DefaultNumber(defaultLiteratureLimit), mcp.Min(0), mcp.Description("Maximum number of papers to return")),
	)
	s.AddTool(tool, util.ErrorGuard(literatureSearchHandler(searcher)))
}

func RegisterPipelineTool(s *server.MCPServer) {
	pipeline := orchestrator.New(
		services.DefaultAnalyzer(),
		services.DefaultGraphEngine(),
		services.DefaultLiteratureAggregator(),
		nil,
	)

	tool := mcp.NewTool("pipeline_run",
		mcp.WithDescription("Analyze a document, rebuild the knowledge graph from its entities and search related literature in one call"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Document text")),
		mcp.WithString("document_id", mcp.Description("Identifier of the document; generated when omitted")),
		mcp.WithString("filename", mcp.Description("File name echoed in the analysis")),
		mcp.WithNumber("literature_limit", mcp.DefaultNumber(orchestrator.DefaultLiteratureLimit), mcp.Description("Maximum number of papers to return")),
	)
	s.AddTool(tool, util.ErrorGuard(pipelineHandler(pipeline)))
}

type literatureSearcher interface {
	Search(ctx context.Context, query string, limit int) (*literature.Results, error)
}

func literatureSearchHandler(searcher literatureSearcher) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		results, err := searcher.Search(ctx, query, request.GetInt("limit", defaultLiteratureLimit))
		if err != nil {
			return nil, err
		}
		return util.JSONResult(results)
	}
}

type pipelineRunner interface {
	RunFullPipeline(ctx context.Context, in orchestrator.Input) (*orchestrator.Result, error)
}

func pipelineHandler(runner pipelineRunner) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		documentID := request.GetString("document_id", "")
		if documentID == "" {
			documentID = uuid.NewString()
		}

		result, err := runner.RunFullPipeline(ctx, orchestrator.Input{
			DocumentID:      documentID,
			Filename:        request.GetString("filename", ""),
			Text:            text,
			LiteratureLimit: request.GetInt("literature_limit", orchestrator.DefaultLiteratureLimit),
		})
		if err != nil {
			metrics.RecordBuild(nil, err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		metrics.RecordBuild(result.KnowledgeGraph, nil)
		return util.JSONResult(result)
	}
}
