package tools

import (
	"context"

	"github.com/athapong/lexgraph-mcp/pkg/analysis"
	"github.com/athapong/lexgraph-mcp/pkg/compare"
	"github.com/athapong/lexgraph-mcp/services"
	"github.com/athapong/lexgraph-mcp/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func RegisterAnalysisTools(s *server.MCPServer) {
	h := &analysisHandlers{analyzer: services.DefaultAnalyzer()}

	extractTool := mcp.NewTool("extract_entities",
		mcp.WithDescription("Extract legal entities (cases, statutes, courts, parties, dates, organizations, monetary amounts) from text. The result can be passed to knowledge_graph_build as its entities argument."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Document text")),
	)
	s.AddTool(extractTool, util.ErrorGuard(h.extractEntitiesHandler))

	riskTool := mcp.NewTool("assess_risk",
		mcp.WithDescription("Score a legal document for high-risk terms and confidentiality markers"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Document text")),
	)
	s.AddTool(riskTool, util.ErrorGuard(h.assessRiskHandler))

	analyzeTool := mcp.NewTool("analyze_document",
		mcp.WithDescription("Produce a full heuristic report: summary, risk assessment, entities, classification, compliance check and recommendations"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Document text")),
		mcp.WithString("document_id", mcp.Description("Identifier echoed in the report")),
		mcp.WithString("filename", mcp.Description("File name echoed in the report")),
	)
	s.AddTool(analyzeTool, util.ErrorGuard(h.analyzeHandler))

	compareTool := mcp.NewTool("compare_documents",
		mcp.WithDescription("Compare two documents by shared vocabulary and character-level differences"),
		mcp.WithString("left", mcp.Required(), mcp.Description("First document text")),
		mcp.WithString("right", mcp.Required(), mcp.Description("Second document text")),
	)
	s.AddTool(compareTool, util.ErrorGuard(compareHandler))
}

type analysisHandlers struct {
	analyzer *analysis.Analyzer
}

func (h *analysisHandlers) extractEntitiesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return util.JSONResult(h.analyzer.ExtractEntities(text))
}

func (h *analysisHandlers) assessRiskHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return util.JSONResult(h.analyzer.AssessRisk(text))
}

func (h *analysisHandlers) analyzeHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report := h.analyzer.Analyze(text, analysis.DocumentInfo{
		DocumentID: request.GetString("document_id", ""),
		Filename:   request.GetString("filename", ""),
	})
	return util.JSONResult(report)
}

func compareHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	left := request.GetString("left", "")
	right := request.GetString("right", "")

	comparison, err := compare.Documents(left, right)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return util.JSONResult(comparison)
}
