package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func RegisterLegalPrompts(s *server.MCPServer) {
	review := mcp.NewPrompt("legal_graph_review",
		mcp.WithPromptDescription("Review a case and its neighbourhood in the knowledge graph"),
		mcp.WithArgument("document_label",
			mcp.ArgumentDescription("Label of the case to review, e.g. \"Smith v. Jones\""),
			mcp.RequiredArgument(),
		),
	)
	s.AddPrompt(review, graphReviewHandler)

	intake := mcp.NewPrompt("legal_document_intake",
		mcp.WithPromptDescription("Analyze a fetched document and load its entities into the knowledge graph"),
		mcp.WithArgument("url", mcp.ArgumentDescription("URL of the judgment or statute"), mcp.RequiredArgument()),
	)
	s.AddPrompt(intake, documentIntakeHandler)
}

func graphReviewHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	label := request.Params.Arguments["document_label"]
	if label == "" {
		return nil, fmt.Errorf("document_label is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Knowledge graph review of %s", label),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Use knowledge_graph_subgraph with center_node_label %q and depth 2 to collect the statutes, courts, parties and dates around this case. "+
						"Summarize which statutes it cites, where it was heard, who the parties were and when it was decided. "+
						"Point out any relation whose endpoint has no node of its own.", label),
				},
			},
		},
	}, nil
}

func documentIntakeHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	url := request.Params.Arguments["url"]
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Intake of %s", url),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Use fetch_document on %s with build_graph set to true, then run analyze_document on the returned content. "+
						"Report the risk level, the document type and the knowledge_graph_stats of the new graph.", url),
				},
			},
		},
	}, nil
}
