package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/athapong/lexgraph-mcp/pkg/graph/metrics"
	"github.com/athapong/lexgraph-mcp/pkg/graph/processors"
	"github.com/athapong/lexgraph-mcp/services"
	"github.com/athapong/lexgraph-mcp/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// maxDocumentBytes bounds how much of a response body is read.
const maxDocumentBytes = 20 << 20

func RegisterFetchTool(s *server.MCPServer) {
	tool := mcp.NewTool("fetch_document",
		mcp.WithDescription("Fetches a legal document from an HTTP/HTTPS URL. HTML pages are returned as Markdown and PDF files as plain text, together with the legal entities found in the document. With build_graph set, the knowledge graph is rebuilt from those entities."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The complete HTTP/HTTPS URL to fetch (e.g., https://example.com/judgment.pdf)"),
		),
		mcp.WithBoolean("build_graph", mcp.Description("Rebuild the knowledge graph from the extracted entities")),
	)

	f := &fetcher{
		client:    services.DefaultHttpClient(),
		extractor: services.DefaultLegalProcessor(),
		engine:    services.DefaultGraphEngine(),
	}
	s.AddTool(tool, util.ErrorGuard(f.fetchHandler))
}

type fetcher struct {
	client    *http.Client
	extractor *processors.LegalProcessor
	engine    *graph.KnowledgeGraphEngine
}

type fetchedDocument struct {
	URL         string          `json:"url"`
	ContentType string          `json:"content_type"`
	Content     string          `json:"content"`
	Entities    graph.Entities  `json:"entities"`
	Graph       *graph.Snapshot `json:"graph,omitempty"`
}

func (f *fetcher) fetchHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url must be a string"), nil
	}

	body, contentType, err := f.get(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc := &fetchedDocument{URL: url, ContentType: contentType}
	var plain string

	switch {
	case strings.Contains(contentType, "pdf"):
		plain, err = processors.ExtractPDFText(body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read PDF: %v", err)), nil
		}
		doc.Content = plain
	case strings.Contains(contentType, "html"):
		doc.Content, err = htmltomarkdown.ConvertString(string(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to convert HTML to Markdown: %v", err)), nil
		}
		plain, err = processors.ExtractHTMLText(body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read HTML: %v", err)), nil
		}
	default:
		plain = string(body)
		doc.Content = plain
	}

	doc.Entities = f.extractor.Extract(plain)

	if request.GetBool("build_graph", false) {
		snapshot, err := f.engine.BuildFromDocument(url, doc.Entities)
		metrics.RecordBuild(snapshot, err)
		if err != nil {
			return nil, err
		}
		doc.Graph = snapshot
	}

	return util.JSONResult(doc)
}

func (f *fetcher) get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return body, strings.ToLower(contentType), nil
}
