package processors

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/athapong/lexgraph-mcp/pkg/graph/metrics"
	"github.com/pkg/errors"
)

// HTMLProcessor is responsible for processing HTML content.
type HTMLProcessor struct {
	next graph.DocumentProcessor
}

// NewHTMLProcessor wraps next; a nil next defaults to a LegalProcessor.
func NewHTMLProcessor(next graph.DocumentProcessor) *HTMLProcessor {
	if next == nil {
		next = NewLegalProcessor()
	}
	return &HTMLProcessor{next: next}
}

// Process extracts the visible body text and passes it on.
func (p *HTMLProcessor) Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*graph.Document, error) {
	text, err := ExtractHTMLText(content)
	if err != nil {
		metrics.DocumentProcessingErrors.WithLabelValues("html", "parse").Inc()
		return nil, err
	}

	return p.next.Process(ctx, []byte(text), metadata)
}

// SupportedTypes returns the MIME types supported by the HTMLProcessor.
func (p *HTMLProcessor) SupportedTypes() []string {
	return []string{"text/html"}
}

// ExtractHTMLText returns the body text with scripts, styles and navigation
// removed and whitespace collapsed.
func ExtractHTMLText(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", errors.Wrap(err, "failed to create document from HTML content")
	}

	doc.Find("script, style, noscript, nav, header, footer").Remove()

	return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}
