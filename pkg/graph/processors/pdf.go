package processors

import (
	"bytes"
	"context"
	"strings"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/athapong/lexgraph-mcp/pkg/graph/metrics"
	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// PDFProcessor pulls the plain text out of a PDF and hands it to next.
type PDFProcessor struct {
	next graph.DocumentProcessor
}

// NewPDFProcessor wraps next; a nil next defaults to a LegalProcessor.
func NewPDFProcessor(next graph.DocumentProcessor) *PDFProcessor {
	if next == nil {
		next = NewLegalProcessor()
	}
	return &PDFProcessor{next: next}
}

func (p *PDFProcessor) Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*graph.Document, error) {
	text, err := ExtractPDFText(content)
	if err != nil {
		metrics.DocumentProcessingErrors.WithLabelValues("pdf", "parse").Inc()
		return nil, err
	}

	return p.next.Process(ctx, []byte(text), metadata)
}

func (p *PDFProcessor) SupportedTypes() []string {
	return []string{"application/pdf"}
}

// ExtractPDFText concatenates the plain text of every readable page. Pages
// that fail to decode are skipped.
func ExtractPDFText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", errors.Wrap(err, "open pdf")
	}

	var sb strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String()), nil
}
