package orchestrator

import (
	"context"
	"strings"

	"github.com/athapong/lexgraph-mcp/pkg/analysis"
	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/athapong/lexgraph-mcp/pkg/literature"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultLiteratureLimit = 8
	fallbackQuery          = "legal research"
)

type Analyzer interface {
	Analyze(text string, info analysis.DocumentInfo) *analysis.Report
}

type GraphBuilder interface {
	BuildFromDocument(documentID string, entities graph.Entities) (*graph.Snapshot, error)
}

type LiteratureSearcher interface {
	Search(ctx context.Context, query string, limit int) (*literature.Results, error)
}

// Input is one document to push through the pipeline.
type Input struct {
	DocumentID      string
	Filename        string
	Text            string
	LiteratureLimit int
}

// Result combines the outputs of every stage.
type Result struct {
	Status         string              `json:"status"`
	DocumentID     string              `json:"document_id"`
	Analysis       *analysis.Report    `json:"analysis"`
	KnowledgeGraph *graph.Snapshot     `json:"knowledge_graph"`
	Literature     *literature.Results `json:"literature"`
	Warnings       []string            `json:"warnings,omitempty"`
}

// Orchestrator runs analysis, graph construction and literature search in
// sequence.
type Orchestrator struct {
	analyzer   Analyzer
	graph      GraphBuilder
	literature LiteratureSearcher
	logger     *logrus.Logger
}

// New wires the stages. literature may be nil to skip the search.
func New(analyzer Analyzer, builder GraphBuilder, search LiteratureSearcher, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Orchestrator{
		analyzer:   analyzer,
		graph:      builder,
		literature: search,
		logger:     logger,
	}
}

// RunFullPipeline analyses the text, rebuilds the graph from the extracted
// entities and searches literature for the classified document type. A
// failed search leaves an empty result list and a warning.
func (o *Orchestrator) RunFullPipeline(ctx context.Context, in Input) (*Result, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, errors.Wrap(graph.ErrInvalidArgument, "document text is required")
	}
	if in.LiteratureLimit <= 0 {
		in.LiteratureLimit = DefaultLiteratureLimit
	}

	log := o.logger.WithField("document_id", in.DocumentID)

	report := o.analyzer.Analyze(in.Text, analysis.DocumentInfo{DocumentID: in.DocumentID, Filename: in.Filename})

	snapshot, err := o.graph.BuildFromDocument(in.DocumentID, report.Entities)
	if err != nil {
		return nil, errors.Wrap(err, "build knowledge graph")
	}

	result := &Result{
		Status:         "ok",
		DocumentID:     in.DocumentID,
		Analysis:       report,
		KnowledgeGraph: snapshot,
	}

	query := literatureQuery(report)
	result.Literature = &literature.Results{Query: query, Results: []literature.Paper{}}
	if o.literature != nil {
		found, err := o.literature.Search(ctx, query, in.LiteratureLimit)
		switch {
		case err != nil:
			log.WithError(err).Warn("Literature search failed")
			result.Warnings = append(result.Warnings, "literature search failed: "+err.Error())
		case found != nil:
			result.Literature = found
		}
	}

	log.WithFields(logrus.Fields{
		"nodes":      len(snapshot.Nodes),
		"links":      len(snapshot.Links),
		"literature": len(result.Literature.Results),
	}).Info("Full pipeline completed")
	return result, nil
}

func literatureQuery(report *analysis.Report) string {
	docType := report.Classification.DocumentType
	if docType == "" || docType == analysis.GeneralDocument {
		return fallbackQuery
	}
	return strings.ReplaceAll(docType, "_", " ")
}
