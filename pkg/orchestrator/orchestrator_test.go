package orchestrator

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/athapong/lexgraph-mcp/pkg/analysis"
	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/athapong/lexgraph-mcp/pkg/literature"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearch struct {
	query string
	limit int
	err   error
}

func (f *fakeSearch) Search(_ context.Context, query string, limit int) (*literature.Results, error) {
	f.query, f.limit = query, limit
	if f.err != nil {
		return nil, f.err
	}
	return &literature.Results{Query: query, Results: []literature.Paper{{Title: "On Precedent", Citations: 4}}}, nil
}

func quiet() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

const text = "In Smith v. Jones the High Court heard the lawsuit and issued a judgment on 01/02/2020."

func TestRunFullPipeline(t *testing.T) {
	engine := graph.NewKnowledgeGraphEngine(graph.WithLogger(quiet()))
	search := &fakeSearch{}
	o := New(analysis.NewAnalyzer().WithLogger(quiet()), engine, search, quiet())

	res, err := o.RunFullPipeline(context.Background(), Input{DocumentID: "doc-9", Text: text})
	require.NoError(t, err)

	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, "legal_notice", res.Analysis.Classification.DocumentType)
	assert.Equal(t, "legal notice", search.query)
	assert.Equal(t, DefaultLiteratureLimit, search.limit)
	assert.Len(t, res.Literature.Results, 1)
	assert.Empty(t, res.Warnings)

	// the shared engine now holds this document's graph
	assert.Contains(t, res.KnowledgeGraph.Links, graph.Link{Source: "case:Smith v. Jones", Target: "court:High Court", Type: graph.RelationHeardBy})
	assert.Equal(t, len(res.KnowledgeGraph.Nodes), engine.Stats().Nodes)
}

func TestRunFullPipelineLiteratureFailure(t *testing.T) {
	search := &fakeSearch{err: errors.New("offline")}
	o := New(analysis.NewAnalyzer().WithLogger(quiet()), graph.NewKnowledgeGraphEngine(graph.WithLogger(quiet())), search, quiet())

	res, err := o.RunFullPipeline(context.Background(), Input{Text: "plain words only", LiteratureLimit: 3})
	require.NoError(t, err)
	assert.Equal(t, "legal research", search.query)
	assert.Equal(t, 3, search.limit)
	assert.Empty(t, res.Literature.Results)
	assert.Equal(t, "legal research", res.Literature.Query)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "offline")
}

func TestRunFullPipelineRequiresText(t *testing.T) {
	o := New(analysis.NewAnalyzer().WithLogger(quiet()), graph.NewKnowledgeGraphEngine(graph.WithLogger(quiet())), nil, quiet())
	_, err := o.RunFullPipeline(context.Background(), Input{Text: " "})
	assert.ErrorIs(t, err, graph.ErrInvalidArgument)
}
