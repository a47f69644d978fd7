package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/athapong/lexgraph-mcp/pkg/analysis"
	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/athapong/lexgraph-mcp/pkg/literature"
	"github.com/athapong/lexgraph-mcp/pkg/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	query string
	limit int
	err   error
}

func (s *stubSearcher) Search(_ context.Context, query string, limit int) (*literature.Results, error) {
	s.query, s.limit = query, limit
	if s.err != nil {
		return nil, s.err
	}
	return &literature.Results{Query: query, Results: []literature.Paper{{Title: "On Precedent", Citations: 7, Source: "crossref"}}}, nil
}

func TestLiteratureSearchHandler(t *testing.T) {
	searcher := &stubSearcher{}
	handler := literatureSearchHandler(searcher)

	result, err := handler(context.Background(), callRequest("literature_search", map[string]interface{}{
		"query": "judicial review",
		"limit": float64(3),
	}))
	require.NoError(t, err)

	var results literature.Results
	decodeResult(t, result, &results)
	assert.Equal(t, "judicial review", searcher.query)
	assert.Equal(t, 3, searcher.limit)
	require.Len(t, results.Results, 1)
	assert.Equal(t, "On Precedent", results.Results[0].Title)

	_, err = handler(context.Background(), callRequest("literature_search", map[string]interface{}{"query": "x"}))
	require.NoError(t, err)
	assert.Equal(t, defaultLiteratureLimit, searcher.limit)

	t.Run("search error", func(t *testing.T) {
		_, err := literatureSearchHandler(&stubSearcher{err: errors.New("offline")})(context.Background(),
			callRequest("literature_search", map[string]interface{}{"query": "x"}))
		assert.EqualError(t, err, "offline")
	})

	t.Run("missing query", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest("literature_search", nil))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestPipelineHandler(t *testing.T) {
	engine := graph.NewKnowledgeGraphEngine(graph.WithLogger(quietLogger()))
	searcher := &stubSearcher{}
	runner := orchestrator.New(analysis.NewAnalyzer().WithLogger(quietLogger()), engine, searcher, quietLogger())
	handler := pipelineHandler(runner)

	result, err := handler(context.Background(), callRequest("pipeline_run", map[string]interface{}{
		"text":             judgmentText,
		"document_id":      "doc-7",
		"literature_limit": float64(4),
	}))
	require.NoError(t, err)

	var out orchestrator.Result
	decodeResult(t, result, &out)
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "doc-7", out.DocumentID)
	assert.Equal(t, "legal notice", searcher.query)
	assert.Equal(t, 4, searcher.limit)
	assert.Equal(t, engine.Stats().Nodes, len(out.KnowledgeGraph.Nodes))

	t.Run("generated id", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest("pipeline_run", map[string]interface{}{"text": judgmentText}))
		require.NoError(t, err)
		var out orchestrator.Result
		decodeResult(t, result, &out)
		assert.Len(t, out.DocumentID, 36)
	})

	t.Run("blank text", func(t *testing.T) {
		result, err := handler(context.Background(), callRequest("pipeline_run", map[string]interface{}{"text": "   "}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
