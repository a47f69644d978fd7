package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/athapong/lexgraph-mcp/pkg/graph/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArgs() map[string]interface{} {
	return map[string]interface{}{
		"document_id": "judgment-1",
		"entities": map[string]interface{}{
			"cases":    []interface{}{map[string]interface{}{"text": "Smith v. Jones"}},
			"statutes": []interface{}{map[string]interface{}{"text": "Section 5"}},
			"courts":   []interface{}{map[string]interface{}{"text": "High Court", "start": float64(10)}},
		},
	}
}

func builtHandlers(t *testing.T) *graphHandlers {
	t.Helper()
	h := newGraphHandlers(graph.NewKnowledgeGraphEngine())
	result, err := h.buildHandler(context.Background(), callRequest("knowledge_graph_build", buildArgs()))
	require.NoError(t, err)
	require.False(t, result.IsError)
	return h
}

func TestBuildHandler(t *testing.T) {
	h := newGraphHandlers(graph.NewKnowledgeGraphEngine())

	result, err := h.buildHandler(context.Background(), callRequest("knowledge_graph_build", buildArgs()))
	require.NoError(t, err)

	var snapshot graph.Snapshot
	decodeResult(t, result, &snapshot)
	assert.Len(t, snapshot.Nodes, 3)
	assert.ElementsMatch(t, []graph.Link{
		{Source: "case:Smith v. Jones", Target: "statute:Section 5", Type: graph.RelationCites},
		{Source: "case:Smith v. Jones", Target: "court:High Court", Type: graph.RelationHeardBy},
	}, snapshot.Links)

	t.Run("missing entities", func(t *testing.T) {
		result, err := h.buildHandler(context.Background(), callRequest("knowledge_graph_build", map[string]interface{}{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "entities must be an object")
	})

	t.Run("rejected build keeps previous graph", func(t *testing.T) {
		bad := map[string]interface{}{
			"entities": map[string]interface{}{
				"cases": []interface{}{map[string]interface{}{"text": 42}},
			},
		}
		result, err := h.buildHandler(context.Background(), callRequest("knowledge_graph_build", bad))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, 3, h.engine.Stats().Nodes)
	})

	t.Run("generated document id", func(t *testing.T) {
		args := buildArgs()
		delete(args, "document_id")
		result, err := h.buildHandler(context.Background(), callRequest("knowledge_graph_build", args))
		require.NoError(t, err)
		assert.False(t, result.IsError)
	})
}

func TestSubgraphHandler(t *testing.T) {
	h := builtHandlers(t)

	result, err := h.subgraphHandler(context.Background(), callRequest("knowledge_graph_subgraph", map[string]interface{}{
		"center_node_label": "Smith v. Jones",
		"node_type":         "cases",
		"depth":             float64(1),
	}))
	require.NoError(t, err)

	// default rules point edges at singular ids, so the stored case node is isolated
	var snapshot graph.Snapshot
	decodeResult(t, result, &snapshot)
	require.Len(t, snapshot.Nodes, 1)
	assert.Equal(t, "cases:Smith v. Jones", snapshot.Nodes[0].ID)
	assert.Empty(t, snapshot.Links)

	t.Run("unknown label", func(t *testing.T) {
		result, err := h.subgraphHandler(context.Background(), callRequest("knowledge_graph_subgraph", map[string]interface{}{
			"center_node_label": "Nobody",
		}))
		require.NoError(t, err)
		var snapshot graph.Snapshot
		decodeResult(t, result, &snapshot)
		assert.Empty(t, snapshot.Nodes)
		assert.Empty(t, snapshot.Links)
	})

	t.Run("negative depth", func(t *testing.T) {
		result, err := h.subgraphHandler(context.Background(), callRequest("knowledge_graph_subgraph", map[string]interface{}{
			"center_node_label": "Smith v. Jones",
			"depth":             float64(-1),
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "depth must not be negative")
	})
}

func TestStatsAndAddRelations(t *testing.T) {
	h := builtHandlers(t)

	result, err := h.addRelationsHandler(context.Background(), callRequest("knowledge_graph_add_relations", map[string]interface{}{
		"relations": []interface{}{
			map[string]interface{}{"source": "cases:Smith v. Jones", "target": "statutes:Section 5", "type": "cites"},
			map[string]interface{}{"source": "cases:Smith v. Jones", "target": "statutes:Section 5", "type": "cites"},
		},
	}))
	require.NoError(t, err)

	var stats graph.Stats
	decodeResult(t, result, &stats)
	assert.Equal(t, 3, stats.Nodes)
	assert.Equal(t, 4, stats.Edges)

	result, err = h.statsHandler(context.Background(), callRequest("knowledge_graph_stats", nil))
	require.NoError(t, err)
	decodeResult(t, result, &stats)
	assert.Equal(t, map[string]int{"cases": 1, "statutes": 1, "courts": 1}, stats.ByType)

	t.Run("bad relation", func(t *testing.T) {
		result, err := h.addRelationsHandler(context.Background(), callRequest("knowledge_graph_add_relations", map[string]interface{}{
			"relations": []interface{}{map[string]interface{}{"source": "a"}},
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, 4, h.engine.Stats().Edges)
	})
}

func TestCombinedHandler(t *testing.T) {
	h := newGraphHandlers(graph.NewKnowledgeGraphEngine())
	ctx := context.Background()

	result, err := h.combinedHandler(ctx, callRequest("knowledge_graph", nil))
	require.NoError(t, err)
	var stats graph.Stats
	decodeResult(t, result, &stats)
	assert.Zero(t, stats.Nodes)

	result, err = h.combinedHandler(ctx, callRequest("knowledge_graph", buildArgs()))
	require.NoError(t, err)
	var snapshot graph.Snapshot
	decodeResult(t, result, &snapshot)
	assert.Len(t, snapshot.Nodes, 3)

	result, err = h.combinedHandler(ctx, callRequest("knowledge_graph", map[string]interface{}{
		"center_node_label": "Section 5",
		"depth":             float64(0),
	}))
	require.NoError(t, err)
	decodeResult(t, result, &snapshot)
	require.Len(t, snapshot.Nodes, 1)
	assert.Equal(t, "statutes:Section 5", snapshot.Nodes[0].ID)

	result, err = h.combinedHandler(ctx, callRequest("knowledge_graph", map[string]interface{}{
		"center_node_label": "Section 5",
		"depth":             "two",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestTraverseHandler(t *testing.T) {
	h := newGraphHandlers(graph.NewKnowledgeGraphEngine(graph.WithInferenceRules(graph.BucketInferenceRules())))
	_, err := h.buildHandler(context.Background(), callRequest("knowledge_graph_build", buildArgs()))
	require.NoError(t, err)

	result, err := h.traverseHandler(context.Background(), callRequest("knowledge_graph_traverse", map[string]interface{}{
		"start_id":  "cases:Smith v. Jones",
		"max_depth": float64(1),
		"order":     "bfs",
	}))
	require.NoError(t, err)

	var walk struct {
		StartID string       `json:"start_id"`
		Order   string       `json:"order"`
		Nodes   []graph.Node `json:"nodes"`
	}
	decodeResult(t, result, &walk)
	assert.Equal(t, "BFS", walk.Order)
	require.Len(t, walk.Nodes, 3)
	assert.Equal(t, "cases:Smith v. Jones", walk.Nodes[0].ID)

	t.Run("unknown order", func(t *testing.T) {
		result, err := h.traverseHandler(context.Background(), callRequest("knowledge_graph_traverse", map[string]interface{}{
			"start_id": "cases:Smith v. Jones",
			"order":    "sideways",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("missing start", func(t *testing.T) {
		result, err := h.traverseHandler(context.Background(), callRequest("knowledge_graph_traverse", map[string]interface{}{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestExportHandler(t *testing.T) {
	h := builtHandlers(t)
	ctx := context.Background()
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "graph.json")
	result, err := h.exportHandler(ctx, callRequest("knowledge_graph_export", map[string]interface{}{
		"format": "json",
		"path":   jsonPath,
	}))
	require.NoError(t, err)
	assert.Equal(t, "Exported 3 nodes and 2 links as json", resultText(t, result))

	stored, err := storage.NewJSONGraphStore(jsonPath).LoadGraph(ctx)
	require.NoError(t, err)
	assert.Len(t, stored.Nodes, 3)

	htmlPath := filepath.Join(dir, "graph.html")
	_, err = h.exportHandler(ctx, callRequest("knowledge_graph_export", map[string]interface{}{
		"format": "html",
		"path":   htmlPath,
	}))
	require.NoError(t, err)
	_, err = os.Stat(htmlPath)
	assert.NoError(t, err)

	var exported *graph.Snapshot
	h.export = func(_ context.Context, snapshot *graph.Snapshot) error {
		exported = snapshot
		return nil
	}
	result, err = h.exportHandler(ctx, callRequest("knowledge_graph_export", map[string]interface{}{"format": "neo4j"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.NotNil(t, exported)
	assert.Len(t, exported.Links, 2)

	h.export = func(context.Context, *graph.Snapshot) error { return errors.New("connection refused") }
	_, err = h.exportHandler(ctx, callRequest("knowledge_graph_export", map[string]interface{}{"format": "neo4j"}))
	assert.EqualError(t, err, "connection refused")

	for _, args := range []map[string]interface{}{
		{"format": "json"},
		{"format": "yaml", "path": jsonPath},
		{},
	} {
		result, err := h.exportHandler(ctx, callRequest("knowledge_graph_export", args))
		require.NoError(t, err)
		assert.True(t, result.IsError, "%v", args)
	}
}
