package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *graph.Snapshot {
	return &graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "cases:A v. B", Label: "A v. B", Type: "cases", Meta: map[string]interface{}{"start": float64(4)}},
			{ID: "statutes:Section 5", Label: "Section 5", Type: "statutes", Meta: map[string]interface{}{}},
		},
		Links: []graph.Link{
			{Source: "cases:A v. B", Target: "statutes:Section 5", Type: "cites"},
			{Source: "cases:A v. B", Target: "statutes:Section 5", Type: "cites"},
			{Source: "case:A v. B", Target: "court:High Court", Type: "heard_by"},
		},
	}
}

func TestJSONGraphStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "graph.json")
	store := NewJSONGraphStore(path)
	assert.Equal(t, path, store.Path())

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, store.StoreGraph(ctx, sampleSnapshot()))

		loaded, err := store.LoadGraph(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleSnapshot(), loaded)
	})

	t.Run("overwrite leaves no temp files", func(t *testing.T) {
		require.NoError(t, store.StoreGraph(ctx, graph.NewSnapshot()))

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "graph.json", entries[0].Name())

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		var doc map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &doc))
		assert.JSONEq(t, `[]`, string(doc["nodes"]))
		assert.JSONEq(t, `[]`, string(doc["links"]))
	})

	t.Run("nil snapshot stores an empty graph", func(t *testing.T) {
		require.NoError(t, store.StoreGraph(ctx, nil))
		loaded, err := store.LoadGraph(ctx)
		require.NoError(t, err)
		assert.Empty(t, loaded.Nodes)
		assert.NotNil(t, loaded.Links)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewJSONGraphStore(filepath.Join(t.TempDir(), "absent.json")).LoadGraph(ctx)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, store.StoreGraph(cancelled, sampleSnapshot()), context.Canceled)
	})
}

func TestExportStatements(t *testing.T) {
	statements, err := exportStatements(sampleSnapshot())
	require.NoError(t, err)

	// two nodes, two placeholders for the dangling link, three relationships
	require.Len(t, statements, 7)

	assert.Equal(t, mergeNodeCypher, statements[0].cypher)
	assert.Equal(t, `{"start":4}`, statements[0].params["meta"])
	assert.Equal(t, "{}", statements[1].params["meta"])

	assert.Equal(t, mergePlaceholderCypher, statements[2].cypher)
	assert.Equal(t, "case:A v. B", statements[2].params["id"])
	assert.Equal(t, "court:High Court", statements[3].params["id"])

	for _, st := range statements[4:] {
		assert.Equal(t, createLinkCypher, st.cypher)
	}
	assert.Equal(t, "heard_by", statements[6].params["type"])

	empty, err := exportStatements(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
