package visualizer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildView(t *testing.T) {
	snap := &graph.Snapshot{
		Nodes: []graph.Node{{ID: "cases:A", Label: "A", Type: "cases"}},
		Links: []graph.Link{
			{Source: "case:A", Target: "statute:S1", Type: "cites"},
			{Source: "case:A", Target: "statute:S1", Type: "cites"},
			{Source: "cases:A", Target: "cases:A", Type: "self"},
		},
	}

	view := buildView(snap)

	require.Len(t, view.Nodes, 3)
	assert.False(t, view.Nodes[0].Placeholder)
	assert.Equal(t, viewNode{ID: "case:A", Label: "A", Type: "case", Placeholder: true}, view.Nodes[1])
	assert.Equal(t, "statute:S1", view.Nodes[2].ID)

	require.Len(t, view.Links, 2)
	assert.Equal(t, 2, view.Links[0].Weight)
	assert.Equal(t, 1, view.Links[1].Weight)
}

func TestRender(t *testing.T) {
	snap := &graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "parties:</script>", Label: "</script>", Type: "parties"},
			{ID: "cases:A", Label: "A", Type: "cases"},
		},
		Links: []graph.Link{{Source: "cases:A", Target: "parties:</script>", Type: "party_in"}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewD3Visualizer("").WithTitle("Smith v. Jones").Render(&buf, snap))
	page := buf.String()

	assert.Contains(t, page, "Nodes: 2, Edges: 1")
	assert.Contains(t, page, "Smith v. Jones")
	assert.Contains(t, page, `const graphData = {"nodes":[`)
	assert.Contains(t, page, `"source":"cases:A"`)
	// the label must not terminate the inline script
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("</script>\n</body>")))
	assert.NotContains(t, page, `"label":"</script>"`)
}

func TestVisualizeWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "html", "graph.html")
	require.NoError(t, NewD3Visualizer(out).Visualize(nil))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Nodes: 0, Edges: 0")
	assert.Contains(t, string(data), `{"nodes":[],"links":[]}`)
}
