package algorithms

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// undirected is an adjacency list that records each edge in both directions.
type undirected map[string][]string

func (u undirected) Neighbors(id string) []string { return u[id] }

func (u undirected) link(a, b string) undirected {
	u[a] = append(u[a], b)
	u[b] = append(u[b], a)
	return u
}

// star: hub connected to a, b; a connected to c; c connected to d.
func star() undirected {
	return undirected{}.link("hub", "a").link("hub", "b").link("a", "c").link("c", "d")
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestNeighborhood(t *testing.T) {
	tests := []struct {
		name  string
		start string
		depth int
		want  []string
	}{
		{name: "depth zero", start: "hub", depth: 0, want: []string{"hub"}},
		{name: "one hop", start: "hub", depth: 1, want: []string{"hub", "a", "b"}},
		{name: "two hops", start: "hub", depth: 2, want: []string{"hub", "a", "b", "c"}},
		{name: "beyond diameter", start: "hub", depth: 50, want: []string{"hub", "a", "b", "c", "d"}},
		{name: "isolated start", start: "lonely", depth: 3, want: []string{"lonely"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Neighborhood(star(), tt.start, tt.depth)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, keys(got))
		})
	}

	t.Run("negative depth", func(t *testing.T) {
		_, err := Neighborhood(star(), "hub", -1)
		assert.True(t, errors.Is(err, ErrNegativeDepth))
	})

	t.Run("cycles terminate", func(t *testing.T) {
		cycle := undirected{}.link("x", "y").link("y", "z").link("z", "x")
		got, err := Neighborhood(cycle, "x", 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"x", "y", "z"}, keys(got))
	})
}

func TestTraverse(t *testing.T) {
	traversal := NewGraphTraversal(star())

	t.Run("bfs visits level by level", func(t *testing.T) {
		got, err := traversal.Traverse("hub", 2, BFS)
		require.NoError(t, err)
		assert.Equal(t, []string{"hub", "a", "b", "c"}, got)
	})

	t.Run("dfs goes deep first", func(t *testing.T) {
		got, err := traversal.Traverse("hub", 3, DFS)
		require.NoError(t, err)
		assert.Equal(t, []string{"hub", "a", "c", "d", "b"}, got)
	})

	t.Run("dfs respects depth", func(t *testing.T) {
		got, err := traversal.Traverse("hub", 1, DFS)
		require.NoError(t, err)
		assert.Equal(t, []string{"hub", "a", "b"}, got)
	})

	t.Run("dfs revisits a node reached by a shorter path", func(t *testing.T) {
		// b reaches c with no hops left before a reaches it with one to spare
		g := undirected{}.link("a", "b").link("a", "c").link("b", "c").link("c", "d")
		got, err := NewGraphTraversal(g).Traverse("a", 2, DFS)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, got)

		bfs, err := NewGraphTraversal(g).Traverse("a", 2, BFS)
		require.NoError(t, err)
		assert.ElementsMatch(t, bfs, got)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := traversal.Traverse("hub", 1, TraversalType("ZIGZAG"))
		assert.Error(t, err)
	})

	t.Run("negative depth", func(t *testing.T) {
		_, err := traversal.Traverse("hub", -1, BFS)
		assert.True(t, errors.Is(err, ErrNegativeDepth))
	})
}
