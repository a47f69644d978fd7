package algorithms

import (
	"fmt"

	"github.com/pkg/errors"
)

type TraversalType string

const (
	BFS TraversalType = "BFS"
	DFS TraversalType = "DFS"
)

// ErrNegativeDepth is returned when a traversal is asked for fewer than zero hops.
var ErrNegativeDepth = errors.New("algorithms: negative depth")

// Adjacency exposes the neighbors of a node id. Implementations decide whether
// edge direction matters; the knowledge graph reports predecessors and
// successors alike.
type Adjacency interface {
	Neighbors(id string) []string
}

// Neighborhood returns every id within depth hops of start, start included.
// Each round expands only the ids discovered in the previous round, so the
// loop stops early once no new neighbors appear.
func Neighborhood(adj Adjacency, start string, depth int) (map[string]struct{}, error) {
	if depth < 0 {
		return nil, errors.Wrapf(ErrNegativeDepth, "depth %d", depth)
	}

	visited := map[string]struct{}{start: {}}
	frontier := []string{start}

	for round := 0; round < depth && len(frontier) > 0; round++ {
		var next []string
		for _, id := range frontier {
			for _, neighbor := range adj.Neighbors(id) {
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = struct{}{}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return visited, nil
}

type GraphTraversal struct {
	adj Adjacency
}

func NewGraphTraversal(adj Adjacency) *GraphTraversal {
	return &GraphTraversal{adj: adj}
}

// Traverse lists the ids reachable from startID within maxDepth hops in visit order.
func (t *GraphTraversal) Traverse(startID string, maxDepth int, traversalType TraversalType) ([]string, error) {
	if maxDepth < 0 {
		return nil, errors.Wrapf(ErrNegativeDepth, "depth %d", maxDepth)
	}

	switch traversalType {
	case BFS:
		return t.bfs(startID, maxDepth, make(map[string]bool)), nil
	case DFS:
		result := make([]string, 0)
		t.dfs(startID, maxDepth, make(map[string]int), &result)
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported traversal type: %s", traversalType)
	}
}

func (t *GraphTraversal) bfs(startID string, maxDepth int, visited map[string]bool) []string {
	queue := []string{startID}
	visited[startID] = true
	result := []string{startID}

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		levelSize := len(queue)
		for i := 0; i < levelSize; i++ {
			current := queue[0]
			queue = queue[1:]

			for _, neighbor := range t.adj.Neighbors(current) {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				result = append(result, neighbor)
				queue = append(queue, neighbor)
			}
		}
	}

	return result
}

// dfs records each id once, in first-visit order. best holds the most hops
// left with which an id has been expanded; an id reached again with more hops
// left is expanded again so nothing within maxDepth is missed.
func (t *GraphTraversal) dfs(currentID string, remaining int, best map[string]int, result *[]string) {
	prev, seen := best[currentID]
	if seen && prev >= remaining {
		return
	}
	if !seen {
		*result = append(*result, currentID)
	}
	best[currentID] = remaining

	if remaining == 0 {
		return
	}
	for _, neighbor := range t.adj.Neighbors(currentID) {
		t.dfs(neighbor, remaining-1, best, result)
	}
}
