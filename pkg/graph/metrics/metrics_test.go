package metrics

import (
	"errors"
	"testing"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSnapshot(t *testing.T) {
	RecordSnapshot(&graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "cases:A", Type: "cases"},
			{ID: "cases:B", Type: "cases"},
			{ID: ":x"},
		},
		Links: []graph.Link{
			{Source: "case:A", Target: "statute:S", Type: "cites"},
			{Source: "case:A", Target: "statute:S", Type: "cites"},
		},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(GraphNodeCount.WithLabelValues("cases")))
	assert.Equal(t, 1.0, testutil.ToFloat64(GraphNodeCount.WithLabelValues("unknown")))
	assert.Equal(t, 2.0, testutil.ToFloat64(GraphEdgeCount.WithLabelValues("cites")))

	RecordSnapshot(graph.NewSnapshot())
	assert.Equal(t, 0, testutil.CollectAndCount(GraphNodeCount))
	assert.Equal(t, 0, testutil.CollectAndCount(GraphEdgeCount))
}

func TestRecordBuild(t *testing.T) {
	success := testutil.ToFloat64(GraphBuilds.WithLabelValues("success"))
	failure := testutil.ToFloat64(GraphBuilds.WithLabelValues("error"))

	RecordBuild(&graph.Snapshot{Nodes: []graph.Node{{ID: "dates:1990", Type: "dates"}}}, nil)
	RecordBuild(nil, errors.New("boom"))

	assert.Equal(t, success+1, testutil.ToFloat64(GraphBuilds.WithLabelValues("success")))
	assert.Equal(t, failure+1, testutil.ToFloat64(GraphBuilds.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(GraphNodeCount.WithLabelValues("dates")))
}

func TestUpdateSystemMetrics(t *testing.T) {
	UpdateSystemMetrics()
	assert.Greater(t, testutil.ToFloat64(SystemGoroutines), 0.0)
	assert.Greater(t, testutil.ToFloat64(SystemMemoryUsage), 0.0)
}
