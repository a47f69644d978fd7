package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseNeo4jWithoutExport(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://localhost:7687")

	require.NoError(t, CloseNeo4j())
	assert.False(t, neo4jConnected.Load())
}
