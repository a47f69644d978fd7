package compare

import (
	"fmt"
	"strings"
	"testing"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocuments(t *testing.T) {
	c, err := Documents("the tenant shall pay rent", "the landlord shall pay rent monthly")
	require.NoError(t, err)

	assert.Equal(t, 5, c.LeftWords)
	assert.Equal(t, 6, c.RightWords)
	assert.Equal(t, 4, c.SharedWords)
	assert.InDelta(t, 4.0/7.0, c.OverlapRatio, 1e-9)
	assert.Equal(t, []string{"tenant"}, c.MissingInRight)
	assert.Equal(t, []string{"landlord", "monthly"}, c.MissingInLeft)

	// every character of both inputs is accounted for
	assert.Equal(t, len("the tenant shall pay rent"), c.Diff.Equal+c.Diff.Deleted)
	assert.Equal(t, len("the landlord shall pay rent monthly"), c.Diff.Equal+c.Diff.Inserted)
}

func TestDocumentsIdentical(t *testing.T) {
	c, err := Documents("same words here", "same words here")
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.OverlapRatio)
	assert.Empty(t, c.MissingInLeft)
	assert.Equal(t, DiffStats{Equal: len("same words here")}, c.Diff)
}

func TestDocumentsRequiresBoth(t *testing.T) {
	_, err := Documents("  ", "text")
	assert.True(t, errors.Is(err, graph.ErrInvalidArgument))

	_, err = Documents("text", "")
	assert.True(t, errors.Is(err, graph.ErrInvalidArgument))
}

func TestMissingWordsCapped(t *testing.T) {
	words := make([]string, 0, 300)
	for i := 0; i < 300; i++ {
		words = append(words, fmt.Sprintf("w%03d", i))
	}

	c, err := Documents(strings.Join(words, " "), "unrelated")
	require.NoError(t, err)
	assert.Len(t, c.MissingInRight, maxMissing)
	assert.Equal(t, "w000", c.MissingInRight[0])
	assert.Equal(t, 300, c.LeftWords)
}
