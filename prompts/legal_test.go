package prompts

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptRequest(args map[string]string) mcp.GetPromptRequest {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = args
	return req
}

func TestGraphReviewHandler(t *testing.T) {
	result, err := graphReviewHandler(context.Background(), promptRequest(map[string]string{"document_label": "Smith v. Jones"}))
	require.NoError(t, err)
	assert.Equal(t, "Knowledge graph review of Smith v. Jones", result.Description)
	require.Len(t, result.Messages, 1)

	text, ok := mcp.AsTextContent(result.Messages[0].Content)
	require.True(t, ok)
	assert.Contains(t, text.Text, `center_node_label "Smith v. Jones"`)

	_, err = graphReviewHandler(context.Background(), promptRequest(nil))
	assert.Error(t, err)
}

func TestDocumentIntakeHandler(t *testing.T) {
	result, err := documentIntakeHandler(context.Background(), promptRequest(map[string]string{"url": "https://example.com/j.pdf"}))
	require.NoError(t, err)

	text, ok := mcp.AsTextContent(result.Messages[0].Content)
	require.True(t, ok)
	assert.Contains(t, text.Text, "fetch_document on https://example.com/j.pdf")

	_, err = documentIntakeHandler(context.Background(), promptRequest(map[string]string{}))
	assert.Error(t, err)
}
