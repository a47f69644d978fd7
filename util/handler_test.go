package util

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "test_tool"
	req.Params.Arguments = args
	return req
}

func TestErrorGuard(t *testing.T) {
	failing := ErrorGuard(func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("boom")
	})
	result, err := failing(context.Background(), request(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: boom", textOf(t, result))

	panicking := ErrorGuard(func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("kaboom")
	})
	result, err = panicking(context.Background(), request(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Panic: kaboom", textOf(t, result))
}

func TestAdaptLegacyHandler(t *testing.T) {
	handler := AdaptLegacyHandler(func(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		name, _ := arguments["name"].(string)
		return mcp.NewToolResultText("hello " + name), nil
	})

	result, err := handler(context.Background(), request(map[string]interface{}{"name": "court"}))
	require.NoError(t, err)
	assert.Equal(t, "hello court", textOf(t, result))

	result, err = handler(context.Background(), request(nil))
	require.NoError(t, err)
	assert.Equal(t, "hello ", textOf(t, result))
}

func TestJSONResult(t *testing.T) {
	result, err := JSONResult(map[string]int{"nodes": 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes": 2}`, textOf(t, result))

	_, err = JSONResult(make(chan int))
	assert.Error(t, err)
}
