package tools

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/athapong/lexgraph-mcp/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolGroup is one ENABLE_TOOLS entry and the description shown by tool_manager.
type ToolGroup struct {
	Name string
	Desc string
}

// ToolGroups lists every group main can register.
var ToolGroups = []ToolGroup{
	{"tool_manager", "Tool management"},
	{"knowledge_graph", "Knowledge graph build, subgraph, stats, traversal and export"},
	{"analysis", "Entity extraction, risk assessment, document analysis and comparison"},
	{"literature", "Academic literature search"},
	{"pipeline", "Analysis, graph and literature in one call"},
	{"fetch", "Legal document fetching"},
}

func RegisterToolManagerTool(s *server.MCPServer) {
	tool := mcp.NewTool("tool_manager",
		mcp.WithDescription("Manage MCP tools - enable or disable tools"),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action to perform: list, enable, disable")),
		mcp.WithString("tool_name", mcp.Description("Tool name to enable/disable")),
	)

	s.AddTool(tool, util.ErrorGuard(util.AdaptLegacyHandler(toolManagerHandler)))
}

func toolManagerHandler(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	action, ok := arguments["action"].(string)
	if !ok {
		return mcp.NewToolResultError("action must be a string"), nil
	}

	enableTools := os.Getenv("ENABLE_TOOLS")
	toolList := strings.Split(enableTools, ",")

	switch action {
	case "list":
		var response strings.Builder
		response.WriteString("Available tools:\n")
		allEnabled := enableTools == ""

		for _, t := range ToolGroups {
			status := "disabled"
			if allEnabled || slices.Contains(toolList, t.Name) {
				status = "enabled"
			}
			fmt.Fprintf(&response, "- %s (%s) [%s]\n", t.Name, t.Desc, status)
		}
		response.WriteString("\n")

		response.WriteString("Currently enabled tools:\n")
		if allEnabled {
			response.WriteString("All tools are enabled (ENABLE_TOOLS is empty)\n")
		} else {
			for _, tool := range toolList {
				if tool != "" {
					fmt.Fprintf(&response, "- %s\n", tool)
				}
			}
		}
		return mcp.NewToolResultText(response.String()), nil

	case "enable", "disable":
		toolName, ok := arguments["tool_name"].(string)
		if !ok || toolName == "" {
			return mcp.NewToolResultError("tool_name is required for enable/disable actions"), nil
		}
		if !slices.ContainsFunc(ToolGroups, func(g ToolGroup) bool { return g.Name == toolName }) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown tool: %s", toolName)), nil
		}

		if enableTools == "" {
			toolList = []string{}
		}

		if action == "enable" {
			if !slices.Contains(toolList, toolName) {
				toolList = append(toolList, toolName)
			}
		} else {
			toolList = slices.DeleteFunc(toolList, func(s string) bool { return s == toolName })
		}

		os.Setenv("ENABLE_TOOLS", strings.Join(toolList, ","))

		// registration happens at startup, so the change applies on restart
		return mcp.NewToolResultText(fmt.Sprintf("Successfully %sd tool: %s (takes effect on restart)", action, toolName)), nil

	default:
		return mcp.NewToolResultError("Invalid action. Use 'list', 'enable', or 'disable'"), nil
	}
}
