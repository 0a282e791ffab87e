package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer exposes relay introspection over stdio MCP. It is a read-only
// side door for tooling and takes no part in the sync loop.
type MCPServer struct {
	Server *server.MCPServer
}

func NewMCPServer(registry *Registry) *MCPServer {
	s := server.NewMCPServer("padlink relay", "1.0.0")

	listClients := mcp.NewTool("list_clients",
		mcp.WithDescription("Get a list of the clients connected to this relay and their roles"))
	s.AddTool(listClients, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.MarshalIndent(registry.List(), "", "  ")
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: string(jsonBytes),
				},
			}}, nil
	})

	return &MCPServer{Server: s}
}

func (s *MCPServer) Start() error {
	slog.Info("Started stdio MCP server")
	defer func() {
		slog.Info("Shut down stdio MCP server")
	}()
	return server.ServeStdio(s.Server)
}
