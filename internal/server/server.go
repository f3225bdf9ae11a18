// Package server exposes the pipeline over MCP (stdio) and HTTP.
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Name identifies the MCP server to clients.
const Name = "adapted"

// instructions is sent to clients during initialize.
const instructions = `AdaptEd generates learning content grounded in indexed records.
Use generate_roadmap and generate_quiz for a topic, rank_resources to order
resources by difficulty, and get_project or list_projects for project pages.
index_status shows whether each collection is loaded and fresh.`

// Server is the stdio MCP endpoint for the generation tools.
type Server struct {
	mcp    *mcp.Server
	logger *slog.Logger
}

// New creates a server announcing itself as Name at version.
// Tools are registered on MCPServer before Run.
func New(version string, logger *slog.Logger) *Server {
	s := mcp.NewServer(
		&mcp.Implementation{Name: Name, Version: version},
		&mcp.ServerOptions{Instructions: instructions},
	)
	return &Server{mcp: s, logger: logger}
}

// Run serves stdio until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP", "server", Name, "transport", "stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer exposes the SDK server for tool registration and tests.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Setup installs request logging.
func (s *Server) Setup() {
	s.mcp.AddReceivingMiddleware(LoggingMiddleware(s.logger))
}
