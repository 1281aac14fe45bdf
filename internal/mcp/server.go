package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rosterhq/roster/internal/service"
)

// MCPServer wraps the mcp-go server with roster tool and resource
// registrations. It lets AI agents inspect admins and manage the users each
// admin owns, going through the same services as the HTTP API.
type MCPServer struct {
	admins *service.AdminService
	users  *service.UserService
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with all roster tools and
// resources. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(admins *service.AdminService, users *service.UserService, logger *slog.Logger, version string) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}
	s := &MCPServer{
		admins: admins,
		users:  users,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"Roster Admin API",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, for clients that launch
// roster as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(false),
	}
}

func destructiveAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
