package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rmcp "github.com/rosterhq/roster/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes admin and user
management as tools for AI agents. Supports stdio (default) and HTTP transports.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for direct integration with desktop MCP clients.

In HTTP mode, the server listens on the specified port for streamable HTTP
connections.`,
		Example: `  roster mcp                               # stdio mode
  roster mcp --transport http --port 3001  # HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(transport string, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout carries the protocol in stdio mode, so logs always go to stderr.
	logger := newLogger(os.Stderr, cfg.Logging, false)

	a, err := newApp(cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	mcpSrv := rmcp.NewMCPServer(a.admins, a.users, logger, versionString())

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
