package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	fmcp "github.com/formgate/formgate/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the marketing form
catalogue and the slug codec as tools for AI agents. Supports stdio (default)
and HTTP transports.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for desktop MCP clients.

In HTTP mode, the server listens on the given port using the streamable HTTP
transport. 'formgate serve' also mounts it at /mcp behind bearer auth.`,
		Example: `  formgate mcp                              # stdio mode
  formgate mcp --transport http --port 3001  # HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport mode: stdio or http (default: mcp.transport)")
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port, only used with --transport http (default: mcp.port)")

	return cmd
}

func runMCP(transport string, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if transport == "" {
		transport = cfg.MCP.Transport
	}
	if port == 0 {
		port = cfg.MCP.Port
	}

	// stdout belongs to the protocol in stdio mode; logs always go to stderr.
	logger := newLogger(cfg.Logging, false, os.Stderr)

	a, err := openApp(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	mcpSrv := fmcp.NewMCPServer(a.forms, a.codec, cfg.Slugs.MaxLength, versionString(), logger)

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		addr := fmt.Sprintf(":%d", port)
		logger.Info("starting MCP HTTP server", "addr", addr)
		return mcpSrv.ServeHTTP(addr)
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
