// Package mcp exposes the marketing form catalogue to AI agents over the
// Model Context Protocol.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/formgate/formgate/internal/model"
	"github.com/formgate/formgate/internal/slug"
)

// Forms is the read side of the form service.
type Forms interface {
	List(ctx context.Context) ([]model.FormResponse, error)
	Lookup(ctx context.Context, idOrSlug string) (*model.FormResponse, error)
}

// MCPServer wraps the mcp-go server with formgate's tools and resources.
type MCPServer struct {
	forms   Forms
	codec   *slug.Codec
	slugMax int
	logger  *slog.Logger
	server  *server.MCPServer
}

// NewMCPServer creates an MCPServer with every tool and resource registered.
// The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(forms Forms, codec *slug.Codec, slugMax int, version string, logger *slog.Logger) *MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	if slugMax <= 0 {
		slugMax = slug.DefaultMaxLength
	}
	s := &MCPServer{
		forms:   forms,
		codec:   codec,
		slugMax: slugMax,
		logger:  logger,
	}

	mcpServer := server.NewMCPServer(
		"formgate",
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
// formgate as a subprocess.
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

// Handler returns a Streamable HTTP handler that can be mounted on an
// existing router.
func (s *MCPServer) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.server)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
