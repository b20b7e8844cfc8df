// Package mcp serves rivertile's layout policies over the Model Context
// Protocol so agents can inspect them without a running compositor.
package mcp

import (
	"context"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/rivertile/internal/config"
)

const (
	ServerName    = "rivertile"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for offline layout inspection.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	logger    *slog.Logger
}

// NewServer creates a server answering from cfg.
func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		config: cfg,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_layouts",
		Description: "List the layouts rivertile can apply, with their labels and modes, and the default layout. Pass output to resolve that output's default.",
	}, s.handleListLayouts)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "preview_layout",
		Description: "Compute the view placements a layout produces for a view count on an output of the given size, plus an ASCII sketch. Uses the same generator path as the running client, so the result always has exactly one placement per view.",
	}, s.handlePreviewLayout)
}
