// Package mcp exposes repair café statistics as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"rc-stats/internal/app"
)

const (
	serverName    = "rc-stats"
	serverVersion = "0.1.0"
)

// Server holds the state for the MCP server.
type Server struct {
	mcp *mcp.Server
	app *app.App
}

// NewServer creates a new MCP server with every tool registered.
func NewServer(a *app.App) (*Server, error) {
	if a == nil {
		return nil, fmt.Errorf("app is required")
	}
	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil),
		app: a,
	}
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	return s, nil
}

// Run serves on stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Str("version", serverVersion).Msg("Starting MCP server on stdio")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Connect serves a single session on t. Used by tests with in-memory transports.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}
