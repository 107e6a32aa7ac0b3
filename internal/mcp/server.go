// Package mcp exposes the dialogue engine as MCP tools over stdio, so agent
// hosts can drive sessions and inspect the exchange corpus.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/karimzakaria/guideflow/internal/lifecycle"
	"github.com/karimzakaria/guideflow/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes dialogue tools.
type Server struct {
	manager *lifecycle.Manager
	store   vectordb.Store
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server. store backs exchange search and may
// be nil when no index is loaded.
func NewServer(manager *lifecycle.Manager, store vectordb.Store) *Server {
	s := &Server{
		manager: manager,
		store:   store,
	}

	s.mcp = server.NewMCPServer(
		"guideflow",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(submitTurnTool, s.handleSubmitTurn)
	s.mcp.AddTool(getProgressTool, s.handleGetProgress)
	s.mcp.AddTool(searchExchangesTool, s.handleSearchExchanges)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
