// ABOUTME: MCP server setup for the readiness engine.
// ABOUTME: Wraps MCP server with storage, pipeline and sync queue access.
package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/readiness/internal/engine"
	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/storage"
)

// QueueState exposes the device sync state.
type QueueState interface {
	State() models.SyncState
}

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	repo      storage.Repository
	pipeline  *engine.Pipeline
	queue     QueueState
	now       func() time.Time
}

// NewServer creates a new MCP server. queue may be nil when no device
// queue is attached.
func NewServer(repo storage.Repository, pipeline *engine.Pipeline, queue QueueState) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "readiness",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		repo:      repo,
		pipeline:  pipeline,
		queue:     queue,
		now:       time.Now,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// parseDate parses YYYY-MM-DD, defaulting to today.
func (s *Server) parseDate(v string) (time.Time, error) {
	if v == "" {
		return models.Day(s.now()), nil
	}
	return models.ParseDay(v)
}
