package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/storefront/internal/catalog"
	"github.com/dshills/storefront/internal/orders"
	"github.com/dshills/storefront/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "storefront-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// StatsSource reports row counts for store_status
type StatsSource interface {
	Stats(ctx context.Context) (*storage.Stats, error)
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	catalog *catalog.Service
	orders  *orders.Service
	stats   StatsSource
}

// NewServer creates a new MCP server exposing read-only storefront tools
func NewServer(cat *catalog.Service, ord *orders.Service, stats StatsSource) (*Server, error) {
	if cat == nil || ord == nil || stats == nil {
		return nil, fmt.Errorf("failed to create MCP server: catalog, orders and stats are required")
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		catalog: cat,
		orders:  ord,
		stats:   stats,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() error {
	s.mcp.AddTool(searchProductsTool(), s.handleSearchProducts)
	s.mcp.AddTool(getProductTool(), s.handleGetProduct)
	s.mcp.AddTool(getOrderTool(), s.handleGetOrder)
	s.mcp.AddTool(storeStatusTool(), s.handleStoreStatus)
	return nil
}
