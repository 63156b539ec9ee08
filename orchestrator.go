package widgetmcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/goliatone/go-widgetmcp/pkg/orchestrator"
	"github.com/goliatone/go-widgetmcp/pkg/uitree"
	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// Server identity advertised to MCP clients.
const (
	ServerName = "widgetmcp"
	Version    = "0.1.0"
)

// Definition aliases widget.Definition for callers using the root package.
type Definition = widget.Definition

// Tree aliases uitree.Tree, the result of rendering a definition.
type Tree = uitree.Tree

// Catalog aliases orchestrator.Catalog.
type Catalog = orchestrator.Catalog

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewServer loads every definition beneath dir and returns an MCP server with
// one tool per usable definition. The server is not started.
func NewServer(ctx context.Context, dir string, options ...orchestrator.Option) (*mcp.Server, *Catalog, error) {
	orch := orchestrator.New(options...)
	catalog, err := orch.Load(ctx, dir)
	if err != nil {
		return nil, nil, err
	}
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: Version}, nil)
	if _, err := orch.Register(ctx, server, catalog); err != nil {
		return nil, nil, err
	}
	return server, catalog, nil
}
