package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dusk-indust/colmerge/internal/mcptools"
	"github.com/dusk-indust/colmerge/internal/orchestrator"
)

func runServeMCP(ctx context.Context, p *orchestrator.Pipeline, graphDB, httpAddr string) error {
	store, err := openGraphStore(graphDB)
	if err != nil {
		return fmt.Errorf("open graph: %w", err)
	}
	defer store.Close()

	svc := mcptools.NewColumnService(p, p.Config(), store)
	server := mcptools.NewColmergeMCPServer(svc)

	if httpAddr != "" {
		slog.Info("serving MCP over HTTP", "addr", httpAddr, "root", p.Config().Root)
		return mcptools.RunMCPServerHTTP(ctx, server, httpAddr)
	}
	slog.Info("serving MCP on stdio", "root", p.Config().Root)
	return mcptools.RunMCPServerStdio(ctx, server)
}
