package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewColmergeMCPServer creates an MCP server with the column tools registered:
// scan_columns, combine_columns, combined_status and column_participants.
func NewColmergeMCPServer(svc *ColumnService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "colmerge",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan_columns",
		Description: "Scan the participant directories under the data root. Returns the discovered columns grouped by how they can be merged.",
	}, svc.ScanColumns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "combine_columns",
		Description: "Combine the selected columns into <column>_combined files tagged with participant_id, then verify every value against the source files.",
	}, svc.CombineColumns)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "combined_status",
		Description: "List the combined column directories and files already present in the output directory. With column set, report each file the scan expects for that column and whether its combined output exists.",
	}, svc.CombinedStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "column_participants",
		Description: "List which participants supplied each file of a column, with the source paths.",
	}, svc.ColumnParticipants)

	return server
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunMCPServerHTTP serves the MCP server over streamable HTTP on addr until
// ctx is cancelled.
func RunMCPServerHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
