// ABOUTME: MCP server subcommand
// ABOUTME: Exposes submit_job, vin_search, and queue_status over stdio
package cli

import (
	"context"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purpledash/fieldsync/handlers"
)

// MCPCommand runs the MCP server on stdio.
func MCPCommand(app *App) error {
	log.Println("Starting fieldsync MCP server...")

	submissionHandlers := handlers.NewSubmissionHandlers(app.Store, app.Syncer)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "fieldsync",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "submit_job",
		Description: "Record a completed detailing job; queues it locally when the server is unreachable",
	}, submissionHandlers.SubmitJob)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "vin_search",
		Description: "Look up a vehicle's record and service history by VIN",
	}, submissionHandlers.VinSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "queue_status",
		Description: "Report pending and dead-letter queue counts and connectivity",
	}, submissionHandlers.QueueStatus)

	ctx := context.Background()
	return server.Run(ctx, &mcp.StdioTransport{})
}
