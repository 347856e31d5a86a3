// Package mcp exposes the steward command engine as MCP tools, so
// operator assistants can run diagnostics over the same engine the
// panel uses.
package mcp

import (
	_ "embed"

	"github.com/hallvard/steward"
	"github.com/hallvard/steward/internal/catalog"
	"github.com/hallvard/steward/internal/check"
	"github.com/hallvard/steward/internal/history"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	catalog *catalog.Catalog
	checks  *check.Engine
	log     *history.Log
}

// NewServer creates an MCP server with all steward tools registered.
func NewServer(cat *catalog.Catalog, checks *check.Engine, log *history.Log) *sdkmcp.Server {
	h := &handler{catalog: cat, checks: checks, log: log}

	opts := &sdkmcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &sdkmcp.ServerCapabilities{
			Tools: &sdkmcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "steward", Version: steward.Version}, opts)

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name: "stw_run",
		Description: `Execute a shell command line on the managed host and return its structured result.

The line is passed to the shell verbatim, so pipes and redirections work. The result
reports stdout, stderr, the exit code, and the wall-clock execution time.`,
	}, h.runHandler)

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name: "stw_system_check",
		Description: `Run every standard check group (system info, disk, memory, processes, services).

All member commands run regardless of earlier failures; the report shows per-group
pass/fail counts. Use stw_check_group to drill into a single group.`,
	}, h.systemCheckHandler)

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "stw_check_group",
		Description: "Run one standard check group by name and return its pass/fail report with full command output.",
	}, h.checkGroupHandler)

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "stw_history",
		Description: "List the most recent command executions recorded by this engine instance, newest last.",
	}, h.historyHandler)

	return s
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*sdkmcp.CallToolResult, any, error) {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*sdkmcp.CallToolResult, any, error) {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
