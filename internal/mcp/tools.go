package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hallvard/steward/internal/check"
	"github.com/hallvard/steward/internal/cmdexec"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type runParams struct {
	Command string `json:"command" jsonschema:"the shell command line to execute verbatim"`
}

func (h *handler) runHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params runParams) (*sdkmcp.CallToolResult, any, error) {
	res, err := h.catalog.RunRaw(ctx, params.Command)
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(formatResult(res))
}

type systemCheckParams struct{}

func (h *handler) systemCheckHandler(ctx context.Context, req *sdkmcp.CallToolRequest, _ systemCheckParams) (*sdkmcp.CallToolResult, any, error) {
	return textResult(formatSystemReport(h.checks.SystemCheck(ctx)))
}

type checkGroupParams struct {
	Group string `json:"group" jsonschema:"name of the check group to run (e.g. disk_usage)"`
}

func (h *handler) checkGroupHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params checkGroupParams) (*sdkmcp.CallToolResult, any, error) {
	if params.Group == "" {
		return errorResult("group is required")
	}
	rep, err := h.checks.ExecuteGroup(ctx, params.Group)
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(formatGroupReport(rep, true))
}

type historyParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of entries to return, most recent first; 0 returns everything retained"`
}

func (h *handler) historyHandler(ctx context.Context, req *sdkmcp.CallToolRequest, params historyParams) (*sdkmcp.CallToolResult, any, error) {
	results := h.log.Tail(params.Limit)
	if len(results) == 0 {
		return textResult("No commands executed yet.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "History: %d entries (oldest first)\n\n", len(results))
	for _, r := range results {
		status := "ok"
		if !r.Success() {
			status = fmt.Sprintf("exit %d", r.ExitCode)
			if r.TimedOut {
				status = "timeout"
			}
		}
		fmt.Fprintf(&b, "  %-8s %8s  %s\n", status, r.Duration.Round(timePrecision), r.Command)
	}
	return textResult(b.String())
}

func formatResult(r *cmdexec.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "$ %s\n", r.Command)
	if r.Success() {
		fmt.Fprintf(&b, "ok in %s\n", r.Duration.Round(timePrecision))
	} else if r.TimedOut {
		fmt.Fprintf(&b, "TIMEOUT after %s\n", r.Duration.Round(timePrecision))
	} else {
		fmt.Fprintf(&b, "FAIL (exit %d) in %s\n", r.ExitCode, r.Duration.Round(timePrecision))
	}
	if r.Stdout != "" {
		fmt.Fprintf(&b, "\n%s", ensureNewline(r.Stdout))
	}
	if r.Stderr != "" {
		fmt.Fprintf(&b, "\nstderr:\n%s", ensureNewline(r.Stderr))
	}
	if r.Truncated {
		fmt.Fprintln(&b, "\n(output truncated)")
	}
	return b.String()
}

func formatGroupReport(g *check.GroupReport, verbose bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s — %s: %d/%d ok\n", g.Name, g.Description, g.SuccessfulCommands(), g.TotalCommands())
	if verbose {
		for _, r := range g.Results {
			fmt.Fprintln(&b)
			b.WriteString(formatResult(r))
		}
	}
	return b.String()
}

func formatSystemReport(rep *check.SystemReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "System check: %d/%d commands ok\n\n", rep.SuccessfulCommands(), rep.TotalCommands())
	for _, g := range rep.Groups {
		marker := "ok"
		if g.SuccessfulCommands() < g.TotalCommands() {
			marker = "FAIL"
		}
		fmt.Fprintf(&b, "  %-15s %d/%d %s\n", g.Name, g.SuccessfulCommands(), g.TotalCommands(), marker)
	}
	for _, g := range rep.Groups {
		if g.SuccessfulCommands() == g.TotalCommands() {
			continue
		}
		fmt.Fprintln(&b)
		b.WriteString(formatGroupReport(g, true))
	}
	return b.String()
}

const timePrecision = time.Millisecond

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
