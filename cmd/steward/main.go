// Command steward runs the admin panel's command engine: an HTTP API,
// an MCP server, and direct CLI access to the standard checks.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/hallvard/steward"
	"github.com/hallvard/steward/internal/catalog"
	"github.com/hallvard/steward/internal/check"
	"github.com/hallvard/steward/internal/cmdexec"
	"github.com/hallvard/steward/internal/config"
	"github.com/hallvard/steward/internal/history"
	"github.com/hallvard/steward/internal/httpapi"
	stwmcp "github.com/hallvard/steward/internal/mcp"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("steward: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "serve":
		err = serveMain(args)
	case "mcp":
		err = mcpMain(args)
	case "check":
		err = checkMain(args)
	case "run":
		err = runMain(args)
	case "version":
		fmt.Println(steward.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "steward: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: steward <command> [flags]

Commands:
  serve       Start the panel HTTP API
  mcp         Start the MCP server (stdio by default)
  check       Run the standard system checks and print the report
  run         Execute one command line and print its result
  version     Print the version
  help        Show this help

Use "steward <command> -h" for command-specific flags.`)
}

// app bundles the wired engine for all entry points.
type app struct {
	cfg     *config.Config
	runner  *cmdexec.Runner
	catalog *catalog.Catalog
	checks  *check.Engine
	log     *history.Log
	archive history.Store // nil when archiving is disabled
}

func newApp(timeoutOverride time.Duration) (*app, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}

	cfg, err := config.Load(wd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	timeout := cfg.Timeout()
	if timeoutOverride > 0 {
		timeout = timeoutOverride
	}

	hist := history.NewLog(cfg.HistoryLimit())
	var archive history.Store
	if cfg.History.ArchiveDir != "" {
		disk := history.NewArchive(cfg.History.ArchiveDir)
		hist.SetArchive(disk)
		archive = history.NewCachedStore(config.DefaultLRUCapacity, disk)
	}

	r := &cmdexec.Runner{
		Timeout:   timeout,
		MaxOutput: cfg.MaxOutputBytes(),
		History:   hist,
	}
	if cfg.Workdir != "" {
		r.SetDir(cfg.Workdir)
	}

	return &app{
		cfg:     cfg,
		runner:  r,
		catalog: catalog.New(r),
		checks:  check.NewEngine(r, cfg.CheckGroups()),
		log:     hist,
		archive: archive,
	}, nil
}

// --- serve ---

func serveMain(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addrFlag := fs.String("addr", "", "listen address (overrides config)")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(0)
	if err != nil {
		return err
	}

	addr := a.cfg.HTTPAddr()
	if *addrFlag != "" {
		addr = *addrFlag
	}

	api := &httpapi.Server{
		Catalog: a.catalog,
		Checks:  a.checks,
		History: a.log,
		Archive: a.archive,
	}
	httpServer := &http.Server{
		Addr:    addr,
		Handler: api.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start the MCP server over HTTP on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(stwmcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(0)
	if err != nil {
		return err
	}

	server := stwmcp.NewServer(a.catalog, a.checks, a.log)

	if *httpAddr != "" {
		return serveMCPHTTP(ctx, server, *httpAddr)
	}
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}

func serveMCPHTTP(ctx context.Context, server *sdkmcp.Server, addr string) error {
	handler := sdkmcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *sdkmcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("mcp listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("mcp http server: %w", err)
	}
	return nil
}

// --- check ---

func checkMain(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "output the report as JSON")
	verboseFlag := fs.Bool("v", false, "include command output for failing groups")
	timeoutFlag := fs.Duration("timeout", 0, "override configured command timeout (e.g. 1m)")
	_ = fs.Parse(args)

	groups := fs.Args()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(*timeoutFlag)
	if err != nil {
		return err
	}

	// Named groups run individually; no arguments means the full check.
	var reports []*check.GroupReport
	var rep *check.SystemReport
	if len(groups) == 0 {
		rep = a.checks.SystemCheck(ctx)
		reports = rep.Groups
	} else {
		rep = &check.SystemReport{Timestamp: time.Now()}
		for _, name := range groups {
			gr, err := a.checks.ExecuteGroup(ctx, name)
			if err != nil {
				return err
			}
			rep.Groups = append(rep.Groups, gr)
		}
		reports = rep.Groups
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		fmt.Print(formatCheckCLI(reports, *verboseFlag))
	}

	if rep.SuccessfulCommands() < rep.TotalCommands() {
		os.Exit(1)
	}
	return nil
}

func formatCheckCLI(reports []*check.GroupReport, verbose bool) string {
	var b []byte
	w := func(format string, args ...any) {
		b = fmt.Appendf(b, format, args...)
	}

	total, ok := 0, 0
	for _, g := range reports {
		total += g.TotalCommands()
		ok += g.SuccessfulCommands()
	}
	if ok == total {
		w("ok\n\n")
	} else {
		w("FAIL\n\n")
	}

	for _, g := range reports {
		marker := "ok"
		if g.SuccessfulCommands() < g.TotalCommands() {
			marker = "FAIL"
		}
		w("  %-15s %d/%d %s\n", g.Name, g.SuccessfulCommands(), g.TotalCommands(), marker)
	}
	w("\n")

	if verbose {
		for _, g := range reports {
			for _, r := range g.Results {
				if r.Success() {
					continue
				}
				w("  $ %s (exit %d)\n", r.Command, r.ExitCode)
				if r.Stderr != "" {
					for _, line := range strings.Split(strings.TrimRight(r.Stderr, "\n"), "\n") {
						w("    %s\n", line)
					}
				}
			}
		}
	}

	return string(b)
}

// --- run ---

func runMain(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "output the result as JSON")
	timeoutFlag := fs.Duration("timeout", 0, "override configured command timeout (e.g. 1m)")
	_ = fs.Parse(args)

	commandLine := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if commandLine == "" {
		return fmt.Errorf("usage: steward run <command line>")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(*timeoutFlag)
	if err != nil {
		return err
	}

	res, err := a.catalog.RunRaw(ctx, commandLine)
	if err != nil {
		return err
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Print(res.Stdout)
		fmt.Fprint(os.Stderr, res.Stderr)
	}

	if !res.Success() {
		code := res.ExitCode
		if code < 0 {
			code = 1
		}
		os.Exit(code)
	}
	return nil
}
