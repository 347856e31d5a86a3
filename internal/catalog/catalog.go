// Package catalog assembles validated argument vectors for the fixed
// set of operations the panel exposes and delegates them to the
// executor. Parameters are checked before any process is spawned; a
// value that could alter command structure is rejected with a
// ValidationError instead of executed.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hallvard/steward/internal/cmdexec"
)

// Catalog builds and runs the supported operations through one Runner.
type Catalog struct {
	Runner *cmdexec.Runner
}

// New creates a Catalog bound to r.
func New(r *cmdexec.Runner) *Catalog {
	return &Catalog{Runner: r}
}

// RunRaw sends commandLine to the shell verbatim. This is the one entry
// point that skips parameter validation; the caller owns the risk of
// the string it passes.
func (c *Catalog) RunRaw(ctx context.Context, commandLine string) (*cmdexec.Result, error) {
	if strings.TrimSpace(commandLine) == "" {
		return nil, &ValidationError{Param: "command", Value: commandLine, Reason: "must not be empty"}
	}
	return c.Runner.RunShell(ctx, commandLine), nil
}

// List runs ls against path. An empty path lists the working directory.
func (c *Catalog) List(ctx context.Context, path, options string) (*cmdexec.Result, error) {
	if path == "" {
		path = "."
	}
	if err := validatePath("path", path); err != nil {
		return nil, err
	}
	argv, err := withOptions([]string{"ls"}, options)
	if err != nil {
		return nil, err
	}
	return c.Runner.Run(ctx, append(argv, path))
}

// ChangeDir validates that path names an existing directory and
// switches the runner's working directory for subsequent commands.
// No process is spawned; the synthetic Result mirrors a shell cd.
func (c *Catalog) ChangeDir(ctx context.Context, path string) (*cmdexec.Result, error) {
	if err := validatePath("path", path); err != nil {
		return nil, err
	}

	res := &cmdexec.Result{
		ID:        uuid.New().String(),
		Command:   "cd " + path,
		Timestamp: time.Now(),
	}

	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(c.Runner.Dir(), target)
	}
	abs, err := filepath.Abs(target)
	if err == nil {
		var info os.FileInfo
		info, err = os.Stat(abs)
		if err == nil && !info.IsDir() {
			err = fmt.Errorf("%s: not a directory", path)
		}
	}
	if err != nil {
		res.ExitCode = cmdexec.SpawnFailureCode
		res.Stderr = err.Error()
		return res, nil
	}

	c.Runner.SetDir(abs)
	res.Stdout = "working directory changed to: " + abs
	return res, nil
}

// WorkingDir prints the current working directory.
func (c *Catalog) WorkingDir(ctx context.Context) (*cmdexec.Result, error) {
	return c.Runner.Run(ctx, []string{"pwd"})
}

// Processes lists running processes. options defaults to "aux".
func (c *Catalog) Processes(ctx context.Context, options string) (*cmdexec.Result, error) {
	if options == "" {
		options = "aux"
	}
	argv, err := withOptions([]string{"ps"}, options)
	if err != nil {
		return nil, err
	}
	return c.Runner.Run(ctx, argv)
}

// DiskUsage reports filesystem usage. options defaults to "-h".
func (c *Catalog) DiskUsage(ctx context.Context, options string) (*cmdexec.Result, error) {
	if options == "" {
		options = "-h"
	}
	argv, err := withOptions([]string{"df"}, options)
	if err != nil {
		return nil, err
	}
	return c.Runner.Run(ctx, argv)
}

// MemoryUsage reports memory usage. options defaults to "-h".
func (c *Catalog) MemoryUsage(ctx context.Context, options string) (*cmdexec.Result, error) {
	if options == "" {
		options = "-h"
	}
	argv, err := withOptions([]string{"free"}, options)
	if err != nil {
		return nil, err
	}
	return c.Runner.Run(ctx, argv)
}

// ReadFile prints the contents of path.
func (c *Catalog) ReadFile(ctx context.Context, path string) (*cmdexec.Result, error) {
	if err := validatePath("path", path); err != nil {
		return nil, err
	}
	return c.Runner.Run(ctx, []string{"cat", path})
}

// Tail prints the last lines of path. lines defaults to 10.
func (c *Catalog) Tail(ctx context.Context, path string, lines int) (*cmdexec.Result, error) {
	if lines == 0 {
		lines = 10
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}
	if err := validatePath("path", path); err != nil {
		return nil, err
	}
	return c.Runner.Run(ctx, []string{"tail", "-n", strconv.Itoa(lines), path})
}

// Search greps for pattern. path is optional; without it grep reads an
// empty stdin and exits non-zero, matching nothing.
func (c *Catalog) Search(ctx context.Context, pattern, path, options string) (*cmdexec.Result, error) {
	if err := validatePattern("pattern", pattern); err != nil {
		return nil, err
	}
	if path != "" {
		if err := validatePath("path", path); err != nil {
			return nil, err
		}
	}
	argv, err := withOptions([]string{"grep"}, options)
	if err != nil {
		return nil, err
	}
	// "--" guards against a pattern being read as a flag.
	argv = append(argv, "--", pattern)
	if path != "" {
		argv = append(argv, path)
	}
	return c.Runner.Run(ctx, argv)
}

// Service runs a systemctl action, restricted to the panel's allowlist.
// service may be empty for actions like list-units.
func (c *Catalog) Service(ctx context.Context, action, service string) (*cmdexec.Result, error) {
	if err := validateService(action, service); err != nil {
		return nil, err
	}
	argv := []string{"systemctl", action}
	if service != "" {
		argv = append(argv, service)
	}
	return c.Runner.Run(ctx, argv)
}

func withOptions(argv []string, options string) ([]string, error) {
	tokens, err := splitOptions(options)
	if err != nil {
		return nil, err
	}
	return append(argv, tokens...), nil
}
