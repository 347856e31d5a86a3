// Package cmdexec executes operating system commands with bounded wait
// and output size limits, producing structured, recordable results.
package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default limits applied when the Runner fields are left zero.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxOutput = 1 << 20 // 1 MB per stream
)

// Recorder receives every Result the Runner constructs. history.Log is
// the standard implementation; tests substitute their own.
type Recorder interface {
	Record(*Result)
}

// Runner executes commands and appends each Result to History as a side
// effect of every run. Concurrent calls are safe: each run owns its own
// process handle and output buffers, and History serializes appends.
type Runner struct {
	Timeout   time.Duration
	MaxOutput int // bytes per stream
	History   Recorder

	mu  sync.Mutex
	dir string
}

// Dir returns the current working directory for spawned commands.
// Empty means the steward process's own working directory.
func (r *Runner) Dir() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dir
}

// SetDir switches the working directory for subsequent commands.
func (r *Runner) SetDir(dir string) {
	r.mu.Lock()
	r.dir = dir
	r.mu.Unlock()
}

// Run executes argv as a single process without shell interpretation.
// The first element is the binary name, resolved via PATH. Execution
// failures (missing binary, non-zero exit, timeout) are recovered into
// the returned Result; Run only errors on an empty argv.
func (r *Runner) Run(ctx context.Context, argv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty argv")
	}
	return r.start(ctx, strings.Join(argv, " "), argv), nil
}

// RunShell passes commandLine to /bin/sh -c, preserving pipes,
// redirections and whatever else the caller's string encodes. This is
// the free-form entry point and executes its input verbatim; prefer a
// catalog builder where one fits.
func (r *Runner) RunShell(ctx context.Context, commandLine string) *Result {
	return r.start(ctx, commandLine, []string{"/bin/sh", "-c", commandLine})
}

func (r *Runner) start(ctx context.Context, display string, argv []string) *Result {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: maxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: maxOutput}

	started := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(started)

	res := &Result{
		ID:        uuid.New().String(),
		Command:   display,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Duration:  elapsed,
		Timestamp: started,
		Truncated: stdout.Len() >= maxOutput || stderr.Len() >= maxOutput,
	}

	switch {
	case runErr == nil:
		// Clean exit.
	case ctx.Err() == context.DeadlineExceeded:
		res.ExitCode = SpawnFailureCode
		res.TimedOut = true
		res.Stderr = fmt.Sprintf("command timed out after %s", timeout)
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			// The process never started: missing binary, permission
			// denied, bad working directory. Recovered into a failed
			// Result rather than surfaced as an error.
			res.ExitCode = SpawnFailureCode
			res.Stderr = runErr.Error()
		}
	}

	if r.History != nil {
		r.History.Record(res)
	}
	return res
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
