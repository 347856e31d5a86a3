package cmdexec

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// recorderLog is a minimal in-test Recorder.
type recorderLog struct {
	results []*Result
}

func (l *recorderLog) Record(r *Result) {
	l.results = append(l.results, r)
}

func newTestRunner(t *testing.T) (*Runner, *recorderLog) {
	t.Helper()
	log := &recorderLog{}
	r := &Runner{
		Timeout:   10 * time.Second,
		MaxOutput: 1 << 20,
		History:   log,
	}
	r.SetDir(t.TempDir())
	return r, log
}

func TestRun_Success(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"echo", "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if !res.Success() {
		t.Error("Success() = false, want true")
	}
	if !strings.Contains(res.Stdout, "hello") {
		t.Errorf("Stdout = %q, want to contain 'hello'", res.Stdout)
	}
	if res.ID == "" {
		t.Error("ID is empty")
	}
	if res.Command != "echo hello" {
		t.Errorf("Command = %q, want 'echo hello'", res.Command)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"false"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode == 0 {
		t.Error("ExitCode = 0, want non-zero")
	}
	if res.Success() {
		t.Error("Success() = true, want false")
	}
}

func TestRun_BinaryNotFound(t *testing.T) {
	r, log := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"nonexistent-binary-xyz-123"})
	if err != nil {
		t.Fatalf("spawn failure must not surface as an error, got: %v", err)
	}
	if res.Success() {
		t.Error("Success() = true, want false")
	}
	if res.ExitCode != SpawnFailureCode {
		t.Errorf("ExitCode = %d, want %d", res.ExitCode, SpawnFailureCode)
	}
	if res.Stderr == "" {
		t.Error("Stderr is empty, want a spawn failure description")
	}
	if len(log.results) != 1 {
		t.Errorf("history length = %d, want 1", len(log.results))
	}
}

func TestRun_EmptyArgv(t *testing.T) {
	r, log := newTestRunner(t)
	if _, err := r.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty argv")
	}
	if len(log.results) != 0 {
		t.Errorf("history length = %d, want 0", len(log.results))
	}
}

func TestRun_RecordsHistoryInOrder(t *testing.T) {
	r, log := newTestRunner(t)
	for _, arg := range []string{"one", "two", "three"} {
		if _, err := r.Run(context.Background(), []string{"echo", arg}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(log.results) != 3 {
		t.Fatalf("history length = %d, want 3", len(log.results))
	}
	for i, want := range []string{"echo one", "echo two", "echo three"} {
		if log.results[i].Command != want {
			t.Errorf("history[%d].Command = %q, want %q", i, log.results[i].Command, want)
		}
	}
}

func TestRun_MeasuresWallClock(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.Run(context.Background(), []string{"sleep", "0.2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Duration < 150*time.Millisecond {
		t.Errorf("Duration = %s, want >= 150ms (must include wait time)", res.Duration)
	}
}

func TestRun_Timeout(t *testing.T) {
	r, log := newTestRunner(t)
	r.Timeout = 100 * time.Millisecond

	res, err := r.Run(context.Background(), []string{"sleep", "10"})
	if err != nil {
		t.Fatalf("timeout must not surface as an error, got: %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if res.Success() {
		t.Error("Success() = true, want false")
	}
	if !strings.Contains(res.Stderr, "timed out") {
		t.Errorf("Stderr = %q, want a timeout description", res.Stderr)
	}
	if len(log.results) != 1 {
		t.Errorf("history length = %d, want 1", len(log.results))
	}
}

func TestRunShell_Pipe(t *testing.T) {
	r, _ := newTestRunner(t)
	res := r.RunShell(context.Background(), "echo hello | tr a-z A-Z")
	if res.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0 (stderr: %s)", res.ExitCode, res.Stderr)
	}
	if !strings.Contains(res.Stdout, "HELLO") {
		t.Errorf("Stdout = %q, want to contain 'HELLO'", res.Stdout)
	}
	if res.Command != "echo hello | tr a-z A-Z" {
		t.Errorf("Command = %q, want the original line", res.Command)
	}
}

func TestRunShell_MissingBinary(t *testing.T) {
	r, _ := newTestRunner(t)
	res := r.RunShell(context.Background(), "nonexistent-binary-xyz-123")
	if res.Success() {
		t.Error("Success() = true, want false")
	}
	if res.Stderr == "" {
		t.Error("Stderr is empty, want the shell's failure description")
	}
}

func TestRun_OutputTruncation(t *testing.T) {
	r, _ := newTestRunner(t)
	r.MaxOutput = 100

	res := r.RunShell(context.Background(), "dd if=/dev/zero bs=200 count=1 2>/dev/null")
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
	if len(res.Stdout) > r.MaxOutput {
		t.Errorf("len(Stdout) = %d, want <= %d", len(res.Stdout), r.MaxOutput)
	}
}

func TestResult_WireFormat(t *testing.T) {
	res := &Result{
		ID:        "abc",
		Command:   "echo hi",
		Stdout:    "hi\n",
		ExitCode:  0,
		Duration:  1500 * time.Millisecond,
		Timestamp: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatal(err)
	}
	if wire["return_code"] != float64(0) {
		t.Errorf("return_code = %v, want 0", wire["return_code"])
	}
	if wire["execution_time"] != 1.5 {
		t.Errorf("execution_time = %v, want 1.5", wire["execution_time"])
	}
	if wire["success"] != true {
		t.Errorf("success = %v, want true", wire["success"])
	}

	var back Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Success() || back.ExitCode != 0 || back.Duration != 1500*time.Millisecond {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestResult_SuccessDerivedFromExitCode(t *testing.T) {
	// A result claiming success with a non-zero code must decode as a failure.
	data := []byte(`{"id":"x","command":"false","return_code":1,"success":true}`)
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Success() {
		t.Error("Success() = true, want false (derived from return_code)")
	}
}
