package cmdexec

import (
	"encoding/json"
	"time"
)

// SpawnFailureCode is the sentinel exit code used when the process could
// not be started, or was killed before reporting a real status.
const SpawnFailureCode = -1

// Result holds the outcome of one command execution. A Result is never
// mutated after the Runner constructs it.
type Result struct {
	ID        string        // unique identifier for this execution
	Command   string        // the exact command line that was executed
	Stdout    string        // captured stdout (may be truncated)
	Stderr    string        // captured stderr (may be truncated)
	ExitCode  int           // process exit status; SpawnFailureCode if it never ran
	Duration  time.Duration // wall clock from spawn to exit, including wait time
	Timestamp time.Time     // when the execution started
	TimedOut  bool          // true if the process was killed on timeout
	Truncated bool          // true if output exceeded the size cap
}

// Success reports whether the command exited cleanly. It is always
// derived from ExitCode and never stored, so the two cannot drift.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// resultWire is the serialized form of a Result. execution_time is in
// fractional seconds per the panel's API contract; success is emitted
// as a convenience field and re-derived on decode.
type resultWire struct {
	ID            string    `json:"id"`
	Command       string    `json:"command"`
	Stdout        string    `json:"stdout"`
	Stderr        string    `json:"stderr"`
	ReturnCode    int       `json:"return_code"`
	ExecutionTime float64   `json:"execution_time"`
	Success       bool      `json:"success"`
	Timestamp     time.Time `json:"timestamp"`
	TimedOut      bool      `json:"timed_out,omitempty"`
	Truncated     bool      `json:"truncated,omitempty"`
}

// MarshalJSON encodes the Result in wire format.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultWire{
		ID:            r.ID,
		Command:       r.Command,
		Stdout:        r.Stdout,
		Stderr:        r.Stderr,
		ReturnCode:    r.ExitCode,
		ExecutionTime: r.Duration.Seconds(),
		Success:       r.Success(),
		Timestamp:     r.Timestamp,
		TimedOut:      r.TimedOut,
		Truncated:     r.Truncated,
	})
}

// UnmarshalJSON decodes the wire format. The success field in the input
// is ignored; it is always derived from return_code.
func (r *Result) UnmarshalJSON(data []byte) error {
	var w resultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Result{
		ID:        w.ID,
		Command:   w.Command,
		Stdout:    w.Stdout,
		Stderr:    w.Stderr,
		ExitCode:  w.ReturnCode,
		Duration:  time.Duration(w.ExecutionTime * float64(time.Second)),
		Timestamp: w.Timestamp,
		TimedOut:  w.TimedOut,
		Truncated: w.Truncated,
	}
	return nil
}
