// Package history keeps the ordered log of command results produced by
// one engine instance, with optional on-disk archiving for lookup by ID.
package history

import (
	"log"
	"sync"

	"github.com/hallvard/steward/internal/cmdexec"
)

// Log is an append-only, mutex-serialized record of executions.
// Insertion order is execution order. With a capacity set the log acts
// as a ring: the oldest entries are dropped once it fills. Entries are
// never updated or reordered.
type Log struct {
	mu      sync.Mutex
	cap     int // 0 = unbounded
	results []*cmdexec.Result
	archive Store // nil disables archiving
}

// NewLog creates a Log retaining at most capacity results.
// A capacity <= 0 means unbounded retention.
func NewLog(capacity int) *Log {
	if capacity < 0 {
		capacity = 0
	}
	return &Log{cap: capacity}
}

// SetArchive attaches a Store that receives every recorded Result,
// keeping evicted entries reachable by ID. Archive writes are
// best-effort; a failure is logged and does not block recording.
func (l *Log) SetArchive(s Store) {
	l.mu.Lock()
	l.archive = s
	l.mu.Unlock()
}

// Record appends a Result. Safe for concurrent use.
func (l *Log) Record(r *cmdexec.Result) {
	l.mu.Lock()
	l.results = append(l.results, r)
	if l.cap > 0 && len(l.results) > l.cap {
		l.results = l.results[len(l.results)-l.cap:]
	}
	archive := l.archive
	l.mu.Unlock()

	if archive != nil {
		if err := archive.Save(r); err != nil {
			log.Printf("archiving result %s: %v", r.ID, err)
		}
	}
}

// Snapshot returns a copy of the retained results, oldest first.
func (l *Log) Snapshot() []*cmdexec.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*cmdexec.Result, len(l.results))
	copy(out, l.results)
	return out
}

// Tail returns a copy of the most recent n results, oldest first.
// n <= 0 returns everything retained.
func (l *Log) Tail(n int) []*cmdexec.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := 0
	if n > 0 && n < len(l.results) {
		start = len(l.results) - n
	}
	out := make([]*cmdexec.Result, len(l.results)-start)
	copy(out, l.results[start:])
	return out
}

// Last returns the most recent result, or false if none were recorded.
func (l *Log) Last() (*cmdexec.Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.results) == 0 {
		return nil, false
	}
	return l.results[len(l.results)-1], true
}

// Len returns the number of retained results.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.results)
}

// Find returns the retained result with the given ID, or false.
func (l *Log) Find(id string) (*cmdexec.Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.results) - 1; i >= 0; i-- {
		if l.results[i].ID == id {
			return l.results[i], true
		}
	}
	return nil, false
}

// ClearAll discards every retained result. This is an explicit
// administrative operation, deliberately not named like an append or
// read so it cannot be reached by accident.
func (l *Log) ClearAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.results)
	l.results = nil
	return n
}
