// Package check runs the standard diagnostic command groups and folds
// their results into pass/fail reports.
package check

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hallvard/steward/internal/cmdexec"
)

// Group is a named, ordered batch of shell command lines answering one
// operational question.
type Group struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Commands    []string `json:"commands"`
}

// DefaultGroups are the built-in diagnostics, in report order.
func DefaultGroups() []Group {
	return []Group{
		{
			Name:        "system_info",
			Description: "Basic system information",
			Commands: []string{
				"uname -a",
				"hostname",
				"whoami",
			},
		},
		{
			Name:        "disk_usage",
			Description: "Filesystem usage",
			Commands:    []string{"df -h"},
		},
		{
			Name:        "memory_usage",
			Description: "Memory usage",
			Commands:    []string{"free -h"},
		},
		{
			Name:        "processes",
			Description: "Top CPU-consuming processes",
			Commands:    []string{"ps aux --sort=-%cpu | head -10"},
		},
		{
			Name:        "services",
			Description: "Running services",
			Commands:    []string{"systemctl list-units --type=service --state=running"},
		},
	}
}

// UnknownGroupError is returned when a group name is not declared.
type UnknownGroupError struct {
	Name      string
	Available []string
}

func (e *UnknownGroupError) Error() string {
	return fmt.Sprintf("unknown check group %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Engine executes check groups through one Runner. Groups run their
// members strictly in declared order via the shell path, since several
// standard commands use pipes.
type Engine struct {
	Runner *cmdexec.Runner
	Groups []Group
}

// NewEngine creates an Engine. A nil groups slice selects DefaultGroups.
func NewEngine(r *cmdexec.Runner, groups []Group) *Engine {
	if groups == nil {
		groups = DefaultGroups()
	}
	return &Engine{Runner: r, Groups: groups}
}

// GroupReport holds the collected results for one group. The counters
// are pure functions of Results and are never tracked separately.
type GroupReport struct {
	Name        string
	Description string
	Results     []*cmdexec.Result
}

// TotalCommands is the number of member invocations.
func (g *GroupReport) TotalCommands() int {
	return len(g.Results)
}

// SuccessfulCommands counts the members that exited cleanly.
func (g *GroupReport) SuccessfulCommands() int {
	n := 0
	for _, r := range g.Results {
		if r.Success() {
			n++
		}
	}
	return n
}

// MarshalJSON emits the report with its computed counters.
func (g *GroupReport) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name               string            `json:"name"`
		Description        string            `json:"description"`
		Results            []*cmdexec.Result `json:"results"`
		TotalCommands      int               `json:"total_commands"`
		SuccessfulCommands int               `json:"successful_commands"`
	}
	return json.Marshal(wire{
		Name:               g.Name,
		Description:        g.Description,
		Results:            g.Results,
		TotalCommands:      g.TotalCommands(),
		SuccessfulCommands: g.SuccessfulCommands(),
	})
}

// SystemReport aggregates every declared group, declaration order
// preserved.
type SystemReport struct {
	Timestamp time.Time
	Groups    []*GroupReport
}

// TotalCommands sums member invocations across all groups.
func (s *SystemReport) TotalCommands() int {
	n := 0
	for _, g := range s.Groups {
		n += g.TotalCommands()
	}
	return n
}

// SuccessfulCommands sums clean exits across all groups.
func (s *SystemReport) SuccessfulCommands() int {
	n := 0
	for _, g := range s.Groups {
		n += g.SuccessfulCommands()
	}
	return n
}

// MarshalJSON emits the groups as an ordered array; a JSON object would
// not preserve declaration order.
func (s *SystemReport) MarshalJSON() ([]byte, error) {
	type wire struct {
		Timestamp          time.Time      `json:"timestamp"`
		Groups             []*GroupReport `json:"groups"`
		TotalCommands      int            `json:"total_commands"`
		SuccessfulCommands int            `json:"successful_commands"`
	}
	return json.Marshal(wire{
		Timestamp:          s.Timestamp,
		Groups:             s.Groups,
		TotalCommands:      s.TotalCommands(),
		SuccessfulCommands: s.SuccessfulCommands(),
	})
}

// Lookup returns the declared group with the given name.
func (e *Engine) Lookup(name string) (Group, bool) {
	for _, g := range e.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// ExecuteGroup runs one declared group.
func (e *Engine) ExecuteGroup(ctx context.Context, name string) (*GroupReport, error) {
	g, ok := e.Lookup(name)
	if !ok {
		names := make([]string, len(e.Groups))
		for i, dg := range e.Groups {
			names[i] = dg.Name
		}
		return nil, &UnknownGroupError{Name: name, Available: names}
	}
	return e.runGroup(ctx, g), nil
}

// CustomGroup runs a caller-supplied command list as an ad-hoc group.
// The commands go through the shell path and are not validated; this
// carries the same risk as the raw run entry point.
func (e *Engine) CustomGroup(ctx context.Context, name string, commands []string) (*GroupReport, error) {
	if name == "" {
		name = "custom"
	}
	if len(commands) == 0 {
		return nil, fmt.Errorf("custom group %q has no commands", name)
	}
	return e.runGroup(ctx, Group{
		Name:        name,
		Description: "Ad-hoc command group",
		Commands:    commands,
	}), nil
}

// SystemCheck runs every declared group sequentially and folds the
// reports, declaration order preserved.
func (e *Engine) SystemCheck(ctx context.Context) *SystemReport {
	rep := &SystemReport{Timestamp: time.Now()}
	for _, g := range e.Groups {
		rep.Groups = append(rep.Groups, e.runGroup(ctx, g))
	}
	return rep
}

func (e *Engine) runGroup(ctx context.Context, g Group) *GroupReport {
	rep := &GroupReport{Name: g.Name, Description: g.Description}
	// Every member runs regardless of earlier failures; the report's
	// value is the full pass/fail picture.
	for _, cmd := range g.Commands {
		rep.Results = append(rep.Results, e.Runner.RunShell(ctx, cmd))
	}
	return rep
}
