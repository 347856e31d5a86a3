// Package config loads and validates the optional steward.yaml file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hallvard/steward/internal/check"
	"github.com/hallvard/steward/internal/cmdexec"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "steward.yaml"

// Default values applied when fields are absent.
const (
	DefaultHTTPAddr     = ":8000"
	DefaultHistoryLimit = 1000
	DefaultLRUCapacity  = 64
)

// Config holds the parsed steward.yaml. All fields are optional; zero
// values select defaults.
type Config struct {
	Version      int           `yaml:"version"`
	RawTimeout   string        `yaml:"timeout"`    // e.g. "30s", "2m"
	RawMaxOutput int           `yaml:"max_output"` // bytes per stream
	Workdir      string        `yaml:"workdir"`    // initial working directory for commands
	History      HistoryConfig `yaml:"history"`
	HTTP         HTTPConfig    `yaml:"http"`
	Checks       ChecksConfig  `yaml:"checks"`
}

// HistoryConfig controls retention of command results.
type HistoryConfig struct {
	RawLimit   int    `yaml:"limit"`       // >0 ring size, <0 unbounded, 0 default
	ArchiveDir string `yaml:"archive_dir"` // enables the JSON archive when set
}

// HTTPConfig controls the panel API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // e.g. ":8000"
}

// ChecksConfig optionally replaces the built-in check groups.
type ChecksConfig struct {
	Groups []GroupConfig `yaml:"groups"`
}

// GroupConfig declares one check group.
type GroupConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Commands    []string `yaml:"commands"`
}

// Timeout returns the configured command timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return cmdexec.DefaultTimeout
}

// MaxOutputBytes returns the configured per-stream output cap or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return cmdexec.DefaultMaxOutput
}

// HTTPAddr returns the configured listen address or the default.
func (c *Config) HTTPAddr() string {
	if c.HTTP.Addr != "" {
		return c.HTTP.Addr
	}
	return DefaultHTTPAddr
}

// HistoryLimit returns the retained result count: the configured ring
// size, 0 for unbounded when a negative limit is set, or the default.
func (c *Config) HistoryLimit() int {
	switch {
	case c.History.RawLimit > 0:
		return c.History.RawLimit
	case c.History.RawLimit < 0:
		return 0
	}
	return DefaultHistoryLimit
}

// CheckGroups returns the configured groups, or nil to select the
// built-in defaults.
func (c *Config) CheckGroups() []check.Group {
	if len(c.Checks.Groups) == 0 {
		return nil
	}
	groups := make([]check.Group, len(c.Checks.Groups))
	for i, g := range c.Checks.Groups {
		groups[i] = check.Group{
			Name:        g.Name,
			Description: g.Description,
			Commands:    g.Commands,
		}
	}
	return groups
}

// Validate rejects configurations that cannot be wired.
func (c *Config) Validate() error {
	for _, g := range c.Checks.Groups {
		if g.Name == "" {
			return fmt.Errorf("check group with empty name")
		}
		if len(g.Commands) == 0 {
			return fmt.Errorf("check group %q has no commands", g.Name)
		}
	}
	if c.Workdir != "" {
		info, err := os.Stat(c.Workdir)
		if err != nil {
			return fmt.Errorf("workdir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("workdir %q is not a directory", c.Workdir)
		}
	}
	return nil
}

// Load reads steward.yaml from dir. A missing file yields the default
// configuration.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	return cfg, nil
}
