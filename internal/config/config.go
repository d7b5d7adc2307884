// Package config loads and validates the inclusion-directive configuration
// that drives file discovery (spec.md §6 "Inclusion directive grammar").
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Mode is the inclusion mode of a directive. It does not include "top":
// top-ness is a role a file acquires by matching a TopPattern against one
// of its provided unit names, not a discovery-time mode.
type Mode string

const (
	Normal   Mode = "normal"
	Strict   Mode = "strict"
	BlackBox Mode = "blackbox"
)

// Context selects which files are eligible for a resolution.
type Context string

const (
	Simulation Context = "simulation"
	Synthesis  Context = "synthesis"
)

// Directive is one inclusion directive (spec.md §4.1, §6).
type Directive struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
	Mode      Mode   `json:"mode,omitempty"`
	Library   string `json:"library,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
}

// TopPattern is a glob matched against provided entity names to designate
// top units (spec.md §4.1, §6).
type TopPattern struct {
	Glob string `json:"glob"`
}

// Config is the top-level, JSON-serializable resolver configuration.
type Config struct {
	Directives      []Directive  `json:"directives"`
	TopPatterns     []TopPattern `json:"topPatterns,omitempty"`
	RequireVersion  int          `json:"requireVersion,omitempty"`
	DesiredVersion  int          `json:"desiredVersion,omitempty"`
	Context         Context      `json:"context,omitempty"`
	ErrorOnStyle    *bool        `json:"errorOnStyle,omitempty"`
	TestCaseSuffix  string       `json:"testCaseSuffix,omitempty"`
}

// DefaultConfig returns the resolver defaults: recurse the current
// directory in normal mode, top pattern `*_tc`, desired version 2008,
// simulation context, and style violations treated as fatal (spec.md §4.6).
func DefaultConfig() *Config {
	return &Config{
		Directives: []Directive{
			{Path: ".", Recursive: true, Mode: Normal, Library: "work", Pattern: "*.vhd*"},
		},
		TopPatterns:    []TopPattern{{Glob: "*_tc"}},
		DesiredVersion: 2008,
		Context:        Simulation,
		ErrorOnStyle:   boolPtr(true),
		TestCaseSuffix: "_tc",
	}
}

func boolPtr(v bool) *bool { return &v }

// StyleIsFatal reports whether strict-mode style violations should be
// treated as fatal (the core default) or merely reported.
func (c *Config) StyleIsFatal() bool {
	if c.ErrorOnStyle == nil {
		return true
	}
	return *c.ErrorOnStyle
}

// Load finds and loads the configuration file.
// Search order:
//  1. ./vhdeps.json (current working directory)
//  2. ./.vhdeps.json (current working directory)
//  3. <rootPath>/vhdeps.json (if different from cwd)
//  4. <rootPath>/.vhdeps.json (if different from cwd)
//  5. ~/.config/vhdeps/config.json
//
// Returns DefaultConfig if no config file is found.
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, "vhdeps.json"),
		filepath.Join(cwd, ".vhdeps.json"),
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(rootPath, "vhdeps.json"),
				filepath.Join(rootPath, ".vhdeps.json"),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "vhdeps", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads and validates configuration from a specific file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("validating config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults.
func (c *Config) applyDefaults() {
	if c.DesiredVersion == 0 {
		c.DesiredVersion = 2008
	}
	if c.Context == "" {
		c.Context = Simulation
	}
	if c.ErrorOnStyle == nil {
		c.ErrorOnStyle = boolPtr(true)
	}
	if c.TestCaseSuffix == "" {
		c.TestCaseSuffix = "_tc"
	}
	if len(c.TopPatterns) == 0 {
		c.TopPatterns = []TopPattern{{Glob: "*" + c.TestCaseSuffix}}
	}
	for i := range c.Directives {
		if c.Directives[i].Library == "" {
			c.Directives[i].Library = "work"
		}
		if c.Directives[i].Pattern == "" {
			c.Directives[i].Pattern = "*.vhd*"
		}
		if c.Directives[i].Mode == "" {
			c.Directives[i].Mode = Normal
		}
	}
}

// Save writes the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
