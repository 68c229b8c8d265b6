// Package config loads the .notifyguard.yaml project configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/notifyguard/internal/qualname"
	"github.com/phobologic/notifyguard/internal/rules"
)

// FileName is the configuration file looked up in the analyzed root.
const FileName = ".notifyguard.yaml"

// MaxFileSize bounds the configuration file.
const MaxFileSize = 1 << 20

// ErrUnknownRule is returned for a rule ID that is not in the catalog.
var ErrUnknownRule = errors.New("unknown rule")

// Config is the project configuration. The zero value is the default.
type Config struct {
	// Disabled lists rule IDs that are never reported.
	Disabled []string `yaml:"disabled"`
	// Severity overrides default rule severities.
	Severity map[string]rules.Severity `yaml:"severity"`
	// MinSeverity drops findings below this severity from reports.
	MinSeverity rules.Severity `yaml:"min_severity"`
	// IncludeGenerated analyzes generated files too.
	IncludeGenerated bool `yaml:"include_generated"`
	// MaxFindings truncates reports; 0 keeps everything.
	MaxFindings int `yaml:"max_findings"`
	// Names extends the built-in well-known names.
	Names NamesSource `yaml:"names"`
}

// NamesSource is either a path to a names table or the table inline.
type NamesSource struct {
	Path   string
	Inline *qualname.Names
}

// UnmarshalYAML accepts a scalar path or a mapping.
func (s *NamesSource) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		s.Path = node.Value
		return nil
	case yaml.MappingNode:
		var n qualname.Names
		if err := node.Decode(&n); err != nil {
			return err
		}
		s.Inline = &n
		return nil
	}
	return fmt.Errorf("line %d: names must be a path or a mapping", node.Line)
}

// Find returns the configuration file in root, or "" when there is none.
func Find(root string) string {
	for _, name := range []string{FileName, ".notifyguard.yml"} {
		path := filepath.Join(root, name)
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// Load reads and validates the configuration at path. A relative names
// path is resolved against the configuration file's directory.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(io.LimitReader(f, MaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Names.Path != "" && !filepath.IsAbs(cfg.Names.Path) {
		cfg.Names.Path = filepath.Join(filepath.Dir(path), cfg.Names.Path)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration. Unknown keys are rejected
// and rule IDs are normalized to upper case.
func Parse(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	for i, id := range c.Disabled {
		r, ok := rules.Lookup(id)
		if !ok {
			return fmt.Errorf("disabled: %w %q", ErrUnknownRule, id)
		}
		c.Disabled[i] = r.ID
	}

	severity := make(map[string]rules.Severity, len(c.Severity))
	for id, sev := range c.Severity {
		r, ok := rules.Lookup(id)
		if !ok {
			return fmt.Errorf("severity: %w %q", ErrUnknownRule, id)
		}
		v, err := rules.ParseSeverity(string(sev))
		if err != nil {
			return fmt.Errorf("severity of %s: %w", r.ID, err)
		}
		severity[r.ID] = v
	}
	c.Severity = severity

	if c.MinSeverity != "" {
		v, err := rules.ParseSeverity(string(c.MinSeverity))
		if err != nil {
			return fmt.Errorf("min_severity: %w", err)
		}
		c.MinSeverity = v
	}
	if c.MaxFindings < 0 {
		return fmt.Errorf("max_findings must not be negative, got %d", c.MaxFindings)
	}
	return nil
}

// SeverityOf returns the effective severity of a rule.
func (c *Config) SeverityOf(id string) rules.Severity {
	if v, ok := c.Severity[id]; ok {
		return v
	}
	if r, ok := rules.Lookup(id); ok {
		return r.Severity
	}
	return rules.Warning
}

// ResolveNames merges the configured names into the built-in table.
// extra, when non-empty, is a names file given on the command line and is
// applied last.
func (c *Config) ResolveNames(extra string) (*qualname.Names, error) {
	names := qualname.DefaultNames()
	if c.Names.Inline != nil {
		names = qualname.MergeNames(names, c.Names.Inline)
	}
	for _, path := range []string{c.Names.Path, extra} {
		if path == "" {
			continue
		}
		override, err := loadNamesFile(path)
		if err != nil {
			return nil, err
		}
		names = qualname.MergeNames(names, override)
	}
	return names, nil
}

func loadNamesFile(path string) (*qualname.Names, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("names file %s does not exist", path)
		}
		return nil, fmt.Errorf("opening names file: %w", err)
	}
	defer f.Close()
	n, err := qualname.LoadNames(io.LimitReader(f, MaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
