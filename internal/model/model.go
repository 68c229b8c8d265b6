// Package model defines the report data structures for notifyguard.
package model

// Severity mirrors the rule severity as it appears in reports.
type Severity string

const (
	Info    Severity = "info"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Rank orders severities: info < warning < error. Unknown values rank
// below info.
func (s Severity) Rank() int {
	switch s {
	case Info:
		return 1
	case Warning:
		return 2
	case Error:
		return 3
	}
	return 0
}

// Finding is one reported diagnostic, resolved to file coordinates.
type Finding struct {
	Rule     string   `yaml:"rule"`
	Severity Severity `yaml:"severity"`
	File     string   `yaml:"file"`
	Line     int      `yaml:"line"`
	Column   int      `yaml:"column"`
	Message  string   `yaml:"message"`
	// Fix is the message of the first suggested fix, if any.
	Fix     string    `yaml:"fix,omitempty"`
	Related []Related `yaml:"related,omitempty"`
}

// Related points at another location relevant to a finding.
type Related struct {
	File    string `yaml:"file"`
	Line    int    `yaml:"line"`
	Message string `yaml:"message"`
}

// RuleCount is the number of findings for one rule.
type RuleCount struct {
	Rule  string `yaml:"rule"`
	Count int    `yaml:"count"`
}

// Report is the complete result of a run, ready for serialization.
type Report struct {
	RepoName string      `yaml:"repo"`
	Root     string      `yaml:"root"`
	Files    int         `yaml:"files"`
	Findings []Finding   `yaml:"findings"`
	Summary  []RuleCount `yaml:"summary"`
	// Omitted counts findings dropped by truncation.
	Omitted int `yaml:"omitted,omitempty"`
}

// RuleInfo is one entry of the rule catalog listing.
type RuleInfo struct {
	ID       string   `yaml:"id"`
	Severity Severity `yaml:"severity"`
	Fixable  bool     `yaml:"fixable"`
	Title    string   `yaml:"title"`
}
