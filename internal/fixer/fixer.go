// Package fixer implements rule-based analysis and repair of service
// configuration files. Each fixer plugin owns an ordered rule table and a
// prioritized list of well-known config locations; the shared engine detects
// drift against the rules and patches the file in place, block-aware for
// grammars with nested brace scopes.
package fixer

import (
	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/plugin"
	"github.com/jano-project/jano/internal/svcctl"
)

// IssueType classifies why a rule flagged the configuration.
type IssueType string

const (
	// IssueMissing means a required directive is absent from the file.
	IssueMissing IssueType = "missing"
	// IssueIncorrect means the directive exists with the wrong value.
	IssueIncorrect IssueType = "incorrect"
)

// Issue is one detected deviation from a rule. Produced fresh by every
// Analyze call and never mutated.
type Issue struct {
	RuleID      string        `json:"id"`
	Type        IssueType     `json:"issue_type"`
	Description string        `json:"description"`
	Severity    core.Severity `json:"severity"`
	Current     string        `json:"current,omitempty"`
	Fix         string        `json:"fix"`
	Block       string        `json:"block,omitempty"`
}

// Analysis is the immutable result of one Analyze call. For block-aware
// grammars it carries the block spans so Apply can reuse them.
type Analysis struct {
	Success bool    `json:"success"`
	Service string  `json:"service,omitempty"`
	Path    string  `json:"file_path,omitempty"`
	Issues  []Issue `json:"issues"`
	Blocks  []Span  `json:"blocks,omitempty"`
	Message string  `json:"message"`
}

// FixOutcome reports what Apply changed, plus the restart result when the
// caller asked for one.
type FixOutcome struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Applied int             `json:"applied"`
	Changes []string        `json:"changes,omitempty"`
	Restart *svcctl.Outcome `json:"restart,omitempty"`
}

// Fixer is the contract a config fixer plugin satisfies on top of the base
// plugin interface.
type Fixer interface {
	plugin.Plugin

	// Services lists the service names this fixer can handle.
	Services() []string

	// Analyze inspects the config file (auto-detected when path is empty)
	// and returns the detected issues.
	Analyze(path string) (*Analysis, error)

	// Apply patches the file. A nil issue list means fix everything Analyze
	// finds. With backup set, the file is copied aside before any mutation.
	Apply(path string, issues []Issue, backup bool) (*FixOutcome, error)

	// RestartPlan builds the validation and restart strategy chain for one
	// of this fixer's services.
	RestartPlan(service string) svcctl.Plan
}
