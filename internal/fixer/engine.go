package fixer

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/svcctl"
)

// Rule is one hardening check: a detection pattern, the canonical directive
// the file should contain, and where a missing directive belongs. Rules are
// compiled once per plugin instance and never mutated.
type Rule struct {
	ID          string
	Pattern     *regexp.Regexp
	Replacement string
	Description string
	Severity    core.Severity
	Required    bool
	Block       string
}

// EngineConfig assembles one fixer plugin from its rule table.
type EngineConfig struct {
	Name        string
	Description string
	Services    []string
	Paths       []string
	Rules       []Rule
	BlockTypes  []string
	Restart     func(service string) svcctl.Plan
}

// Engine is the shared analyze/apply machinery behind every fixer plugin.
// Concrete plugins supply the rule table; the engine owns file resolution,
// drift detection, backup, and patching.
type Engine struct {
	name        string
	description string
	services    []string
	paths       []string
	rules       []Rule
	scanner     *blockScanner
	restart     func(service string) svcctl.Plan
	logger      zerolog.Logger
}

// NewEngine builds a fixer engine from its configuration.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		name:        cfg.Name,
		description: cfg.Description,
		services:    cfg.Services,
		paths:       cfg.Paths,
		rules:       cfg.Rules,
		restart:     cfg.Restart,
		logger:      zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("fixer", cfg.Name).Logger(),
	}
	if len(cfg.BlockTypes) > 0 {
		e.scanner = newBlockScanner(cfg.BlockTypes)
	}
	return e
}

func (e *Engine) Name() string        { return e.name }
func (e *Engine) Description() string { return e.description }
func (e *Engine) Services() []string  { return e.services }

// Initialize accepts a custom config file location via the "config_path"
// setting, which then takes priority over the well-known paths.
func (e *Engine) Initialize(settings map[string]any) error {
	if custom, ok := settings["config_path"].(string); ok && custom != "" {
		e.paths = append([]string{custom}, e.paths...)
	}
	return nil
}

// RestartPlan builds the restart plan for one of this fixer's services.
func (e *Engine) RestartPlan(service string) svcctl.Plan {
	if e.restart != nil {
		return e.restart(service)
	}
	return svcctl.Plan{
		Service: service,
		Strategies: [][]string{
			{"systemctl", "restart", service},
			{"service", service, "restart"},
		},
	}
}

// resolvePath returns the caller path when given, else the first well-known
// path that exists on disk.
func (e *Engine) resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	for _, candidate := range e.paths {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s configuration file: %w", e.name, core.ErrNotFound)
}

// Analyze checks every rule against the resolved config file.
func (e *Engine) Analyze(path string) (*Analysis, error) {
	resolved, err := e.resolvePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", resolved, err)
	}
	lines := strings.Split(string(data), "\n")

	var spans []Span
	if e.scanner != nil {
		spans = e.scanner.Scan(lines)
	}

	var issues []Issue
	for _, rule := range e.rules {
		matched := ""
		for _, line := range lines {
			if rule.Pattern.MatchString(line) {
				matched = line
				break
			}
		}

		switch {
		case matched == "" && rule.Required:
			if rule.Block != "" {
				// Only flag when a target block exists to insert into.
				if _, ok := firstSpan(spans, rule.Block); !ok {
					continue
				}
			}
			issues = append(issues, Issue{
				RuleID:      rule.ID,
				Type:        IssueMissing,
				Description: rule.Description,
				Severity:    rule.Severity,
				Fix:         rule.Replacement,
				Block:       rule.Block,
			})

		case matched != "" && strings.TrimSpace(matched) != rule.Replacement:
			issues = append(issues, Issue{
				RuleID:      rule.ID,
				Type:        IssueIncorrect,
				Description: rule.Description,
				Severity:    rule.Severity,
				Current:     strings.TrimSpace(matched),
				Fix:         rule.Replacement,
				Block:       rule.Block,
			})
		}
	}

	e.logger.Debug().Str("path", resolved).Int("issues", len(issues)).Msg("analysis complete")
	return &Analysis{
		Success: true,
		Path:    resolved,
		Issues:  issues,
		Blocks:  spans,
		Message: fmt.Sprintf("Found %d security issues in %s configuration", len(issues), e.name),
	}, nil
}

// Apply patches the resolved file. Issues are processed in input order;
// unknown rule ids are skipped. The whole line sequence is rewritten in one
// pass at the end, preserving the original file mode.
func (e *Engine) Apply(path string, issues []Issue, backup bool) (*FixOutcome, error) {
	resolved, err := e.resolvePath(path)
	if err != nil {
		return nil, err
	}

	if issues == nil {
		analysis, err := e.Analyze(resolved)
		if err != nil {
			return nil, err
		}
		issues = analysis.Issues
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", resolved, err)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", resolved, err)
	}

	if backup {
		backupPath := fmt.Sprintf("%s.bak.%s", resolved, time.Now().Format("20060102150405"))
		if err := os.WriteFile(backupPath, data, info.Mode().Perm()); err != nil {
			return nil, fmt.Errorf("creating backup %s: %w", backupPath, err)
		}
		e.logger.Info().Str("backup", backupPath).Msg("backup created")
	}

	lines := strings.Split(string(data), "\n")
	var spans []Span
	if e.scanner != nil {
		spans = e.scanner.Scan(lines)
	}

	var changes []string
	for _, issue := range issues {
		rule, ok := e.ruleByID(issue.RuleID)
		if !ok {
			continue
		}

		switch issue.Type {
		case IssueMissing:
			if rule.Block != "" {
				span, ok := firstSpan(spans, rule.Block)
				if !ok {
					e.logger.Warn().Str("rule", rule.ID).Str("block", rule.Block).Msg("no target block for missing directive")
					continue
				}
				indent := leadingWhitespace(lines[span.Start]) + "    "
				lines = insertLine(lines, span.Start+1, indent+issue.Fix)
				shiftSpans(spans, span.Start)
				changes = append(changes, fmt.Sprintf("Added: %s to %s block", issue.Fix, rule.Block))
			} else {
				lines = appendDirective(lines, issue.Fix)
				changes = append(changes, fmt.Sprintf("Added: %s", issue.Fix))
			}

		case IssueIncorrect:
			for i, line := range lines {
				if rule.Pattern.MatchString(line) {
					old := strings.TrimSpace(line)
					lines[i] = leadingWhitespace(line) + issue.Fix
					changes = append(changes, fmt.Sprintf("Modified: %s -> %s", old, issue.Fix))
					break
				}
			}
		}
	}

	if len(changes) == 0 {
		return &FixOutcome{
			Success: false,
			Message: fmt.Sprintf("No fixes were applied to the %s configuration", e.name),
		}, nil
	}

	if err := os.WriteFile(resolved, []byte(strings.Join(lines, "\n")), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("writing %s: %w", resolved, err)
	}

	e.logger.Info().Str("path", resolved).Int("applied", len(changes)).Msg("fixes applied")
	return &FixOutcome{
		Success: true,
		Message: fmt.Sprintf("Successfully applied %d fixes to %s configuration", len(changes), e.name),
		Applied: len(changes),
		Changes: changes,
	}, nil
}

func (e *Engine) ruleByID(id string) (Rule, bool) {
	for _, rule := range e.rules {
		if rule.ID == id {
			return rule, true
		}
	}
	return Rule{}, false
}

func leadingWhitespace(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return line[:i]
		}
	}
	return line
}

func insertLine(lines []string, at int, line string) []string {
	if at > len(lines) {
		at = len(lines)
	}
	lines = append(lines, "")
	copy(lines[at+1:], lines[at:])
	lines[at] = line
	return lines
}

// appendDirective adds a directive as the last content line, keeping a
// trailing newline if the file had one.
func appendDirective(lines []string, directive string) []string {
	if n := len(lines); n > 0 && lines[n-1] == "" {
		return append(lines[:n-1], directive, "")
	}
	return append(lines, directive)
}
