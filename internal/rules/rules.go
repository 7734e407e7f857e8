// Package rules implements severity classification of symbol changes.
//
// A rule file holds one rule per line, `<glob> <severity>`, with `#`
// comments and blank lines allowed. Rules are ordered and the first
// matching pattern wins; an implicit terminal `* fail` applies when no
// rule matches.
package rules

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ksymtools/ksymtools/internal/kerrors"
)

// Severity is the outcome class a rule assigns to a matching symbol.
type Severity int

const (
	// SeverityFail marks a change that makes the comparison verdict fail.
	SeverityFail Severity = iota

	// SeverityPass marks a tolerated change.
	SeverityPass
)

// String returns the rule-file spelling of the severity.
func (s Severity) String() string {
	if s == SeverityPass {
		return "pass"
	}
	return "fail"
}

// parseSeverity maps the rule-file spelling to a Severity.
func parseSeverity(s string) (Severity, bool) {
	switch s {
	case "pass":
		return SeverityPass, true
	case "fail":
		return SeverityFail, true
	default:
		return SeverityFail, false
	}
}

// Rule pairs a glob pattern over symbol names with a severity.
type Rule struct {
	Pattern  string
	Severity Severity
}

// RuleSet is an ordered list of rules.
type RuleSet struct {
	rules []Rule
}

// Load reads a rule file from disk.
func Load(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule file: %w", err)
	}
	defer f.Close()

	return Parse(f, path)
}

// LoadAll reads several rule files and concatenates their rules in order.
func LoadAll(paths []string) (*RuleSet, error) {
	merged := &RuleSet{}
	for _, path := range paths {
		rs, err := Load(path)
		if err != nil {
			return nil, err
		}
		merged.rules = append(merged.rules, rs.rules...)
	}
	return merged, nil
}

// Parse reads rules from r. The name is used in diagnostics.
func Parse(r io.Reader, name string) (*RuleSet, error) {
	rs := &RuleSet{}

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, kerrors.RecordError(kerrors.ErrMalformedRule, name, lineno,
				fmt.Sprintf("expected '<pattern> <severity>', got %d fields", len(fields)))
		}

		pattern, sevText := fields[0], fields[1]
		if !doublestar.ValidatePattern(pattern) {
			return nil, kerrors.RecordError(kerrors.ErrMalformedRule, name, lineno,
				fmt.Sprintf("invalid pattern %q", pattern))
		}
		sev, ok := parseSeverity(sevText)
		if !ok {
			return nil, kerrors.RecordError(kerrors.ErrMalformedRule, name, lineno,
				fmt.Sprintf("unknown severity %q", sevText))
		}

		rs.rules = append(rs.rules, Rule{Pattern: pattern, Severity: sev})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading rule file %s: %w", name, err)
	}

	return rs, nil
}

// Len returns the number of explicit rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Severity classifies a symbol name. The first matching rule wins; with no
// match the implicit terminal rule `* fail` applies.
func (rs *RuleSet) Severity(name string) Severity {
	if rs == nil {
		return SeverityFail
	}
	for _, r := range rs.rules {
		// Patterns are validated at parse time, so Match cannot fail here.
		if ok, _ := doublestar.Match(r.Pattern, name); ok {
			return r.Severity
		}
	}
	return SeverityFail
}
