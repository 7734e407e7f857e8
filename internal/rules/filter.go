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

// SymbolFilter restricts a comparison to symbols matching any of its
// patterns. A nil filter matches every symbol.
type SymbolFilter struct {
	patterns []string
}

// LoadFilter reads a filter-symbol-list file: one glob per line, `#`
// comments and blank lines allowed.
func LoadFilter(path string) (*SymbolFilter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening symbol filter: %w", err)
	}
	defer f.Close()

	return ParseFilter(f, path)
}

// ParseFilter reads filter patterns from r. The name is used in diagnostics.
func ParseFilter(r io.Reader, name string) (*SymbolFilter, error) {
	sf := &SymbolFilter{}

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !doublestar.ValidatePattern(line) {
			return nil, kerrors.RecordError(kerrors.ErrMalformedRule, name, lineno,
				fmt.Sprintf("invalid pattern %q", line))
		}
		sf.patterns = append(sf.patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading symbol filter %s: %w", name, err)
	}

	return sf, nil
}

// Match reports whether the symbol name passes the filter.
func (sf *SymbolFilter) Match(name string) bool {
	if sf == nil {
		return true
	}
	for _, p := range sf.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
