package symtypes

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ksymtools/ksymtools/internal/intern"
	"github.com/ksymtools/ksymtools/internal/kerrors"
)

// FileProto is the parse result for one symtypes file: records as they
// appeared on disk, with names and tokens interned. Protos are produced by
// parser workers and merged into a corpus by the single-threaded merge
// phase.
type FileProto struct {
	Path    string
	Records []Record
}

// maxLineSize bounds a single symtypes line. Kernel struct dumps get long,
// but multi-megabyte lines mean corrupt input.
const maxLineSize = 16 * 1024 * 1024

// readerMode selects base or consolidated identifier handling.
type readerMode int

const (
	modeBase readerMode = iota
	modeConsolidated
)

// ParseFile parses one symtypes file from disk.
func ParseFile(table *intern.Table, path string) (*FileProto, error) {
	return parseFileMode(table, path, modeBase)
}

// parseConsolidatedFile parses a consolidated file, accepting `@N` variant
// suffixes on type identifiers.
func parseConsolidatedFile(table *intern.Table, path string) (*FileProto, error) {
	return parseFileMode(table, path, modeConsolidated)
}

func parseFileMode(table *intern.Table, path string, mode readerMode) (*FileProto, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening symtypes file: %w", err)
	}
	defer f.Close()

	return parse(table, f, path, mode)
}

// parse reads records from r. The path is used in diagnostics only.
func parse(table *intern.Table, r io.Reader, path string, mode readerMode) (*FileProto, error) {
	proto := &FileProto{Path: path}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if isSkippableLine(line) {
			continue
		}

		rec, err := parseLine(table, line, path, lineno, mode)
		if err != nil {
			return nil, err
		}
		proto.Records = append(proto.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return proto, nil
}

// isSkippableLine reports blank and comment lines. Comments are not part of
// the kernel format but are tolerated.
func isSkippableLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" ||
		strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*")
}

// parseLine splits one record line into identifier and description.
func parseLine(table *intern.Table, line, path string, lineno int, mode readerMode) (Record, error) {
	fields, err := splitTokens(line)
	if err != nil {
		return Record{}, kerrors.RecordError(kerrors.ErrMalformedRecord, path, lineno, err.Error())
	}
	if len(fields) == 0 {
		return Record{}, kerrors.RecordError(kerrors.ErrMalformedRecord, path, lineno, "empty record")
	}

	ns, name, variant, err := parseIdent(fields[0], mode)
	if err != nil {
		return Record{}, kerrors.RecordError(kerrors.ErrMalformedRecord, path, lineno, err.Error())
	}

	rec := Record{
		NS:      ns,
		Name:    table.Intern(name),
		Variant: variant,
		Line:    lineno,
	}
	if rest := fields[1:]; len(rest) > 0 {
		rec.Tokens = make([]Token, len(rest))
		for i, field := range rest {
			rec.Tokens[i] = parseToken(table, field)
		}
	}
	return rec, nil
}

// splitTokens splits a line on ASCII whitespace. A single quote opens a span
// running to the next quote; whitespace inside is preserved verbatim and the
// quote characters stay part of the token. No escape sequences.
func splitTokens(line string) ([]string, error) {
	isSpace := func(c byte) bool {
		return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
	}

	var fields []string
	i := 0
	for i < len(line) {
		if isSpace(line[i]) {
			i++
			continue
		}
		start := i
		for i < len(line) && !isSpace(line[i]) {
			if line[i] == '\'' {
				end := strings.IndexByte(line[i+1:], '\'')
				if end < 0 {
					return nil, fmt.Errorf("unterminated quote in %q", line[start:])
				}
				i += end + 2
				continue
			}
			i++
		}
		fields = append(fields, line[start:i])
	}
	return fields, nil
}

// parseIdent interprets the first token of a record. The `x#` prefix picks
// the namespace; the default namespace is export. In consolidated mode a
// type identifier may carry a trailing `@N` pinning its variant index.
func parseIdent(tok string, mode readerMode) (Namespace, string, int, error) {
	ns := NSExport
	name := tok
	if len(tok) >= 2 && tok[1] == '#' {
		var ok bool
		ns, ok = prefixNamespace(tok[0])
		if !ok {
			return 0, "", 0, fmt.Errorf("unknown prefix %q", tok[:2])
		}
		name = tok[2:]
	}

	variant := 0
	if mode == modeConsolidated && ns != NSExport && ns != NSFile {
		if base, n, ok := splitVariant(name); ok {
			name, variant = base, n
		}
	}

	name = unquote(name)
	if name == "" {
		return 0, "", 0, fmt.Errorf("empty identifier %q", tok)
	}
	return ns, name, variant, nil
}

// unquote strips a fully quoted name down to its content.
func unquote(name string) string {
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		return name[1 : len(name)-1]
	}
	return name
}

// parseToken interprets one description token. A token spelled `x#name` is a
// reference unless it is quoted; quoting suppresses reference
// interpretation and the quotes are carried verbatim.
func parseToken(table *intern.Table, field string) Token {
	if len(field) >= 3 && field[1] == '#' && field[0] != '\'' {
		if ns, ok := prefixNamespace(field[0]); ok {
			return Token{Ref: true, NS: ns, Text: table.Intern(unquote(field[2:]))}
		}
	}
	return Token{Text: table.Intern(field)}
}
