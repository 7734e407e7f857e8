// Package symvers parses and compares kernel symvers files: per-kernel
// summaries of exported symbol names, their CRCs, and provenance.
package symvers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ksymtools/ksymtools/internal/intern"
	"github.com/ksymtools/ksymtools/internal/kerrors"
	"github.com/ksymtools/ksymtools/internal/output"
)

// Entry is one symvers line. Name, module, export kind, and namespace are
// interned; the export kind is carried verbatim (EXPORT_SYMBOL,
// EXPORT_SYMBOL_GPL, and any future spelling).
type Entry struct {
	CRC    uint32
	Name   intern.Handle
	Module intern.Handle
	Kind   intern.Handle

	// Namespace is the optional fifth column.
	Namespace    intern.Handle
	HasNamespace bool
}

// File is a parsed symvers file: a map from symbol name to entry, names
// unique.
type File struct {
	// Strings is the interning table shared by both sides of a comparison.
	Strings *intern.Table

	Path    string
	entries map[intern.Handle]Entry
	names   []intern.Handle
}

// Load reads a symvers file from disk.
func Load(table *intern.Table, path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening symvers file: %w", err)
	}
	defer f.Close()

	return Parse(table, f, path)
}

// Parse reads symvers entries from r. The path is used in diagnostics.
func Parse(table *intern.Table, r io.Reader, path string) (*File, error) {
	file := &File{
		Strings: table,
		Path:    path,
		entries: make(map[intern.Handle]Entry),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, err := parseLine(table, line)
		if err != nil {
			return nil, kerrors.RecordError(kerrors.ErrMalformedSymvers, path, lineno, err.Error())
		}
		if _, ok := file.entries[entry.Name]; ok {
			return nil, kerrors.RecordError(kerrors.ErrMalformedSymvers, path, lineno,
				fmt.Sprintf("duplicate symbol %s", table.Resolve(entry.Name)))
		}
		file.entries[entry.Name] = entry
		file.names = append(file.names, entry.Name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	output.Debug("parsed symvers file", "path", path, "symbols", len(file.names))
	return file, nil
}

// parseLine splits one tab-separated symvers line:
// <crc>\t<name>\t<module>\t<kind>[\t<namespace>].
func parseLine(table *intern.Table, line string) (Entry, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < 4 || len(cols) > 5 {
		return Entry{}, fmt.Errorf("expected 4 or 5 columns, got %d", len(cols))
	}

	crcText := cols[0]
	if !strings.HasPrefix(crcText, "0x") && !strings.HasPrefix(crcText, "0X") {
		return Entry{}, fmt.Errorf("CRC %q lacks 0x prefix", crcText)
	}
	crc, err := strconv.ParseUint(crcText[2:], 16, 32)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid CRC %q", crcText)
	}
	if cols[1] == "" {
		return Entry{}, fmt.Errorf("empty symbol name")
	}

	entry := Entry{
		CRC:    uint32(crc),
		Name:   table.Intern(cols[1]),
		Module: table.Intern(cols[2]),
		Kind:   table.Intern(cols[3]),
	}
	if len(cols) == 5 {
		entry.Namespace = table.Intern(cols[4])
		entry.HasNamespace = true
	}
	return entry, nil
}

// Len returns the number of symbols in the file.
func (f *File) Len() int {
	return len(f.names)
}

// Lookup returns the entry for a symbol name.
func (f *File) Lookup(name intern.Handle) (Entry, bool) {
	e, ok := f.entries[name]
	return e, ok
}
