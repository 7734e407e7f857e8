package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ksymtools/ksymtools/internal/kerrors"
)

// FormatKind enumerates the comparison output formats.
type FormatKind string

const (
	// FormatNull emits nothing; the exit status alone reflects changes.
	FormatNull FormatKind = "null"

	// FormatPretty emits a multi-line block per export with before/after
	// descriptions.
	FormatPretty FormatKind = "pretty"

	// FormatShort emits one line per difference.
	FormatShort FormatKind = "short"

	// FormatSymbols emits one line per changed, added, or removed symbol.
	FormatSymbols FormatKind = "symbols"

	// FormatModSymbols emits one line per changed symbol, omitting
	// additions and removals.
	FormatModSymbols FormatKind = "mod-symbols"
)

// String returns the option spelling of the format kind.
func (k FormatKind) String() string {
	return string(k)
}

// ValidFormats returns the recognised format names.
func ValidFormats() []string {
	return []string{"null", "pretty", "short", "symbols", "mod-symbols"}
}

// Format is a parsed `--format=TYPE[:FILE]` option: an output format plus
// its destination. An empty Path means stdout.
type Format struct {
	Kind FormatKind
	Path string
}

// ParseFormat parses a `TYPE[:FILE]` option value.
func ParseFormat(s string) (Format, error) {
	kindText, path, _ := strings.Cut(s, ":")
	switch kind := FormatKind(kindText); kind {
	case FormatNull, FormatPretty, FormatShort, FormatSymbols, FormatModSymbols:
		return Format{Kind: kind, Path: path}, nil
	default:
		return Format{}, fmt.Errorf("unknown format %q (valid: %s)",
			kindText, strings.Join(ValidFormats(), ", "))
	}
}

// nopWriteCloser wraps stdout so destinations close uniformly without
// closing the process's stdout.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Open returns the destination writer. A named file is truncated; stdout is
// returned behind a no-op closer.
func (f Format) Open() (io.WriteCloser, error) {
	if f.Path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	file, err := os.Create(f.Path)
	if err != nil {
		return nil, kerrors.PathError(kerrors.ErrOutput, f.Path, err.Error())
	}
	return file, nil
}
