package symvers

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/ksymtools/ksymtools/internal/kerrors"
	"github.com/ksymtools/ksymtools/internal/output"
	"github.com/ksymtools/ksymtools/internal/rules"
)

// Render writes a symvers comparison result in the selected format.
// Tolerated differences are listed like failing ones; only the pretty format
// tags them. The exit status is computed separately from Result.Failing.
func Render(w io.Writer, r *Result, kind output.FormatKind) error {
	bw := bufio.NewWriter(w)

	var err error
	switch kind {
	case output.FormatNull:
		// Exit status alone reflects the outcome.
	case output.FormatSymbols:
		err = renderSymbols(bw, r, true)
	case output.FormatModSymbols:
		err = renderSymbols(bw, r, false)
	case output.FormatShort:
		err = renderShort(bw, r)
	case output.FormatPretty:
		err = renderPretty(bw, r)
	default:
		return fmt.Errorf("unknown format %q", kind)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrOutput, err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrOutput, err)
	}
	return nil
}

// renderSymbols emits one line per differing symbol name. With addRemove
// unset, added and removed symbols are omitted.
func renderSymbols(w io.Writer, r *Result, addRemove bool) error {
	seen := make(map[string]bool)
	var names []string
	for _, c := range r.Changes {
		if !addRemove && (c.Kind == ChangeAdded || c.Kind == ChangeRemoved) {
			continue
		}
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

// renderShort emits one line per difference.
func renderShort(w io.Writer, r *Result) error {
	for _, c := range r.Changes {
		if _, err := fmt.Fprintf(w, "%s: %s\n", c.Name, c.Kind); err != nil {
			return err
		}
	}
	return nil
}

// renderPretty emits a block per symbol with the change details; changes a
// pass rule tolerated are tagged "[tolerated]".
func renderPretty(w io.Writer, r *Result) error {
	prev := ""
	for _, c := range r.Changes {
		if c.Name != prev {
			if prev != "" {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "symbol %s\n", c.Name); err != nil {
				return err
			}
			prev = c.Name
		}
		tag := ""
		if c.Severity == rules.SeverityPass {
			tag = " [tolerated]"
		}
		if _, err := fmt.Fprintf(w, "  %s%s\n", c.Detail, tag); err != nil {
			return err
		}
	}
	return nil
}
