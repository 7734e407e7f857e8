package symtypes

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ksymtools/ksymtools/internal/kerrors"
	"github.com/ksymtools/ksymtools/internal/output"
)

// Render writes a comparison result in the selected format. Rendering runs
// on the caller's goroutine; the destination is owned by this call.
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

// renderSymbols emits one line per affected export name. With addRemove
// unset only changed exports are listed.
func renderSymbols(w io.Writer, r *Result, addRemove bool) error {
	var names []string
	for _, c := range r.Changed {
		names = append(names, c.Name)
	}
	if addRemove {
		names = append(names, r.Added...)
		names = append(names, r.Removed...)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

// renderShort emits one line per difference with the export and type name.
func renderShort(w io.Writer, r *Result) error {
	type line struct{ export, text string }
	var lines []line

	for _, name := range r.Added {
		lines = append(lines, line{name, name + ": added"})
	}
	for _, name := range r.Removed {
		lines = append(lines, line{name, name + ": removed"})
	}
	for _, c := range r.Changed {
		for _, tc := range c.Changes {
			lines = append(lines, line{c.Name, fmt.Sprintf("%s: changed %s", c.Name, tc.Ident)})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].export < lines[j].export })
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l.text); err != nil {
			return err
		}
	}
	return nil
}

// renderPretty emits a block per export, listing each changed type with its
// before and after descriptions wrapped at record boundaries.
func renderPretty(w io.Writer, r *Result) error {
	type block struct {
		export string
		text   string
	}
	var blocks []block

	for _, name := range r.Added {
		blocks = append(blocks, block{name, fmt.Sprintf("export %s\n  added\n", name)})
	}
	for _, name := range r.Removed {
		blocks = append(blocks, block{name, fmt.Sprintf("export %s\n  removed\n", name)})
	}
	for _, c := range r.Changed {
		var b strings.Builder
		fmt.Fprintf(&b, "export %s\n", c.Name)
		for _, tc := range c.Changes {
			if len(tc.Path) > 0 {
				fmt.Fprintf(&b, "  changed %s (via %s)\n", tc.Ident, strings.Join(tc.Path, " -> "))
			} else {
				fmt.Fprintf(&b, "  changed %s\n", tc.Ident)
			}
			fmt.Fprintf(&b, "    -%s %s\n", tc.Ident, tc.Old)
			fmt.Fprintf(&b, "    +%s %s\n", tc.Ident, tc.New)
		}
		blocks = append(blocks, block{c.Name, b.String()})
	}

	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].export < blocks[j].export })
	for i, blk := range blocks {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, blk.text); err != nil {
			return err
		}
	}
	return nil
}
