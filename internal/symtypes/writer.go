package symtypes

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/ksymtools/ksymtools/internal/intern"
)

// WriteConsolidated emits the single-file representation of a corpus.
//
// Output order is fixed so the result is byte-stable for a given input set:
// type records grouped by namespace in {t, e, s, u, E} order and sorted by
// name with variants ascending, then exports sorted by name, then F#
// records sorted by path.
func WriteConsolidated(c *Corpus, w io.Writer) error {
	bw := bufio.NewWriter(w)

	for _, ns := range typeNamespaces {
		names := append([]intern.Handle(nil), c.table.names(ns)...)
		c.sortHandles(names)
		for _, name := range names {
			entry := c.table.lookup(ns, name)
			multi := len(entry.variants) > 1
			for idx, v := range entry.variants {
				ident := ns.Prefix() + quoteName(c.Strings.Resolve(name))
				if multi {
					ident = fmt.Sprintf("%s@%d", ident, idx)
				}
				if err := writeRecord(bw, c.Strings, ident, v.tokens); err != nil {
					return err
				}
			}
		}
	}

	exports := append([]intern.Handle(nil), c.table.names(NSExport)...)
	c.sortHandles(exports)
	for _, name := range exports {
		entry := c.table.lookup(NSExport, name)
		ident := quoteName(c.Strings.Resolve(name))
		if err := writeRecord(bw, c.Strings, ident, entry.variants[0].tokens); err != nil {
			return err
		}
	}

	for _, path := range c.paths {
		fr := c.files[path]
		refs, err := c.fileVariantRefs(fr)
		if err != nil {
			return err
		}

		fields := make([]string, 0, len(fr.Exports)+len(refs))
		for _, name := range fr.Exports {
			fields = append(fields, quoteName(c.Strings.Resolve(name)))
		}
		fields = append(fields, refs...)

		if _, err := fmt.Fprintf(bw, "F#%s", quoteName(c.Strings.Resolve(path))); err != nil {
			return err
		}
		for _, field := range fields {
			if _, err := bw.WriteString(" " + field); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// fileVariantRefs renders the `x#name@N` disambiguation list of a file
// record: every multi-variant type in the file's closure, sorted.
// Single-variant types are omitted and resolve by implicit recursive walk.
func (c *Corpus) fileVariantRefs(fr *FileRecord) ([]string, error) {
	var refs []string
	err := c.fileClosure(fr, func(ns Namespace, name intern.Handle, idx int, v *variant) error {
		entry := c.table.lookup(ns, name)
		if len(entry.variants) > 1 {
			refs = append(refs, fmt.Sprintf("%s%s@%d", ns.Prefix(), quoteName(c.Strings.Resolve(name)), idx))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(refs)
	return refs, nil
}

// writeRecord emits one `<identifier> <description>` line.
func writeRecord(bw *bufio.Writer, table *intern.Table, ident string, tokens []Token) error {
	if _, err := bw.WriteString(ident); err != nil {
		return err
	}
	for _, tok := range tokens {
		if _, err := bw.WriteString(" " + renderToken(table, tok)); err != nil {
			return err
		}
	}
	return bw.WriteByte('\n')
}
