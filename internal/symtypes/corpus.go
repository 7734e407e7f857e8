package symtypes

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ksymtools/ksymtools/internal/intern"
	"github.com/ksymtools/ksymtools/internal/kerrors"
	"github.com/ksymtools/ksymtools/internal/output"
	"github.com/ksymtools/ksymtools/internal/pool"
)

// FileRecord binds one source file to its exports and to the type variants
// its reachable subgraph resolves to.
type FileRecord struct {
	// Path is the file's path relative to the corpus root, interned.
	Path intern.Handle

	// Exports lists the export names contributed by this file, in sorted
	// order once construction completes.
	Exports []intern.Handle

	// bindings pins the variant index for every (namespace, name) the file
	// contributed or explicitly referenced.
	bindings map[typeKey]int
}

// Corpus is an immutable set of symtypes records: a type table plus the
// per-file records. It is constructed once, fully, before any output stage
// begins, and is then freely shared by readers.
type Corpus struct {
	// Strings is the interning table shared by all corpora of a run.
	Strings *intern.Table

	table *typeTable
	files map[intern.Handle]*FileRecord

	// paths holds the file path handles sorted by resolved string.
	paths []intern.Handle

	// exportFile maps each export name to the path of its owning file.
	exportFile map[intern.Handle]intern.Handle
}

func newCorpus(table *intern.Table) *Corpus {
	return &Corpus{
		Strings:    table,
		table:      newTypeTable(),
		files:      make(map[intern.Handle]*FileRecord),
		exportFile: make(map[intern.Handle]intern.Handle),
	}
}

// Load builds a corpus from a path: a directory of base symtypes files or a
// single consolidated file.
func Load(table *intern.Table, path string, jobs int) (*Corpus, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if info.IsDir() {
		return LoadDirectory(table, path, jobs)
	}
	return LoadConsolidated(table, path)
}

// LoadDirectory builds a corpus from all *.symtypes files beneath root.
// Files are parsed in parallel; the merge phase is single-threaded and runs
// in sorted path order so variant-index assignment is deterministic.
func LoadDirectory(table *intern.Table, root string, jobs int) (*Corpus, error) {
	rels, err := findSymtypes(root)
	if err != nil {
		return nil, err
	}
	output.Debug("enumerated symtypes files", "root", root, "count", len(rels))

	protos, err := pool.Map(jobs, len(rels), func(i int) (*FileProto, error) {
		proto, err := ParseFile(table, filepath.Join(root, rels[i]))
		if err != nil {
			return nil, err
		}
		proto.Path = rels[i]
		return proto, nil
	})
	if err != nil {
		return nil, err
	}

	c := newCorpus(table)
	for _, proto := range protos {
		if err := c.mergeProto(proto); err != nil {
			return nil, err
		}
	}
	c.finish()
	return c, nil
}

// findSymtypes enumerates *.symtypes files beneath root, returning
// slash-separated paths relative to root in ASCII sort order.
func findSymtypes(root string) ([]string, error) {
	var rels []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".symtypes") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(rels)
	return rels, nil
}

// mergeProto merges one parsed file into the corpus. Runs on the main
// goroutine only; this is where variant indices are assigned.
func (c *Corpus) mergeProto(proto *FileProto) error {
	pathHandle := c.Strings.Intern(proto.Path)
	if _, ok := c.files[pathHandle]; ok {
		return kerrors.PathError(kerrors.ErrMalformedRecord, proto.Path, "file merged twice")
	}
	fr := &FileRecord{
		Path:     pathHandle,
		bindings: make(map[typeKey]int),
	}
	c.files[pathHandle] = fr

	for _, rec := range proto.Records {
		switch rec.NS {
		case NSFile:
			return kerrors.RecordError(kerrors.ErrMalformedRecord, proto.Path, rec.Line,
				"file record in base symtypes file")

		case NSExport:
			if other, ok := c.exportFile[rec.Name]; ok {
				return fmt.Errorf("%w: %s exported by both %s and %s",
					kerrors.ErrDuplicateExport, c.Strings.Resolve(rec.Name),
					c.Strings.Resolve(other), proto.Path)
			}
			c.exportFile[rec.Name] = pathHandle
			c.table.addVariant(NSExport, rec.Name, rec.Tokens)
			fr.Exports = append(fr.Exports, rec.Name)

		default:
			idx, _ := c.table.addVariant(rec.NS, rec.Name, rec.Tokens)
			key := typeKey{ns: rec.NS, name: rec.Name}
			if prev, ok := fr.bindings[key]; ok && prev != idx {
				return kerrors.RecordError(kerrors.ErrMalformedRecord, proto.Path, rec.Line,
					fmt.Sprintf("conflicting definitions of %s%s in one file",
						rec.NS.Prefix(), c.Strings.Resolve(rec.Name)))
			}
			fr.bindings[key] = idx
		}
	}
	return nil
}

// LoadConsolidated builds a corpus from a single consolidated file. The F#
// records dictate the per-file bindings; the resulting corpus matches them
// exactly.
func LoadConsolidated(table *intern.Table, path string) (*Corpus, error) {
	proto, err := parseConsolidatedFile(table, path)
	if err != nil {
		return nil, err
	}
	output.Debug("parsed consolidated file", "path", path, "records", len(proto.Records))

	c := newCorpus(table)

	// Type and export records first; F# records may sit anywhere in the
	// file and reference either.
	var fileRecs []Record
	for _, rec := range proto.Records {
		switch rec.NS {
		case NSFile:
			fileRecs = append(fileRecs, rec)

		case NSExport:
			if _, ok := c.table.entries[typeKey{ns: NSExport, name: rec.Name}]; ok {
				return nil, fmt.Errorf("%w: %s:%d: export %s defined twice",
					kerrors.ErrDuplicateExport, path, rec.Line, table.Resolve(rec.Name))
			}
			c.table.addVariant(NSExport, rec.Name, rec.Tokens)

		default:
			if !c.table.addVariantAt(rec.NS, rec.Name, rec.Variant, rec.Tokens) {
				return nil, kerrors.RecordError(kerrors.ErrInvalidConsolidated, path, rec.Line,
					fmt.Sprintf("duplicate definition of %s%s@%d",
						rec.NS.Prefix(), table.Resolve(rec.Name), rec.Variant))
			}
		}
	}

	for _, rec := range fileRecs {
		if err := c.mergeFileRecord(path, rec); err != nil {
			return nil, err
		}
	}

	if err := c.validateConsolidated(path); err != nil {
		return nil, err
	}
	c.finish()
	return c, nil
}

// mergeFileRecord materialises one F# record: bare tokens claim exports,
// reference tokens (with `@N` where disambiguation is required) pin type
// variants for this file.
func (c *Corpus) mergeFileRecord(path string, rec Record) error {
	if _, ok := c.files[rec.Name]; ok {
		return kerrors.RecordError(kerrors.ErrInvalidConsolidated, path, rec.Line,
			fmt.Sprintf("duplicate file record F#%s", c.Strings.Resolve(rec.Name)))
	}
	fr := &FileRecord{
		Path:     rec.Name,
		bindings: make(map[typeKey]int),
	}
	c.files[rec.Name] = fr

	for _, tok := range rec.Tokens {
		if !tok.Ref {
			// A bare token in a file record is an export name owned by this
			// file.
			name := tok.Text
			if c.table.lookup(NSExport, name) == nil {
				return kerrors.RecordError(kerrors.ErrInvalidConsolidated, path, rec.Line,
					fmt.Sprintf("file record references unknown export %s", c.Strings.Resolve(name)))
			}
			if other, ok := c.exportFile[name]; ok {
				return fmt.Errorf("%w: %s:%d: export %s claimed by both %s and %s",
					kerrors.ErrDuplicateExport, path, rec.Line, c.Strings.Resolve(name),
					c.Strings.Resolve(other), c.Strings.Resolve(rec.Name))
			}
			c.exportFile[name] = rec.Name
			fr.Exports = append(fr.Exports, name)
			continue
		}

		if tok.NS == NSFile || tok.NS == NSExport {
			return kerrors.RecordError(kerrors.ErrInvalidConsolidated, path, rec.Line,
				fmt.Sprintf("file record carries %s reference", tok.NS.Prefix()))
		}

		base, idx, _ := splitVariant(c.Strings.Resolve(tok.Text))
		name := c.Strings.Intern(base)
		entry := c.table.lookup(tok.NS, name)
		if entry == nil {
			return kerrors.RecordError(kerrors.ErrInvalidConsolidated, path, rec.Line,
				fmt.Sprintf("reference to unknown type %s%s", tok.NS.Prefix(), base))
		}
		if entry.variantAt(idx) == nil {
			return kerrors.RecordError(kerrors.ErrInvalidConsolidated, path, rec.Line,
				fmt.Sprintf("reference to %s%s@%d beyond variant range", tok.NS.Prefix(), base, idx))
		}
		fr.bindings[typeKey{ns: tok.NS, name: name}] = idx
	}
	return nil
}

// validateConsolidated checks corpus-wide invariants that single records
// cannot see: no variant-index holes, no dangling references, every export
// claimed by exactly one file.
func (c *Corpus) validateConsolidated(path string) error {
	for key, entry := range c.table.entries {
		for i, v := range entry.variants {
			if v == nil {
				return kerrors.PathError(kerrors.ErrInvalidConsolidated, path,
					fmt.Sprintf("%s%s@%d referenced but never defined",
						key.ns.Prefix(), c.Strings.Resolve(key.name), i))
			}
			for _, tok := range v.tokens {
				if !tok.Ref {
					continue
				}
				if c.table.lookup(tok.NS, tok.Text) == nil {
					return kerrors.PathError(kerrors.ErrInvalidConsolidated, path,
						fmt.Sprintf("%s%s refers to unknown %s%s",
							key.ns.Prefix(), c.Strings.Resolve(key.name),
							tok.NS.Prefix(), c.Strings.Resolve(tok.Text)))
				}
			}
		}
	}

	for _, name := range c.table.names(NSExport) {
		if _, ok := c.exportFile[name]; !ok {
			return kerrors.PathError(kerrors.ErrInvalidConsolidated, path,
				fmt.Sprintf("export %s not bound to any file record", c.Strings.Resolve(name)))
		}
	}
	return nil
}

// finish freezes the corpus: paths and per-file export lists take their
// final sorted order.
func (c *Corpus) finish() {
	c.paths = make([]intern.Handle, 0, len(c.files))
	for h := range c.files {
		c.paths = append(c.paths, h)
	}
	c.sortHandles(c.paths)
	for _, fr := range c.files {
		c.sortHandles(fr.Exports)
	}
}

// sortHandles sorts handles by their resolved strings, ASCII order.
func (c *Corpus) sortHandles(hs []intern.Handle) {
	sort.Slice(hs, func(i, j int) bool {
		return c.Strings.Resolve(hs[i]) < c.Strings.Resolve(hs[j])
	})
}

// Paths returns the corpus file paths in sorted order.
func (c *Corpus) Paths() []string {
	out := make([]string, len(c.paths))
	for i, h := range c.paths {
		out[i] = c.Strings.Resolve(h)
	}
	return out
}

// NumFiles returns the number of file records.
func (c *Corpus) NumFiles() int {
	return len(c.files)
}

// ExportNames returns every export name in sorted order.
func (c *Corpus) ExportNames() []string {
	handles := append([]intern.Handle(nil), c.table.names(NSExport)...)
	c.sortHandles(handles)
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = c.Strings.Resolve(h)
	}
	return out
}

// exportOwner returns the file record owning an export, or nil.
func (c *Corpus) exportOwner(name intern.Handle) *FileRecord {
	path, ok := c.exportFile[name]
	if !ok {
		return nil
	}
	return c.files[path]
}

// resolve returns the variant a reference (ns, name) denotes in the context
// of file fr. An explicit binding wins; otherwise exactly one variant must
// exist corpus-wide.
func (c *Corpus) resolve(fr *FileRecord, ns Namespace, name intern.Handle) (*variant, int, error) {
	entry := c.table.lookup(ns, name)
	if entry == nil {
		return nil, 0, fmt.Errorf("%w: dangling reference %s%s",
			kerrors.ErrInvalidConsolidated, ns.Prefix(), c.Strings.Resolve(name))
	}
	if fr != nil {
		if idx, ok := fr.bindings[typeKey{ns: ns, name: name}]; ok {
			return entry.variants[idx], idx, nil
		}
	}
	if len(entry.variants) != 1 {
		where := "corpus"
		if fr != nil {
			where = c.Strings.Resolve(fr.Path)
		}
		return nil, 0, fmt.Errorf("%w: ambiguous reference %s%s in %s",
			kerrors.ErrInvalidConsolidated, ns.Prefix(), c.Strings.Resolve(name), where)
	}
	return entry.variants[0], 0, nil
}

// fileClosure walks the reference graph from the file's exports in a
// deterministic pre-order (exports in sorted name order, references in
// description order) and reports each type at first encounter.
func (c *Corpus) fileClosure(fr *FileRecord, visit func(ns Namespace, name intern.Handle, idx int, v *variant) error) error {
	seen := make(map[typeKey]bool)

	var walk func(tokens []Token) error
	walk = func(tokens []Token) error {
		for _, tok := range tokens {
			if !tok.Ref {
				continue
			}
			key := typeKey{ns: tok.NS, name: tok.Text}
			if seen[key] {
				continue
			}
			seen[key] = true

			v, idx, err := c.resolve(fr, tok.NS, tok.Text)
			if err != nil {
				return err
			}
			if err := visit(tok.NS, tok.Text, idx, v); err != nil {
				return err
			}
			if err := walk(v.tokens); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range fr.Exports {
		entry := c.table.lookup(NSExport, name)
		if entry == nil {
			continue
		}
		if err := walk(entry.variants[0].tokens); err != nil {
			return err
		}
	}
	return nil
}
