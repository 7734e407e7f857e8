package symtypes

import (
	"sort"
	"strings"

	"github.com/ksymtools/ksymtools/internal/intern"
	"github.com/ksymtools/ksymtools/internal/output"
	"github.com/ksymtools/ksymtools/internal/pool"
	"github.com/ksymtools/ksymtools/internal/rules"
)

// TypeChange is one structural difference, recorded at the finest-grained
// type where the token sequences diverge.
type TypeChange struct {
	// Ident is the changed record's identifier (`s#foo`, or the export name
	// itself when the signatures diverge directly).
	Ident string

	// Path is the chain of reference hops from the export to the changed
	// type, the changed type last. Empty when the export signature itself
	// diverges.
	Path []string

	// Old and New are the full rendered descriptions on either side.
	Old string
	New string
}

// ExportChange groups the type changes reachable from one export.
type ExportChange struct {
	Name    string
	Changes []TypeChange
}

// Result is the outcome of comparing two corpora.
type Result struct {
	// Added and Removed are export names present on only one side, sorted.
	Added   []string
	Removed []string

	// Changed lists exports whose reachable type graphs differ, sorted by
	// export name.
	Changed []ExportChange
}

// Empty reports whether the comparison found no differences.
func (r *Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Compare walks the exports common to corpora a and b and records
// structural differences. Exports only in b are added, only in a removed.
// The filter, when non-nil, restricts the comparison to matching symbol
// names. Per-export diff tasks run on the worker pool; results are
// deterministic regardless of jobs.
func Compare(a, b *Corpus, filter *rules.SymbolFilter, jobs int) (*Result, error) {
	result := &Result{}

	aNames := a.table.names(NSExport)
	bNames := b.table.names(NSExport)

	bSet := make(map[intern.Handle]bool, len(bNames))
	for _, name := range bNames {
		bSet[name] = true
	}

	var common []intern.Handle
	aSet := make(map[intern.Handle]bool, len(aNames))
	for _, name := range aNames {
		aSet[name] = true
		if !filter.Match(a.Strings.Resolve(name)) {
			continue
		}
		if bSet[name] {
			common = append(common, name)
		} else {
			result.Removed = append(result.Removed, a.Strings.Resolve(name))
		}
	}
	for _, name := range bNames {
		if !aSet[name] && filter.Match(b.Strings.Resolve(name)) {
			result.Added = append(result.Added, b.Strings.Resolve(name))
		}
	}
	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	a.sortHandles(common)

	output.Debug("comparing exports",
		"common", len(common), "added", len(result.Added), "removed", len(result.Removed))

	changes, err := pool.Map(jobs, len(common), func(i int) ([]TypeChange, error) {
		return diffExport(a, b, common[i])
	})
	if err != nil {
		return nil, err
	}

	for i, name := range common {
		if len(changes[i]) > 0 {
			result.Changed = append(result.Changed, ExportChange{
				Name:    a.Strings.Resolve(name),
				Changes: changes[i],
			})
		}
	}
	return result, nil
}

// pairKey identifies a pair of variants under comparison, one per side.
// Cycle protection: a pair already entered compares by identity only.
type pairKey struct {
	ns     Namespace
	name   intern.Handle
	va, vb int
}

// walker carries the state of one export's lockstep traversal.
type walker struct {
	a, b    *Corpus
	fa, fb  *FileRecord
	visited map[pairKey]bool
	changes []TypeChange
}

// diffExport structurally compares one export's reachable graph in both
// corpora.
func diffExport(a, b *Corpus, name intern.Handle) ([]TypeChange, error) {
	w := &walker{
		a:       a,
		b:       b,
		fa:      a.exportOwner(name),
		fb:      b.exportOwner(name),
		visited: make(map[pairKey]bool),
	}

	ea := a.table.lookup(NSExport, name).variants[0]
	eb := b.table.lookup(NSExport, name).variants[0]
	err := w.compareSeq(a.Strings.Resolve(name), ea.tokens, eb.tokens, nil)
	if err != nil {
		return nil, err
	}

	sort.Slice(w.changes, func(i, j int) bool {
		return strings.Join(w.changes[i].Path, " ") < strings.Join(w.changes[j].Path, " ")
	})
	return w.changes, nil
}

// compareSeq walks two descriptions in lockstep. References agreeing
// textually are expanded through each side's file context; the first
// textual divergence records a change for the current record and ends its
// walk.
func (w *walker) compareSeq(ident string, ta, tb []Token, path []string) error {
	n := len(ta)
	if len(tb) < n {
		n = len(tb)
	}

	diverged := len(ta) != len(tb)
	for i := 0; i < n; i++ {
		// The corpora share one interner, so handle equality is string
		// equality.
		if ta[i] != tb[i] {
			diverged = true
			break
		}
		if ta[i].Ref {
			if err := w.descend(ta[i].NS, ta[i].Text, path); err != nil {
				return err
			}
		}
	}

	if diverged {
		w.changes = append(w.changes, TypeChange{
			Ident: ident,
			Path:  path,
			Old:   renderTokens(w.a.Strings, ta),
			New:   renderTokens(w.b.Strings, tb),
		})
	}
	return nil
}

// descend resolves a common reference on both sides and compares the
// targets, guarding against reference cycles.
func (w *walker) descend(ns Namespace, name intern.Handle, path []string) error {
	va, ia, err := w.a.resolve(w.fa, ns, name)
	if err != nil {
		return err
	}
	vb, ib, err := w.b.resolve(w.fb, ns, name)
	if err != nil {
		return err
	}

	key := pairKey{ns: ns, name: name, va: ia, vb: ib}
	if w.visited[key] {
		return nil
	}
	w.visited[key] = true

	ident := ns.Prefix() + w.a.Strings.Resolve(name)
	return w.compareSeq(ident, va.tokens, vb.tokens, append(path[:len(path):len(path)], ident))
}
