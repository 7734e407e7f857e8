package symvers

import (
	"fmt"
	"sort"

	"github.com/ksymtools/ksymtools/internal/intern"
	"github.com/ksymtools/ksymtools/internal/rules"
)

// ChangeKind classifies one symvers difference.
type ChangeKind int

const (
	// ChangeAdded marks a symbol present only on the new side.
	ChangeAdded ChangeKind = iota

	// ChangeRemoved marks a symbol present only on the old side.
	ChangeRemoved

	// ChangeCRC marks a CRC mismatch.
	ChangeCRC

	// ChangeMeta marks a module, export-kind, or namespace change.
	ChangeMeta
)

// String returns the short-format spelling of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeCRC:
		return "crc-changed"
	default:
		return "changed"
	}
}

// Change is one classified symvers difference.
type Change struct {
	Name     string
	Kind     ChangeKind
	Detail   string
	Severity rules.Severity
}

// Result is the outcome of comparing two symvers files.
type Result struct {
	Changes []Change
}

// Empty reports whether the comparison found no differences.
func (r *Result) Empty() bool {
	return len(r.Changes) == 0
}

// Failing reports whether any difference remains after the pass rules: the
// overall verdict is "changes present" iff this holds.
func (r *Result) Failing() bool {
	for _, c := range r.Changes {
		if c.Severity != rules.SeverityPass {
			return true
		}
	}
	return false
}

// Compare diffs two symvers files and classifies each differing symbol
// through the rule set. Changes are sorted by symbol name, then detail.
func Compare(a, b *File, rs *rules.RuleSet) *Result {
	result := &Result{}

	add := func(name intern.Handle, kind ChangeKind, detail string) {
		text := a.Strings.Resolve(name)
		result.Changes = append(result.Changes, Change{
			Name:     text,
			Kind:     kind,
			Detail:   detail,
			Severity: rs.Severity(text),
		})
	}

	union := make(map[intern.Handle]bool, len(a.names)+len(b.names))
	for _, n := range a.names {
		union[n] = true
	}
	for _, n := range b.names {
		union[n] = true
	}

	for name := range union {
		ea, inA := a.entries[name]
		eb, inB := b.entries[name]
		switch {
		case !inA:
			add(name, ChangeAdded, fmt.Sprintf("added with CRC 0x%08x", eb.CRC))
		case !inB:
			add(name, ChangeRemoved, fmt.Sprintf("removed with CRC 0x%08x", ea.CRC))
		default:
			if ea.CRC != eb.CRC {
				add(name, ChangeCRC, fmt.Sprintf("CRC 0x%08x -> 0x%08x", ea.CRC, eb.CRC))
			}
			if ea.Module != eb.Module {
				add(name, ChangeMeta, fmt.Sprintf("module %s -> %s",
					a.Strings.Resolve(ea.Module), b.Strings.Resolve(eb.Module)))
			}
			if ea.Kind != eb.Kind {
				add(name, ChangeMeta, fmt.Sprintf("export kind %s -> %s",
					a.Strings.Resolve(ea.Kind), b.Strings.Resolve(eb.Kind)))
			}
			if nsChanged(ea, eb) {
				add(name, ChangeMeta, fmt.Sprintf("namespace %s -> %s",
					nsText(a, ea), nsText(b, eb)))
			}
		}
	}

	sort.Slice(result.Changes, func(i, j int) bool {
		ci, cj := result.Changes[i], result.Changes[j]
		if ci.Name != cj.Name {
			return ci.Name < cj.Name
		}
		return ci.Detail < cj.Detail
	})
	return result
}

func nsChanged(a, b Entry) bool {
	if a.HasNamespace != b.HasNamespace {
		return true
	}
	return a.HasNamespace && a.Namespace != b.Namespace
}

func nsText(f *File, e Entry) string {
	if !e.HasNamespace {
		return "(none)"
	}
	return f.Strings.Resolve(e.Namespace)
}
