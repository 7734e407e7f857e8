package symtypes

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/ksymtools/ksymtools/internal/intern"
)

// typeKey addresses one named type within its namespace.
type typeKey struct {
	ns   Namespace
	name intern.Handle
}

// variant is one distinct definition of a named type.
type variant struct {
	tokens []Token
}

// typeEntry holds all variants sharing one (namespace, name).
type typeEntry struct {
	variants []*variant

	// byHash indexes variants by token-sequence hash for exact-sequence
	// lookup during the merge phase.
	byHash map[uint64][]int
}

// typeTable stores type records keyed by (namespace, name, variant-index),
// preserving first-insertion order per namespace.
type typeTable struct {
	entries map[typeKey]*typeEntry
	order   map[Namespace][]intern.Handle
}

func newTypeTable() *typeTable {
	return &typeTable{
		entries: make(map[typeKey]*typeEntry),
		order:   make(map[Namespace][]intern.Handle),
	}
}

// entry returns the entry for (ns, name), creating it on first use.
func (t *typeTable) entry(ns Namespace, name intern.Handle) *typeEntry {
	key := typeKey{ns: ns, name: name}
	e, ok := t.entries[key]
	if !ok {
		e = &typeEntry{byHash: make(map[uint64][]int)}
		t.entries[key] = e
		t.order[ns] = append(t.order[ns], name)
	}
	return e
}

// lookup returns the entry for (ns, name) or nil.
func (t *typeTable) lookup(ns Namespace, name intern.Handle) *typeEntry {
	return t.entries[typeKey{ns: ns, name: name}]
}

// names returns the names of a namespace in first-insertion order.
func (t *typeTable) names(ns Namespace) []intern.Handle {
	return t.order[ns]
}

// addVariant inserts a token sequence under (ns, name), reusing an existing
// variant when the sequence is byte-identical after interning. Returns the
// variant index.
func (t *typeTable) addVariant(ns Namespace, name intern.Handle, tokens []Token) (idx int, isNew bool) {
	e := t.entry(ns, name)
	h := tokensHash(tokens)
	for _, i := range e.byHash[h] {
		if tokensEqual(e.variants[i].tokens, tokens) {
			return i, false
		}
	}

	idx = len(e.variants)
	e.variants = append(e.variants, &variant{tokens: tokens})
	e.byHash[h] = append(e.byHash[h], idx)
	return idx, true
}

// addVariantAt inserts a token sequence at an explicit variant index, as
// pinned by a consolidated `@N` suffix. Reports whether the slot was free.
func (t *typeTable) addVariantAt(ns Namespace, name intern.Handle, idx int, tokens []Token) bool {
	e := t.entry(ns, name)
	for len(e.variants) <= idx {
		e.variants = append(e.variants, nil)
	}
	if e.variants[idx] != nil {
		return false
	}
	e.variants[idx] = &variant{tokens: tokens}
	e.byHash[tokensHash(tokens)] = append(e.byHash[tokensHash(tokens)], idx)
	return true
}

// variantAt returns the variant at idx, or nil when out of range or unset.
func (e *typeEntry) variantAt(idx int) *variant {
	if e == nil || idx < 0 || idx >= len(e.variants) {
		return nil
	}
	return e.variants[idx]
}

// tokensHash hashes a token sequence for variant dedup lookup.
func tokensHash(tokens []Token) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, tok := range tokens {
		if tok.Ref {
			buf[0] = 1
		} else {
			buf[0] = 0
		}
		buf[1] = byte(tok.NS)
		binary.LittleEndian.PutUint32(buf[2:6], uint32(tok.Text))
		h.Write(buf[:6])
	}
	return h.Sum64()
}

// tokensEqual compares two token sequences after interning.
func tokensEqual(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
