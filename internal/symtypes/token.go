// Package symtypes implements the symtypes corpus model: parsing, merging,
// consolidated output, splitting, and structural comparison.
package symtypes

import (
	"strconv"
	"strings"

	"github.com/ksymtools/ksymtools/internal/intern"
)

// Namespace distinguishes the single-letter prefix of a type identifier.
// Names collide only within a namespace.
type Namespace uint8

const (
	// NSExport holds exported function and variable signatures (no prefix).
	NSExport Namespace = iota

	// NSTypedef holds `t#` records.
	NSTypedef

	// NSEnum holds `e#` records.
	NSEnum

	// NSStruct holds `s#` records.
	NSStruct

	// NSUnion holds `u#` records.
	NSUnion

	// NSEnumConst holds `E#` records.
	NSEnumConst

	// NSFile holds `F#` records of the consolidated format.
	NSFile
)

// typeNamespaces is the fixed namespace emission order of the consolidated
// writer: {t, e, s, u, E}.
var typeNamespaces = [...]Namespace{NSTypedef, NSEnum, NSStruct, NSUnion, NSEnumConst}

// Prefix returns the identifier prefix of the namespace, empty for exports.
func (ns Namespace) Prefix() string {
	switch ns {
	case NSTypedef:
		return "t#"
	case NSEnum:
		return "e#"
	case NSStruct:
		return "s#"
	case NSUnion:
		return "u#"
	case NSEnumConst:
		return "E#"
	case NSFile:
		return "F#"
	default:
		return ""
	}
}

// prefixNamespace maps a prefix letter to its namespace.
func prefixNamespace(c byte) (Namespace, bool) {
	switch c {
	case 't':
		return NSTypedef, true
	case 'e':
		return NSEnum, true
	case 's':
		return NSStruct, true
	case 'u':
		return NSUnion, true
	case 'E':
		return NSEnumConst, true
	case 'F':
		return NSFile, true
	default:
		return 0, false
	}
}

// Token is one element of a record description: either a literal carried
// verbatim (quotes included) or a reference to another record.
type Token struct {
	// Ref marks a reference token; NS is only meaningful when Ref is set.
	Ref bool
	NS  Namespace

	// Text is the literal text, or the referenced name for references.
	Text intern.Handle
}

// Record is one parsed symtypes line: an identifier plus its description.
type Record struct {
	NS     Namespace
	Name   intern.Handle
	Tokens []Token

	// Variant is the `@N` suffix of a consolidated identifier, 0 otherwise.
	Variant int

	// Line is the 1-based source line, kept for diagnostics.
	Line int
}

// splitVariant splits a trailing `@N` suffix off a consolidated name.
func splitVariant(name string) (base string, variant int, ok bool) {
	at := strings.LastIndexByte(name, '@')
	if at < 0 {
		return name, 0, false
	}
	n, err := strconv.Atoi(name[at+1:])
	if err != nil || n < 0 {
		return name, 0, false
	}
	return name[:at], n, true
}

// quoteName wraps a name in single quotes when its spelling needs them.
func quoteName(name string) string {
	if strings.ContainsAny(name, " \t") {
		return "'" + name + "'"
	}
	return name
}

// renderToken returns the on-disk spelling of a token.
func renderToken(table *intern.Table, tok Token) string {
	if tok.Ref {
		return tok.NS.Prefix() + quoteName(table.Resolve(tok.Text))
	}
	return table.Resolve(tok.Text)
}

// renderTokens joins a description back into its on-disk spelling.
func renderTokens(table *intern.Table, tokens []Token) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(renderToken(table, tok))
	}
	return b.String()
}
