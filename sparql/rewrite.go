// Package sparql implements the query gateway: compaction-aware rewriting
// of incoming queries, the PREFIX/BASE contract, the evaluator capability
// interface, and a built-in subset evaluator so the runtime answers
// queries without an external engine.
package sparql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/c360/urdf/dictionary"
	"github.com/c360/urdf/errors"
)

var prefixOrBase = regexp.MustCompile(`(?i)(^|[\s{])(PREFIX|BASE)([\s<]|$)`)

// CheckContract rejects queries that carry standalone PREFIX or BASE
// tokens. The store never resolves external contexts, so prefixed names
// cannot be expanded on this side of the boundary.
func CheckContract(query string) error {
	if prefixOrBase.MatchString(query) {
		return errors.WrapContract(errors.ErrPrefixForbidden, "sparql", "CheckContract", "inspect query")
	}
	return nil
}

// Rewrite compresses every full IRI appearing inside angle brackets to its
// <z:i> token when known. The IRI that maps to index 0 is the type
// predicate: in predicate position it is rewritten to the bare keyword "a"
// (mirroring the store's internal representation), except inside call
// expressions where "a" would change the meaning of the argument list.
func Rewrite(d *dictionary.Dictionary, query string) string {
	var b strings.Builder
	termPos := 0 // 0=subject, 1=predicate, 2+=object within the current statement
	parens := 0  // call-expression depth

	i := 0
	for i < len(query) {
		c := query[i]

		switch c {
		case '"', '\'':
			quote := c
			termPos++
			b.WriteByte(c)
			i++
			for i < len(query) {
				c = query[i]
				b.WriteByte(c)
				if c == '\\' && i+1 < len(query) {
					b.WriteByte(query[i+1])
					i += 2
					continue
				}
				i++
				if c == quote {
					break
				}
			}
			continue
		case '(':
			parens++
			b.WriteByte(c)
			i++
			continue
		case ')':
			if parens > 0 {
				parens--
			}
			b.WriteByte(c)
			i++
			continue
		case '.', ';', '{', '}':
			// "." ends a statement; ";" keeps the subject. Both reset the
			// predicate slot tracking.
			if c == ';' {
				termPos = 1
			} else {
				termPos = 0
			}
			b.WriteByte(c)
			i++
			continue
		case '<':
			end := strings.IndexByte(query[i:], '>')
			if end < 0 {
				b.WriteString(query[i:])
				i = len(query)
				continue
			}
			iri := query[i+1 : i+end]
			termPos++
			idx, known := d.IndexOf(iri)
			switch {
			case known && idx == 0 && termPos == 2 && parens == 0:
				b.WriteString("a")
			case known:
				fmt.Fprintf(&b, "<%s%d>", dictionary.TokenPrefix, idx)
			default:
				b.WriteString(query[i : i+end+1])
			}
			i += end + 1
			continue
		case '?', '$':
			termPos++
			for i < len(query) && !isTermBreak(query[i]) {
				b.WriteByte(query[i])
				i++
			}
			continue
		case ' ', '\t', '\n', '\r', ',':
			b.WriteByte(c)
			i++
			continue
		default:
			// Bare word: keyword or the "a" shortcut. Keywords do not
			// occupy a term slot; "a" occupies the predicate slot.
			start := i
			for i < len(query) && !isTermBreak(query[i]) {
				i++
			}
			word := query[start:i]
			if word == "a" {
				termPos++
			}
			b.WriteString(word)
			continue
		}
	}
	return b.String()
}

func isTermBreak(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '.', ';', ',', '{', '}', '(', ')', '<':
		return true
	}
	return false
}
