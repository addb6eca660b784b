// Package dictionary implements the ZURL IRI dictionary: an ordered,
// read-only sequence of IRIs where index i defines the compact token "z:i".
// Token and IRI forms are interchangeable; unknown inputs pass through
// every lookup unchanged.
package dictionary

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/urdf/errors"
)

// TokenPrefix is the compact-token namespace.
const TokenPrefix = "z:"

// Dictionary maps IRIs to compact z:<n> tokens and back.
// It is immutable after construction and safe for concurrent reads.
type Dictionary struct {
	iris  []string
	index map[string]int
}

// New builds a dictionary from an ordered IRI list. The first occurrence of
// a duplicate IRI wins; later occurrences keep their slot in the sequence
// (so token indices stay aligned with the source list) but never resolve.
func New(iris []string) *Dictionary {
	d := &Dictionary{
		iris:  make([]string, len(iris)),
		index: make(map[string]int, len(iris)),
	}
	copy(d.iris, iris)
	for i, iri := range iris {
		if _, seen := d.index[iri]; !seen {
			d.index[iri] = i
		}
	}
	return d
}

// Parse decodes a JSON array of strings into a dictionary. Any other shape
// is rejected: a malformed dictionary would silently corrupt every loaded
// graph, so the affected loader must fail instead.
func Parse(data []byte) (*Dictionary, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapConfig(err, "Dictionary", "Parse", "decode")
	}
	iris := make([]string, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, errors.WrapConfig(
				fmt.Errorf("%w: entry %d is %T", errors.ErrInvalidDict, i, v),
				"Dictionary", "Parse", "validate")
		}
		iris = append(iris, s)
	}
	return New(iris), nil
}

// Len returns the number of entries in the dictionary.
func (d *Dictionary) Len() int {
	return len(d.iris)
}

// IRIs returns a copy of the ordered IRI list.
func (d *Dictionary) IRIs() []string {
	out := make([]string, len(d.iris))
	copy(out, d.iris)
	return out
}

// IndexOf returns the token index of an IRI, if known.
func (d *Dictionary) IndexOf(iri string) (int, bool) {
	i, ok := d.index[iri]
	return i, ok
}

// IRIOf returns the IRI at a token index, if in range.
func (d *Dictionary) IRIOf(i int) (string, bool) {
	if i < 0 || i >= len(d.iris) {
		return "", false
	}
	return d.iris[i], true
}

// Compress returns "z:<i>" if the IRI is known, else the input unchanged.
func (d *Dictionary) Compress(iri string) string {
	if i, ok := d.index[iri]; ok {
		return TokenPrefix + strconv.Itoa(i)
	}
	return iri
}

// Expand returns the IRI for an exact "z:<n>" token with an in-range index,
// else the input unchanged.
func (d *Dictionary) Expand(s string) string {
	i, ok := tokenIndex(s)
	if !ok || i >= len(d.iris) {
		return s
	}
	return d.iris[i]
}

// IsToken reports whether a string has the exact form "z:<n>".
func IsToken(s string) bool {
	_, ok := tokenIndex(s)
	return ok
}

func tokenIndex(s string) (int, bool) {
	rest, ok := strings.CutPrefix(s, TokenPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return i, true
}
