// Package jsonld implements the normalized JSON-LD form used by the store:
// flattening, predicate-array normalization, dictionary-driven compression
// and the two expansion modes applied on egress.
//
// Nodes are plain map[string]any values as decoded by encoding/json. A
// normalized node carries at most one "@id", an array-valued "@type", and
// predicate entries that are always arrays of value objects: either
// {"@id": ...} references or {"@value": ..., "@language"?, "@type"?}
// literals. Producers that violate the array-valued contract are rejected
// before any load.
package jsonld

import (
	"fmt"
	"strings"

	"github.com/c360/urdf/errors"
)

// DefaultGraph is the graph id documents without a named graph load into.
const DefaultGraph = "@default"

// Keyword names used across the package.
const (
	KeyID       = "@id"
	KeyType     = "@type"
	KeyValue    = "@value"
	KeyLanguage = "@language"
	KeyGraph    = "@graph"
	KeyContext  = "@context"
)

// Dataset is an ordered collection of named-graph objects, each shaped
// {"@id": gid, "@graph": [nodes...]}.
type Dataset []map[string]any

// NewGraphObject builds a graph object for a dataset.
func NewGraphObject(gid string, nodes []map[string]any) map[string]any {
	ns := make([]any, len(nodes))
	for i, n := range nodes {
		ns[i] = n
	}
	return map[string]any{
		KeyID:    gid,
		KeyGraph: ns,
	}
}

// GraphID returns the @id of a graph object, if present.
func GraphID(obj map[string]any) (string, bool) {
	id, ok := obj[KeyID].(string)
	return id, ok && id != ""
}

// GraphNodes returns the node maps under a graph object's @graph key.
func GraphNodes(obj map[string]any) []map[string]any {
	raw, ok := obj[KeyGraph].([]any)
	if !ok {
		return nil
	}
	nodes := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		if n, ok := v.(map[string]any); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// NodeID returns the @id of a node, if present and non-empty.
func NodeID(node map[string]any) (string, bool) {
	id, ok := node[KeyID].(string)
	return id, ok && id != ""
}

// IsValueObject reports whether a map carries a literal @value.
func IsValueObject(m map[string]any) bool {
	_, ok := m[KeyValue]
	return ok
}

// IsReference reports whether a map is a reference-only object: an @id and
// nothing else.
func IsReference(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	_, ok := m[KeyID]
	return ok
}

// IsNodeLike reports whether an embedded map should be hoisted during
// flattening: it carries an @type or at least one non-keyword predicate.
func IsNodeLike(m map[string]any) bool {
	if IsValueObject(m) {
		return false
	}
	if _, ok := m[KeyType]; ok {
		return true
	}
	for k := range m {
		if !strings.HasPrefix(k, "@") {
			return true
		}
	}
	return false
}

// TripleCount returns the number of triples a normalized node contributes:
// one per @type member plus one per value in each predicate array.
func TripleCount(node map[string]any) int {
	n := 0
	for k, v := range node {
		if k == KeyID || k == KeyContext {
			continue
		}
		if arr, ok := v.([]any); ok {
			n += len(arr)
		}
	}
	return n
}

// Validate checks the array-valued predicate invariant on one node. Every
// key other than @id and @context must map to an array.
func Validate(node map[string]any) error {
	for k, v := range node {
		if k == KeyID || k == KeyContext {
			continue
		}
		if _, ok := v.([]any); !ok {
			return errors.WrapSchema(
				fmt.Errorf("%w: predicate %q", errors.ErrNotArrayValued, k),
				"jsonld", "Validate", "array invariant")
		}
	}
	return nil
}

// ValidateDataset checks the array-valued predicate invariant on every node
// of every graph object in a dataset.
func ValidateDataset(ds Dataset) error {
	for _, obj := range ds {
		for _, node := range GraphNodes(obj) {
			if err := Validate(node); err != nil {
				return err
			}
		}
	}
	return nil
}
