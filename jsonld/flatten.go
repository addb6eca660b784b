package jsonld

import (
	"fmt"
	"strconv"
	"strings"
)

// blankAllocator hands out blank-node identifiers that do not collide with
// identifiers already present in the input.
type blankAllocator struct {
	next  int
	taken map[string]bool
}

func newBlankAllocator(taken map[string]bool) *blankAllocator {
	return &blankAllocator{taken: taken}
}

func (b *blankAllocator) alloc() string {
	for {
		id := "_:b" + strconv.Itoa(b.next)
		b.next++
		if !b.taken[id] {
			b.taken[id] = true
			return id
		}
	}
}

// Flatten lifts every node reachable through a dataset to the top of its
// containing @graph and replaces embedded node-like objects with
// {"@id": ...} references. Value objects and reference-only objects stay
// in place; scalars under a predicate are promoted to single-element
// arrays of value objects; @type is normalized to an array.
func Flatten(ds Dataset) Dataset {
	out := make(Dataset, 0, len(ds))
	for _, obj := range ds {
		flat := make(map[string]any, len(obj))
		for k, v := range obj {
			if k != KeyGraph {
				flat[k] = v
			}
		}
		flat[KeyGraph] = flattenNodes(GraphNodes(obj))
		out = append(out, flat)
	}
	return out
}

// FlattenNodes normalizes and flattens a list of root nodes, returning the
// full top-level node list including hoisted descendants.
func FlattenNodes(nodes []map[string]any) []map[string]any {
	raw := flattenNodes(nodes)
	out := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		if n, ok := v.(map[string]any); ok {
			out = append(out, n)
		}
	}
	return out
}

func flattenNodes(nodes []map[string]any) []any {
	taken := map[string]bool{}
	for _, n := range nodes {
		collectIDs(n, taken)
	}
	f := &flattener{alloc: newBlankAllocator(taken)}
	for _, n := range nodes {
		f.hoist(n)
	}
	out := make([]any, len(f.hoisted))
	for i, n := range f.hoisted {
		out[i] = n
	}
	return out
}

func collectIDs(v any, taken map[string]bool) {
	switch t := v.(type) {
	case map[string]any:
		if id, ok := t[KeyID].(string); ok && id != "" {
			taken[id] = true
		}
		for k, child := range t {
			if k == KeyID || k == KeyValue {
				continue
			}
			collectIDs(child, taken)
		}
	case []any:
		for _, child := range t {
			collectIDs(child, taken)
		}
	}
}

type flattener struct {
	alloc   *blankAllocator
	hoisted []map[string]any
}

// hoist normalizes a node in place, appends it to the top-level list, and
// returns its identifier.
func (f *flattener) hoist(node map[string]any) string {
	id, ok := NodeID(node)
	if !ok {
		id = f.alloc.alloc()
		node[KeyID] = id
	}
	f.hoisted = append(f.hoisted, node)
	for k, v := range node {
		switch k {
		case KeyID, KeyContext:
			continue
		case KeyType:
			node[k] = normalizeTypes(v)
		default:
			node[k] = f.normalizeValues(v)
		}
	}
	return id
}

// normalizeValues turns a predicate value of any shape into an array of
// value objects and references, hoisting node-like embedded objects.
func (f *flattener) normalizeValues(v any) []any {
	var items []any
	if arr, ok := v.([]any); ok {
		items = arr
	} else {
		items = []any{v}
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, f.normalizeValue(item))
	}
	return out
}

func (f *flattener) normalizeValue(item any) any {
	m, ok := item.(map[string]any)
	if !ok {
		return map[string]any{KeyValue: item}
	}
	if IsValueObject(m) || IsReference(m) {
		return m
	}
	if IsNodeLike(m) {
		id := f.hoist(m)
		return map[string]any{KeyID: id}
	}
	// A bare map that is neither literal, reference, nor node-like (for
	// example an empty object) is preserved as an opaque literal.
	return map[string]any{KeyValue: m}
}

func normalizeTypes(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case string:
		return []any{t}
	default:
		return []any{fmt.Sprint(t)}
	}
}

// IsBlank reports whether an identifier is a blank-node identifier.
func IsBlank(id string) bool {
	return strings.HasPrefix(id, "_:")
}
