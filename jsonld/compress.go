package jsonld

import (
	"regexp"
	"strings"

	"github.com/c360/urdf/dictionary"
)

// Compress rewrites a flattened dataset into token form: every predicate
// key, @type member, @id, and reference target known to the dictionary
// becomes its z:<n> token. JSON-LD keywords are never compressed and
// literal @value payloads are never rewritten.
func Compress(d *dictionary.Dictionary, ds Dataset) Dataset {
	out := make(Dataset, 0, len(ds))
	for _, obj := range ds {
		c := make(map[string]any, len(obj))
		for k, v := range obj {
			if k == KeyGraph {
				continue
			}
			c[k] = v
		}
		nodes := GraphNodes(obj)
		compressed := make([]any, 0, len(nodes))
		for _, n := range nodes {
			compressed = append(compressed, CompressNode(d, n))
		}
		c[KeyGraph] = compressed
		out = append(out, c)
	}
	return out
}

// CompressNode rewrites a single normalized node into token form.
func CompressNode(d *dictionary.Dictionary, node map[string]any) map[string]any {
	out := make(map[string]any, len(node))
	for k, v := range node {
		switch k {
		case KeyID:
			if id, ok := v.(string); ok {
				out[k] = d.Compress(id)
			} else {
				out[k] = v
			}
		case KeyType:
			out[k] = compressTypes(d, v)
		case KeyContext:
			out[k] = v
		default:
			key := k
			if !strings.HasPrefix(k, "@") {
				key = d.Compress(k)
			}
			out[key] = compressValues(d, v)
		}
	}
	return out
}

func compressTypes(d *dictionary.Dictionary, v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(arr))
	for i, t := range arr {
		if s, ok := t.(string); ok {
			out[i] = d.Compress(s)
		} else {
			out[i] = t
		}
	}
	return out
}

func compressValues(d *dictionary.Dictionary, v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(arr))
	for i, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			out[i] = item
			continue
		}
		c := make(map[string]any, len(m))
		for k, mv := range m {
			switch k {
			case KeyID:
				if s, ok := mv.(string); ok {
					c[k] = d.Compress(s)
					continue
				}
				c[k] = mv
			case KeyType:
				// Datatype IRIs on literals compress like any other IRI.
				if s, ok := mv.(string); ok {
					c[k] = d.Compress(s)
					continue
				}
				c[k] = mv
			default:
				c[k] = mv
			}
		}
		out[i] = c
	}
	return out
}

var embeddedToken = regexp.MustCompile(`<z:\d+>`)

// ExpandGraphDeep decodes exact z:<n> tokens in predicate keys, @type
// members, @id values, and reference targets of a node. This is the egress
// transform for graph retrieval and export.
func ExpandGraphDeep(d *dictionary.Dictionary, node map[string]any) map[string]any {
	out := make(map[string]any, len(node))
	for k, v := range node {
		key := k
		if !strings.HasPrefix(k, "@") {
			key = d.Expand(k)
		}
		switch key {
		case KeyID:
			if s, ok := v.(string); ok {
				out[key] = d.Expand(s)
				continue
			}
			out[key] = v
		case KeyType:
			out[key] = expandTypes(d, v)
		case KeyContext:
			out[key] = v
		default:
			out[key] = expandValues(d, v)
		}
	}
	return out
}

// ExpandGraphDeepAll applies ExpandGraphDeep to a node list.
func ExpandGraphDeepAll(d *dictionary.Dictionary, nodes []map[string]any) []map[string]any {
	out := make([]map[string]any, len(nodes))
	for i, n := range nodes {
		out[i] = ExpandGraphDeep(d, n)
	}
	return out
}

func expandTypes(d *dictionary.Dictionary, v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(arr))
	for i, t := range arr {
		if s, ok := t.(string); ok {
			out[i] = d.Expand(s)
		} else {
			out[i] = t
		}
	}
	return out
}

func expandValues(d *dictionary.Dictionary, v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(arr))
	for i, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			out[i] = item
			continue
		}
		e := make(map[string]any, len(m))
		for k, mv := range m {
			if s, ok := mv.(string); ok && (k == KeyID || k == KeyType) {
				e[k] = d.Expand(s)
				continue
			}
			e[k] = mv
		}
		out[i] = e
	}
	return out
}

// ExpandQueryDeep decodes both bare z:<n> tokens and tokens embedded in
// string values (the "<z:n>" form that SPARQL bindings may carry) anywhere
// in a value tree. This is the egress transform for query results.
func ExpandQueryDeep(d *dictionary.Dictionary, v any) any {
	switch t := v.(type) {
	case string:
		if dictionary.IsToken(t) {
			return d.Expand(t)
		}
		if strings.Contains(t, "<"+dictionary.TokenPrefix) {
			return embeddedToken.ReplaceAllStringFunc(t, func(m string) string {
				return "<" + d.Expand(m[1:len(m)-1]) + ">"
			})
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, mv := range t {
			key := k
			if !strings.HasPrefix(k, "@") {
				key = d.Expand(k)
			}
			if key == KeyValue || key == KeyLanguage {
				out[key] = mv
				continue
			}
			out[key] = ExpandQueryDeep(d, mv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ExpandQueryDeep(d, item)
		}
		return out
	default:
		return v
	}
}
