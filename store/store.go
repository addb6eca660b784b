// Package store implements the in-memory named-graph quad store. Nodes are
// held in compressed (token) form; every externally observable answer is
// expanded through the dictionary before it leaves the store.
//
// The store assumes exclusive access between suspension points: all
// mutations and reads are serialized through the runtime's task queue and
// no internal locking is performed.
package store

import (
	"context"
	"fmt"
	"reflect"

	"github.com/c360/urdf/dictionary"
	"github.com/c360/urdf/errors"
	"github.com/c360/urdf/jsonld"
	"github.com/c360/urdf/rdf"
	"github.com/c360/urdf/sparql"
	"github.com/c360/urdf/vocabulary"
)

// Store is the named-graph container.
type Store struct {
	dict      *dictionary.Dictionary
	evaluator sparql.Evaluator
	graphs    map[string]*graph
	order     []string // graph insertion order, for stable exports
}

// graph holds one named graph's nodes indexed by compressed @id.
type graph struct {
	order []string
	nodes map[string]map[string]any
}

// New creates an empty store over a dictionary and an evaluator.
func New(d *dictionary.Dictionary, ev sparql.Evaluator) *Store {
	return &Store{
		dict:      d,
		evaluator: ev,
		graphs:    make(map[string]*graph),
	}
}

// Dictionary returns the store's dictionary.
func (s *Store) Dictionary() *dictionary.Dictionary {
	return s.dict
}

// Load ingests a JSON-LD dataset: an array of graph objects each shaped
// {"@id": gid, "@graph": [nodes...]}. The dataset is flattened, checked
// against the array-valued predicate invariant, compressed, and merged
// with union semantics per graph. A violation rejects the whole dataset
// with no partial write.
func (s *Store) Load(ds jsonld.Dataset) error {
	flat := jsonld.Flatten(ds)
	if err := jsonld.ValidateDataset(flat); err != nil {
		return err
	}
	compressed := jsonld.Compress(s.dict, flat)
	for _, obj := range compressed {
		gid, ok := jsonld.GraphID(obj)
		if !ok {
			return errors.WrapContract(
				fmt.Errorf("%w: graph object", errors.ErrMissingID),
				"Store", "Load", "read graph id")
		}
		g := s.graph(gid)
		for _, node := range jsonld.GraphNodes(obj) {
			g.merge(node)
		}
	}
	return nil
}

// LoadGraph ingests a list of already-normalized nodes into one named
// graph. The nodes pass through the same invariant check and compression
// as Load.
func (s *Store) LoadGraph(gid string, nodes []map[string]any) error {
	return s.Load(jsonld.Dataset{jsonld.NewGraphObject(gid, nodes)})
}

// Clear removes one named graph.
func (s *Store) Clear(gid string) {
	key := s.dict.Compress(gid)
	if _, ok := s.graphs[key]; !ok {
		return
	}
	delete(s.graphs, key)
	for i, g := range s.order {
		if g == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ClearAll removes every named graph.
func (s *Store) ClearAll() {
	s.graphs = make(map[string]*graph)
	s.order = nil
}

// Find returns the expanded node with the given @id, optionally scoped to
// one named graph. Not-found is reported distinctly from other errors.
func (s *Store) Find(id, gid string) (map[string]any, error) {
	key := s.dict.Compress(id)
	if gid != "" {
		g, ok := s.graphs[s.dict.Compress(gid)]
		if !ok {
			return nil, errors.WrapNotFound(
				fmt.Errorf("%w: %s", errors.ErrGraphNotFound, gid),
				"Store", "Find", "resolve graph")
		}
		if node, ok := g.nodes[key]; ok {
			return jsonld.ExpandGraphDeep(s.dict, node), nil
		}
		return nil, errors.WrapNotFound(
			fmt.Errorf("%w: %s in %s", errors.ErrNodeNotFound, id, gid),
			"Store", "Find", "resolve node")
	}
	for _, gkey := range s.order {
		if node, ok := s.graphs[gkey].nodes[key]; ok {
			return jsonld.ExpandGraphDeep(s.dict, node), nil
		}
	}
	return nil, errors.WrapNotFound(
		fmt.Errorf("%w: %s", errors.ErrNodeNotFound, id),
		"Store", "Find", "resolve node")
}

// FindGraph returns the expanded node list of one named graph, or of the
// default graph when gid is empty.
func (s *Store) FindGraph(gid string) ([]map[string]any, error) {
	if gid == "" {
		gid = jsonld.DefaultGraph
	}
	g, ok := s.graphs[s.dict.Compress(gid)]
	if !ok {
		return nil, errors.WrapNotFound(
			fmt.Errorf("%w: %s", errors.ErrGraphNotFound, gid),
			"Store", "FindGraph", "resolve graph")
	}
	out := make([]map[string]any, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, jsonld.ExpandGraphDeep(s.dict, g.nodes[id]))
	}
	return out, nil
}

// Remove deletes one node from a named graph. Not-found is reported
// distinctly so the rules CRUD can answer 404.
func (s *Store) Remove(gid, id string) error {
	g, ok := s.graphs[s.dict.Compress(gid)]
	if !ok {
		return errors.WrapNotFound(
			fmt.Errorf("%w: %s", errors.ErrGraphNotFound, gid),
			"Store", "Remove", "resolve graph")
	}
	key := s.dict.Compress(id)
	if _, ok := g.nodes[key]; !ok {
		return errors.WrapNotFound(
			fmt.Errorf("%w: %s in %s", errors.ErrNodeNotFound, id, gid),
			"Store", "Remove", "resolve node")
	}
	delete(g.nodes, key)
	for i, nid := range g.order {
		if nid == key {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// GraphIDs returns the expanded identifiers of all loaded graphs in
// insertion order.
func (s *Store) GraphIDs() []string {
	out := make([]string, len(s.order))
	for i, key := range s.order {
		out[i] = s.dict.Expand(key)
	}
	return out
}

// HasGraph reports whether a named graph exists.
func (s *Store) HasGraph(gid string) bool {
	_, ok := s.graphs[s.dict.Compress(gid)]
	return ok
}

// Size returns the triple count of one named graph, or of the whole store
// when gid is empty.
func (s *Store) Size(gid string) (int, error) {
	if gid == "" {
		total := 0
		for _, g := range s.graphs {
			total += g.size()
		}
		return total, nil
	}
	g, ok := s.graphs[s.dict.Compress(gid)]
	if !ok {
		return 0, errors.WrapNotFound(
			fmt.Errorf("%w: %s", errors.ErrGraphNotFound, gid),
			"Store", "Size", "resolve graph")
	}
	return g.size(), nil
}

// Query rewrites, evaluates, and expands a SPARQL query over the union of
// all named graphs.
func (s *Store) Query(ctx context.Context, query string) (*sparql.Result, error) {
	if err := sparql.CheckContract(query); err != nil {
		return nil, err
	}
	rewritten := sparql.Rewrite(s.dict, query)
	res, err := s.evaluator.Evaluate(ctx, rewritten, s)
	if err != nil {
		return nil, err
	}
	if res.Type == sparql.TypeSelect {
		expanded := make([]sparql.Binding, len(res.Bindings))
		for i, b := range res.Bindings {
			eb := sparql.Binding{}
			for k, v := range b {
				eb[k] = jsonld.ExpandQueryDeep(s.dict, v)
			}
			expanded[i] = eb
		}
		res.Bindings = expanded
	}
	return res, nil
}

// QueryRaw evaluates without expanding bindings, so IRI terms stay in
// z:<n> token form.
func (s *Store) QueryRaw(ctx context.Context, query string) (*sparql.Result, error) {
	if err := sparql.CheckContract(query); err != nil {
		return nil, err
	}
	return s.evaluator.Evaluate(ctx, sparql.Rewrite(s.dict, query), s)
}

// Quads implements sparql.Source: the union of all graphs in compressed
// form. Type entries surface as quads with the index-0 token predicate.
func (s *Store) Quads() []rdf.Quad {
	var out []rdf.Quad
	typePred := s.typePredicate()
	for _, gkey := range s.order {
		g := s.graphs[gkey]
		for _, id := range g.order {
			node := g.nodes[id]
			subject := rdf.IRI(id)
			for k, v := range node {
				if k == jsonld.KeyID || k == jsonld.KeyContext {
					continue
				}
				arr, ok := v.([]any)
				if !ok {
					continue
				}
				if k == jsonld.KeyType {
					for _, t := range arr {
						if ts, ok := t.(string); ok {
							out = append(out, rdf.Quad{
								Subject:   subject,
								Predicate: rdf.IRI(typePred),
								Object:    rdf.IRI(ts),
								Graph:     gkey,
							})
						}
					}
					continue
				}
				for _, item := range arr {
					m, ok := item.(map[string]any)
					if !ok {
						continue
					}
					obj, ok := rdf.FromValueObject(m)
					if !ok {
						continue
					}
					out = append(out, rdf.Quad{
						Subject:   subject,
						Predicate: rdf.IRI(k),
						Object:    obj,
						Graph:     gkey,
					})
				}
			}
		}
	}
	return out
}

func (s *Store) typePredicate() string {
	if s.dict.Len() > 0 {
		if iri, ok := s.dict.IRIOf(0); ok {
			return s.dict.Compress(iri)
		}
	}
	return vocabulary.RDFType
}

func (s *Store) graph(gid string) *graph {
	if g, ok := s.graphs[gid]; ok {
		return g
	}
	g := &graph{nodes: make(map[string]map[string]any)}
	s.graphs[gid] = g
	s.order = append(s.order, gid)
	return g
}

// merge unions a compressed node into the graph. Identifiers are unique
// per graph; on collision array values concatenate (duplicates collapse)
// and existing scalars win over incoming overwrites.
func (g *graph) merge(node map[string]any) {
	id, ok := jsonld.NodeID(node)
	if !ok {
		return
	}
	existing, ok := g.nodes[id]
	if !ok {
		g.nodes[id] = node
		g.order = append(g.order, id)
		return
	}
	for k, v := range node {
		if k == jsonld.KeyID {
			continue
		}
		old, present := existing[k]
		if !present {
			existing[k] = v
			continue
		}
		oldArr, oldIsArr := old.([]any)
		newArr, newIsArr := v.([]any)
		if oldIsArr && newIsArr {
			existing[k] = unionValues(oldArr, newArr)
		}
		// existing scalar wins over any overwrite
	}
}

func unionValues(old, add []any) []any {
	out := old
	for _, item := range add {
		dup := false
		for _, have := range out {
			if reflect.DeepEqual(have, item) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, item)
		}
	}
	return out
}

func (g *graph) size() int {
	n := 0
	for _, node := range g.nodes {
		n += jsonld.TripleCount(node)
	}
	return n
}
