// Package inference implements the rule orchestration loop: it reads the
// rules graph, executes SPARQL-projection and N3-projection rules, and
// deterministically replaces the inferred graph with the aggregated
// derivations.
package inference

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/c360/urdf/errors"
	"github.com/c360/urdf/jsonld"
	"github.com/c360/urdf/rdf"
	"github.com/c360/urdf/reason"
	"github.com/c360/urdf/sparql"
	"github.com/c360/urdf/store"
	"github.com/c360/urdf/vocabulary"
)

// EventSink receives the structured event published after every
// orchestration cycle. Publication is best-effort and must never affect
// control flow.
type EventSink interface {
	Publish(eventType string, payload map[string]any)
}

// Orchestrator recomputes the inferred graph from the rules graph.
type Orchestrator struct {
	store    *store.Store
	reasoner reason.Reasoner // nil means SPARQL-only mode
	events   EventSink
	logger   *slog.Logger

	rulesGraph    string
	inferredGraph string

	warnedNoReasoner bool
}

// Stats describes one completed orchestration cycle.
type Stats struct {
	Trigger     string         `json:"reason"`
	RuleCount   int            `json:"ruleCount"`
	SPARQLRules int            `json:"sparqlRules"`
	N3Rules     int            `json:"n3Rules"`
	Skipped     int            `json:"skippedRules"`
	TripleCount int            `json:"tripleCount"`
	GraphSizes  map[string]int `json:"graphSizes"`
	Duration    time.Duration  `json:"-"`
}

// New creates an orchestrator. The reasoner may be nil; N3 rules are then
// skipped with a single warning.
func New(s *store.Store, reasoner reason.Reasoner, events EventSink, logger *slog.Logger, rulesGraph, inferredGraph string) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:         s,
		reasoner:      reasoner,
		events:        events,
		logger:        logger,
		rulesGraph:    rulesGraph,
		inferredGraph: inferredGraph,
	}
}

// derived is one derived triple prior to aggregation.
type derived struct {
	s string
	p string
	o map[string]any // JSON-LD value object
}

// Run executes every rule and atomically replaces the inferred graph.
// Per-rule failures are logged and skipped; a validation failure of the
// aggregate leaves the prior inferred graph untouched.
func (o *Orchestrator) Run(ctx context.Context, trigger string) (*Stats, error) {
	start := time.Now()
	stats := &Stats{Trigger: trigger}

	rules, err := o.store.FindGraph(o.rulesGraph)
	if err != nil || len(rules) == 0 {
		o.store.Clear(o.inferredGraph)
		stats.GraphSizes = o.graphSizes()
		stats.Duration = time.Since(start)
		o.publish(stats)
		return stats, nil
	}

	byID := make(map[string]map[string]any, len(rules))
	for _, node := range rules {
		if id, ok := jsonld.NodeID(node); ok {
			byID[id] = node
		}
	}

	var all []derived
	for _, node := range rules {
		if !hasType(node, vocabulary.ClassRule) {
			continue
		}
		stats.RuleCount++
		text := firstString(node, vocabulary.SchemaText)
		if text == "" {
			o.logger.Warn("rule has no program text", "rule", node[jsonld.KeyID])
			stats.Skipped++
			continue
		}
		switch ruleLanguage(node) {
		case "n3", "notation3":
			stats.N3Rules++
			ds, ok := o.runN3Rule(ctx, node, byID, text)
			if !ok {
				stats.Skipped++
				continue
			}
			all = append(all, ds...)
		default:
			stats.SPARQLRules++
			ds, ok := o.runSPARQLRule(ctx, node, text)
			if !ok {
				stats.Skipped++
				continue
			}
			all = append(all, ds...)
		}
	}

	nodes := aggregate(all)
	stats.TripleCount = len(all)

	// Validate before clearing so a bad aggregate cannot leave the graph
	// half-replaced: after validation the clear+load pair cannot fail.
	for _, n := range nodes {
		if err := jsonld.Validate(n); err != nil {
			stats.Duration = time.Since(start)
			return stats, err
		}
	}
	o.store.Clear(o.inferredGraph)
	if len(nodes) > 0 {
		if err := o.store.LoadGraph(o.inferredGraph, nodes); err != nil {
			return stats, err
		}
	}

	stats.GraphSizes = o.graphSizes()
	stats.Duration = time.Since(start)
	o.publish(stats)
	return stats, nil
}

func (o *Orchestrator) runSPARQLRule(ctx context.Context, node map[string]any, text string) ([]derived, bool) {
	res, err := o.store.Query(ctx, text)
	if err != nil {
		o.logger.Warn("sparql rule failed", "rule", node[jsonld.KeyID], "error", err)
		return nil, false
	}
	if res.Type != sparql.TypeSelect {
		o.logger.Warn("sparql rule did not return bindings", "rule", node[jsonld.KeyID])
		return nil, false
	}
	var out []derived
	for _, b := range res.Bindings {
		d, ok := bindingTriple(b)
		if !ok {
			o.logger.Debug("skipping incomplete binding", "rule", node[jsonld.KeyID])
			continue
		}
		out = append(out, d)
	}
	return out, true
}

func (o *Orchestrator) runN3Rule(ctx context.Context, node map[string]any, byID map[string]map[string]any, program string) ([]derived, bool) {
	if o.reasoner == nil {
		if !o.warnedNoReasoner {
			o.logger.Warn("no reasoner capability; skipping all N3 rules")
			o.warnedNoReasoner = true
		}
		return nil, false
	}

	projection := o.projectionQuery(node, byID)
	if projection == "" {
		o.logger.Warn("n3 rule has no projection query", "rule", node[jsonld.KeyID])
		return nil, false
	}

	res, err := o.store.Query(ctx, projection)
	if err != nil {
		o.logger.Warn("projection query failed", "rule", node[jsonld.KeyID], "error", err)
		return nil, false
	}

	var facts []string
	for _, b := range res.Bindings {
		line, err := bindingNTriple(b)
		if err != nil {
			o.logger.Debug("skipping unserializable binding", "rule", node[jsonld.KeyID], "error", err)
			continue
		}
		facts = append(facts, line)
	}

	input := strings.Join(facts, "\n") + "\n\n" + program

	var out []derived
	err = o.reasoner.Reason(ctx, input, func(s, p, oTerm string) {
		st := rdf.DecodeReasonerTerm(s)
		pt := rdf.DecodeReasonerTerm(p)
		ot := rdf.DecodeReasonerTerm(oTerm)
		if !st.IsIdentifier() || pt.Kind != rdf.TermIRI {
			return
		}
		if vocabulary.IsHelperPredicate(pt.Value) {
			return
		}
		out = append(out, derived{s: st.Value, p: pt.Value, o: ot.ToValueObject()})
	})
	if err != nil {
		o.logger.Warn("reasoner failed", "rule", node[jsonld.KeyID], "error", err)
		return nil, false
	}
	return out, true
}

// projectionQuery dereferences schema:hasPart to the SoftwareSourceCode
// sub-resource carrying the projection query text.
func (o *Orchestrator) projectionQuery(node map[string]any, byID map[string]map[string]any) string {
	parts, _ := node[vocabulary.SchemaHasPart].([]any)
	for _, part := range parts {
		m, ok := part.(map[string]any)
		if !ok {
			continue
		}
		sub := m
		if id, ok := m[jsonld.KeyID].(string); ok && len(m) == 1 {
			resolved, found := byID[id]
			if !found {
				continue
			}
			sub = resolved
		}
		if !hasType(sub, vocabulary.SchemaSoftwareSourceCode) {
			continue
		}
		if text := firstString(sub, vocabulary.SchemaText); text != "" {
			return text
		}
	}
	return ""
}

func (o *Orchestrator) graphSizes() map[string]int {
	sizes := map[string]int{}
	for _, gid := range o.store.GraphIDs() {
		if n, err := o.store.Size(gid); err == nil {
			sizes[gid] = n
		}
	}
	return sizes
}

func (o *Orchestrator) publish(stats *Stats) {
	if o.events == nil {
		return
	}
	o.events.Publish("inference", map[string]any{
		"reason":      stats.Trigger,
		"ruleCount":   stats.RuleCount,
		"sparqlRules": stats.SPARQLRules,
		"n3Rules":     stats.N3Rules,
		"skipped":     stats.Skipped,
		"tripleCount": stats.TripleCount,
		"graphSizes":  stats.GraphSizes,
		"durationMs":  stats.Duration.Milliseconds(),
	})
}

// bindingTriple reads one s/p/o binding, accepting the common synonyms.
func bindingTriple(b sparql.Binding) (derived, bool) {
	s, ok := bindingIRI(b, "s", "subject")
	if !ok {
		return derived{}, false
	}
	p, ok := bindingIRI(b, "p", "predicate")
	if !ok {
		return derived{}, false
	}
	o, ok := bindingObject(b, "o", "object")
	if !ok {
		return derived{}, false
	}
	return derived{s: s, p: p, o: o}, true
}

func bindingNTriple(b sparql.Binding) (string, error) {
	d, ok := bindingTriple(b)
	if !ok {
		return "", errors.ErrMissingBinding
	}
	obj, ok := rdf.FromValueObject(d.o)
	if !ok {
		return "", errors.ErrMissingBinding
	}
	return rdf.NTriple(rdf.IRI(d.s), rdf.IRI(d.p), obj)
}

func bindingIRI(b sparql.Binding, names ...string) (string, bool) {
	for _, name := range names {
		switch v := b[name].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case map[string]any:
			if id, ok := v[jsonld.KeyID].(string); ok && id != "" {
				return id, true
			}
		}
	}
	return "", false
}

func bindingObject(b sparql.Binding, names ...string) (map[string]any, bool) {
	for _, name := range names {
		switch v := b[name].(type) {
		case string:
			if v == "" {
				continue
			}
			if vocabulary.IsIRI(v) {
				return map[string]any{jsonld.KeyID: v}, true
			}
			return map[string]any{jsonld.KeyValue: v}, true
		case map[string]any:
			if len(v) > 0 {
				return v, true
			}
		}
	}
	return nil, false
}

// aggregate groups derived triples by subject into normalized JSON-LD
// nodes. rdf:type derivations surface as @type members; duplicates within
// a predicate collapse.
func aggregate(ds []derived) []map[string]any {
	var order []string
	nodes := map[string]map[string]any{}
	for _, d := range ds {
		node, ok := nodes[d.s]
		if !ok {
			node = map[string]any{jsonld.KeyID: d.s}
			nodes[d.s] = node
			order = append(order, d.s)
		}
		if d.p == vocabulary.RDFType {
			if id, ok := d.o[jsonld.KeyID].(string); ok {
				appendUnique(node, jsonld.KeyType, id)
				continue
			}
		}
		appendUnique(node, d.p, d.o)
	}
	out := make([]map[string]any, len(order))
	for i, s := range order {
		out[i] = nodes[s]
	}
	return out
}

func appendUnique(node map[string]any, key string, v any) {
	arr, _ := node[key].([]any)
	for _, have := range arr {
		if reflect.DeepEqual(have, v) {
			return
		}
	}
	node[key] = append(arr, v)
}

func hasType(node map[string]any, class string) bool {
	types, _ := node[jsonld.KeyType].([]any)
	for _, t := range types {
		if s, ok := t.(string); ok && s == class {
			return true
		}
	}
	return false
}

func firstString(node map[string]any, pred string) string {
	arr, _ := node[pred].([]any)
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			if s, ok := m[jsonld.KeyValue].(string); ok {
				return s
			}
		}
	}
	return ""
}

func ruleLanguage(node map[string]any) string {
	if lang := firstString(node, vocabulary.SchemaProgrammingLanguage); lang != "" {
		return strings.ToLower(strings.TrimSpace(lang))
	}
	if enc := firstString(node, vocabulary.SchemaEncodingFormat); enc != "" {
		enc = strings.ToLower(enc)
		if strings.Contains(enc, "n3") || strings.Contains(enc, "notation3") {
			return "n3"
		}
	}
	return "sparql"
}
