package inference

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/urdf/dictionary"
	"github.com/c360/urdf/jsonld"
	"github.com/c360/urdf/reason"
	"github.com/c360/urdf/sparql"
	"github.com/c360/urdf/store"
	"github.com/c360/urdf/vocabulary"
)

const (
	rulesGID    = "urn:graph:rules"
	inferredGID = "urn:graph:inferred"
	appGID      = "urn:graph:application"
)

type capturedEvents struct {
	types    []string
	payloads []map[string]any
}

func (c *capturedEvents) Publish(eventType string, payload map[string]any) {
	c.types = append(c.types, eventType)
	c.payloads = append(c.payloads, payload)
}

func newTestStore() *store.Store {
	d := dictionary.New([]string{"http://www.w3.org/1999/02/22-rdf-syntax-ns#type"})
	return store.New(d, sparql.NewSubsetEvaluator(d))
}

func value(v any) []any { return []any{map[string]any{"@value": v}} }
func iri(id string) []any {
	return []any{map[string]any{"@id": id}}
}

func loadAppGraph(t *testing.T, s *store.Store) {
	t.Helper()
	require.NoError(t, s.LoadGraph(appGID, []map[string]any{
		{
			"@id":      "urn:n1",
			"urn:name": value("alice"),
		},
		{
			// helper triples that bind the derived predicate variables
			"@id":        "urn:meta",
			"urn:pred":   iri("urn:derived"),
			"urn:pvpred": iri("urn:nrua:pv:name"),
		},
	}))
}

func sparqlRule(id, query string) map[string]any {
	return map[string]any{
		"@id":                                id,
		"@type":                              []any{vocabulary.ClassRule},
		vocabulary.SchemaText:                value(query),
		vocabulary.SchemaProgrammingLanguage: value("sparql"),
	}
}

func TestRunSPARQLRule(t *testing.T) {
	s := newTestStore()
	loadAppGraph(t, s)
	require.NoError(t, s.LoadGraph(rulesGID, []map[string]any{
		sparqlRule("urn:rule1",
			"SELECT ?s ?p ?o WHERE { ?s <urn:name> ?o . <urn:meta> <urn:pred> ?p }"),
	}))

	sink := &capturedEvents{}
	o := New(s, nil, sink, slog.Default(), rulesGID, inferredGID)

	stats, err := o.Run(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RuleCount)
	assert.Equal(t, 1, stats.SPARQLRules)
	assert.Equal(t, 1, stats.TripleCount)

	node, err := s.Find("urn:n1", inferredGID)
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"@value": "alice"}}, node["urn:derived"])

	require.Contains(t, sink.types, "inference")
}

func TestRunN3Rule(t *testing.T) {
	s := newTestStore()
	loadAppGraph(t, s)

	program := `{ ?n <urn:nrua:pv:name> ?x . } => { ?n <urn:hasNameTag> ?x . ?n <urn:nrua:pv:extra> ?x . } .`
	require.NoError(t, s.LoadGraph(rulesGID, []map[string]any{
		{
			"@id":                                "urn:rule2",
			"@type":                              []any{vocabulary.ClassRule},
			vocabulary.SchemaText:                value(program),
			vocabulary.SchemaProgrammingLanguage: value("n3"),
			vocabulary.SchemaHasPart:             iri("urn:rule2:proj"),
		},
		{
			"@id":                 "urn:rule2:proj",
			"@type":               []any{vocabulary.SchemaSoftwareSourceCode},
			vocabulary.SchemaText: value("SELECT ?s ?p ?o WHERE { ?s <urn:name> ?o . <urn:meta> <urn:pvpred> ?p }"),
		},
	}))

	o := New(s, &reason.ForwardChainer{}, nil, slog.Default(), rulesGID, inferredGID)

	stats, err := o.Run(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.N3Rules)

	node, err := s.Find("urn:n1", inferredGID)
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"@value": "alice"}}, node["urn:hasNameTag"])
	_, hasHelper := node["urn:nrua:pv:extra"]
	assert.False(t, hasHelper, "helper predicates never persist")
}

func TestRunWithoutReasonerSkipsN3(t *testing.T) {
	s := newTestStore()
	loadAppGraph(t, s)
	require.NoError(t, s.LoadGraph(rulesGID, []map[string]any{
		{
			"@id":                                "urn:rule2",
			"@type":                              []any{vocabulary.ClassRule},
			vocabulary.SchemaText:                value("{ ?a ?b ?c . } => { ?a ?b ?c . } ."),
			vocabulary.SchemaProgrammingLanguage: value("n3"),
		},
		sparqlRule("urn:rule1",
			"SELECT ?s ?p ?o WHERE { ?s <urn:name> ?o . <urn:meta> <urn:pred> ?p }"),
	}))

	o := New(s, nil, nil, slog.Default(), rulesGID, inferredGID)
	stats, err := o.Run(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RuleCount)
	assert.Equal(t, 1, stats.Skipped, "n3 rule skipped in SPARQL-only mode")

	// SPARQL rules still execute
	node, err := s.Find("urn:n1", inferredGID)
	require.NoError(t, err)
	assert.Contains(t, node, "urn:derived")
}

func TestRunEmptyRulesClearsInferred(t *testing.T) {
	s := newTestStore()
	loadAppGraph(t, s)
	require.NoError(t, s.LoadGraph(inferredGID, []map[string]any{
		{"@id": "urn:stale", "urn:p": value("old")},
	}))

	o := New(s, nil, nil, slog.Default(), rulesGID, inferredGID)
	stats, err := o.Run(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.RuleCount)
	assert.False(t, s.HasGraph(inferredGID), "stale inferred graph cleared")
}

func TestRunFailingRuleIsSkipped(t *testing.T) {
	s := newTestStore()
	loadAppGraph(t, s)
	require.NoError(t, s.LoadGraph(rulesGID, []map[string]any{
		sparqlRule("urn:bad", "THIS IS NOT SPARQL"),
		sparqlRule("urn:good",
			"SELECT ?s ?p ?o WHERE { ?s <urn:name> ?o . <urn:meta> <urn:pred> ?p }"),
	}))

	o := New(s, nil, nil, slog.Default(), rulesGID, inferredGID)
	stats, err := o.Run(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)

	node, err := s.Find("urn:n1", inferredGID)
	require.NoError(t, err)
	assert.Contains(t, node, "urn:derived")
}

// Two consecutive runs over unchanged inputs produce the same inferred
// graph: replacement is deterministic, never cumulative.
func TestRunIsIdempotent(t *testing.T) {
	s := newTestStore()
	loadAppGraph(t, s)
	require.NoError(t, s.LoadGraph(rulesGID, []map[string]any{
		sparqlRule("urn:rule1",
			"SELECT ?s ?p ?o WHERE { ?s <urn:name> ?o . <urn:meta> <urn:pred> ?p }"),
	}))

	o := New(s, nil, nil, slog.Default(), rulesGID, inferredGID)

	_, err := o.Run(context.Background(), "first")
	require.NoError(t, err)
	first, err := s.FindGraph(inferredGID)
	require.NoError(t, err)

	_, err = o.Run(context.Background(), "second")
	require.NoError(t, err)
	second, err := s.FindGraph(inferredGID)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	size, err := s.Size(inferredGID)
	require.NoError(t, err)
	assert.Equal(t, jsonld.TripleCount(first[0]), size)
}
