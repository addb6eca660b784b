package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/urdf/dictionary"
	"github.com/c360/urdf/errors"
	"github.com/c360/urdf/jsonld"
	"github.com/c360/urdf/sparql"
)

func newTestStore() *Store {
	d := dictionary.New([]string{
		"http://www.w3.org/1999/02/22-rdf-syntax-ns#type",
		"urn:a/name",
		"urn:C",
	})
	return New(d, sparql.NewSubsetEvaluator(d))
}

func dataset(gid string, nodes ...map[string]any) jsonld.Dataset {
	return jsonld.Dataset{jsonld.NewGraphObject(gid, nodes)}
}

func TestLoadAndFind(t *testing.T) {
	s := newTestStore()

	err := s.Load(dataset("urn:g",
		map[string]any{
			"@id":        "urn:x",
			"@type":      []any{"urn:C"},
			"urn:a/name": []any{map[string]any{"@value": "N"}},
		},
	))
	require.NoError(t, err)

	node, err := s.Find("urn:x", "urn:g")
	require.NoError(t, err)
	assert.Equal(t, "urn:x", node["@id"])
	assert.Equal(t, []any{"urn:C"}, node["@type"], "egress is expanded")
	assert.Equal(t, []any{map[string]any{"@value": "N"}}, node["urn:a/name"])

	// unscoped lookup
	node, err = s.Find("urn:x", "")
	require.NoError(t, err)
	assert.Equal(t, "urn:x", node["@id"])
}

func TestFindNotFound(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Load(dataset("urn:g", map[string]any{"@id": "urn:x"})))

	_, err := s.Find("urn:missing", "urn:g")
	assert.True(t, errors.IsNotFound(err))

	_, err = s.Find("urn:x", "urn:nograph")
	assert.True(t, errors.IsNotFound(err))

	_, err = s.FindGraph("urn:nograph")
	assert.True(t, errors.IsNotFound(err))
}

// After any load, every predicate of every stored node is array-valued,
// even when the input arrives denormalized.
func TestArrayInvariantAfterLoad(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.Load(dataset("urn:g", map[string]any{
		"@id":        "urn:x",
		"@type":      "urn:C",
		"urn:a/name": "scalar",
		"urn:nested": map[string]any{"@type": "urn:C", "urn:a/name": "inner"},
	})))

	nodes, err := s.FindGraph("urn:g")
	require.NoError(t, err)
	require.Len(t, nodes, 2, "embedded node hoisted")
	for _, node := range nodes {
		require.NoError(t, jsonld.Validate(node))
	}
}

// Producers reject schema violations before submitting a load; the check
// they run is jsonld.Validate on every produced node.
func TestProducerPreCheck(t *testing.T) {
	err := jsonld.Validate(map[string]any{"@id": "urn:y", "urn:p": "scalar"})
	assert.True(t, errors.IsSchemaViolation(err))
}

func TestMergeUnionsValues(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.Load(dataset("urn:g", map[string]any{
		"@id":        "urn:x",
		"urn:a/name": []any{map[string]any{"@value": "first"}},
	})))
	require.NoError(t, s.Load(dataset("urn:g", map[string]any{
		"@id":        "urn:x",
		"urn:a/name": []any{map[string]any{"@value": "second"}, map[string]any{"@value": "first"}},
		"urn:other":  []any{map[string]any{"@value": "new"}},
	})))

	node, err := s.Find("urn:x", "urn:g")
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"@value": "first"},
		map[string]any{"@value": "second"},
	}, node["urn:a/name"], "arrays concatenate and duplicates collapse")
	assert.Equal(t, []any{map[string]any{"@value": "new"}}, node["urn:other"])
}

func TestSizeAndClear(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.Load(dataset("urn:g1", map[string]any{
		"@id":        "urn:x",
		"@type":      []any{"urn:C"},
		"urn:a/name": []any{map[string]any{"@value": "N"}},
	})))
	require.NoError(t, s.Load(dataset("urn:g2", map[string]any{
		"@id":        "urn:y",
		"urn:a/name": []any{map[string]any{"@value": "M"}},
	})))

	total, err := s.Size("")
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	g1, err := s.Size("urn:g1")
	require.NoError(t, err)
	assert.Equal(t, 2, g1)

	s.Clear("urn:g1")
	assert.False(t, s.HasGraph("urn:g1"))
	total, err = s.Size("")
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	s.ClearAll()
	total, err = s.Size("")
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestRemove(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Load(dataset("urn:g",
		map[string]any{"@id": "urn:x", "urn:a/name": []any{map[string]any{"@value": "N"}}},
		map[string]any{"@id": "urn:y", "urn:a/name": []any{map[string]any{"@value": "M"}}},
	)))

	require.NoError(t, s.Remove("urn:g", "urn:x"))
	_, err := s.Find("urn:x", "urn:g")
	assert.True(t, errors.IsNotFound(err))

	err = s.Remove("urn:g", "urn:x")
	assert.True(t, errors.IsNotFound(err))

	nodes, err := s.FindGraph("urn:g")
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

func TestQueryContract(t *testing.T) {
	s := newTestStore()
	_, err := s.Query(context.Background(), "PREFIX s: <urn:a/> SELECT ?s WHERE { ?s s:name ?n }")
	assert.True(t, errors.IsContract(err))
}

// Compression is semantics-preserving: querying the compressed store with
// a rewritten query yields bindings that expand back to the original
// terms.
func TestQuerySemanticsPreserved(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.Load(dataset("urn:g", map[string]any{
		"@id":        "urn:x",
		"@type":      []any{"urn:C"},
		"urn:a/name": []any{map[string]any{"@value": "N"}},
	})))

	res, err := s.Query(context.Background(),
		"SELECT ?p ?o WHERE { <urn:x> ?p ?o }")
	require.NoError(t, err)
	assert.Equal(t, sparql.TypeSelect, res.Type)
	require.Len(t, res.Bindings, 2)

	preds := map[string]bool{}
	for _, b := range res.Bindings {
		p, ok := b["p"].(string)
		require.True(t, ok)
		preds[p] = true
	}
	assert.True(t, preds["http://www.w3.org/1999/02/22-rdf-syntax-ns#type"],
		"type predicate expands to the full IRI")
	assert.True(t, preds["urn:a/name"], "compressed predicate expands")
}

func TestQueryTypeKeyword(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.Load(dataset("urn:g", map[string]any{
		"@id":   "urn:x",
		"@type": []any{"urn:C"},
	})))

	res, err := s.Query(context.Background(),
		"SELECT ?s WHERE { ?s <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <urn:C> }")
	require.NoError(t, err)
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, "urn:x", res.Bindings[0]["s"])

	ask, err := s.Query(context.Background(), "ASK { ?s a <urn:C> }")
	require.NoError(t, err)
	assert.True(t, ask.Boolean)
}
