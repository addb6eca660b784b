package sparql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360/urdf/dictionary"
	"github.com/c360/urdf/errors"
)

func testDict() *dictionary.Dictionary {
	return dictionary.New([]string{
		"http://www.w3.org/1999/02/22-rdf-syntax-ns#type",
		"https://schema.org/name",
		"urn:x",
	})
}

func TestCheckContract(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		reject bool
	}{
		{"plain select", "SELECT ?s WHERE { ?s ?p ?o }", false},
		{"prefix rejected", "PREFIX s: <https://schema.org/> SELECT ?s WHERE { ?s s:name ?n }", true},
		{"lowercase prefix rejected", "prefix s: <urn:a> ASK { ?s ?p ?o }", true},
		{"base rejected", "BASE <urn:b/> SELECT ?s WHERE { ?s ?p ?o }", true},
		{"prefix inside literal allowed", `SELECT ?s WHERE { ?s ?p "a PREFIXED value" }`, false},
		{"prefix substring allowed", "SELECT ?s WHERE { ?s <urn:hasPrefix> ?o }", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckContract(tt.query)
			if tt.reject {
				assert.True(t, errors.IsContract(err), "expected contract violation, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRewrite(t *testing.T) {
	d := testDict()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "known iri in subject position",
			query: "SELECT ?p ?o WHERE { <urn:x> ?p ?o }",
			want:  "SELECT ?p ?o WHERE { <z:2> ?p ?o }",
		},
		{
			name:  "type predicate becomes bare a",
			query: "SELECT ?s WHERE { ?s <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <urn:x> }",
			want:  "SELECT ?s WHERE { ?s a <z:2> }",
		},
		{
			name:  "type iri outside predicate position keeps token",
			query: "SELECT ?s WHERE { ?s ?p <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> }",
			want:  "SELECT ?s WHERE { ?s ?p <z:0> }",
		},
		{
			name:  "unknown iris pass through",
			query: "SELECT ?s WHERE { ?s <urn:unknown> ?o }",
			want:  "SELECT ?s WHERE { ?s <urn:unknown> ?o }",
		},
		{
			name:  "second statement predicate also rewritten",
			query: "SELECT ?s WHERE { ?s <https://schema.org/name> ?n . ?s <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> ?c }",
			want:  "SELECT ?s WHERE { ?s <z:1> ?n . ?s a ?c }",
		},
		{
			name:  "no a substitution inside call expressions",
			query: "SELECT ?s WHERE { ?s ?p (<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>) }",
			want:  "SELECT ?s WHERE { ?s ?p (<z:0>) }",
		},
		{
			name:  "iris inside string literals untouched",
			query: `SELECT ?s WHERE { ?s ?p "<urn:x>" }`,
			want:  `SELECT ?s WHERE { ?s ?p "<urn:x>" }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rewrite(d, tt.query))
		})
	}
}
