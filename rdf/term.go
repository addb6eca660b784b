// Package rdf provides the quad and term primitives shared by the SPARQL
// gateway and the inference orchestrator: term classification, literal
// handling, and N-Triples serialization of projection bindings.
package rdf

import (
	"fmt"
	"strings"

	"github.com/c360/urdf/jsonld"
)

// TermKind classifies an RDF term.
type TermKind int

const (
	// TermIRI is a full IRI or compact token.
	TermIRI TermKind = iota
	// TermBlank is a blank-node identifier (_:b<n>).
	TermBlank
	// TermLiteral is a lexical form with optional language or datatype.
	TermLiteral
)

// Term is one subject, predicate, or object position of a quad.
type Term struct {
	Kind     TermKind
	Value    string // IRI, blank id, or lexical form
	Language string // literals only
	Datatype string // literals only; empty implies xsd:string
}

// Quad is a subject-predicate-object statement inside a named graph.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     string
}

// IRI builds an IRI or blank-node term from an identifier.
func IRI(id string) Term {
	if strings.HasPrefix(id, "_:") {
		return Term{Kind: TermBlank, Value: id}
	}
	return Term{Kind: TermIRI, Value: id}
}

// Literal builds a plain literal term.
func Literal(lexical string) Term {
	return Term{Kind: TermLiteral, Value: lexical}
}

// FromValueObject decodes a JSON-LD value object ({"@id": ...} or
// {"@value": ...}) into a term.
func FromValueObject(m map[string]any) (Term, bool) {
	if id, ok := m[jsonld.KeyID].(string); ok && id != "" {
		return IRI(id), true
	}
	v, ok := m[jsonld.KeyValue]
	if !ok {
		return Term{}, false
	}
	t := Term{Kind: TermLiteral, Value: lexicalForm(v)}
	if lang, ok := m[jsonld.KeyLanguage].(string); ok {
		t.Language = lang
	}
	if dt, ok := m[jsonld.KeyType].(string); ok {
		t.Datatype = dt
	}
	return t, true
}

// ToValueObject encodes a term as a JSON-LD value object.
func (t Term) ToValueObject() map[string]any {
	switch t.Kind {
	case TermIRI, TermBlank:
		return map[string]any{jsonld.KeyID: t.Value}
	default:
		obj := map[string]any{jsonld.KeyValue: t.Value}
		if t.Language != "" {
			obj[jsonld.KeyLanguage] = t.Language
		}
		if t.Datatype != "" {
			obj[jsonld.KeyType] = t.Datatype
		}
		return obj
	}
}

// IsIdentifier reports whether the term can stand in subject or graph
// position.
func (t Term) IsIdentifier() bool {
	return t.Kind == TermIRI || t.Kind == TermBlank
}

func lexicalForm(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers arrive as float64; integral values print without
		// a fraction so identifiers like gate indices stay stable.
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	default:
		return fmt.Sprint(v)
	}
}
