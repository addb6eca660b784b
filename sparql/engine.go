package sparql

import (
	"context"

	"github.com/c360/urdf/rdf"
)

// QueryType distinguishes the two answer shapes of an evaluation.
type QueryType string

// Query types returned by Evaluate.
const (
	TypeAsk    QueryType = "ASK"
	TypeSelect QueryType = "SELECT"
)

// Binding maps variable names (without the leading "?") to terms: a string
// for IRIs and blank nodes, or a JSON-LD value object for literals.
type Binding map[string]any

// Result is the outcome of one evaluation.
type Result struct {
	Type     QueryType
	Boolean  bool      // ASK answers
	Bindings []Binding // SELECT answers
}

// Source supplies the quads an evaluation runs over, in the store's
// internal (compressed) form.
type Source interface {
	Quads() []rdf.Quad
}

// Evaluator is the SPARQL evaluation capability. The built-in subset
// evaluator satisfies it; deployments may inject a full engine instead.
type Evaluator interface {
	Evaluate(ctx context.Context, query string, src Source) (*Result, error)
}
