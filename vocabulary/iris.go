// Package vocabulary provides the IRI constants and identifier helpers used
// across the uRDF runtime: schema.org terms, the RDF core terms, the
// urn:nrua identifier scheme for application entities, and the default
// named-graph identifiers.
package vocabulary

import (
	"net/url"
	"strconv"
	"strings"
)

// Base IRI constants
const (
	SchemaBase = "https://schema.org/"
	RDFBase    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDBase    = "http://www.w3.org/2001/XMLSchema#"
	NRUABase   = "urn:nrua:"
)

// RDF core terms
const (
	RDFType = RDFBase + "type"
)

// schema.org terms used by the translator and the orchestrator
const (
	SchemaName                = SchemaBase + "name"
	SchemaText                = SchemaBase + "text"
	SchemaValue               = SchemaBase + "value"
	SchemaKeywords            = SchemaBase + "keywords"
	SchemaPosition            = SchemaBase + "position"
	SchemaItem                = SchemaBase + "item"
	SchemaItemListElement     = SchemaBase + "itemListElement"
	SchemaAdditionalProperty  = SchemaBase + "additionalProperty"
	SchemaHasPart             = SchemaBase + "hasPart"
	SchemaIsPartOf            = SchemaBase + "isPartOf"
	SchemaProgrammingLanguage = SchemaBase + "programmingLanguage"
	SchemaEncodingFormat      = SchemaBase + "encodingFormat"
	SchemaPropertyValue       = SchemaBase + "PropertyValue"
	SchemaItemList            = SchemaBase + "ItemList"
	SchemaListItem            = SchemaBase + "ListItem"
	SchemaStructuredValue     = SchemaBase + "StructuredValue"
	SchemaSoftwareSourceCode  = SchemaBase + "SoftwareSourceCode"
)

// Application-graph classes and predicates (urn:nrua scheme)
const (
	ClassApplication = NRUABase + "Application"
	ClassFlow        = NRUABase + "Flow"
	ClassNode        = NRUABase + "Node"
	ClassNodeOutput  = NRUABase + "NodeOutput"
	ClassEnvironment = NRUABase + "Environment"
	ClassRule        = NRUABase + "Rule"

	// PredPartOfFlow links a node to its containing flow; PredPartOfApp
	// links a node that sits outside any flow directly to the application.
	PredPartOfFlow = NRUABase + "partOfFlow"
	PredPartOfApp  = NRUABase + "partOfApplication"
	PredHasOutput  = NRUABase + "hasOutput"
	PredGateIndex  = NRUABase + "gateIndex"
	PredTarget     = NRUABase + "target"
	PredNodeType   = NRUABase + "nodeType"

	// HelperPredicatePrefix marks reasoning-internal predicates that are
	// never persisted into the inferred graph.
	HelperPredicatePrefix = NRUABase + "pv:"
)

// Default named-graph identifiers
const (
	GraphOntology    = "urn:graph:ontology"
	GraphRules       = "urn:graph:rules"
	GraphApplication = "urn:graph:application"
	GraphEnvironment = "urn:graph:environment"
	GraphInferred    = "urn:graph:inferred"
)

// ApplicationIRI returns the stable root id for a host instance.
func ApplicationIRI(instanceID string) string {
	return NRUABase + "a" + instanceID
}

// FlowIRI returns the stable id for a tab.
func FlowIRI(tabID string) string {
	return NRUABase + "f" + tabID
}

// NodeIRI returns the stable id for a non-tab node.
func NodeIRI(nodeID string) string {
	return NRUABase + "n" + nodeID
}

// OutputIRI returns the stable id for a wired output gate.
func OutputIRI(nodeID string, gate int) string {
	return NRUABase + "o" + nodeID + strconv.Itoa(gate)
}

// EnvironmentIRI returns the stable root id for the environment record of a
// host instance.
func EnvironmentIRI(instanceID string) string {
	return NRUABase + "e" + instanceID
}

// AuxIRI derives a child identifier from a parent identifier and a key or
// index path segment. Segments are URN-safe encoded so that arbitrary
// configuration keys cannot break identifier syntax.
func AuxIRI(parent string, segment string) string {
	return parent + ":" + EncodeSegment(segment)
}

// EncodeSegment encodes one identifier path segment. Percent-encoding keeps
// the result URN-safe while staying reversible for debugging.
func EncodeSegment(s string) string {
	return url.QueryEscape(s)
}

// IsHelperPredicate reports whether a predicate IRI belongs to the
// reasoning-internal helper namespace.
func IsHelperPredicate(iri string) bool {
	return strings.HasPrefix(iri, HelperPredicatePrefix)
}

// IsIRI reports whether a string is plausibly an IRI: an absolute IRI with
// a scheme, or a blank-node identifier. Used by the inference orchestrator
// to decide whether a string binding becomes a reference or a literal.
func IsIRI(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "_:") {
		return true
	}
	i := strings.Index(s, ":")
	if i <= 0 {
		return false
	}
	for _, r := range s[:i] {
		if !isSchemeRune(r) {
			return false
		}
	}
	return !strings.ContainsAny(s, " \t\n\"<>")
}

func isSchemeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9', r == '+', r == '-', r == '.':
		return true
	}
	return false
}
