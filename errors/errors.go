// Package errors provides standardized error handling for the uRDF runtime.
// It defines the error taxonomy shared by the store, the gateway, and the
// orchestrator, plus helpers for consistent wrapping and classification.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies errors for handling and HTTP status mapping purposes.
type Kind int

const (
	// KindConfig represents a missing or malformed startup input
	// (dictionary, ontology, or rules file). Non-fatal for other graphs.
	KindConfig Kind = iota
	// KindSchemaViolation represents a JSON-LD value violating the
	// array-valued predicate invariant; rejected before any write.
	KindSchemaViolation
	// KindNotFound represents a lookup of an unknown node or graph id.
	KindNotFound
	// KindEvaluator represents a SPARQL evaluation or reasoner failure.
	KindEvaluator
	// KindContract represents a caller-side contract breach: PREFIX/BASE
	// in a query, a loadFile document without @id, malformed rules CRUD.
	KindContract
	// KindNotImplemented represents an evaluator "not implemented" reply.
	KindNotImplemented
	// KindTransientUpstream represents an unreachable host admin API.
	KindTransientUpstream
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindSchemaViolation:
		return "schema_violation"
	case KindNotFound:
		return "not_found"
	case KindEvaluator:
		return "evaluator"
	case KindContract:
		return "contract_violation"
	case KindNotImplemented:
		return "not_implemented"
	case KindTransientUpstream:
		return "transient_upstream"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	ErrGraphNotFound    = errors.New("graph not found")
	ErrNodeNotFound     = errors.New("node not found")
	ErrRuleNotFound     = errors.New("rule not found")
	ErrRuleExists       = errors.New("rule already exists")
	ErrMissingID        = errors.New("document is missing @id")
	ErrNotArrayValued   = errors.New("predicate value is not an array")
	ErrPrefixForbidden  = errors.New("PREFIX and BASE are not supported; expand IRIs before querying")
	ErrAdminUnreachable = errors.New("host admin API unreachable")
	ErrNoReasoner       = errors.New("no reasoner capability configured")
	ErrMissingBinding   = errors.New("binding does not carry s, p, and o terms")
	ErrInvalidDict      = errors.New("dictionary input is not an array of strings")
)

// ClassifiedError wraps an error with its kind and origin context.
type ClassifiedError struct {
	Kind      Kind
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func newClassified(kind Kind, err error, component, method, action string) error {
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Kind:      kind,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}

// WrapConfig wraps an error as a startup configuration failure.
func WrapConfig(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(KindConfig, err, component, method, action)
}

// WrapSchema wraps an error as an array-invariant violation.
func WrapSchema(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(KindSchemaViolation, err, component, method, action)
}

// WrapNotFound wraps an error as a missing node or graph.
func WrapNotFound(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(KindNotFound, err, component, method, action)
}

// WrapEvaluator wraps an error as an evaluator or reasoner failure.
func WrapEvaluator(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(KindEvaluator, err, component, method, action)
}

// WrapContract wraps an error as a caller contract breach.
func WrapContract(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(KindContract, err, component, method, action)
}

// WrapNotImplemented wraps an evaluator "not implemented" reply.
func WrapNotImplemented(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(KindNotImplemented, err, component, method, action)
}

// WrapTransient wraps an error as a transient upstream failure.
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newClassified(KindTransientUpstream, err, component, method, action)
}

// KindOf returns the kind of an error, defaulting to KindEvaluator for
// unclassified errors so that unknown failures surface as 500-equivalents.
func KindOf(err error) Kind {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	switch {
	case errors.Is(err, ErrGraphNotFound), errors.Is(err, ErrNodeNotFound), errors.Is(err, ErrRuleNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotArrayValued):
		return KindSchemaViolation
	case errors.Is(err, ErrPrefixForbidden), errors.Is(err, ErrMissingID), errors.Is(err, ErrRuleExists):
		return KindContract
	case errors.Is(err, ErrAdminUnreachable):
		return KindTransientUpstream
	}
	return KindEvaluator
}

// IsNotFound reports whether an error is a not-found condition.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsContract reports whether an error is a caller contract breach.
func IsContract(err error) bool {
	return err != nil && KindOf(err) == KindContract
}

// IsSchemaViolation reports whether an error is an array-invariant breach.
func IsSchemaViolation(err error) bool {
	return err != nil && KindOf(err) == KindSchemaViolation
}
