// Package reason defines the N3 reasoner capability consumed by the
// inference orchestrator, plus a built-in forward-chaining reasoner for a
// practical subset of N3 rules. Absence of the capability is a first-class
// state: the orchestrator runs in SPARQL-only mode without it.
package reason

import (
	"context"
	"fmt"
	"strings"

	"github.com/c360/urdf/errors"
)

// DerivedFunc receives one derived fact per call, each term in N3 surface
// form (IRIs in angle brackets, literals quoted).
type DerivedFunc func(s, p, o string)

// Reasoner is the injected N3 reasoning capability. Implementations read a
// program consisting of N-Triples facts, a blank line, and the N3 rule
// text, then stream every derived fact to the callback.
type Reasoner interface {
	Reason(ctx context.Context, program string, onDerived DerivedFunc) error
}

// ForwardChainer is the built-in reasoner. It understands ground triples
// and implication rules of the form
//
//	{ ?s <p> ?o . ... } => { ?s <q> ?o . ... } .
//
// and saturates the fact set, reporting every fact not present in the
// input.
type ForwardChainer struct {
	// MaxRounds bounds saturation so a pathological ruleset cannot spin
	// the runtime task. Zero means the default of 100.
	MaxRounds int
}

// Reason implements Reasoner.
func (fc *ForwardChainer) Reason(ctx context.Context, program string, onDerived DerivedFunc) error {
	doc, err := parseProgram(program)
	if err != nil {
		return err
	}

	facts := map[triple]bool{}
	for _, f := range doc.facts {
		facts[f] = true
	}
	input := make(map[triple]bool, len(facts))
	for f := range facts {
		input[f] = true
	}

	rounds := fc.MaxRounds
	if rounds <= 0 {
		rounds = 100
	}

	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return errors.WrapEvaluator(err, "ForwardChainer", "Reason", "saturate")
		}
		added := false
		for _, rule := range doc.rules {
			for _, env := range matchAll(rule.body, facts) {
				for _, tmpl := range rule.head {
					t, ok := instantiate(tmpl, env)
					if !ok || facts[t] {
						continue
					}
					facts[t] = true
					added = true
				}
			}
		}
		if !added {
			break
		}
	}

	for f := range facts {
		if input[f] {
			continue
		}
		onDerived(f.s, f.p, f.o)
	}
	return nil
}

// triple holds terms in N3 surface form so that round-tripping through the
// callback is byte-stable.
type triple struct {
	s, p, o string
}

type patternTriple struct {
	s, p, o string // "?name" marks a variable
}

type rule struct {
	body []patternTriple
	head []patternTriple
}

type document struct {
	facts []triple
	rules []rule
}

func parseProgram(program string) (*document, error) {
	doc := &document{}
	rest := program
	for {
		rest = strings.TrimLeft(rest, " \t\r\n")
		if rest == "" {
			return doc, nil
		}
		if strings.HasPrefix(rest, "#") {
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				rest = rest[i+1:]
				continue
			}
			return doc, nil
		}
		if strings.HasPrefix(rest, "{") {
			r, remainder, err := parseRule(rest)
			if err != nil {
				return nil, err
			}
			doc.rules = append(doc.rules, r)
			rest = remainder
			continue
		}
		stmt, remainder, err := cutStatement(rest)
		if err != nil {
			return nil, err
		}
		terms, err := splitTerms(stmt)
		if err != nil {
			return nil, err
		}
		if len(terms) != 3 {
			return nil, errors.WrapEvaluator(
				fmt.Errorf("fact %q does not have three terms", stmt),
				"ForwardChainer", "parseProgram", "read fact")
		}
		doc.facts = append(doc.facts, triple{terms[0], terms[1], terms[2]})
		rest = remainder
	}
}

func parseRule(rest string) (rule, string, error) {
	body, rest, err := parseGroup(rest)
	if err != nil {
		return rule{}, "", err
	}
	rest = strings.TrimLeft(rest, " \t\r\n")
	if !strings.HasPrefix(rest, "=>") {
		return rule{}, "", errors.WrapEvaluator(
			fmt.Errorf("expected => after rule body"),
			"ForwardChainer", "parseRule", "read implication")
	}
	rest = strings.TrimLeft(rest[2:], " \t\r\n")
	head, rest, err := parseGroup(rest)
	if err != nil {
		return rule{}, "", err
	}
	rest = strings.TrimLeft(rest, " \t\r\n")
	rest = strings.TrimPrefix(rest, ".")
	return rule{body: body, head: head}, rest, nil
}

func parseGroup(rest string) ([]patternTriple, string, error) {
	if !strings.HasPrefix(rest, "{") {
		return nil, "", errors.WrapEvaluator(
			fmt.Errorf("expected { to open a graph term"),
			"ForwardChainer", "parseGroup", "read group")
	}
	end := indexOutsideQuotes(rest, '}')
	if end < 0 {
		return nil, "", errors.WrapEvaluator(
			fmt.Errorf("unterminated graph term"),
			"ForwardChainer", "parseGroup", "read group")
	}
	inner := rest[1:end]
	var out []patternTriple
	for _, stmt := range splitOnDots(inner) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		terms, err := splitTerms(stmt)
		if err != nil {
			return nil, "", err
		}
		if len(terms) != 3 {
			return nil, "", errors.WrapEvaluator(
				fmt.Errorf("pattern %q does not have three terms", stmt),
				"ForwardChainer", "parseGroup", "read pattern")
		}
		out = append(out, patternTriple{terms[0], terms[1], terms[2]})
	}
	return out, rest[end+1:], nil
}

func cutStatement(rest string) (string, string, error) {
	i := indexOutsideQuotes(rest, '.')
	if i < 0 {
		return "", "", errors.WrapEvaluator(
			fmt.Errorf("statement missing terminating dot: %q", rest),
			"ForwardChainer", "cutStatement", "read statement")
	}
	return strings.TrimSpace(rest[:i]), rest[i+1:], nil
}

func indexOutsideQuotes(s string, target byte) int {
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '<':
			if j := strings.IndexByte(s[i:], '>'); j >= 0 {
				i += j
			}
		case target:
			return i
		}
	}
	return -1
}

func splitOnDots(s string) []string {
	var out []string
	for {
		i := indexOutsideQuotes(s, '.')
		if i < 0 {
			out = append(out, s)
			return out
		}
		out = append(out, s[:i])
		s = s[i+1:]
	}
}

func splitTerms(stmt string) ([]string, error) {
	var out []string
	i := 0
	for i < len(stmt) {
		switch c := stmt[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '<':
			j := strings.IndexByte(stmt[i:], '>')
			if j < 0 {
				return nil, errors.WrapEvaluator(
					fmt.Errorf("unterminated IRI in %q", stmt),
					"ForwardChainer", "splitTerms", "read term")
			}
			out = append(out, stmt[i:i+j+1])
			i += j + 1
		case c == '"':
			j := i + 1
			for j < len(stmt) {
				if stmt[j] == '\\' {
					j += 2
					continue
				}
				if stmt[j] == '"' {
					break
				}
				j++
			}
			if j >= len(stmt) {
				return nil, errors.WrapEvaluator(
					fmt.Errorf("unterminated literal in %q", stmt),
					"ForwardChainer", "splitTerms", "read term")
			}
			k := j + 1
			for k < len(stmt) && !isSpace(stmt[k]) {
				k++
			}
			out = append(out, stmt[i:k])
			i = k
		default:
			j := i
			for j < len(stmt) && !isSpace(stmt[j]) {
				j++
			}
			out = append(out, stmt[i:j])
			i = j
		}
	}
	return out, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

type binding map[string]string

func matchAll(body []patternTriple, facts map[triple]bool) []binding {
	envs := []binding{{}}
	for _, pat := range body {
		var next []binding
		for _, env := range envs {
			for f := range facts {
				if env2, ok := matchPattern(pat, f, env); ok {
					next = append(next, env2)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		envs = next
	}
	return envs
}

func matchPattern(pat patternTriple, f triple, env binding) (binding, bool) {
	out := env
	copied := false
	unify := func(term, actual string) bool {
		if !strings.HasPrefix(term, "?") {
			return term == actual
		}
		if bound, ok := out[term]; ok {
			return bound == actual
		}
		if !copied {
			clone := make(binding, len(out)+1)
			for k, v := range out {
				clone[k] = v
			}
			out = clone
			copied = true
		}
		out[term] = actual
		return true
	}
	if !unify(pat.s, f.s) || !unify(pat.p, f.p) || !unify(pat.o, f.o) {
		return nil, false
	}
	return out, true
}

func instantiate(tmpl patternTriple, env binding) (triple, bool) {
	resolve := func(term string) (string, bool) {
		if strings.HasPrefix(term, "?") {
			v, ok := env[term]
			return v, ok
		}
		return term, true
	}
	s, ok1 := resolve(tmpl.s)
	p, ok2 := resolve(tmpl.p)
	o, ok3 := resolve(tmpl.o)
	if !ok1 || !ok2 || !ok3 {
		return triple{}, false
	}
	return triple{s, p, o}, true
}
