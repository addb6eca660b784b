package sparql

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/c360/urdf/dictionary"
	"github.com/c360/urdf/errors"
	"github.com/c360/urdf/rdf"
	"github.com/c360/urdf/vocabulary"
)

// SubsetEvaluator is the built-in SPARQL engine: ASK and SELECT over basic
// graph patterns with joins. It understands the store's compressed term
// form and the bare "a" type-predicate keyword. Constructs outside the
// subset surface as not-implemented errors so callers can tell a rejected
// feature from a failed evaluation.
type SubsetEvaluator struct {
	dict *dictionary.Dictionary
}

// NewSubsetEvaluator builds the built-in engine over a dictionary.
func NewSubsetEvaluator(d *dictionary.Dictionary) *SubsetEvaluator {
	return &SubsetEvaluator{dict: d}
}

var unsupported = regexp.MustCompile(`(?i)\b(OPTIONAL|UNION|FILTER|CONSTRUCT|DESCRIBE|INSERT|DELETE|MINUS|GRAPH|SERVICE|BIND|VALUES|GROUP|ORDER)\b`)

// Evaluate parses and runs a query against the source.
func (e *SubsetEvaluator) Evaluate(_ context.Context, query string, src Source) (*Result, error) {
	if m := unsupported.FindString(query); m != "" {
		return nil, errors.WrapNotImplemented(
			fmt.Errorf("%s is not implemented by the built-in evaluator", strings.ToUpper(m)),
			"SubsetEvaluator", "Evaluate", "parse")
	}

	q, err := e.parse(query)
	if err != nil {
		return nil, err
	}

	bindings := solve(q.patterns, src.Quads())

	if q.ask {
		return &Result{Type: TypeAsk, Boolean: len(bindings) > 0}, nil
	}

	out := make([]Binding, 0, len(bindings))
	seen := map[string]bool{}
	for _, env := range bindings {
		b := Binding{}
		for _, v := range q.vars {
			t, ok := env[v]
			if !ok {
				continue
			}
			if t.Kind == rdf.TermLiteral {
				b[v] = t.ToValueObject()
			} else {
				b[v] = t.Value
			}
		}
		if q.distinct {
			key := fmt.Sprint(b)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, b)
	}
	return &Result{Type: TypeSelect, Bindings: out}, nil
}

type parsedQuery struct {
	ask      bool
	distinct bool
	vars     []string
	patterns []pattern
}

// pattern is one triple pattern; variable positions hold the variable name
// with an empty term.
type pattern struct {
	s, p, o patTerm
}

type patTerm struct {
	variable string
	term     rdf.Term
}

func (e *SubsetEvaluator) parse(query string) (*parsedQuery, error) {
	q := &parsedQuery{}
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)

	var head string
	switch {
	case strings.HasPrefix(upper, "ASK"):
		q.ask = true
		head = trimmed[len("ASK"):]
	case strings.HasPrefix(upper, "SELECT"):
		head = trimmed[len("SELECT"):]
	default:
		return nil, errors.WrapEvaluator(
			fmt.Errorf("query must start with SELECT or ASK"),
			"SubsetEvaluator", "parse", "read query form")
	}

	open := strings.IndexByte(head, '{')
	end := strings.LastIndexByte(head, '}')
	if open < 0 || end < open {
		return nil, errors.WrapEvaluator(
			fmt.Errorf("missing group graph pattern"),
			"SubsetEvaluator", "parse", "read query form")
	}

	if !q.ask {
		proj := head[:open]
		if i := strings.Index(strings.ToUpper(proj), "WHERE"); i >= 0 {
			proj = proj[:i]
		}
		for _, f := range strings.Fields(proj) {
			switch {
			case strings.EqualFold(f, "DISTINCT"):
				q.distinct = true
			case f == "*":
				// resolved after patterns are parsed
			case strings.HasPrefix(f, "?") || strings.HasPrefix(f, "$"):
				q.vars = append(q.vars, f[1:])
			}
		}
	}

	body := head[open+1 : end]
	for _, stmt := range splitStatements(body) {
		terms, err := tokenizeTerms(stmt)
		if err != nil {
			return nil, err
		}
		if len(terms) == 0 {
			continue
		}
		if len(terms) != 3 {
			return nil, errors.WrapEvaluator(
				fmt.Errorf("triple pattern %q has %d terms", stmt, len(terms)),
				"SubsetEvaluator", "parse", "read pattern")
		}
		p := pattern{
			s: e.parseTerm(terms[0], false),
			p: e.parseTerm(terms[1], true),
			o: e.parseTerm(terms[2], false),
		}
		q.patterns = append(q.patterns, p)
	}
	if len(q.patterns) == 0 {
		return nil, errors.WrapEvaluator(
			fmt.Errorf("empty group graph pattern"),
			"SubsetEvaluator", "parse", "read pattern")
	}

	if !q.ask && len(q.vars) == 0 {
		q.vars = collectVars(q.patterns)
	}
	return q, nil
}

func splitStatements(body string) []string {
	var out []string
	var cur strings.Builder
	inString := byte(0)
	inIRI := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case inString != 0:
			cur.WriteByte(c)
			if c == '\\' && i+1 < len(body) {
				cur.WriteByte(body[i+1])
				i++
			} else if c == inString {
				inString = 0
			}
		case inIRI:
			cur.WriteByte(c)
			if c == '>' {
				inIRI = false
			}
		case c == '"' || c == '\'':
			inString = c
			cur.WriteByte(c)
		case c == '<':
			inIRI = true
			cur.WriteByte(c)
		case c == '.':
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func tokenizeTerms(stmt string) ([]string, error) {
	var out []string
	i := 0
	for i < len(stmt) {
		c := stmt[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '<':
			end := strings.IndexByte(stmt[i:], '>')
			if end < 0 {
				return nil, errors.WrapEvaluator(
					fmt.Errorf("unterminated IRI in %q", stmt),
					"SubsetEvaluator", "tokenizeTerms", "read term")
			}
			out = append(out, stmt[i:i+end+1])
			i += end + 1
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < len(stmt) {
				if stmt[j] == '\\' {
					j += 2
					continue
				}
				if stmt[j] == quote {
					break
				}
				j++
			}
			if j >= len(stmt) {
				return nil, errors.WrapEvaluator(
					fmt.Errorf("unterminated literal in %q", stmt),
					"SubsetEvaluator", "tokenizeTerms", "read term")
			}
			// carry any @lang or ^^datatype suffix with the literal
			k := j + 1
			for k < len(stmt) && stmt[k] != ' ' && stmt[k] != '\t' && stmt[k] != '\n' {
				k++
			}
			out = append(out, stmt[i:k])
			i = k
		default:
			j := i
			for j < len(stmt) && stmt[j] != ' ' && stmt[j] != '\t' && stmt[j] != '\n' && stmt[j] != '\r' {
				j++
			}
			out = append(out, stmt[i:j])
			i = j
		}
	}
	return out, nil
}

func (e *SubsetEvaluator) parseTerm(tok string, predicate bool) patTerm {
	switch {
	case strings.HasPrefix(tok, "?") || strings.HasPrefix(tok, "$"):
		return patTerm{variable: tok[1:]}
	case strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">"):
		return patTerm{term: rdf.IRI(tok[1 : len(tok)-1])}
	case tok == "a" && predicate:
		return patTerm{term: rdf.IRI(e.typePredicate())}
	case strings.HasPrefix(tok, `"`) || strings.HasPrefix(tok, `'`):
		return patTerm{term: rdf.DecodeReasonerTerm(strings.ReplaceAll(tok, "'", `"`))}
	default:
		// bare token, blank node, or number
		if strings.HasPrefix(tok, "_:") || dictionary.IsToken(tok) {
			return patTerm{term: rdf.IRI(tok)}
		}
		return patTerm{term: rdf.Literal(tok)}
	}
}

// typePredicate is the internal form of rdf:type: the index-0 token when
// the dictionary defines one, the full IRI otherwise.
func (e *SubsetEvaluator) typePredicate() string {
	if e.dict != nil && e.dict.Len() > 0 {
		if iri, ok := e.dict.IRIOf(0); ok {
			return e.dict.Compress(iri)
		}
	}
	return vocabulary.RDFType
}

func collectVars(patterns []pattern) []string {
	var out []string
	seen := map[string]bool{}
	add := func(t patTerm) {
		if t.variable != "" && !seen[t.variable] {
			seen[t.variable] = true
			out = append(out, t.variable)
		}
	}
	for _, p := range patterns {
		add(p.s)
		add(p.p)
		add(p.o)
	}
	return out
}

type env map[string]rdf.Term

func solve(patterns []pattern, quads []rdf.Quad) []env {
	envs := []env{{}}
	for _, p := range patterns {
		var next []env
		for _, e := range envs {
			for _, q := range quads {
				if e2, ok := match(e, p, q); ok {
					next = append(next, e2)
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

func match(e env, p pattern, q rdf.Quad) (env, bool) {
	out := e
	copied := false
	bind := func(t patTerm, actual rdf.Term) bool {
		if t.variable == "" {
			return termEqual(t.term, actual)
		}
		if bound, ok := out[t.variable]; ok {
			return termEqual(bound, actual)
		}
		if !copied {
			clone := make(env, len(out)+1)
			for k, v := range out {
				clone[k] = v
			}
			out = clone
			copied = true
		}
		out[t.variable] = actual
		return true
	}
	if !bind(p.s, q.Subject) {
		return nil, false
	}
	if !bind(p.p, q.Predicate) {
		return nil, false
	}
	if !bind(p.o, q.Object) {
		return nil, false
	}
	return out, true
}

func termEqual(a, b rdf.Term) bool {
	if a.Kind == rdf.TermLiteral || b.Kind == rdf.TermLiteral {
		return a.Kind == b.Kind && a.Value == b.Value &&
			a.Language == b.Language && a.Datatype == b.Datatype
	}
	return a.Value == b.Value
}
