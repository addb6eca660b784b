package rdf

import (
	"fmt"
	"strings"

	"github.com/c360/urdf/errors"
)

// NTriple serializes one subject-predicate-object statement as a single
// N-Triples line (without trailing newline).
func NTriple(s, p, o Term) (string, error) {
	if !s.IsIdentifier() {
		return "", errors.WrapContract(
			fmt.Errorf("subject %q is not an IRI or blank node", s.Value),
			"rdf", "NTriple", "serialize")
	}
	if p.Kind != TermIRI {
		return "", errors.WrapContract(
			fmt.Errorf("predicate %q is not an IRI", p.Value),
			"rdf", "NTriple", "serialize")
	}
	return fmt.Sprintf("%s %s %s .", formatTerm(s), formatTerm(p), formatTerm(o)), nil
}

func formatTerm(t Term) string {
	switch t.Kind {
	case TermBlank:
		return t.Value
	case TermIRI:
		return "<" + t.Value + ">"
	default:
		out := `"` + escapeLiteral(t.Value) + `"`
		if t.Language != "" {
			return out + "@" + t.Language
		}
		if t.Datatype != "" {
			return out + "^^<" + t.Datatype + ">"
		}
		return out
	}
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DecodeReasonerTerm decodes one term of a fact produced by the reasoner:
// angle brackets are stripped from IRIs, surrounding quotes are stripped
// from literals (with their escapes undone), and blank identifiers pass
// through.
func DecodeReasonerTerm(s string) Term {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
		return Term{Kind: TermIRI, Value: s[1 : len(s)-1]}
	case strings.HasPrefix(s, "_:"):
		return Term{Kind: TermBlank, Value: s}
	case strings.HasPrefix(s, `"`):
		return decodeLiteral(s)
	default:
		// Unquoted reasoner output is taken verbatim: an IRI-shaped value
		// stays an IRI, anything else is a plain literal.
		if strings.Contains(s, ":") && !strings.ContainsAny(s, " \t") {
			return Term{Kind: TermIRI, Value: s}
		}
		return Literal(s)
	}
}

func decodeLiteral(s string) Term {
	body := s[1:]
	var b strings.Builder
	escaped := false
	i := 0
	for ; i < len(body); i++ {
		c := body[i]
		if escaped {
			switch c {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(c)
			}
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			break
		}
		b.WriteByte(c)
	}
	t := Term{Kind: TermLiteral, Value: b.String()}
	rest := ""
	if i+1 < len(body) {
		rest = body[i+1:]
	}
	switch {
	case strings.HasPrefix(rest, "@"):
		t.Language = rest[1:]
	case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
		t.Datatype = rest[3 : len(rest)-1]
	case strings.HasPrefix(rest, "^^"):
		t.Datatype = rest[2:]
	}
	return t
}
