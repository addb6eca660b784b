package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNTriple(t *testing.T) {
	tests := []struct {
		name    string
		s, p, o Term
		want    string
		wantErr bool
	}{
		{
			name: "iri object",
			s:    IRI("urn:x"),
			p:    IRI("urn:p"),
			o:    IRI("urn:y"),
			want: "<urn:x> <urn:p> <urn:y> .",
		},
		{
			name: "plain literal",
			s:    IRI("urn:x"),
			p:    IRI("urn:p"),
			o:    Literal("hello"),
			want: `<urn:x> <urn:p> "hello" .`,
		},
		{
			name: "escaped literal",
			s:    IRI("urn:x"),
			p:    IRI("urn:p"),
			o:    Literal("line\n\"quoted\""),
			want: `<urn:x> <urn:p> "line\n\"quoted\"" .`,
		},
		{
			name: "language literal",
			s:    IRI("urn:x"),
			p:    IRI("urn:p"),
			o:    Term{Kind: TermLiteral, Value: "salut", Language: "fr"},
			want: `<urn:x> <urn:p> "salut"@fr .`,
		},
		{
			name: "typed literal",
			s:    IRI("urn:x"),
			p:    IRI("urn:p"),
			o:    Term{Kind: TermLiteral, Value: "4", Datatype: "http://www.w3.org/2001/XMLSchema#integer"},
			want: `<urn:x> <urn:p> "4"^^<http://www.w3.org/2001/XMLSchema#integer> .`,
		},
		{
			name: "blank subject",
			s:    IRI("_:b0"),
			p:    IRI("urn:p"),
			o:    IRI("urn:y"),
			want: "_:b0 <urn:p> <urn:y> .",
		},
		{
			name:    "literal subject rejected",
			s:       Literal("nope"),
			p:       IRI("urn:p"),
			o:       IRI("urn:y"),
			wantErr: true,
		},
		{
			name:    "literal predicate rejected",
			s:       IRI("urn:x"),
			p:       Literal("nope"),
			o:       IRI("urn:y"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := NTriple(tt.s, tt.p, tt.o)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, line)
		})
	}
}

func TestDecodeReasonerTerm(t *testing.T) {
	tests := []struct {
		in   string
		want Term
	}{
		{"<urn:x>", Term{Kind: TermIRI, Value: "urn:x"}},
		{"_:b3", Term{Kind: TermBlank, Value: "_:b3"}},
		{`"hello"`, Term{Kind: TermLiteral, Value: "hello"}},
		{`"a\"b"`, Term{Kind: TermLiteral, Value: `a"b`}},
		{`"bonjour"@fr`, Term{Kind: TermLiteral, Value: "bonjour", Language: "fr"}},
		{`"4"^^<http://www.w3.org/2001/XMLSchema#integer>`, Term{Kind: TermLiteral, Value: "4", Datatype: "http://www.w3.org/2001/XMLSchema#integer"}},
		{"urn:bare", Term{Kind: TermIRI, Value: "urn:bare"}},
		{"plain words", Term{Kind: TermLiteral, Value: "plain words"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeReasonerTerm(tt.in))
		})
	}
}

func TestFromValueObjectRoundTrip(t *testing.T) {
	terms := []Term{
		IRI("urn:x"),
		IRI("_:b1"),
		Literal("text"),
		{Kind: TermLiteral, Value: "v", Language: "en"},
		{Kind: TermLiteral, Value: "1", Datatype: "http://www.w3.org/2001/XMLSchema#integer"},
	}
	for _, term := range terms {
		got, ok := FromValueObject(term.ToValueObject())
		require.True(t, ok)
		assert.Equal(t, term, got)
	}
}
