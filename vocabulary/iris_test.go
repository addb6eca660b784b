package vocabulary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifierDerivation(t *testing.T) {
	assert.Equal(t, "urn:nrua:anode42", ApplicationIRI("node42"))
	assert.Equal(t, "urn:nrua:ftab1", FlowIRI("tab1"))
	assert.Equal(t, "urn:nrua:nn1", NodeIRI("n1"))
	assert.Equal(t, "urn:nrua:on10", OutputIRI("n1", 0))
	assert.Equal(t, "urn:nrua:on112", OutputIRI("n1", 12))
	assert.Equal(t, "urn:nrua:ei1", EnvironmentIRI("i1"))
}

func TestAuxIRIEncodesSegments(t *testing.T) {
	assert.Equal(t, "urn:nrua:nn1:repeat", AuxIRI("urn:nrua:nn1", "repeat"))
	assert.Equal(t, "urn:nrua:nn1:a+b%2Fc", AuxIRI("urn:nrua:nn1", "a b/c"),
		"keys with spaces and slashes stay URN-safe")
}

func TestIsHelperPredicate(t *testing.T) {
	assert.True(t, IsHelperPredicate("urn:nrua:pv:name"))
	assert.False(t, IsHelperPredicate("urn:nrua:partOfFlow"))
	assert.False(t, IsHelperPredicate("https://schema.org/name"))
}

func TestIsIRI(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"urn:x", true},
		{"https://schema.org/name", true},
		{"_:b0", true},
		{"", false},
		{"plain", false},
		{"has space urn:x", false},
		{"same-name-alice", false},
		{":nope", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsIRI(tt.in), "IsIRI(%q)", tt.in)
	}
}
