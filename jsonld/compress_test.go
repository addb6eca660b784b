package jsonld

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/urdf/dictionary"
)

func dict() *dictionary.Dictionary {
	return dictionary.New([]string{"urn:a/type", "urn:a/name", "urn:C"})
}

func TestCompressNode(t *testing.T) {
	d := dict()
	node := map[string]any{
		"@id":        "urn:x",
		"@type":      []any{"urn:C"},
		"urn:a/type": []any{map[string]any{"@id": "urn:C"}},
		"urn:a/name": []any{map[string]any{"@value": "N"}},
	}

	c := CompressNode(d, node)

	assert.Equal(t, "urn:x", c["@id"], "unknown @id passes through")
	assert.Equal(t, []any{"z:2"}, c["@type"])
	assert.Equal(t, []any{map[string]any{"@id": "z:2"}}, c["z:0"], "predicate key and reference compressed")
	assert.Equal(t, []any{map[string]any{"@value": "N"}}, c["z:1"], "@value payload untouched")
	_, hasOriginal := c["urn:a/type"]
	assert.False(t, hasOriginal)
}

// Dictionary round-trip over a full dataset: expand(compress(flatten(D)))
// equals flatten(D) when every predicate and type appears in the
// dictionary.
func TestCompressExpandRoundTrip(t *testing.T) {
	d := dict()
	ds := Dataset{
		NewGraphObject("urn:g", []map[string]any{
			{
				"@id":        "urn:x",
				"@type":      "urn:C",
				"urn:a/type": map[string]any{"@id": "urn:C"},
				"urn:a/name": "N",
			},
		}),
	}

	flat := Flatten(ds)
	compressed := Compress(d, flat)
	require.NoError(t, ValidateDataset(compressed))

	restored := make([]map[string]any, 0)
	for _, node := range GraphNodes(compressed[0]) {
		restored = append(restored, ExpandGraphDeep(d, node))
	}

	want := GraphNodes(flat[0])
	if diff := cmp.Diff(want, restored); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandGraphDeepOnlyExactTokens(t *testing.T) {
	d := dict()
	node := map[string]any{
		"@id":   "z:2",
		"z:1":   []any{map[string]any{"@value": "contains <z:0> inline"}},
		"@type": []any{"z:2"},
	}

	e := ExpandGraphDeep(d, node)
	assert.Equal(t, "urn:C", e["@id"])
	assert.Equal(t, []any{"urn:C"}, e["@type"])
	// Graph expansion decodes keys but never rewrites literal payloads.
	assert.Equal(t, []any{map[string]any{"@value": "contains <z:0> inline"}}, e["urn:a/name"])
}

func TestExpandQueryDeep(t *testing.T) {
	d := dict()

	tests := []struct {
		name string
		in   any
		want any
	}{
		{
			name: "bare token",
			in:   "z:1",
			want: "urn:a/name",
		},
		{
			name: "embedded token",
			in:   "see <z:0> and <z:2>",
			want: "see <urn:a/type> and <urn:C>",
		},
		{
			name: "unknown strings pass through",
			in:   "z:99 stays",
			want: "z:99 stays",
		},
		{
			name: "binding map",
			in: map[string]any{
				"s": "urn:x",
				"p": "z:0",
				"o": map[string]any{"@id": "z:2"},
			},
			want: map[string]any{
				"s": "urn:x",
				"p": "urn:a/type",
				"o": map[string]any{"@id": "urn:C"},
			},
		},
		{
			name: "literal values untouched",
			in:   map[string]any{"o": map[string]any{"@value": "z:0"}},
			want: map[string]any{"o": map[string]any{"@value": "z:0"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandQueryDeep(d, tt.in))
		})
	}
}
