package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/urdf/jsonld"
)

func TestLoadDictionary(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "zurl.json")
	require.NoError(t, os.WriteFile(path, []byte(`["urn:a","urn:b"]`), 0o644))
	d, err := LoadDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	// missing file degrades to an empty dictionary
	d, err = LoadDictionary(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())

	// malformed file is a hard failure
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"nope":1}`), 0o644))
	_, err = LoadDictionary(bad)
	assert.Error(t, err)
}

func TestDatasetFor(t *testing.T) {
	tests := []struct {
		name      string
		doc       any
		gid       string
		wantGID   string
		wantError bool
	}{
		{
			name: "dataset keeps its graph ids when untargeted",
			doc: []any{
				map[string]any{"@id": "urn:g", "@graph": []any{}},
			},
			gid:     "",
			wantGID: "urn:g",
		},
		{
			name: "dataset retargeted to gid",
			doc: []any{
				map[string]any{"@id": "urn:old", "@graph": []any{}},
			},
			gid:     "urn:new",
			wantGID: "urn:new",
		},
		{
			name: "node array wrapped into target graph",
			doc: []any{
				map[string]any{"@id": "urn:x"},
			},
			gid:     "urn:g",
			wantGID: "urn:g",
		},
		{
			name:    "single graph object",
			doc:     map[string]any{"@id": "urn:g", "@graph": []any{}},
			gid:     "",
			wantGID: "urn:g",
		},
		{
			name:    "single node wrapped",
			doc:     map[string]any{"@id": "urn:x", "urn:p": []any{}},
			gid:     "urn:g",
			wantGID: "urn:g",
		},
		{
			name:      "scalar rejected",
			doc:       "nope",
			gid:       "urn:g",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := DatasetFor(tt.doc, tt.gid)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, ds, 1)
			gid, ok := jsonld.GraphID(ds[0])
			require.True(t, ok)
			assert.Equal(t, tt.wantGID, gid)
		})
	}
}
