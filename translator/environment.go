package translator

import (
	"github.com/c360/urdf/jsonld"
	"github.com/c360/urdf/vocabulary"
)

// Environment builds the environment graph node list from the host's
// diagnostics and settings documents. The record is written once after
// the admin surface becomes reachable and never mutated afterwards.
func Environment(instanceID string, diagnostics, settings map[string]any) ([]map[string]any, error) {
	b := &builder{}
	envID := vocabulary.EnvironmentIRI(instanceID)
	root := map[string]any{
		jsonld.KeyID:   envID,
		jsonld.KeyType: []any{vocabulary.ClassEnvironment},
	}
	if len(diagnostics) > 0 {
		appendRef(root, vocabulary.SchemaAdditionalProperty,
			b.encodeProperty(envID, "diagnostics", diagnostics))
	}
	if len(settings) > 0 {
		appendRef(root, vocabulary.SchemaAdditionalProperty,
			b.encodeProperty(envID, "settings", settings))
	}
	b.emit(root)
	for _, node := range b.nodes {
		if err := jsonld.Validate(node); err != nil {
			return nil, err
		}
	}
	return b.nodes, nil
}
