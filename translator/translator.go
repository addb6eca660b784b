// Package translator converts the host's flow configuration into the
// application JSON-LD graph. The mapping is deterministic: every generated
// identifier depends only on its parent identifier and the key or index
// path, key traversal is sorted, and re-running over byte-identical input
// yields an identical graph.
package translator

import (
	"sort"
	"strconv"
	"strings"

	"github.com/c360/urdf/hostapi"
	"github.com/c360/urdf/jsonld"
	"github.com/c360/urdf/vocabulary"
)

// excludedKeys never appear in the application graph: positional and
// wiring keys are structural, the editor keys carry no semantics, and
// name is captured first-class as schema:name.
var excludedKeys = map[string]bool{
	"id": true, "type": true, "z": true, "x": true, "y": true,
	"wires": true, "info": true, "d": true, "g": true,
	"label": true, "disabled": true, "env": true,
	"name": true,
}

// Translate builds the application graph node list for a host instance.
func Translate(instanceID string, nodes []hostapi.RawNode) ([]map[string]any, error) {
	b := &builder{}

	appID := vocabulary.ApplicationIRI(instanceID)
	b.emit(map[string]any{
		jsonld.KeyID:   appID,
		jsonld.KeyType: []any{vocabulary.ClassApplication},
	})

	// Pass 1: flows, so every node can link to its container.
	type flowAgg struct {
		node     map[string]any
		keywords map[string]bool
	}
	flows := map[string]*flowAgg{}
	for _, n := range nodes {
		if !n.IsTab() || n.ID() == "" {
			continue
		}
		fnode := map[string]any{
			jsonld.KeyID:              vocabulary.FlowIRI(n.ID()),
			jsonld.KeyType:            []any{vocabulary.ClassFlow},
			vocabulary.SchemaIsPartOf: []any{ref(appID)},
		}
		if name, ok := n.Name(); ok {
			fnode[vocabulary.SchemaName] = []any{value(name)}
		}
		b.emit(fnode)
		flows[n.ID()] = &flowAgg{node: fnode, keywords: map[string]bool{}}
	}

	// Pass 2: nodes, outputs, and properties.
	for _, n := range nodes {
		if n.IsTab() || n.ID() == "" {
			continue
		}
		nodeID := vocabulary.NodeIRI(n.ID())
		nnode := map[string]any{
			jsonld.KeyID:   nodeID,
			jsonld.KeyType: []any{vocabulary.ClassNode},
		}
		if t := n.Type(); t != "" {
			nnode[vocabulary.PredNodeType] = []any{value(t)}
		}
		if name, ok := n.Name(); ok {
			nnode[vocabulary.SchemaName] = []any{value(name)}
		}

		if f, ok := flows[n.Tab()]; ok {
			nnode[vocabulary.PredPartOfFlow] = []any{ref(vocabulary.FlowIRI(n.Tab()))}
			if t := strings.TrimSpace(n.Type()); t != "" {
				f.keywords[t] = true
			}
		} else {
			nnode[vocabulary.PredPartOfApp] = []any{ref(appID)}
		}

		for _, key := range sortedRetainedKeys(n) {
			pvID := b.encodeProperty(nodeID, key, n[key])
			appendRef(nnode, vocabulary.SchemaAdditionalProperty, pvID)
		}

		for gate, targets := range n.Wires() {
			if len(targets) == 0 {
				continue
			}
			outID := vocabulary.OutputIRI(n.ID(), gate)
			refs := make([]any, len(targets))
			for i, t := range targets {
				refs[i] = ref(vocabulary.NodeIRI(t))
			}
			b.emit(map[string]any{
				jsonld.KeyID:            outID,
				jsonld.KeyType:          []any{vocabulary.ClassNodeOutput},
				vocabulary.PredGateIndex: []any{value(float64(gate))},
				vocabulary.PredTarget:    refs,
			})
			appendRef(nnode, vocabulary.PredHasOutput, outID)
		}

		b.emit(nnode)
	}

	// Pass 3: finalize flow keyword strings.
	for _, f := range flows {
		kws := make([]string, 0, len(f.keywords))
		for k := range f.keywords {
			kws = append(kws, k)
		}
		sort.Strings(kws)
		f.node[vocabulary.SchemaKeywords] = []any{value(strings.Join(kws, ","))}
	}

	for _, node := range b.nodes {
		if err := jsonld.Validate(node); err != nil {
			return nil, err
		}
	}
	return b.nodes, nil
}

type builder struct {
	nodes []map[string]any
}

func (b *builder) emit(node map[string]any) {
	b.nodes = append(b.nodes, node)
}

// encodeProperty emits the auxiliary resource tree for one retained
// configuration key and returns the id of its PropertyValue root.
// Primitive values inline; arrays and objects recurse through ItemList and
// StructuredValue resources.
func (b *builder) encodeProperty(parentID, key string, v any) string {
	pvID := vocabulary.AuxIRI(parentID, key)
	pv := map[string]any{
		jsonld.KeyID:          pvID,
		jsonld.KeyType:        []any{vocabulary.SchemaPropertyValue},
		vocabulary.SchemaName: []any{value(key)},
	}
	switch t := v.(type) {
	case []any:
		listID := b.encodeList(pvID, t)
		pv[vocabulary.SchemaValue] = []any{ref(listID)}
	case map[string]any:
		svID := b.encodeStruct(pvID, t)
		pv[vocabulary.SchemaValue] = []any{ref(svID)}
	default:
		pv[vocabulary.SchemaValue] = []any{value(t)}
	}
	b.emit(pv)
	return pvID
}

func (b *builder) encodeList(baseID string, items []any) string {
	listID := baseID + ":l"
	list := map[string]any{
		jsonld.KeyID:   listID,
		jsonld.KeyType: []any{vocabulary.SchemaItemList},
	}
	elems := make([]any, 0, len(items))
	for i, item := range items {
		itemID := vocabulary.AuxIRI(listID, strconv.Itoa(i))
		li := map[string]any{
			jsonld.KeyID:              itemID,
			jsonld.KeyType:            []any{vocabulary.SchemaListItem},
			vocabulary.SchemaPosition: []any{value(float64(i))},
		}
		switch t := item.(type) {
		case []any:
			li[vocabulary.SchemaItem] = []any{ref(b.encodeList(itemID, t))}
		case map[string]any:
			li[vocabulary.SchemaItem] = []any{ref(b.encodeStruct(itemID, t))}
		default:
			li[vocabulary.SchemaItem] = []any{value(t)}
		}
		b.emit(li)
		elems = append(elems, ref(itemID))
	}
	list[vocabulary.SchemaItemListElement] = elems
	b.emit(list)
	return listID
}

func (b *builder) encodeStruct(baseID string, obj map[string]any) string {
	svID := baseID + ":s"
	sv := map[string]any{
		jsonld.KeyID:   svID,
		jsonld.KeyType: []any{vocabulary.SchemaStructuredValue},
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	props := make([]any, 0, len(keys))
	for _, k := range keys {
		props = append(props, ref(b.encodeProperty(svID, k, obj[k])))
	}
	sv[vocabulary.SchemaAdditionalProperty] = props
	b.emit(sv)
	return svID
}

func sortedRetainedKeys(n hostapi.RawNode) []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		if !excludedKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func ref(id string) map[string]any {
	return map[string]any{jsonld.KeyID: id}
}

func value(v any) map[string]any {
	return map[string]any{jsonld.KeyValue: v}
}

func appendRef(node map[string]any, pred, id string) {
	arr, _ := node[pred].([]any)
	node[pred] = append(arr, ref(id))
}
