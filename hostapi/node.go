package hostapi

// RawNode is one entry of the host's flow configuration: a heterogeneous
// JSON object whose only guaranteed keys are id and type. Tabs carry
// type "tab"; every other node references its containing tab through z.
type RawNode map[string]any

// TabType is the node type marking a flow container.
const TabType = "tab"

// ID returns the node identifier.
func (n RawNode) ID() string {
	s, _ := n["id"].(string)
	return s
}

// Type returns the node type.
func (n RawNode) Type() string {
	s, _ := n["type"].(string)
	return s
}

// IsTab reports whether the node is a flow container.
func (n RawNode) IsTab() bool {
	return n.Type() == TabType
}

// Tab returns the containing tab id, if any.
func (n RawNode) Tab() string {
	s, _ := n["z"].(string)
	return s
}

// Name returns the display name: label for tabs, name otherwise.
func (n RawNode) Name() (string, bool) {
	key := "name"
	if n.IsTab() {
		key = "label"
	}
	if s, ok := n[key].(string); ok && s != "" {
		return s, true
	}
	return "", false
}

// Wires returns the output gates: one target-id list per gate.
func (n RawNode) Wires() [][]string {
	raw, ok := n["wires"].([]any)
	if !ok {
		return nil
	}
	gates := make([][]string, 0, len(raw))
	for _, g := range raw {
		targets, ok := g.([]any)
		if !ok {
			gates = append(gates, nil)
			continue
		}
		ids := make([]string, 0, len(targets))
		for _, t := range targets {
			if s, ok := t.(string); ok && s != "" {
				ids = append(ids, s)
			}
		}
		gates = append(gates, ids)
	}
	return gates
}

// ExtractNodes pulls the node list out of the common export shapes: a bare
// array, or an object holding the array under flows/nodes/data/items/
// content.
func ExtractNodes(doc any) ([]RawNode, bool) {
	if arr, ok := doc.([]any); ok {
		return castNodes(arr), true
	}
	if obj, ok := doc.(map[string]any); ok {
		for _, key := range []string{"flows", "nodes", "data", "items", "content"} {
			if arr, ok := obj[key].([]any); ok {
				return castNodes(arr), true
			}
		}
	}
	return nil, false
}

func castNodes(arr []any) []RawNode {
	out := make([]RawNode, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			out = append(out, RawNode(m))
		}
	}
	return out
}
