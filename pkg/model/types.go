package model

// Option is a single entry offered by a choice field.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FieldNode describes one schema node. Children is only meaningful for
// clusters: nil means the definition omitted it (a malformed cluster) while an
// empty slice is a legal cluster without fields.
type FieldNode struct {
	Kind Kind
	// RawKind keeps the wire kind as received. It is what diagnostics show
	// for KindUnknown nodes.
	RawKind            string
	Name               string
	Label              string
	Units              string
	Options            []Option
	AllowedPlaceholder string
	Children           []FieldNode

	// RMType and Step are informational annotations carried over from
	// archetype definitions.
	RMType string
	Step   int
}

// Schema is the ordered list of top-level nodes describing one form.
type Schema []FieldNode

// IsCluster reports whether the node groups child fields.
func (f FieldNode) IsCluster() bool {
	return f.Kind == KindCluster
}

// DisplayKind returns the raw wire kind when present, falling back to the
// canonical name.
func (f FieldNode) DisplayKind() string {
	if f.RawKind != "" {
		return f.RawKind
	}
	return f.Kind.String()
}

// Child returns the direct child with the provided name.
func (f FieldNode) Child(name string) (FieldNode, bool) {
	for _, child := range f.Children {
		if child.Name == name {
			return child, true
		}
	}
	return FieldNode{}, false
}

// Field returns the top-level node with the provided name.
func (s Schema) Field(name string) (FieldNode, bool) {
	for _, node := range s {
		if node.Name == name {
			return node, true
		}
	}
	return FieldNode{}, false
}

// Lookup resolves a root-to-leaf list of names into the addressed node.
func (s Schema) Lookup(path []string) (FieldNode, bool) {
	if len(path) == 0 {
		return FieldNode{}, false
	}
	node, ok := s.Field(path[0])
	if !ok {
		return FieldNode{}, false
	}
	for _, name := range path[1:] {
		if !node.IsCluster() {
			return FieldNode{}, false
		}
		node, ok = node.Child(name)
		if !ok {
			return FieldNode{}, false
		}
	}
	return node, true
}

// Clone returns a deep copy so callers can adjust a schema without touching
// the fetched original.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	return Schema(cloneNodes(s))
}

func cloneNodes(nodes []FieldNode) []FieldNode {
	if nodes == nil {
		return nil
	}
	out := make([]FieldNode, len(nodes))
	for i, node := range nodes {
		out[i] = node
		if node.Options != nil {
			out[i].Options = append([]Option(nil), node.Options...)
		}
		out[i].Children = cloneNodes(node.Children)
	}
	return out
}
