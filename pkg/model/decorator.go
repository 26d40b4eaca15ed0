package model

// Decorator adjusts a freshly fetched schema before it is loaded, for example
// to override labels. Decorators must not introduce duplicate sibling names.
type Decorator interface {
	Decorate(*Schema) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*Schema) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(schema *Schema) error {
	return fn(schema)
}

// LabelOverrides returns a Decorator that replaces labels keyed by dotted
// field path (for example "address.city").
func LabelOverrides(labels map[string]string) Decorator {
	return DecoratorFunc(func(schema *Schema) error {
		if schema == nil || len(labels) == 0 {
			return nil
		}
		*schema = schema.Clone()
		relabel(*schema, "", labels)
		return nil
	})
}

func relabel(nodes []FieldNode, prefix string, labels map[string]string) {
	for i := range nodes {
		path := nodes[i].Name
		if prefix != "" {
			path = prefix + "." + path
		}
		if label, ok := labels[path]; ok {
			nodes[i].Label = label
		}
		if len(nodes[i].Children) > 0 {
			relabel(nodes[i].Children, path, labels)
		}
	}
}
