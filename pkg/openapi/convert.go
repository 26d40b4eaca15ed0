package openapi

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formtree/pkg/model"
)

const (
	orderExtension       = "x-order"
	unitsExtension       = "x-units"
	enumLabelsExtension  = "x-enum-labels"
	placeholderExtension = "x-slot"
)

// Properties converts the properties of an object schema into ordered nodes.
// An object without properties yields an empty, non-nil slice.
func Properties(schema *openapi3.Schema) []model.FieldNode {
	type entry struct {
		name  string
		order float64
		ref   *openapi3.SchemaRef
	}
	entries := make([]entry, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		order := math.Inf(1)
		if ref != nil && ref.Value != nil {
			if n, ok := number(ref.Value.Extensions[orderExtension]); ok {
				order = n
			}
		}
		entries = append(entries, entry{name: name, order: order, ref: ref})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].order != entries[j].order {
			return entries[i].order < entries[j].order
		}
		return entries[i].name < entries[j].name
	})

	nodes := make([]model.FieldNode, 0, len(entries))
	for _, e := range entries {
		nodes = append(nodes, Node(e.name, e.ref))
	}
	return nodes
}

// Node converts a single property schema.
func Node(name string, ref *openapi3.SchemaRef) model.FieldNode {
	node := model.FieldNode{Name: name, Label: name}
	if ref == nil || ref.Value == nil {
		node.Kind = model.KindUnknown
		node.RawKind = "unresolved"
		return node
	}
	schema := ref.Value
	if schema.Title != "" {
		node.Label = schema.Title
	}

	if placeholder, ok := schema.Extensions[placeholderExtension].(string); ok {
		node.Kind = model.KindSlot
		node.AllowedPlaceholder = placeholder
		return node
	}

	switch {
	case isObject(schema):
		node.Kind = model.KindCluster
		node.Children = Properties(schema)
	case hasType(schema, "boolean"):
		node.Kind = model.KindBoolean
	case hasType(schema, "number"), hasType(schema, "integer"):
		node.Kind = model.KindNumber
		if units, ok := schema.Extensions[unitsExtension].(string); ok {
			node.Units = units
		}
		if hasType(schema, "integer") {
			node.Step = 1
		}
	case hasType(schema, "string"):
		switch {
		case len(schema.Enum) > 0:
			node.Kind = model.KindChoice
			node.Options = enumOptions(schema)
		case schema.Format == "date":
			node.Kind = model.KindDate
		case schema.Format == "date-time":
			node.Kind = model.KindDateTime
		default:
			node.Kind = model.KindText
		}
	default:
		node.Kind = model.KindUnknown
		node.RawKind = typeName(schema)
	}
	return node
}

func isObject(schema *openapi3.Schema) bool {
	if hasType(schema, "object") {
		return true
	}
	return len(types(schema)) == 0 && len(schema.Properties) > 0
}

// hasType reports whether typ is the only non-null type of schema.
func hasType(schema *openapi3.Schema, typ string) bool {
	var found bool
	for _, t := range types(schema) {
		switch t {
		case "null":
		case typ:
			found = true
		default:
			return false
		}
	}
	return found
}

func types(schema *openapi3.Schema) []string {
	if schema.Type == nil {
		return nil
	}
	return schema.Type.Slice()
}

func typeName(schema *openapi3.Schema) string {
	list := types(schema)
	if len(list) == 0 {
		return "any"
	}
	return strings.Join(list, ",")
}

func enumOptions(schema *openapi3.Schema) []model.Option {
	labels := stringList(schema.Extensions[enumLabelsExtension])
	options := make([]model.Option, 0, len(schema.Enum))
	for i, raw := range schema.Enum {
		value := fmt.Sprint(raw)
		if raw == nil || value == "" {
			continue
		}
		label := value
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		options = append(options, model.Option{Value: value, Label: label})
	}
	return options
}

func stringList(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok {
			out[i] = s
		}
	}
	return out
}

func number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	case interface{ Float64() (float64, error) }:
		n, err := v.Float64()
		return n, err == nil
	default:
		return 0, false
	}
}
