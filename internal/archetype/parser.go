package archetype

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/goliatone/go-formtree/pkg/model"
)

var (
	// ErrNoFields reports an archetype whose definition yields no form
	// fields: the root is not a CLUSTER or none of its items parse.
	ErrNoFields = errors.New("archetype: no parsable form fields")
	// ErrNoID reports a document without an archetype_id.
	ErrNoID = errors.New("archetype: missing archetype_id")
)

const (
	defaultLanguage    = "en"
	genericRootLabel   = "Cluster"
	anySlot            = "any"
	unsupportedElement = "unsupported_element"
)

// Header is the identifying part of an archetype.
type Header struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Concept string `json:"-"`
}

// ParseHeader reads the archetype id and its display name. The name is the
// concept's English text, any language's text otherwise, and the id as a
// last resort.
func ParseHeader(data []byte) (Header, error) {
	root, err := decode(data)
	if err != nil {
		return Header{}, fmt.Errorf("archetype: decode: %w", err)
	}
	return header(root)
}

func header(root *node) (Header, error) {
	id := root.find("archetype_id").child("value").text()
	if id == "" {
		return Header{}, ErrNoID
	}
	h := Header{ID: id, Name: id, Concept: root.find("concept").text()}
	if h.Concept == "" {
		return h, nil
	}
	if text := termText(root, h.Concept); text != "" {
		h.Name = text
	}
	return h, nil
}

func termText(root *node, code string) string {
	ontology := root.find("ontology")
	defs := ontology.findAll("term_definitions")
	for _, pass := range []bool{true, false} {
		for _, def := range defs {
			if pass && def.attr("language") != defaultLanguage {
				continue
			}
			for _, item := range def.all("items") {
				if item.attr("code") == code {
					if text := itemText(item); text != "" {
						return text
					}
				}
			}
		}
	}
	return ""
}

// terms maps at-codes to their text in the English term definitions, or the
// first definitions block when English is absent.
func terms(root *node) map[string]string {
	defs := root.find("ontology").findAll("term_definitions")
	var chosen *node
	for _, def := range defs {
		if def.attr("language") == defaultLanguage {
			chosen = def
			break
		}
	}
	if chosen == nil && len(defs) > 0 {
		chosen = defs[0]
	}
	out := make(map[string]string)
	for _, item := range chosen.all("items") {
		code := item.attr("code")
		if code == "" {
			continue
		}
		if text := itemText(item); text != "" {
			out[code] = text
		}
	}
	return out
}

func itemText(item *node) string {
	for _, sub := range item.all("items") {
		if sub.attr("id") == "text" {
			return sub.text()
		}
	}
	return ""
}

// Parse converts the archetype definition into a schema holding one root
// cluster. fileName labels the root when the ontology only calls it
// "Cluster".
func Parse(data []byte, fileName string) (model.Schema, error) {
	root, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("archetype: decode: %w", err)
	}
	definition := root.find("definition")
	if definition == nil {
		return nil, ErrNoFields
	}
	rmType := definition.child("rm_type_name").text()
	if rmType != "CLUSTER" {
		return nil, fmt.Errorf("%w: definition is %s, not CLUSTER", ErrNoFields, orUnknown(rmType))
	}

	ontology := terms(root)
	rootID := definition.child("node_id").text()
	label := labelFor(ontology, rootID)
	if label == genericRootLabel && fileName != "" {
		label = filepath.Base(fileName)
	}

	children := items(definition, ontology)
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: cluster %s has no items", ErrNoFields, rootID)
	}
	return model.Schema{{
		Kind:     model.KindCluster,
		Name:     rootID,
		Label:    label,
		RMType:   "CLUSTER",
		Children: children,
	}}, nil
}

func items(cluster *node, ontology map[string]string) []model.FieldNode {
	attr := cluster.attribute("items")
	fields := []model.FieldNode{}
	for _, child := range attr.all("children") {
		if field, ok := fieldFor(child, ontology); ok {
			fields = append(fields, field)
		}
	}
	return fields
}

func fieldFor(n *node, ontology map[string]string) (model.FieldNode, bool) {
	idNode := n.child("node_id")
	if idNode == nil || idNode.text() == "" {
		return model.FieldNode{}, false
	}
	id := idNode.text()
	rmType := n.child("rm_type_name").text()
	field := model.FieldNode{Name: id, Label: labelFor(ontology, id), RMType: rmType}

	switch {
	case n.attr("type") == "ARCHETYPE_SLOT" || rmType == "ARCHETYPE_SLOT":
		field.Kind = model.KindSlot
		field.AllowedPlaceholder = anySlot
		if expr := n.find("includes").child("string_expression").text(); expr != "" {
			field.AllowedPlaceholder = expr
		}
	case rmType == "ELEMENT":
		element(&field, n, ontology)
	case rmType == "CLUSTER":
		field.Kind = model.KindCluster
		field.Children = items(n, ontology)
	default:
		field.Kind = model.KindUnknown
		field.RawKind = orUnknown(rmType)
	}
	return field, true
}

func element(field *model.FieldNode, n *node, ontology map[string]string) {
	value := n.attribute("value").child("children")
	if value == nil {
		field.Kind = model.KindUnknown
		field.RawKind = unsupportedElement
		return
	}
	valueType := value.child("rm_type_name").text()
	field.RMType = valueType

	switch valueType {
	case "DV_TEXT":
		field.Kind = model.KindText
	case "DV_QUANTITY":
		field.Kind = model.KindNumber
		field.Units = value.find("units").text()
	case "DV_DATE_TIME":
		field.Kind = model.KindDateTime
	case "DV_DATE":
		field.Kind = model.KindDate
	case "DV_COUNT":
		field.Kind = model.KindNumber
		field.Step = 1
	case "DV_BOOLEAN":
		field.Kind = model.KindBoolean
	case "DV_CODED_TEXT":
		field.Kind = model.KindChoice
		field.Options = []model.Option{}
		for _, code := range value.findAll("code_list") {
			c := code.text()
			if c == "" {
				continue
			}
			field.Options = append(field.Options, model.Option{Value: c, Label: labelFor(ontology, c)})
		}
	default:
		field.Kind = model.KindUnknown
		field.RawKind = orUnknown(valueType)
	}
}

func labelFor(ontology map[string]string, code string) string {
	if text, ok := ontology[code]; ok {
		return text
	}
	return code
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
