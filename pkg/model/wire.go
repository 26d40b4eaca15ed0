package model

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// wireField mirrors the JSON/YAML layout of a node. Both the canonical keys
// (kind, allowedPlaceholder) and the legacy archetype backend keys (type,
// allows, rm_type) are accepted on input.
type wireField struct {
	Kind               string      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Type               string      `json:"type,omitempty" yaml:"type,omitempty"`
	Name               string      `json:"name" yaml:"name"`
	Label              string      `json:"label,omitempty" yaml:"label,omitempty"`
	Units              string      `json:"units,omitempty" yaml:"units,omitempty"`
	Options            []Option    `json:"options,omitempty" yaml:"options,omitempty"`
	AllowedPlaceholder string      `json:"allowedPlaceholder,omitempty" yaml:"allowedPlaceholder,omitempty"`
	Allows             string      `json:"allows,omitempty" yaml:"allows,omitempty"`
	Children           []FieldNode `json:"children" yaml:"children"`
	RMType             string      `json:"rm_type,omitempty" yaml:"rm_type,omitempty"`
	Step               int         `json:"step,omitempty" yaml:"step,omitempty"`
}

type outField struct {
	Kind               string       `json:"kind" yaml:"kind"`
	Name               string       `json:"name" yaml:"name"`
	Label              string       `json:"label,omitempty" yaml:"label,omitempty"`
	Units              string       `json:"units,omitempty" yaml:"units,omitempty"`
	Options            []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	AllowedPlaceholder string       `json:"allowedPlaceholder,omitempty" yaml:"allowedPlaceholder,omitempty"`
	Children           *[]FieldNode `json:"children,omitempty" yaml:"children,omitempty"`
	RMType             string       `json:"rm_type,omitempty" yaml:"rm_type,omitempty"`
	Step               int          `json:"step,omitempty" yaml:"step,omitempty"`
}

// UnmarshalJSON decodes either wire shape into a FieldNode.
func (f *FieldNode) UnmarshalJSON(data []byte) error {
	var wire wireField
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*f = wire.node()
	return nil
}

// MarshalJSON always emits the canonical wire shape.
func (f FieldNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.out())
}

// MarshalYAML emits the same canonical shape as MarshalJSON.
func (f FieldNode) MarshalYAML() (any, error) {
	return f.out(), nil
}

func (f FieldNode) out() outField {
	out := outField{
		Kind:               f.wireKind(),
		Name:               f.Name,
		Label:              f.Label,
		Units:              f.Units,
		Options:            f.Options,
		AllowedPlaceholder: f.AllowedPlaceholder,
		RMType:             f.RMType,
		Step:               f.Step,
	}
	if f.Children != nil {
		children := f.Children
		out.Children = &children
	}
	return out
}

// UnmarshalYAML decodes either wire shape from a YAML document.
func (f *FieldNode) UnmarshalYAML(value *yaml.Node) error {
	var wire wireField
	if err := value.Decode(&wire); err != nil {
		return err
	}
	*f = wire.node()
	return nil
}

func (w wireField) node() FieldNode {
	raw := strings.TrimSpace(w.Kind)
	if raw == "" {
		raw = strings.TrimSpace(w.Type)
	}
	kind, _ := ParseKind(raw)

	node := FieldNode{
		Kind:               kind,
		RawKind:            raw,
		Name:               w.Name,
		Label:              w.Label,
		Units:              w.Units,
		Options:            w.Options,
		AllowedPlaceholder: w.AllowedPlaceholder,
		Children:           w.Children,
		RMType:             w.RMType,
		Step:               w.Step,
	}
	if node.AllowedPlaceholder == "" {
		node.AllowedPlaceholder = w.Allows
	}
	if kind != KindUnknown {
		node.RawKind = ""
	}
	return node
}

func (f FieldNode) wireKind() string {
	if f.Kind == KindUnknown && f.RawKind != "" {
		return f.RawKind
	}
	return f.Kind.String()
}

// DecodeSchemaJSON parses a JSON array of nodes.
func DecodeSchemaJSON(data []byte) (Schema, error) {
	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// DecodeSchemaYAML parses a YAML sequence of nodes.
func DecodeSchemaYAML(data []byte) (Schema, error) {
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	return schema, nil
}
