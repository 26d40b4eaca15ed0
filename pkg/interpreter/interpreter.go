package interpreter

import (
	"fmt"

	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/values"
)

// DefaultSentinelLabel is the label of the "no selection" choice.
const DefaultSentinelLabel = "-- Select an option --"

// Option configures an interpretation pass.
type Option func(*config)

type config struct {
	generation    uint64
	sentinelLabel string
}

// WithGeneration tags every emitted edit with the schema load generation.
func WithGeneration(generation uint64) Option {
	return func(cfg *config) {
		cfg.generation = generation
	}
}

// WithSentinelLabel overrides the label of the "no selection" choice.
func WithSentinelLabel(label string) Option {
	return func(cfg *config) {
		if label != "" {
			cfg.sentinelLabel = label
		}
	}
}

// Interpret walks schema top-down and returns one Unit per node. Child values
// are read from the parent's value (absent clusters read as empty). Edits
// emitted by leaves reach sink carrying their full path; a nil sink yields
// units that render but refuse edits.
func Interpret(schema model.Schema, tree values.Tree, sink Sink, options ...Option) []Unit {
	cfg := config{sentinelLabel: DefaultSentinelLabel}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	in := &interpreter{cfg: cfg, sink: sink}
	return in.nodes(schema, tree, nil)
}

type interpreter struct {
	cfg  config
	sink Sink
}

func (in *interpreter) nodes(nodes []model.FieldNode, parent any, prefix values.Path) []Unit {
	if len(nodes) == 0 {
		return nil
	}
	units := make([]Unit, 0, len(nodes))
	for _, node := range nodes {
		units = append(units, in.node(node, values.Lookup(parent, node.Name), prefix.Append(node.Name)))
	}
	return units
}

func (in *interpreter) node(node model.FieldNode, value any, path values.Path) Unit {
	unit := Unit{
		Kind:  node.Kind,
		Name:  node.Name,
		Label: node.Label,
		Units: node.Units,
		Path:  path,
		Value: value,
	}

	switch node.Kind {
	case model.KindText:
		unit.Control = ControlText
		unit.emit = in.emitter(path, "string")
	case model.KindNumber:
		unit.Control = ControlNumber
		unit.Step = node.Step
		unit.emit = in.emitter(path, "string")
	case model.KindDate:
		unit.Control = ControlDate
		unit.emit = in.emitter(path, "string")
	case model.KindDateTime:
		unit.Control = ControlDateTime
		unit.emit = in.emitter(path, "string")
	case model.KindBoolean:
		unit.Control = ControlCheckbox
		unit.emit = in.emitter(path, "bool")
	case model.KindChoice:
		if problem := model.Problem(node); problem != "" {
			return diagnostic(unit, fmt.Sprintf("Invalid choice %q: %s", node.Name, problem))
		}
		unit.Control = ControlSelect
		unit.Options = in.choices(node.Options)
		unit.emit = in.emitter(path, "string")
	case model.KindSlot:
		unit.Control = ControlSlot
		unit.Placeholder = node.AllowedPlaceholder
		unit.Disabled = true
		unit.Value = nil
	case model.KindCluster:
		if problem := model.Problem(node); problem != "" {
			return diagnostic(unit, fmt.Sprintf("Invalid cluster %q: %s", node.Name, problem))
		}
		unit.Control = ControlFieldset
		unit.Children = in.nodes(node.Children, value, path)
	default:
		return diagnostic(unit, fmt.Sprintf("Unsupported field type: %s", node.DisplayKind()))
	}
	return unit
}

func diagnostic(unit Unit, message string) Unit {
	unit.Control = ControlDiagnostic
	unit.Diagnostic = message
	unit.Value = nil
	unit.Children = nil
	return unit
}

func (in *interpreter) choices(options []model.Option) []Choice {
	out := make([]Choice, 0, len(options)+1)
	out = append(out, Choice{Label: in.cfg.sentinelLabel, Sentinel: true})
	for _, opt := range options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		out = append(out, Choice{Value: opt.Value, Label: label})
	}
	return out
}

func (in *interpreter) emitter(path values.Path, want string) func(any) error {
	if in.sink == nil {
		return nil
	}
	sink := in.sink
	generation := in.cfg.generation
	return func(value any) error {
		switch want {
		case "bool":
			if _, ok := value.(bool); !ok {
				return &ValueTypeError{Path: path, Want: want, Got: value}
			}
		default:
			if _, ok := value.(string); !ok {
				return &ValueTypeError{Path: path, Want: want, Got: value}
			}
		}
		return sink.Apply(Edit{Path: path, Value: value, Generation: generation})
	}
}
