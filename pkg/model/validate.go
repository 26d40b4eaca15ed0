package model

import (
	"errors"
	"fmt"
)

// ErrInvalidSchema marks configuration errors in a schema definition.
var ErrInvalidSchema = errors.New("model: invalid schema")

// SchemaError reports a single structural problem at a dotted path.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("model: invalid schema: %s", e.Reason)
	}
	return fmt.Sprintf("model: invalid schema at %q: %s", e.Path, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidSchema).
func (e *SchemaError) Unwrap() error {
	return ErrInvalidSchema
}

// Validate reports duplicate sibling names and clusters missing their
// children. All problems are returned together via errors.Join.
func Validate(schema Schema) error {
	var errs []error
	validateNodes(schema, "", &errs)
	return errors.Join(errs...)
}

// Problem returns the first structural issue of a single node without
// descending into its children. Interpreters use it to decide whether a
// cluster or choice can be rendered.
func Problem(node FieldNode) string {
	if node.Kind == KindChoice {
		return choiceProblem(node.Options)
	}
	if !node.IsCluster() {
		return ""
	}
	if node.Children == nil {
		return "cluster has no children definition"
	}
	if dup := firstDuplicate(node.Children); dup != "" {
		return fmt.Sprintf("duplicate child name %q", dup)
	}
	return ""
}

func validateNodes(nodes []FieldNode, prefix string, errs *[]error) {
	seen := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		path := joinPath(prefix, node.Name)
		if node.Name == "" {
			*errs = append(*errs, &SchemaError{Path: prefix, Reason: "field without name"})
		} else if _, dup := seen[node.Name]; dup {
			*errs = append(*errs, &SchemaError{Path: path, Reason: "duplicate field name"})
		}
		seen[node.Name] = struct{}{}

		if node.Kind == KindChoice {
			if problem := choiceProblem(node.Options); problem != "" {
				*errs = append(*errs, &SchemaError{Path: path, Reason: problem})
			}
		}
		if node.IsCluster() {
			if node.Children == nil {
				*errs = append(*errs, &SchemaError{Path: path, Reason: "cluster has no children definition"})
				continue
			}
			validateNodes(node.Children, path, errs)
		}
	}
}

// choiceProblem rejects empty option values, which would be
// indistinguishable from "no selection".
func choiceProblem(options []Option) string {
	for i, opt := range options {
		if opt.Value == "" {
			return fmt.Sprintf("option %d has an empty value", i)
		}
	}
	return ""
}

func firstDuplicate(nodes []FieldNode) string {
	seen := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		if _, dup := seen[node.Name]; dup {
			return node.Name
		}
		seen[node.Name] = struct{}{}
	}
	return ""
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
