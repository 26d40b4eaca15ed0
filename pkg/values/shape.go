package values

import (
	"fmt"

	"github.com/goliatone/go-formtree/pkg/model"
)

// ShapeError reports a key in a Tree that has no matching schema node, or a
// cluster path holding a non-Tree value.
type ShapeError struct {
	Path   Path
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("values: %s at %q", e.Reason, e.Path.String())
}

// CheckShape verifies that tree only uses paths declared by schema and that
// every cluster value present is itself a Tree.
func CheckShape(schema model.Schema, tree Tree) error {
	return checkNodes(schema, tree, nil)
}

func checkNodes(nodes []model.FieldNode, tree Tree, prefix Path) error {
	byName := make(map[string]model.FieldNode, len(nodes))
	for _, node := range nodes {
		byName[node.Name] = node
	}
	for key, value := range tree {
		path := prefix.Append(key)
		node, ok := byName[key]
		if !ok {
			return &ShapeError{Path: path, Reason: "orphaned key"}
		}
		switch node.Kind {
		case model.KindCluster:
			child, isTree := AsTree(value)
			if !isTree {
				return &ShapeError{Path: path, Reason: "cluster value is not a tree"}
			}
			if err := checkNodes(node.Children, child, path); err != nil {
				return err
			}
		case model.KindSlot, model.KindUnknown:
			return &ShapeError{Path: path, Reason: "value stored for non-editable field"}
		}
	}
	return nil
}
