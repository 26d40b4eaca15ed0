package values

import (
	"reflect"
	"strings"
)

// Tree maps field names to scalars (string, bool, numbers) or nested Trees
// for cluster fields.
type Tree map[string]any

// Path is the root-to-leaf list of field names addressing a node.
type Path []string

// String renders the path in dotted form ("address.city").
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Append returns a new path with name added, never aliasing p's backing array.
func (p Path) Append(name string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = name
	return out
}

// AsTree normalises map values produced by decoders into a Tree.
func AsTree(value any) (Tree, bool) {
	switch v := value.(type) {
	case Tree:
		return v, v != nil
	case map[string]any:
		return Tree(v), v != nil
	default:
		return nil, false
	}
}

// Merge is the per-cluster update step: it returns a shallow copy of current
// with name set to value. A nil current behaves as an empty cluster value.
func Merge(current Tree, name string, value any) Tree {
	next := make(Tree, len(current)+1)
	for key, v := range current {
		next[key] = v
	}
	next[name] = value
	return next
}

// SetAt returns a new root with value stored at path. Every Tree on the path
// is replaced by a copy, absent or non-Tree ancestors are materialised as new
// Trees, and all other subtrees are shared with root.
func SetAt(root Tree, path Path, value any) Tree {
	if len(path) == 0 {
		return root
	}
	head := path[0]
	if len(path) == 1 {
		return Merge(root, head, value)
	}
	child, _ := AsTree(root[head])
	return Merge(root, head, SetAt(child, path[1:], value))
}

// Get resolves path inside root.
func Get(root Tree, path Path) (any, bool) {
	if len(path) == 0 || root == nil {
		return nil, false
	}
	var current any = root
	for _, segment := range path {
		node, ok := AsTree(current)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Lookup returns the value stored under name in a possibly absent cluster
// value, which is how child values are derived from their parent.
func Lookup(parent any, name string) any {
	tree, ok := AsTree(parent)
	if !ok {
		return nil
	}
	return tree[name]
}

// Clone deep copies a tree. Only Trees and []any are copied; scalars are
// shared.
func Clone(tree Tree) Tree {
	if tree == nil {
		return nil
	}
	out := make(Tree, len(tree))
	for key, value := range tree {
		out[key] = deepCopy(value)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case Tree:
		return Clone(typed)
	case map[string]any:
		return Clone(Tree(typed))
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}

// Same reports identity for Trees (the same underlying map) and equality for
// comparable scalars. It is the cheap change check consumers run after an
// edit: a subtree that is Same before and after did not change.
func Same(a, b any) bool {
	ta, aTree := AsTree(a)
	tb, bTree := AsTree(b)
	if aTree || bTree {
		if !aTree || !bTree {
			return false
		}
		return reflect.ValueOf(ta).UnsafePointer() == reflect.ValueOf(tb).UnsafePointer()
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}
