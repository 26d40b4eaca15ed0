package values_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtree/pkg/values"
)

func TestSetAt_ReplacesOnlyThePath(t *testing.T) {
	vitals := values.Tree{"pulse": "72"}
	address := values.Tree{"city": "Paris", "geo": values.Tree{"lat": "48.8"}}
	root := values.Tree{
		"age":     "34",
		"vitals":  vitals,
		"address": address,
	}

	next := values.SetAt(root, values.Path{"address", "zip"}, "75000")

	want := values.Tree{
		"age":     "34",
		"vitals":  values.Tree{"pulse": "72"},
		"address": values.Tree{"city": "Paris", "zip": "75000", "geo": values.Tree{"lat": "48.8"}},
	}
	if diff := cmp.Diff(want, next); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	if values.Same(root, next) {
		t.Fatalf("root must be a new object")
	}
	if values.Same(root["address"], next["address"]) {
		t.Fatalf("edited cluster must be a new object")
	}
	if !values.Same(root["vitals"], next["vitals"]) {
		t.Fatalf("sibling cluster must keep identity")
	}
	if !values.Same(address["geo"], values.Lookup(next["address"], "geo")) {
		t.Fatalf("nested sibling must keep identity")
	}
	if _, ok := address["zip"]; ok {
		t.Fatalf("previous tree must not be mutated")
	}
}

func TestSetAt_MaterialisesMissingAncestors(t *testing.T) {
	next := values.SetAt(nil, values.Path{"a", "b", "c"}, true)

	want := values.Tree{"a": values.Tree{"b": values.Tree{"c": true}}}
	if diff := cmp.Diff(want, next); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	replaced := values.SetAt(values.Tree{"a": "scalar"}, values.Path{"a", "b"}, "x")
	if got, _ := values.Get(replaced, values.Path{"a", "b"}); got != "x" {
		t.Fatalf("non-tree ancestor should be replaced, got %v", got)
	}
}

func TestSetAt_AcceptsDecodedMaps(t *testing.T) {
	decoded := map[string]any{"address": map[string]any{"city": "Lyon"}}
	next := values.SetAt(values.Tree(decoded), values.Path{"address", "zip"}, "69000")

	want := values.Tree{"address": values.Tree{"city": "Lyon", "zip": "69000"}}
	if diff := cmp.Diff(want, next); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge(t *testing.T) {
	current := values.Tree{"city": "Paris"}
	merged := values.Merge(current, "zip", "75000")

	if diff := cmp.Diff(values.Tree{"city": "Paris", "zip": "75000"}, merged); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
	if len(current) != 1 {
		t.Fatalf("merge must not mutate its input")
	}
	if diff := cmp.Diff(values.Tree{"zip": "1"}, values.Merge(nil, "zip", "1")); diff != "" {
		t.Fatalf("merge into absent cluster mismatch (-want +got):\n%s", diff)
	}
}

func TestSetAt_Idempotent(t *testing.T) {
	path := values.Path{"address", "city"}
	once := values.SetAt(values.Tree{"age": "34"}, path, "Paris")
	twice := values.SetAt(once, path, "Paris")

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("re-applying an edit changed the tree (-once +twice):\n%s", diff)
	}
}

func TestGetAndLookup(t *testing.T) {
	root := values.Tree{"address": values.Tree{"city": "Paris"}, "age": "34"}

	if got, ok := values.Get(root, values.Path{"address", "city"}); !ok || got != "Paris" {
		t.Fatalf("get nested: got %v ok=%v", got, ok)
	}
	if _, ok := values.Get(root, values.Path{"age", "x"}); ok {
		t.Fatalf("get below a scalar should fail")
	}
	if _, ok := values.Get(root, nil); ok {
		t.Fatalf("empty path should not resolve")
	}
	if got := values.Lookup(nil, "city"); got != nil {
		t.Fatalf("lookup on absent cluster should be nil, got %v", got)
	}
}

func TestClone(t *testing.T) {
	root := values.Tree{"address": values.Tree{"city": "Paris"}, "tags": []any{"a"}}
	clone := values.Clone(root)

	if diff := cmp.Diff(root, clone); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}
	if values.Same(root["address"], clone["address"]) {
		t.Fatalf("clone must not share nested trees")
	}
}

func TestSame(t *testing.T) {
	tree := values.Tree{"a": "1"}
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "same tree", a: tree, b: tree, want: true},
		{name: "equal but distinct trees", a: values.Tree{"a": "1"}, b: values.Tree{"a": "1"}},
		{name: "tree vs nil", a: tree, b: nil},
		{name: "equal scalars", a: "x", b: "x", want: true},
		{name: "bools", a: false, b: false, want: true},
		{name: "different scalars", a: "x", b: "y"},
		{name: "both nil", want: true},
		{name: "slices", a: []any{1}, b: []any{1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := values.Same(tc.a, tc.b); got != tc.want {
				t.Fatalf("Same = %v, want %v", got, tc.want)
			}
		})
	}
}
