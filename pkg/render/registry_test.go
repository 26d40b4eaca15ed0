package render_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-formtree/pkg/render"
)

type namedRenderer string

func (n namedRenderer) Name() string        { return string(n) }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(context.Context, render.Form, render.RenderOptions) ([]byte, error) {
	return []byte(n), nil
}

func TestRegistry(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister(namedRenderer("html"))
	registry.MustRegister(namedRenderer("tui"))

	if err := registry.Register(namedRenderer("html")); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatalf("expected nil renderer error")
	}

	cases := []struct {
		name, preferred, want string
	}{
		{"tui", "html", "tui"},
		{"", "tui", "tui"},
		{"", "missing", "html"},
		{"", "", "html"},
	}
	for _, tc := range cases {
		renderer, err := registry.Resolve(tc.name, tc.preferred)
		if err != nil {
			t.Fatalf("resolve(%q, %q): %v", tc.name, tc.preferred, err)
		}
		if renderer.Name() != tc.want {
			t.Fatalf("resolve(%q, %q) = %s, want %s", tc.name, tc.preferred, renderer.Name(), tc.want)
		}
	}

	if _, err := registry.Resolve("missing", ""); err == nil {
		t.Fatalf("expected error for unknown renderer")
	}
	if _, err := render.NewRegistry().Resolve("", ""); err == nil {
		t.Fatalf("expected error for empty registry")
	}
	if got := registry.List(); len(got) != 2 || got[0] != "html" {
		t.Fatalf("unexpected list: %v", got)
	}
}

func TestFormDefaults(t *testing.T) {
	form := render.Form{ID: "vitals", Method: " put "}
	if form.SubmitMethod() != "PUT" {
		t.Fatalf("method = %s", form.SubmitMethod())
	}
	if form.DisplayTitle() != "vitals" {
		t.Fatalf("title = %s", form.DisplayTitle())
	}
	if (render.Form{}).SubmitMethod() != "POST" {
		t.Fatalf("default method should be POST")
	}
}
