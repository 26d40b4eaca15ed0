package formtree_test

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-formtree"
	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/orchestrator"
	"github.com/goliatone/go-formtree/pkg/transport"
)

func TestRenderHTML(t *testing.T) {
	fetcher := transport.SchemaFetcherFunc(func(_ context.Context, id string) (model.Schema, error) {
		if id != "vitals" {
			return nil, transport.ErrNotFound
		}
		return model.Schema{{Kind: model.KindText, Name: "note", Label: "Note"}}, nil
	})

	output, err := formtree.RenderHTML(context.Background(), fetcher, "vitals", "PAT-1")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, fragment := range []string{`name="note"`, `name="archetypeId" value="vitals"`, `name="patientId" value="PAT-1"`} {
		if !strings.Contains(string(output), fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, output)
		}
	}

	_, err = formtree.RenderHTML(context.Background(), fetcher, "missing", "")
	var loadErr *orchestrator.SchemaLoadError
	if !errors.As(err, &loadErr) || !errors.Is(err, transport.ErrNotFound) {
		t.Fatalf("expected SchemaLoadError wrapping ErrNotFound, got %v", err)
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	if _, err := fs.Stat(formtree.EmbeddedTemplates(), "templates/form.tmpl"); err != nil {
		t.Fatalf("expected form template: %v", err)
	}
}
