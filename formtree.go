// Package formtree builds forms from archetype-style field schemas, keeps
// their values as a tree and submits the tree unmodified.
//
// Most callers only need NewOrchestrator or RenderHTML; the pkg/ packages
// expose each stage separately.
package formtree

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/orchestrator"
	"github.com/goliatone/go-formtree/pkg/render"
	"github.com/goliatone/go-formtree/pkg/renderers/html"
	"github.com/goliatone/go-formtree/pkg/transport"
)

// Schema aliases model.Schema.
type Schema = model.Schema

// RenderOptions describes per-request rendering overrides.
type RenderOptions = render.RenderOptions

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// NewOrchestrator exposes the orchestrator constructor from the module root.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// RenderHTML fetches formID from fetcher and renders it with the built-in
// HTML renderer. subject, when set, is carried as a hidden field.
func RenderHTML(ctx context.Context, fetcher transport.SchemaFetcher, formID, subject string, options ...orchestrator.Option) ([]byte, error) {
	options = append([]orchestrator.Option{orchestrator.WithFetcher(fetcher)}, options...)
	gen := orchestrator.New(options...)
	output, _, err := gen.Generate(ctx, orchestrator.Request{
		FormID:   formID,
		Subject:  subject,
		Renderer: "html",
	})
	return output, err
}

// EmbeddedTemplates exposes the HTML renderer templates so callers can copy
// or override them.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
