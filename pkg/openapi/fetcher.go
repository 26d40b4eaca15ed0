package openapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/transport"
)

// ErrNoRequestBody reports an operation that exists but accepts no body.
var ErrNoRequestBody = errors.New("openapi: operation has no request body schema")

// Fetcher implements transport.SchemaFetcher over a loaded document.
type Fetcher struct {
	doc        *openapi3.T
	operations map[string]*openapi3.Operation
	cfg        config
}

var _ transport.SchemaFetcher = (*Fetcher)(nil)

// Load parses an OpenAPI document given as JSON or YAML.
func Load(ctx context.Context, data []byte, opts ...Option) (*Fetcher, error) {
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	cfg := newConfig(opts)

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: cfg.externalRefs,
	}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if cfg.validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}

	f := &Fetcher{
		doc:        doc,
		operations: make(map[string]*openapi3.Operation),
		cfg:        cfg,
	}
	if doc.Paths != nil {
		for path, item := range doc.Paths.Map() {
			if item == nil {
				continue
			}
			for method, op := range item.Operations() {
				if op == nil || op.OperationID == "" {
					cfg.logger.Debug().Str("method", method).Str("path", path).Msg("openapi: skipping operation without operationId")
					continue
				}
				f.operations[op.OperationID] = op
			}
		}
	}
	return f, nil
}

// LoadFS reads name from fsys and parses it with Load.
func LoadFS(ctx context.Context, fsys fs.FS, name string, opts ...Option) (*Fetcher, error) {
	if fsys == nil {
		return nil, errors.New("openapi: filesystem is not configured")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", name, err)
	}
	return Load(ctx, data, opts...)
}

// Operations returns the operation ids that accept a request body, sorted.
func (f *Fetcher) Operations() []string {
	ids := make([]string, 0, len(f.operations))
	for id, op := range f.operations {
		if f.bodySchema(op) != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Title returns the document title.
func (f *Fetcher) Title() string {
	if f.doc.Info == nil {
		return ""
	}
	return f.doc.Info.Title
}

// FetchSchema implements transport.SchemaFetcher.
func (f *Fetcher) FetchSchema(ctx context.Context, operationID string) (model.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	op, ok := f.operations[operationID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", transport.ErrNotFound, operationID)
	}
	ref := f.bodySchema(op)
	if ref == nil {
		return nil, fmt.Errorf("%w: %w: %q", transport.ErrNotFound, ErrNoRequestBody, operationID)
	}
	if ref.Value == nil {
		return nil, fmt.Errorf("openapi: unresolved request body schema %q", ref.Ref)
	}
	if !isObject(ref.Value) {
		return nil, fmt.Errorf("openapi: request body of %q is %s, want object", operationID, typeName(ref.Value))
	}
	return model.Schema(Properties(ref.Value)), nil
}

func (f *Fetcher) bodySchema(op *openapi3.Operation) *openapi3.SchemaRef {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range f.cfg.mediaTypes {
		if mt, ok := content[mediaType]; ok && mt != nil && mt.Schema != nil {
			return mt.Schema
		}
	}
	return nil
}
