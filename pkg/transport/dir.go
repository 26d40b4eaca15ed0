package transport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/goliatone/go-formtree/pkg/model"
)

var schemaExtensions = []string{".json", ".yaml", ".yml"}

// DirFetcher serves schemas stored as <formID>.json, .yaml or .yml files.
type DirFetcher struct {
	fsys fs.FS
	root string
}

// NewDirFetcher reads schemas below root inside fsys. Use os.DirFS for disk
// directories or an embed.FS for bundled forms.
func NewDirFetcher(fsys fs.FS, root string) *DirFetcher {
	if root == "" {
		root = "."
	}
	return &DirFetcher{fsys: fsys, root: root}
}

// FetchSchema implements SchemaFetcher.
func (d *DirFetcher) FetchSchema(ctx context.Context, formID string) (model.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if formID == "" || strings.ContainsAny(formID, `/\`) || formID == "." || formID == ".." {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, formID)
	}
	for _, ext := range schemaExtensions {
		name := path.Join(d.root, formID+ext)
		data, err := fs.ReadFile(d.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("transport: read %s: %w", name, err)
		}
		var schema model.Schema
		if ext == ".json" {
			schema, err = model.DecodeSchemaJSON(data)
		} else {
			schema, err = model.DecodeSchemaYAML(data)
		}
		if err != nil {
			return nil, fmt.Errorf("transport: decode %s: %w", name, err)
		}
		return schema, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, formID)
}

// List returns the identifiers of every schema file under root, sorted.
func (d *DirFetcher) List() ([]string, error) {
	entries, err := fs.ReadDir(d.fsys, d.root)
	if err != nil {
		return nil, fmt.Errorf("transport: list %s: %w", d.root, err)
	}
	var ids []string
	seen := map[string]struct{}{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, ext := range schemaExtensions {
			if strings.HasSuffix(name, ext) {
				id := strings.TrimSuffix(name, ext)
				if _, dup := seen[id]; !dup {
					seen[id] = struct{}{}
					ids = append(ids, id)
				}
				break
			}
		}
	}
	return ids, nil
}
