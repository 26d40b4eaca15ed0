package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/internal/archetype"
	"github.com/goliatone/go-formtree/internal/config"
	"github.com/goliatone/go-formtree/internal/server"
	"github.com/goliatone/go-formtree/pkg/openapi"
	"github.com/goliatone/go-formtree/pkg/transport"
)

// source is a configured schema origin.
type source struct {
	fetcher transport.SchemaFetcher
	lister  func() []server.Summary
	// watch keeps the listing fresh until ctx is done; nil when unsupported.
	watch func(ctx context.Context) error
}

func keysFrom(cfg *config.Config) transport.Keys {
	return transport.Keys{Form: cfg.Keys.Form, Subject: cfg.Keys.Subject}
}

func buildSource(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*source, error) {
	switch cfg.Source.Kind {
	case config.SourceArchetypes:
		catalog, err := archetype.NewCatalog(cfg.Source.Path, archetype.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		src := &source{
			fetcher: catalog,
			lister: func() []server.Summary {
				entries := catalog.List()
				out := make([]server.Summary, 0, len(entries))
				for _, entry := range entries {
					out = append(out, server.Summary{ID: entry.ID, Name: entry.Name})
				}
				return out
			},
		}
		if cfg.Source.Watch {
			src.watch = catalog.Watch
		}
		return src, nil

	case config.SourceDir:
		dir := transport.NewDirFetcher(os.DirFS(cfg.Source.Path), ".")
		return &source{
			fetcher: dir,
			lister: func() []server.Summary {
				ids, err := dir.List()
				if err != nil {
					logger.Warn().Err(err).Msg("list schema directory")
					return nil
				}
				return summaries(ids)
			},
		}, nil

	case config.SourceOpenAPI:
		doc, err := openapi.LoadFS(ctx, os.DirFS(filepath.Dir(cfg.Source.Path)), filepath.Base(cfg.Source.Path),
			openapi.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return &source{
			fetcher: doc,
			lister:  func() []server.Summary { return summaries(doc.Operations()) },
		}, nil

	case config.SourceHTTP:
		client, err := newBackendClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return &source{fetcher: client}, nil

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

func newBackendClient(cfg *config.Config, logger zerolog.Logger) (*transport.HTTPClient, error) {
	return transport.NewHTTPClient(cfg.Backend.URL,
		transport.WithTimeout(cfg.Backend.Timeout),
		transport.WithKeys(keysFrom(cfg)),
		transport.WithHTTPLogger(logger),
	)
}

func summaries(ids []string) []server.Summary {
	out := make([]server.Summary, 0, len(ids))
	for _, id := range ids {
		out = append(out, server.Summary{ID: id, Name: id})
	}
	return out
}
