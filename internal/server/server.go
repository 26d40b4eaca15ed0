// Package server exposes forms over HTTP: the archetype JSON API consumed by
// form clients, server-rendered HTML forms and the submission endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	theme "github.com/goliatone/go-theme"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/internal/records"
	"github.com/goliatone/go-formtree/pkg/orchestrator"
	"github.com/goliatone/go-formtree/pkg/transport"
)

const defaultRequestTimeout = 60 * time.Second

// Summary is one entry of the form list.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RecordStore persists submissions.
type RecordStore interface {
	transport.Submitter
	Save(ctx context.Context, formID, subject string, body map[string]any) (records.Record, error)
	Get(ctx context.Context, id string) (records.Record, error)
	List(ctx context.Context, formID string, limit int) ([]records.Record, error)
}

// Server wires the HTTP routes.
type Server struct {
	fetcher      transport.SchemaFetcher
	store        RecordStore
	lister       func() []Summary
	orchestrator *orchestrator.Orchestrator
	keys         transport.Keys
	theme        *theme.RendererConfig
	metrics      *Metrics
	metricsPath  string
	logger       zerolog.Logger
	router       chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLister supplies the form list served at /api/archetypes.
func WithLister(fn func() []Summary) Option {
	return func(s *Server) {
		s.lister = fn
	}
}

// WithOrchestrator overrides the orchestrator used for HTML forms.
func WithOrchestrator(o *orchestrator.Orchestrator) Option {
	return func(s *Server) {
		s.orchestrator = o
	}
}

// WithKeys overrides the identifying submission keys.
func WithKeys(keys transport.Keys) Option {
	return func(s *Server) {
		s.keys = keys
	}
}

// WithTheme passes theme tokens to rendered forms.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(s *Server) {
		s.theme = cfg
	}
}

// WithMetrics enables instrumentation and mounts the registry at path.
func WithMetrics(m *Metrics, path string) Option {
	return func(s *Server) {
		s.metrics = m
		if path != "" {
			s.metricsPath = path
		}
	}
}

// WithLogger sets the request and error logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New builds a server over fetcher and store.
func New(fetcher transport.SchemaFetcher, store RecordStore, options ...Option) (*Server, error) {
	if fetcher == nil {
		return nil, errors.New("server: schema fetcher is required")
	}
	if store == nil {
		return nil, errors.New("server: record store is required")
	}
	s := &Server{
		fetcher:     fetcher,
		store:       store,
		keys:        transport.DefaultKeys,
		metricsPath: "/metrics",
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.keys.Form == "" {
		s.keys.Form = transport.DefaultKeys.Form
	}
	if s.keys.Subject == "" {
		s.keys.Subject = transport.DefaultKeys.Subject
	}
	if s.orchestrator == nil {
		s.orchestrator = orchestrator.New(
			orchestrator.WithFetcher(fetcher),
			orchestrator.WithSubmitter(store),
			orchestrator.WithKeys(s.keys),
			orchestrator.WithLogger(s.logger),
		)
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger, s.metricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))
	if s.metrics != nil {
		r.Use(instrument(s.metrics))
		r.Handle(s.metricsPath, s.metrics.Handler())
	}

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/archetypes", s.listForms)
		r.Get("/archetype/form/{id}", s.formSchema)
		r.Post("/ehr/save", s.saveDocument)
		r.Get("/ehr/records", s.listRecords)
		r.Get("/ehr/records/{id}", s.getRecord)
	})

	r.Get("/forms/{id}", s.showForm)
	r.Post("/forms/{id}", s.submitForm)
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down within
// shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
