package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/render"
	"github.com/goliatone/go-formtree/pkg/renderers/html"
	"github.com/goliatone/go-formtree/pkg/state"
	"github.com/goliatone/go-formtree/pkg/transport"
)

const defaultRendererName = "html"

// ErrNoSubmitter is returned by Submit when no submission endpoint is wired.
var ErrNoSubmitter = errors.New("orchestrator: submitter is not configured")

// Orchestrator coordinates the pipeline from schema source to rendered output
// and back to the submission endpoint. Missing dependencies fall back to the
// built-in HTML renderer; the fetcher is always required.
type Orchestrator struct {
	fetcher         transport.SchemaFetcher
	submitter       transport.Submitter
	registry        *render.Registry
	defaultRenderer string
	decorators      []model.Decorator
	stateOptions    []state.Option
	keys            transport.Keys
	logger          zerolog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		keys:            transport.DefaultKeys,
		logger:          zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Session is one loaded form: its identifiers and the container holding its
// values. Sessions are independent; nothing is shared between them.
type Session struct {
	FormID    string
	Subject   string
	Title     string
	Container *state.Container
}

// Request describes a form to load and render.
type Request struct {
	FormID  string
	Subject string
	Title   string

	// Action and Method describe where the rendered form posts back.
	Action string
	Method string

	// Renderer names the renderer to use. If empty, the orchestrator falls
	// back to the configured default renderer.
	Renderer string

	RenderOptions render.RenderOptions
}

// Open fetches the schema for req.FormID and loads it into a fresh container.
// Fetch failures are returned as *SchemaLoadError.
func (o *Orchestrator) Open(ctx context.Context, req Request) (*Session, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}
	if o.fetcher == nil {
		return nil, errors.New("orchestrator: schema fetcher is not configured")
	}
	if req.FormID == "" {
		return nil, errors.New("orchestrator: form id is required")
	}

	options := append([]state.Option{
		state.WithLogger(o.logger),
		state.WithDecorators(o.decorators...),
	}, o.stateOptions...)
	container := state.New(options...)

	if err := container.LoadFrom(ctx, o.fetcher, req.FormID); err != nil {
		if errors.Is(err, model.ErrInvalidSchema) {
			return nil, fmt.Errorf("orchestrator: form %q: %w", req.FormID, err)
		}
		o.logger.Warn().Err(err).Str("form_id", req.FormID).Msg("schema load failed")
		return nil, &SchemaLoadError{FormID: req.FormID, Err: err}
	}
	if err := transport.CheckReserved(container.Schema(), o.keys); err != nil {
		return nil, fmt.Errorf("orchestrator: form %q: %w", req.FormID, err)
	}

	o.logger.Debug().Str("form_id", req.FormID).Int("fields", len(container.Schema())).Msg("schema loaded")
	return &Session{
		FormID:    req.FormID,
		Subject:   req.Subject,
		Title:     req.Title,
		Container: container,
	}, nil
}

// Render interprets the session's current state and renders it.
func (o *Orchestrator) Render(ctx context.Context, session *Session, req Request) ([]byte, error) {
	if session == nil || session.Container == nil {
		return nil, errors.New("orchestrator: session is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = session.Title
	}
	form := render.Form{
		ID:     session.FormID,
		Title:  title,
		Action: req.Action,
		Method: req.Method,
		Units:  session.Container.Form(),
	}

	options := req.RenderOptions
	options.Hidden = render.MergeHiddenFields(options.Hidden,
		render.IdentityFields(o.keys.Form, session.FormID, o.keys.Subject, session.Subject)...)

	output, err := renderer.Render(ctx, form, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Generate opens req.FormID and renders the fresh session.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, *Session, error) {
	session, err := o.Open(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	output, err := o.Render(ctx, session, req)
	if err != nil {
		return nil, nil, err
	}
	return output, session, nil
}

// Submit sends the session's value tree as-is. A refused submission leaves
// the container untouched so the user can correct and retry.
func (o *Orchestrator) Submit(ctx context.Context, session *Session) (transport.Result, error) {
	if session == nil || session.Container == nil {
		return transport.Result{}, errors.New("orchestrator: session is required")
	}
	if o.submitter == nil {
		return transport.Result{}, ErrNoSubmitter
	}

	tree := session.Container.CurrentValues()
	result, err := o.submitter.Submit(ctx, session.FormID, tree, session.Subject)
	if err != nil {
		o.logger.Warn().Err(err).Str("form_id", session.FormID).Msg("submission failed")
		return transport.Result{}, fmt.Errorf("orchestrator: submit %q: %w", session.FormID, err)
	}
	o.logger.Info().Str("form_id", session.FormID).Str("record_id", result.RecordID).Msg("submission stored")
	return result, nil
}

// Registry exposes the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}
	renderer, err := o.registry.Resolve(name, o.defaultRenderer)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := html.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
	if o.keys.Form == "" {
		o.keys.Form = transport.DefaultKeys.Form
	}
	if o.keys.Subject == "" {
		o.keys.Subject = transport.DefaultKeys.Subject
	}
}
