package orchestrator

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/render"
	"github.com/goliatone/go-formtree/pkg/state"
	"github.com/goliatone/go-formtree/pkg/transport"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithFetcher sets the schema source.
func WithFetcher(fetcher transport.SchemaFetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = fetcher
	}
}

// WithSubmitter sets the submission endpoint.
func WithSubmitter(submitter transport.Submitter) Option {
	return func(o *Orchestrator) {
		o.submitter = submitter
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithDecorators registers schema decorators applied to every loaded schema.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		if len(decorators) == 0 {
			return
		}
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithStateOptions forwards options to every container the orchestrator
// creates.
func WithStateOptions(options ...state.Option) Option {
	return func(o *Orchestrator) {
		o.stateOptions = append(o.stateOptions, options...)
	}
}

// WithKeys overrides the identifying keys emitted as hidden fields.
func WithKeys(keys transport.Keys) Option {
	return func(o *Orchestrator) {
		o.keys = keys
	}
}

// WithLogger sets the logger for load and submission events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}
