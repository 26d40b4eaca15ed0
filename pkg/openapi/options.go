package openapi

import "github.com/rs/zerolog"

// DefaultMediaTypes lists the request body media types inspected, in order.
var DefaultMediaTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
}

type config struct {
	mediaTypes   []string
	externalRefs bool
	validate     bool
	logger       zerolog.Logger
}

// Option customises a Fetcher.
type Option func(*config)

// WithMediaTypes overrides the preferred request body media types.
func WithMediaTypes(types ...string) Option {
	return func(c *config) {
		if len(types) > 0 {
			c.mediaTypes = append([]string(nil), types...)
		}
	}
}

// WithExternalRefs allows $ref values pointing outside the document.
func WithExternalRefs() Option {
	return func(c *config) {
		c.externalRefs = true
	}
}

// WithValidation validates the document after loading.
func WithValidation() Option {
	return func(c *config) {
		c.validate = true
	}
}

// WithLogger attaches a logger used for skipped operations and properties.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		mediaTypes: DefaultMediaTypes,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
