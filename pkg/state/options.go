package state

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/model"
)

// Option configures a Container.
type Option func(*Container)

// WithLenientSchema makes Load accept schemas that fail model.Validate. The
// interpreter still renders malformed clusters as diagnostics.
func WithLenientSchema() Option {
	return func(c *Container) {
		c.lenient = true
	}
}

// WithLogger sets the logger used for load and edit events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithDecorators registers schema decorators applied on every load, before
// validation.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(c *Container) {
		for _, decorator := range decorators {
			if decorator != nil {
				c.decorators = append(c.decorators, decorator)
			}
		}
	}
}
