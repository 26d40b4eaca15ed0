package render

import theme "github.com/goliatone/go-theme"

// RenderOptions describe per-request data that renderers can use to customise
// their output without touching the interpreted units.
type RenderOptions struct {
	// Hidden carries identifying inputs (form id, subject id) posted next to
	// the form values.
	Hidden map[string]string
	// Errors surfaces submission feedback keyed by dotted field path.
	Errors map[string][]string
	// FormErrors holds messages that do not belong to a single field, such as
	// a refused submission.
	FormErrors []string
	// Notices holds informational messages such as a stored submission.
	Notices []string
	// SubmitLabel overrides the submit button caption.
	SubmitLabel string
	// Theme passes go-theme tokens and CSS variables through to renderers
	// that support theming.
	Theme *theme.RendererConfig
}

// FieldErrors returns the messages recorded for a dotted path.
func (o RenderOptions) FieldErrors(path string) []string {
	if len(o.Errors) == 0 {
		return nil
	}
	return o.Errors[path]
}
