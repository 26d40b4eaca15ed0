package render

import (
	"context"
	"strings"

	"github.com/goliatone/go-formtree/pkg/interpreter"
)

// Renderer converts an interpreted form into a byte representation (HTML,
// terminal transcript, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form Form, options RenderOptions) ([]byte, error)
}

// Form is the renderer input: the interpreted units of a loaded schema plus
// the identifiers needed to post it back.
type Form struct {
	ID     string
	Title  string
	Action string
	Method string
	Units  []interpreter.Unit
}

// SubmitMethod returns the upper-cased method, defaulting to POST.
func (f Form) SubmitMethod() string {
	method := strings.ToUpper(strings.TrimSpace(f.Method))
	if method == "" {
		return "POST"
	}
	return method
}

// DisplayTitle falls back to the form identifier when no title is set.
func (f Form) DisplayTitle() string {
	if title := strings.TrimSpace(f.Title); title != "" {
		return title
	}
	return f.ID
}
