// Package html renders interpreted forms as plain HTML: one fieldset per
// cluster and a native control per leaf. Markup comes from pongo2 templates
// embedded in the package; any of them can be overridden from disk.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formtree/pkg/render"
	rendertemplate "github.com/goliatone/go-formtree/pkg/render/template"
	"github.com/goliatone/go-formtree/pkg/render/template/gotemplate"
)

// DefaultSubmitLabel is the caption of the submit button.
const DefaultSubmitLabel = "Submit"

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	labelPolicy      *bluemonday.Policy
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithLabelPolicy replaces the policy used to strip markup from labels and
// diagnostics. The default removes every tag.
func WithLabelPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.labelPolicy = policy
		}
	}
}

// Renderer implements render.Renderer for HTML output.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	policy    *bluemonday.Policy
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.labelPolicy == nil {
		cfg.labelPolicy = bluemonday.StrictPolicy()
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		templates = engine
	}

	return &Renderer{templates: templates, policy: cfg.labelPolicy}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render writes the complete form element.
func (r *Renderer) Render(ctx context.Context, form render.Form, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	units := newUnitRenderer(r.templates, r.policy, options.Errors)
	var body strings.Builder
	for _, unit := range form.Units {
		markup, err := units.render(unit)
		if err != nil {
			return nil, fmt.Errorf("html renderer: %w", err)
		}
		body.WriteString(markup)
	}

	submitLabel := strings.TrimSpace(options.SubmitLabel)
	if submitLabel == "" {
		submitLabel = DefaultSubmitLabel
	}

	hidden := make([]any, 0, len(options.Hidden))
	for _, field := range render.SortedHiddenFields(options.Hidden) {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}
	formErrors := make([]any, 0, len(options.FormErrors))
	for _, message := range render.MergeFormErrors(options.FormErrors) {
		formErrors = append(formErrors, message)
	}
	notices := make([]any, 0, len(options.Notices))
	for _, message := range options.Notices {
		if message = strings.TrimSpace(message); message != "" {
			notices = append(notices, message)
		}
	}

	data := map[string]any{
		"form_id":      form.ID,
		"form_dom_id":  controlID("form." + form.ID),
		"title":        r.clean(form.DisplayTitle()),
		"method":       form.SubmitMethod(),
		"action":       form.Action,
		"hidden":       hidden,
		"form_errors":  formErrors,
		"notices":      notices,
		"submit_label": submitLabel,
		"body":         body.String(),
	}
	if cfg := options.Theme; cfg != nil {
		data["theme"] = cfg.Theme
		data["variant"] = cfg.Variant
		data["style"] = cssVarsStyle(cfg.CSSVars)
	}

	result, err := r.templates.RenderTemplate("templates/form", data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) clean(text string) string {
	return cleanText(r.policy, text)
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimSpace(key)
		value := strings.TrimSpace(vars[key])
		if name == "" || value == "" {
			continue
		}
		if !strings.HasPrefix(name, "--") {
			name = "--" + name
		}
		parts = append(parts, name+": "+value)
	}
	return strings.Join(parts, "; ")
}
