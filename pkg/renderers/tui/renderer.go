// Package tui fills forms interactively in a terminal. Each editable unit is
// prompted in schema order; answers are emitted through the unit (reaching
// the bound state container, if any) and collected into a value tree that is
// serialized as the render output.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formtree/pkg/interpreter"
	"github.com/goliatone/go-formtree/pkg/render"
	"github.com/goliatone/go-formtree/pkg/values"
)

// Renderer implements render.Renderer for terminal sessions.
type Renderer struct {
	driver       PromptDriver
	out          io.Writer
	outputFormat OutputFormat
	theme        Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver themed like the
// notices, notices on stdout, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		out:          os.Stdout,
		outputFormat: OutputFormatJSON,
		theme:        DefaultTheme(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.theme)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for every editable unit and returns the collected tree.
// Submission feedback in options is shown before the first prompt.
func (r *Renderer) Render(ctx context.Context, form render.Form, options render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, ErrNoDriver
	}

	if title := form.DisplayTitle(); title != "" {
		if err := r.note(r.theme.SectionPrefix, title); err != nil {
			return nil, err
		}
	}
	for _, message := range render.MergeFormErrors(options.FormErrors) {
		if err := r.note(r.theme.ErrorPrefix, message); err != nil {
			return nil, err
		}
	}

	session := &session{renderer: r, errors: options.Errors, tree: defined(form.Units)}
	for _, unit := range form.Units {
		if err := session.prompt(ctx, unit); err != nil {
			return nil, err
		}
	}
	return r.serialize(session.tree)
}

type session struct {
	renderer *Renderer
	errors   map[string][]string
	tree     values.Tree
}

func (s *session) prompt(ctx context.Context, unit interpreter.Unit) error {
	r := s.renderer
	path := unit.Path.String()
	for _, message := range s.errors[path] {
		if err := r.note(r.theme.ErrorPrefix, path+": "+message); err != nil {
			return err
		}
	}

	switch unit.Control {
	case interpreter.ControlFieldset:
		if err := r.note(r.theme.SectionPrefix, displayLabel(unit)); err != nil {
			return err
		}
		for _, child := range unit.Children {
			if err := s.prompt(ctx, child); err != nil {
				return err
			}
		}
		return nil
	case interpreter.ControlSlot:
		return r.note(r.theme.InfoPrefix, fmt.Sprintf("%s (SLOT): allowed %s", displayLabel(unit), unit.Placeholder))
	case interpreter.ControlDiagnostic:
		return r.note(r.theme.ErrorPrefix, fmt.Sprintf("%s: %s", displayLabel(unit), unit.Diagnostic))
	case interpreter.ControlCheckbox:
		answer, err := r.driver.Boolean(ctx, promptFor(unit))
		if err != nil {
			return err
		}
		return s.store(unit, answer)
	case interpreter.ControlSelect:
		idx, err := r.driver.Choice(ctx, promptFor(unit))
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(unit.Options) {
			return fmt.Errorf("tui: %s: selection %d out of range", path, idx)
		}
		return s.store(unit, unit.Options[idx].Value)
	default:
		answer, err := r.driver.Text(ctx, promptFor(unit))
		if err != nil {
			return err
		}
		return s.store(unit, answer)
	}
}

// store records an answer locally and forwards it through the unit when the
// unit is bound to a sink. Answers equal to the current value are not edits,
// so clusters the user skips stay absent.
func (s *session) store(unit interpreter.Unit, value any) error {
	if unchanged(unit, value) {
		return nil
	}
	if unit.Editable() {
		if err := unit.Emit(value); err != nil {
			return fmt.Errorf("tui: %s: %w", unit.Path.String(), err)
		}
	}
	s.tree = values.SetAt(s.tree, unit.Path, value)
	return nil
}

func unchanged(unit interpreter.Unit, value any) bool {
	switch v := value.(type) {
	case bool:
		return v == unit.Checked()
	case string:
		return v == unit.Text()
	default:
		return false
	}
}

// defined collects the leaf values the form already holds.
func defined(units []interpreter.Unit) values.Tree {
	tree := values.Tree{}
	interpreter.Walk(units, func(unit interpreter.Unit) bool {
		if unit.Control != interpreter.ControlFieldset && unit.Value != nil {
			tree = values.SetAt(tree, unit.Path, unit.Value)
		}
		return true
	})
	return tree
}

// note writes one themed line to the renderer output.
func (r *Renderer) note(prefix, text string) error {
	if prefix != "" {
		text = prefix + " " + text
	}
	_, err := fmt.Fprintln(r.out, text)
	return err
}

func displayLabel(unit interpreter.Unit) string {
	label := strings.TrimSpace(unit.Label)
	if label == "" {
		label = unit.Name
	}
	if unit.Units != "" {
		label += " (" + unit.Units + ")"
	}
	return label
}

func inputHelp(unit interpreter.Unit) string {
	switch unit.Control {
	case interpreter.ControlDate:
		return "YYYY-MM-DD"
	case interpreter.ControlDateTime:
		return "YYYY-MM-DDTHH:MM"
	default:
		return ""
	}
}

func (r *Renderer) serialize(tree values.Tree) ([]byte, error) {
	if tree == nil {
		tree = values.Tree{}
	}
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		form := url.Values{}
		flatten("", tree, form)
		return []byte(form.Encode()), nil
	case OutputFormatPrettyText:
		var b strings.Builder
		writePretty(&b, "", tree)
		return []byte(b.String()), nil
	default:
		return json.Marshal(tree)
	}
}

func flatten(prefix string, value any, out url.Values) {
	if tree, ok := values.AsTree(value); ok {
		for key, val := range tree {
			flatten(joinKey(prefix, key), val, out)
		}
		return
	}
	out.Set(prefix, fmt.Sprint(value))
}

func writePretty(b *strings.Builder, prefix string, value any) {
	tree, ok := values.AsTree(value)
	if !ok {
		if prefix != "" {
			fmt.Fprintf(b, "%s=%v\n", prefix, value)
		}
		return
	}
	keys := make([]string, 0, len(tree))
	for key := range tree {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		writePretty(b, joinKey(prefix, key), tree[key])
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
