package html

import (
	"fmt"
	stdhtml "html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formtree/pkg/interpreter"
	rendertemplate "github.com/goliatone/go-formtree/pkg/render/template"
)

// unitRenderer turns interpreted units into markup, recursing into cluster
// children.
type unitRenderer struct {
	templates rendertemplate.TemplateRenderer
	policy    *bluemonday.Policy
	errors    map[string][]string
}

func newUnitRenderer(templates rendertemplate.TemplateRenderer, policy *bluemonday.Policy, errors map[string][]string) *unitRenderer {
	return &unitRenderer{templates: templates, policy: policy, errors: errors}
}

func (r *unitRenderer) render(unit interpreter.Unit) (string, error) {
	path := unit.Path.String()
	id := controlID(path)

	if unit.Control == interpreter.ControlFieldset {
		var children strings.Builder
		for _, child := range unit.Children {
			markup, err := r.render(child)
			if err != nil {
				return "", err
			}
			children.WriteString(markup)
		}
		return r.component("fieldset", path, map[string]any{
			"id":       id,
			"path":     path,
			"label":    r.label(unit),
			"children": children.String(),
		})
	}

	name, data := r.control(unit, id)
	markup, err := r.component(name, path, data)
	if err != nil {
		return "", err
	}

	var messages []any
	for _, message := range r.errors[path] {
		messages = append(messages, message)
	}
	return r.component("field", path, map[string]any{
		"id":        id,
		"path":      path,
		"control":   name,
		"label":     r.label(unit),
		"label_for": name != "diagnostic",
		"markup":    markup,
		"errors":    messages,
	})
}

func (r *unitRenderer) control(unit interpreter.Unit, id string) (string, map[string]any) {
	name := unit.Path.String()
	switch unit.Control {
	case interpreter.ControlCheckbox:
		return "checkbox", map[string]any{
			"id":      id,
			"name":    name,
			"checked": unit.Checked(),
		}
	case interpreter.ControlSelect:
		selected := unit.Selected()
		options := make([]any, 0, len(unit.Options))
		for _, choice := range unit.Options {
			options = append(options, map[string]any{
				"value":    choice.Value,
				"label":    cleanText(r.policy, choice.Label),
				"selected": choice == selected,
			})
		}
		return "select", map[string]any{
			"id":      id,
			"name":    name,
			"options": options,
		}
	case interpreter.ControlSlot:
		return "slot", map[string]any{
			"id":          id,
			"placeholder": unit.Placeholder,
		}
	case interpreter.ControlDiagnostic:
		return "diagnostic", map[string]any{
			"message": cleanText(r.policy, unit.Diagnostic),
		}
	default:
		data := map[string]any{
			"id":    id,
			"name":  name,
			"type":  unit.Control.InputType(),
			"value": unit.Text(),
			"units": unit.Units,
		}
		if unit.Step > 0 {
			data["step"] = strconv.Itoa(unit.Step)
		}
		return "input", data
	}
}

func (r *unitRenderer) component(name, path string, data map[string]any) (string, error) {
	out, err := r.templates.RenderTemplate("templates/components/"+name, data)
	if err != nil {
		return "", fmt.Errorf("render %s for %q: %w", name, path, err)
	}
	return out, nil
}

func (r *unitRenderer) label(unit interpreter.Unit) string {
	label := cleanText(r.policy, unit.Label)
	if label == "" {
		label = unit.Name
	}
	switch {
	case unit.Control == interpreter.ControlSlot:
		return label + " (SLOT)"
	case unit.Units != "":
		return label + " (" + cleanText(r.policy, unit.Units) + ")"
	default:
		return label
	}
}

// cleanText strips markup and returns plain text; the templates escape it
// again on output.
func cleanText(policy *bluemonday.Policy, text string) string {
	if policy == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(stdhtml.UnescapeString(policy.Sanitize(text)))
}

func controlID(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	return "ft-" + strings.NewReplacer(".", "-", " ", "-").Replace(trimmed)
}
