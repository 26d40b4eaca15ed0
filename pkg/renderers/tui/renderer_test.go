package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtree/pkg/interpreter"
	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/render"
	"github.com/goliatone/go-formtree/pkg/state"
	"github.com/goliatone/go-formtree/pkg/values"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	inputDefault []string
	inputPos     int
	selectPos    int
	confirmPos   int
}

func (s *stubDriver) Text(_ context.Context, prompt Prompt) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.inputDefault = append(s.inputDefault, prompt.Default)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Boolean(_ context.Context, _ Prompt) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Choice(_ context.Context, _ Prompt) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func intakeSchema() model.Schema {
	return model.Schema{
		{Kind: model.KindNumber, Name: "age", Label: "Age", Units: "a"},
		{Kind: model.KindBoolean, Name: "smoker", Label: "Smoker"},
		{Kind: model.KindChoice, Name: "severity", Label: "Severity", Options: []model.Option{
			{Value: "at0001", Label: "Mild"},
			{Value: "at0002", Label: "Severe"},
		}},
		{Kind: model.KindCluster, Name: "address", Label: "Address", Children: []model.FieldNode{
			{Kind: model.KindText, Name: "city", Label: "City"},
		}},
		{Kind: model.KindSlot, Name: "device", Label: "Device", AllowedPlaceholder: "any"},
		{Kind: model.KindUnknown, RawKind: "DV_PARSABLE", Name: "raw", Label: "Raw"},
	}
}

func TestRender_CollectsTree(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"42", "Oslo"},
		confirm:   []bool{true},
		selectIdx: []int{2},
	}
	var notes bytes.Buffer
	r, err := New(WithPromptDriver(driver), WithTheme(PlainTheme()), WithOutput(&notes))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	form := render.Form{ID: "intake", Units: interpreter.Interpret(intakeSchema(), nil, nil)}
	out, err := r.Render(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := `{"address":{"city":"Oslo"},"age":"42","severity":"at0002","smoker":true}`
	if string(out) != want {
		t.Fatalf("output mismatch\nwant: %s\n got: %s", want, out)
	}

	wantNotes := "> intake\n> Address\n- Device (SLOT): allowed any\n! Raw: Unsupported field type: DV_PARSABLE\n"
	if diff := cmp.Diff(wantNotes, notes.String()); diff != "" {
		t.Fatalf("notes mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_EmitsIntoContainer(t *testing.T) {
	container := state.New()
	if err := container.Load(intakeSchema()); err != nil {
		t.Fatalf("load: %v", err)
	}
	driver := &stubDriver{
		inputs:    []string{"", "Bergen"},
		confirm:   []bool{false},
		selectIdx: []int{0},
	}
	r, err := New(WithPromptDriver(driver), WithTheme(PlainTheme()), WithOutput(io.Discard), WithOutputFormat(OutputFormatPrettyText))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.Render(context.Background(), render.Form{Units: container.Form()}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := values.Tree{
		"smoker":  false,
		"address": values.Tree{"city": "Bergen"},
	}
	if diff := cmp.Diff(want, container.CurrentValues()); diff != "" {
		t.Fatalf("container values mismatch (-want +got):\n%s", diff)
	}
	wantText := "address.city=Bergen\nsmoker=false\n"
	if string(out) != wantText {
		t.Fatalf("pretty output mismatch\nwant: %q\n got: %q", wantText, out)
	}
}

func TestRender_SkippedClusterStaysAbsent(t *testing.T) {
	schema := model.Schema{
		{Kind: model.KindNumber, Name: "age", Label: "Age"},
		{Kind: model.KindCluster, Name: "address", Label: "Address", Children: []model.FieldNode{
			{Kind: model.KindText, Name: "city", Label: "City"},
			{Kind: model.KindBoolean, Name: "verified", Label: "Verified"},
		}},
	}
	container := state.New()
	if err := container.Load(schema); err != nil {
		t.Fatalf("load: %v", err)
	}
	driver := &stubDriver{
		inputs:  []string{"34", ""},
		confirm: []bool{false},
	}
	r, err := New(WithPromptDriver(driver), WithTheme(PlainTheme()), WithOutput(io.Discard))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.Render(context.Background(), render.Form{Units: container.Form()}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if diff := cmp.Diff(values.Tree{"age": "34"}, container.CurrentValues()); diff != "" {
		t.Fatalf("container values mismatch (-want +got):\n%s", diff)
	}
	if string(out) != `{"age":"34"}` {
		t.Fatalf("output = %s", out)
	}
}

func TestRender_PrefillsDefaultsAndShowsErrors(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"43", "Oslo"},
		confirm:   []bool{false},
		selectIdx: []int{2},
	}
	var notes bytes.Buffer
	r, _ := New(WithPromptDriver(driver), WithTheme(PlainTheme()), WithOutput(&notes), WithOutputFormat(OutputFormatFormURLEncoded))

	tree := values.Tree{"age": "42", "address": values.Tree{"city": "Osl"}}
	out, err := r.Render(context.Background(), render.Form{Units: interpreter.Interpret(intakeSchema(), tree, nil)}, render.RenderOptions{
		Errors:     map[string][]string{"address.city": {"City is misspelled"}},
		FormErrors: []string{"Submission failed"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if diff := cmp.Diff([]string{"42", "Osl"}, driver.inputDefault); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	for _, fragment := range []string{"! Submission failed\n", "! address.city: City is misspelled\n"} {
		if !strings.Contains(notes.String(), fragment) {
			t.Fatalf("expected note %q in:\n%s", fragment, notes.String())
		}
	}
	want := "address.city=Oslo&age=43&severity=at0001"
	if string(out) != want {
		t.Fatalf("form output mismatch\nwant: %s\n got: %s", want, out)
	}
	if r.ContentType() != "application/x-www-form-urlencoded" {
		t.Fatalf("content type = %s", r.ContentType())
	}
}

func TestRender_StopsOnDriverError(t *testing.T) {
	r, _ := New(WithPromptDriver(&stubDriver{}), WithOutput(io.Discard))
	form := render.Form{Units: interpreter.Interpret(intakeSchema(), nil, nil)}
	if _, err := r.Render(context.Background(), form, render.RenderOptions{}); err == nil {
		t.Fatalf("expected driver error")
	}
}

func TestPromptFor(t *testing.T) {
	tree := values.Tree{"severity": "at0002", "smoker": true}
	units := interpreter.Interpret(intakeSchema(), tree, nil)

	severity, _ := interpreter.Find(units, "severity")
	want := Prompt{
		Path:     "severity",
		Label:    "Severity",
		Default:  "at0002",
		Options:  []string{interpreter.DefaultSentinelLabel, "Mild", "Severe"},
		Selected: 2,
	}
	if diff := cmp.Diff(want, promptFor(severity)); diff != "" {
		t.Fatalf("choice prompt mismatch (-want +got):\n%s", diff)
	}

	age, _ := interpreter.Find(units, "age")
	if got := promptFor(age); got.Label != "Age (a)" || got.Default != "" || got.Options != nil {
		t.Fatalf("age prompt = %+v", got)
	}
	smoker, _ := interpreter.Find(units, "smoker")
	if got := promptFor(smoker); !got.Checked {
		t.Fatalf("smoker prompt should be checked: %+v", got)
	}
}

func TestParseOutputFormat(t *testing.T) {
	cases := map[string]OutputFormat{
		"json":   OutputFormatJSON,
		"form":   OutputFormatFormURLEncoded,
		"pretty": OutputFormatPrettyText,
		"yaml":   OutputFormatJSON,
	}
	for raw, want := range cases {
		if got := ParseOutputFormat(raw); got != want {
			t.Fatalf("ParseOutputFormat(%q) = %s, want %s", raw, got, want)
		}
	}
}
