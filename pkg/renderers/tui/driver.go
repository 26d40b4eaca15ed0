package tui

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-formtree/pkg/interpreter"
)

// Prompt is the question asked for one editable unit. Default carries the
// unit's current text and Checked its boolean state. For choices, Options
// lists every label including the "no selection" entry and Selected indexes
// the current one.
type Prompt struct {
	Path     string
	Label    string
	Help     string
	Default  string
	Checked  bool
	Options  []string
	Selected int
}

// PromptDriver asks prompts on a terminal. The renderer owns everything else
// written to the user, so drivers only collect answers.
type PromptDriver interface {
	Text(ctx context.Context, prompt Prompt) (string, error)
	Boolean(ctx context.Context, prompt Prompt) (bool, error)
	Choice(ctx context.Context, prompt Prompt) (int, error)
}

func promptFor(unit interpreter.Unit) Prompt {
	prompt := Prompt{
		Path:    unit.Path.String(),
		Label:   displayLabel(unit),
		Help:    inputHelp(unit),
		Default: unit.Text(),
		Checked: unit.Checked(),
	}
	if unit.Control != interpreter.ControlSelect {
		return prompt
	}
	selected := unit.Selected()
	prompt.Options = make([]string, len(unit.Options))
	for i, choice := range unit.Options {
		prompt.Options[i] = choice.Label
		if choice == selected {
			prompt.Selected = i
		}
	}
	return prompt
}

// surveyDriver asks through survey, marking questions with the theme's
// section prefix.
type surveyDriver struct {
	icons survey.AskOpt
}

func newSurveyDriver(theme Theme) *surveyDriver {
	return &surveyDriver{icons: survey.WithIcons(func(icons *survey.IconSet) {
		if theme.SectionPrefix != "" {
			icons.Question.Text = theme.SectionPrefix
			icons.Question.Format = ""
		}
		if theme.ErrorPrefix != "" {
			icons.Error.Text = theme.ErrorPrefix
			icons.Error.Format = ""
		}
	})}
}

func (d *surveyDriver) Text(ctx context.Context, prompt Prompt) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Input{Message: prompt.Label, Help: prompt.Help, Default: prompt.Default}, &answer)
	return answer, err
}

func (d *surveyDriver) Boolean(ctx context.Context, prompt Prompt) (bool, error) {
	var answer bool
	err := d.ask(ctx, &survey.Confirm{Message: prompt.Label, Help: prompt.Help, Default: prompt.Checked}, &answer)
	return answer, err
}

func (d *surveyDriver) Choice(ctx context.Context, prompt Prompt) (int, error) {
	question := &survey.Select{Message: prompt.Label, Help: prompt.Help, Options: prompt.Options}
	if prompt.Selected < len(prompt.Options) {
		question.Default = prompt.Options[prompt.Selected]
	}
	// survey answers a Select into an int as the chosen index.
	var answer int
	if err := d.ask(ctx, question, &answer); err != nil {
		return -1, err
	}
	return answer, nil
}

// ask runs one survey question. Ctrl+C surfaces as ErrAborted.
func (d *surveyDriver) ask(ctx context.Context, question survey.Prompt, answer any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := survey.AskOne(question, answer, d.icons)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
