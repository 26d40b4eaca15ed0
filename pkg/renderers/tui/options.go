package tui

import (
	"io"

	"github.com/fatih/color"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits dotted keys as
	// application/x-www-form-urlencoded.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits one path=value line per leaf.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// ParseOutputFormat maps a flag value to an OutputFormat, defaulting to JSON.
func ParseOutputFormat(raw string) OutputFormat {
	switch OutputFormat(raw) {
	case OutputFormatFormURLEncoded, OutputFormatPrettyText:
		return OutputFormat(raw)
	default:
		return OutputFormatJSON
	}
}

// Theme captures the prefixes printed before informational lines.
type Theme struct {
	SectionPrefix string
	InfoPrefix    string
	ErrorPrefix   string
}

// DefaultTheme colours prefixes when the terminal supports it; fatih/color
// disables colour automatically for non-TTY output.
func DefaultTheme() Theme {
	return Theme{
		SectionPrefix: color.New(color.FgCyan, color.Bold).Sprint("▸"),
		InfoPrefix:    color.New(color.FgHiBlack).Sprint("·"),
		ErrorPrefix:   color.New(color.FgRed, color.Bold).Sprint("!"),
	}
}

// PlainTheme uses ASCII prefixes without colour.
func PlainTheme() Theme {
	return Theme{SectionPrefix: ">", InfoPrefix: "-", ErrorPrefix: "!"}
}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sets where titles, section headings and feedback are written.
// Prompts are drawn by the driver.
func WithOutput(w io.Writer) Option {
	return func(r *Renderer) {
		if w != nil {
			r.out = w
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithTheme applies message prefixes to notices and, for the default
// driver, to prompts.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}
