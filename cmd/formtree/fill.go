package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formtree/internal/records"
	"github.com/goliatone/go-formtree/pkg/orchestrator"
	"github.com/goliatone/go-formtree/pkg/render"
	"github.com/goliatone/go-formtree/pkg/renderers/tui"
	"github.com/goliatone/go-formtree/pkg/transport"
)

const (
	submitAuto   = "auto"
	submitLocal  = "local"
	submitRemote = "remote"
	submitNone   = "none"
)

var (
	fillSubject string
	fillSubmit  string
	fillFormat  string
	fillPlain   bool
)

var fillCmd = &cobra.Command{
	Use:   "fill <form-id>",
	Short: "Fill one form in the terminal and submit it",
	Long: `Prompt for every field of a form and submit the result.

Submission targets:
  local   store the record in the configured database
  remote  POST to the archetype API at backend.url
  none    only print the collected values
  auto    remote when backend.url is set, local otherwise

Examples:
  formtree fill openEHR-EHR-CLUSTER.vitals.v1 --subject PAT-1
  formtree fill vitals --backend http://localhost:5000 --submit remote`,
	Args: cobra.ExactArgs(1),
	RunE: runFill,
}

func init() {
	rootCmd.AddCommand(fillCmd)

	fillCmd.Flags().StringVar(&fillSubject, "subject", "", "subject identifier sent with the submission")
	fillCmd.Flags().StringVar(&fillSubmit, "submit", submitAuto, "submission target: auto, local, remote or none")
	fillCmd.Flags().StringVar(&fillFormat, "format", "pretty", "printed values format: json, form or pretty")
	fillCmd.Flags().BoolVar(&fillPlain, "plain", false, "disable coloured prompts")
}

func runFill(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	formID := args[0]

	src, err := buildSource(ctx, cfg, logger)
	if err != nil {
		return err
	}

	theme := tui.DefaultTheme()
	if fillPlain {
		color.NoColor = true
		theme = tui.PlainTheme()
	}
	terminal, err := tui.New(
		tui.WithTheme(theme),
		tui.WithOutput(cmd.ErrOrStderr()),
		tui.WithOutputFormat(tui.ParseOutputFormat(fillFormat)),
	)
	if err != nil {
		return err
	}
	registry := render.NewRegistry()
	registry.MustRegister(terminal)

	options := []orchestrator.Option{
		orchestrator.WithFetcher(src.fetcher),
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(terminal.Name()),
		orchestrator.WithKeys(keysFrom(cfg)),
		orchestrator.WithLogger(logger),
	}
	target := fillSubmit
	if target == submitAuto {
		target = submitLocal
		if cfg.Backend.URL != "" {
			target = submitRemote
		}
	}
	switch target {
	case submitLocal:
		store, err := records.Open(ctx, cfg.Database.Driver, cfg.Database.DSN,
			records.WithLogger(logger),
			records.WithKeys(keysFrom(cfg)),
		)
		if err != nil {
			return err
		}
		defer store.Close()
		options = append(options, orchestrator.WithSubmitter(store))
	case submitRemote:
		client, err := newBackendClient(cfg, logger)
		if err != nil {
			return err
		}
		options = append(options, orchestrator.WithSubmitter(client))
	case submitNone:
	default:
		return fmt.Errorf("unknown submission target %q", fillSubmit)
	}
	gen := orchestrator.New(options...)

	req := orchestrator.Request{FormID: formID, Subject: fillSubject, Title: titleOf(src, formID)}
	collected, session, err := gen.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("fill %s: %w", formID, err)
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(collected); err != nil {
		return err
	}
	if target == submitNone {
		return nil
	}

	result, err := gen.Submit(ctx, session)
	if err != nil {
		var subErr *transport.SubmissionError
		if errors.As(err, &subErr) {
			fmt.Fprintf(out, "%s %s\n", theme.ErrorPrefix, subErr.Description)
			mapping := render.MapErrorPayload(session.Container.Form(), subErr.Fields)
			for _, path := range slices.Sorted(maps.Keys(mapping.Fields)) {
				for _, message := range mapping.Fields[path] {
					fmt.Fprintf(out, "  %s: %s\n", path, message)
				}
			}
			for _, message := range mapping.Form {
				fmt.Fprintf(out, "  %s\n", message)
			}
		}
		return err
	}
	fmt.Fprintf(out, "%s record %s stored for %s\n", theme.InfoPrefix, result.RecordID, formID)
	return nil
}
