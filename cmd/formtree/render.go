package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formtree/pkg/orchestrator"
	"github.com/goliatone/go-formtree/pkg/render"
)

var (
	renderSubject string
	renderAction  string
	renderOutput  string
)

var renderCmd = &cobra.Command{
	Use:   "render <form-id>",
	Short: "Render one form as HTML",
	Long: `Render a form to HTML without starting the server.

Examples:
  formtree render openEHR-EHR-CLUSTER.vitals.v1
  formtree render vitals --source dir --path ./schemas --output vitals.html`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderSubject, "subject", "", "subject identifier added as a hidden field")
	renderCmd.Flags().StringVar(&renderAction, "action", "", "form action URL (default /forms/<form-id>)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (stdout if empty)")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	src, err := buildSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	gen := orchestrator.New(
		orchestrator.WithFetcher(src.fetcher),
		orchestrator.WithKeys(keysFrom(cfg)),
		orchestrator.WithLogger(logger),
	)

	formID := args[0]
	action := renderAction
	if action == "" {
		action = "/forms/" + formID
	}
	output, _, err := gen.Generate(ctx, orchestrator.Request{
		FormID:        formID,
		Subject:       renderSubject,
		Title:         titleOf(src, formID),
		Action:        action,
		RenderOptions: render.RenderOptions{Theme: themeFrom(cfg)},
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", formID, err)
	}

	if renderOutput == "" {
		_, err = cmd.OutOrStdout().Write(output)
		return err
	}
	if err := os.WriteFile(renderOutput, output, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info().Str("form_id", formID).Str("path", renderOutput).Msg("form written")
	return nil
}

func titleOf(src *source, formID string) string {
	if src.lister == nil {
		return ""
	}
	for _, entry := range src.lister() {
		if entry.ID == formID && entry.Name != formID {
			return entry.Name
		}
	}
	return ""
}
