package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formtree/pkg/model"
)

var inspectFormat string

var inspectCmd = &cobra.Command{
	Use:   "inspect [form-id]",
	Short: "Print the resolved schema of a form, or list the forms",
	Long: `Print the schema a form resolves to, in the wire shape served by
/api/archetype/form/{id}. Without a form id, list the available forms.

Examples:
  formtree inspect
  formtree inspect openEHR-EHR-CLUSTER.vitals.v1 --format yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "json", "output format: json or yaml")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	src, err := buildSource(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		if src.lister == nil {
			return fmt.Errorf("source %q cannot list forms", cfg.Source.Kind)
		}
		out := cmd.OutOrStdout()
		for _, entry := range src.lister() {
			fmt.Fprintf(out, "%s\t%s\n", entry.ID, entry.Name)
		}
		return nil
	}

	schema, err := src.fetcher.FetchSchema(ctx, args[0])
	if err != nil {
		return fmt.Errorf("inspect %s: %w", args[0], err)
	}
	if err := model.Validate(schema); err != nil {
		logger.Warn().Err(err).Str("form_id", args[0]).Msg("schema does not validate")
	}
	data, err := encodeSchema(schema, inspectFormat)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func encodeSchema(schema model.Schema, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		return yaml.Marshal(schema)
	case "json", "":
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
