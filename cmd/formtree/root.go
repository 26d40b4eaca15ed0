package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formtree/internal/config"
)

var (
	cfgFile    string
	sourceKind string
	sourcePath string
	backendURL string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "formtree",
	Short: "Schema-driven forms for archetype backends",
	Long: `formtree turns form schemas into HTML forms, terminal prompts and
stored records.

Schemas come from a directory of archetype XML files, a directory of
JSON/YAML schema files, an OpenAPI document or a remote archetype API.

Commands:
  formtree serve     # HTTP API, HTML forms and metrics
  formtree render    # Print one form as HTML
  formtree fill      # Fill one form in the terminal and submit it
  formtree inspect   # Print the resolved schema`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	flags.StringVar(&sourceKind, "source", "", "schema source: archetypes, dir, openapi or http")
	flags.StringVar(&sourcePath, "path", "", "archetype directory, schema directory or OpenAPI document")
	flags.StringVar(&backendURL, "backend", "", "archetype API base URL")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if sourceKind != "" {
		cfg.Source.Kind = sourceKind
	}
	if sourcePath != "" {
		cfg.Source.Path = sourcePath
	}
	if backendURL != "" {
		cfg.Backend.URL = backendURL
		if sourceKind == "" && sourcePath == "" {
			cfg.Source.Kind = config.SourceHTTP
		}
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := config.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}
