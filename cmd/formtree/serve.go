package main

import (
	"os/signal"
	"syscall"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formtree/internal/config"
	"github.com/goliatone/go-formtree/internal/records"
	"github.com/goliatone/go-formtree/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the form server",
	Long: `Start the HTTP server.

The server exposes:
  GET  /api/archetypes              form list
  GET  /api/archetype/form/{id}     form schema as JSON
  POST /api/ehr/save                store a submission
  GET  /api/ehr/records[/{id}]      stored submissions
  GET  /forms/{id}                  rendered HTML form
  GET  /metrics                     Prometheus metrics

Environment variables:
  FORMTREE_SERVER_PORT      - Server port (default: 9000)
  FORMTREE_SOURCE_KIND      - archetypes, dir, openapi or http
  FORMTREE_SOURCE_PATH      - Schema location
  FORMTREE_DATABASE_DSN     - Records database (default: formtree.db)

Examples:
  formtree serve --path ./openEHR_xml
  formtree serve --config formtree.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides server.host and server.port")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := buildSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if src.watch != nil {
		if err := src.watch(ctx); err != nil {
			logger.Warn().Err(err).Msg("schema watch disabled")
		}
	}

	store, err := records.Open(ctx, cfg.Database.Driver, cfg.Database.DSN,
		records.WithLogger(logger),
		records.WithKeys(keysFrom(cfg)),
	)
	if err != nil {
		return err
	}
	defer store.Close()

	options := []server.Option{
		server.WithKeys(keysFrom(cfg)),
		server.WithLogger(logger),
		server.WithTheme(themeFrom(cfg)),
	}
	if src.lister != nil {
		options = append(options, server.WithLister(src.lister))
	}
	if cfg.Metrics.Enabled {
		options = append(options, server.WithMetrics(server.NewMetrics(), cfg.Metrics.Path))
	}
	srv, err := server.New(src.fetcher, store, options...)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr()
	}
	return srv.ListenAndServe(ctx, addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout)
}

// themeFrom returns nil when no theme is configured.
func themeFrom(cfg *config.Config) *theme.RendererConfig {
	t := cfg.Theme
	if t.Name == "" && t.Variant == "" && len(t.Tokens) == 0 && len(t.CSSVars) == 0 {
		return nil
	}
	return &theme.RendererConfig{
		Theme:   t.Name,
		Variant: t.Variant,
		Tokens:  t.Tokens,
		CSSVars: t.CSSVars,
	}
}

