// Package config loads the server and CLI configuration from YAML with
// FORMTREE_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceArchetypes = "archetypes"
	SourceDir        = "dir"
	SourceOpenAPI    = "openapi"
	SourceHTTP       = "http"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Source   SourceConfig   `yaml:"source"`
	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	Keys     KeysConfig     `yaml:"keys"`
	Theme    ThemeConfig    `yaml:"theme"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// SourceConfig selects where schemas come from.
type SourceConfig struct {
	// Kind is one of archetypes, dir, openapi or http.
	Kind string `yaml:"kind"`
	// Path is the archetype directory, schema directory or OpenAPI document.
	Path string `yaml:"path"`
	// Watch rescans the archetype directory on change.
	Watch bool `yaml:"watch"`
}

// BackendConfig points at a remote archetype API. It serves the http source
// and remote submissions from the CLI.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig configures the submission records store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

// KeysConfig names the identifying submission keys.
type KeysConfig struct {
	Form    string `yaml:"form"`
	Subject string `yaml:"subject"`
}

// ThemeConfig is passed to renderers that support theming.
type ThemeConfig struct {
	Name    string            `yaml:"name"`
	Variant string            `yaml:"variant"`
	Tokens  map[string]string `yaml:"tokens"`
	CSSVars map[string]string `yaml:"css_vars"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            9000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Source: SourceConfig{
			Kind: SourceArchetypes,
			Path: "openEHR_xml",
		},
		Backend: BackendConfig{
			Timeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "formtree.db",
		},
		Keys: KeysConfig{
			Form:    "archetypeId",
			Subject: "patientId",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads path on top of the defaults. An empty path yields the defaults.
// Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FORMTREE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FORMTREE_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FORMTREE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("FORMTREE_SOURCE_KIND"); v != "" {
		cfg.Source.Kind = v
	}
	if v := os.Getenv("FORMTREE_SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("FORMTREE_SOURCE_WATCH"); v != "" {
		cfg.Source.Watch = parseBool(v)
	}

	if v := os.Getenv("FORMTREE_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("FORMTREE_BACKEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FORMTREE_BACKEND_TIMEOUT: %w", err)
		}
		cfg.Backend.Timeout = d
	}

	if v := os.Getenv("FORMTREE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("FORMTREE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("FORMTREE_THEME_NAME"); v != "" {
		cfg.Theme.Name = v
	}
	if v := os.Getenv("FORMTREE_THEME_VARIANT"); v != "" {
		cfg.Theme.Variant = v
	}

	if v := os.Getenv("FORMTREE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FORMTREE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("FORMTREE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("FORMTREE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
	return nil
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	switch cfg.Source.Kind {
	case SourceArchetypes, SourceDir, SourceOpenAPI:
		if cfg.Source.Path == "" {
			return fmt.Errorf("source.path is required for source.kind %q", cfg.Source.Kind)
		}
	case SourceHTTP:
		if cfg.Backend.URL == "" {
			return fmt.Errorf("backend.url is required when source.kind is 'http'")
		}
	default:
		return fmt.Errorf("source.kind must be one of: archetypes, dir, openapi, http; got %q", cfg.Source.Kind)
	}

	validDrivers := map[string]bool{"sqlite": true, "sqlite3": true, "postgres": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'postgres', got %q", cfg.Database.Driver)
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'console' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Keys.Form == "" || cfg.Keys.Subject == "" {
		return fmt.Errorf("keys.form and keys.subject are required")
	}
	if cfg.Keys.Form == cfg.Keys.Subject {
		return fmt.Errorf("keys.form and keys.subject must differ")
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}
	return nil
}
