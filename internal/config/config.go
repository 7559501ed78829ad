package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Config is the site-wide configuration record for one build invocation.
type Config struct {
	BaseURL     string         `yaml:"base_url"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description,omitempty"`
	Language    string         `yaml:"language,omitempty"`
	Author      string         `yaml:"author,omitempty"`
	Params      map[string]any `yaml:"params,omitempty"`

	ContentDir string `yaml:"content_dir,omitempty"`
	ThemeDir   string `yaml:"theme_dir,omitempty"`
	StaticDir  string `yaml:"static_dir,omitempty"`

	Output     OutputConfig     `yaml:"output"`
	Pagination PaginationConfig `yaml:"pagination"`
	Build      BuildConfig      `yaml:"build"`

	// Taxonomies lists the taxonomy kinds to index (front matter keys).
	Taxonomies []string `yaml:"taxonomies,omitempty"`
	// DeclaredTerms lists terms per kind that always get an index page, even when empty.
	DeclaredTerms map[string][]string `yaml:"declared_terms,omitempty"`

	Markup   MarkupConfig   `yaml:"markup,omitempty"`
	Theme    ThemeConfig    `yaml:"theme,omitempty"`
	Feeds    FeedsConfig    `yaml:"feeds,omitempty"`
	Sitemap  SitemapConfig  `yaml:"sitemap,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty"`
	Notify   NotifyConfig   `yaml:"notify,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Schedule ScheduleConfig `yaml:"schedule,omitempty"`

	// BaseDir is the directory relative paths are resolved against
	// (the directory containing the configuration file).
	BaseDir string `yaml:"-"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// PaginationConfig controls listing page sizes.
type PaginationConfig struct {
	PageSize int `yaml:"page_size"`
}

// MarkupConfig controls Markdown conversion.
type MarkupConfig struct {
	// RawHTML lets raw HTML in Markdown pass through for every document.
	// Individual documents can opt in with `raw_html: true`.
	RawHTML bool `yaml:"raw_html"`
}

// ThemeConfig controls the template set.
type ThemeConfig struct {
	DisableBuiltinLayouts bool `yaml:"disable_builtin_layouts"`
}

// FeedsConfig controls feed generation.
type FeedsConfig struct {
	Formats []FeedFormat `yaml:"formats,omitempty"`
	Limit   int          `yaml:"limit,omitempty"`
}

// SitemapConfig controls sitemap.xml generation.
type SitemapConfig struct {
	Disabled bool `yaml:"disabled"`
}

// MetricsConfig controls Prometheus metric export.
type MetricsConfig struct {
	// Textfile, when set, receives the build metrics in Prometheus text format
	// (for node_exporter's textfile collector).
	Textfile string `yaml:"textfile,omitempty"`
}

// HistoryConfig controls the build history event store.
type HistoryConfig struct {
	Database string `yaml:"database,omitempty"`
}

// NotifyConfig controls build result notifications.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// ScheduleConfig controls periodic rebuilds.
type ScheduleConfig struct {
	Interval string `yaml:"interval,omitempty"`
}

// Load loads, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	baseDir := filepath.Dir(configPath)
	loadEnvFiles(baseDir)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").Fatal().Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}
	cfg.BaseDir = absBase
	return cfg, nil
}

// Parse decodes configuration bytes (after environment expansion), applies
// defaults and validates the result. BaseDir is left empty.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolvePath resolves p against BaseDir unless it is absolute.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// ContentPath returns the resolved content directory.
func (c *Config) ContentPath() string { return c.ResolvePath(c.ContentDir) }

// ThemePath returns the resolved theme directory.
func (c *Config) ThemePath() string { return c.ResolvePath(c.ThemeDir) }

// StaticPath returns the resolved site static directory.
func (c *Config) StaticPath() string { return c.ResolvePath(c.StaticDir) }

// OutputPath returns the resolved output directory.
func (c *Config) OutputPath() string { return c.ResolvePath(c.Output.Directory) }

// IncludeDrafts reports whether the build runs in preview mode.
func (c *Config) IncludeDrafts() bool { return c.Build.Drafts }

// loadEnvFiles loads .env/.env.local next to the configuration file.
// Existing process environment variables are not overwritten.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load environment file", "path", p, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", p)
	}
}
