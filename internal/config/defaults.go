package config

import (
	"runtime"
	"strings"
)

// Default values applied when the configuration omits a field.
const (
	DefaultTitle      = "Untitled Site"
	DefaultContentDir = "content"
	DefaultThemeDir   = "theme"
	DefaultStaticDir  = "static"
	DefaultOutputDir  = "public"
	DefaultPageSize   = 10
	DefaultFeedLimit  = 20
	DefaultSubject    = "sitebuilder.builds"
	DefaultInterval   = "1h"
)

// DefaultTaxonomies are indexed when the configuration lists none.
var DefaultTaxonomies = []string{"tags", "categories"}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// SiteDefaultApplier handles top-level site and directory defaults.
type SiteDefaultApplier struct{}

func (SiteDefaultApplier) Domain() string { return "site" }

func (SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.ContentDir == "" {
		cfg.ContentDir = DefaultContentDir
	}
	if cfg.ThemeDir == "" {
		cfg.ThemeDir = DefaultThemeDir
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = DefaultStaticDir
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.BaseURL != "" && !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	return nil
}

// BuildDefaultApplier handles build, pagination and taxonomy defaults.
type BuildDefaultApplier struct{}

func (BuildDefaultApplier) Domain() string { return "build" }

func (BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	// Zero means "not configured"; negative values are left for validation to reject.
	if cfg.Pagination.PageSize == 0 {
		cfg.Pagination.PageSize = DefaultPageSize
	}
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Build.Mode == "" {
		cfg.Build.Mode = BuildModeStrict
	} else if m, err := buildModeNormalizer.NormalizeWithError(string(cfg.Build.Mode)); err == nil {
		cfg.Build.Mode = m
	}
	if len(cfg.Taxonomies) == 0 {
		cfg.Taxonomies = append([]string(nil), DefaultTaxonomies...)
	}
	for i, k := range cfg.Taxonomies {
		cfg.Taxonomies[i] = strings.ToLower(strings.TrimSpace(k))
	}
	return nil
}

// OutputsDefaultApplier handles feeds, notification and schedule defaults.
type OutputsDefaultApplier struct{}

func (OutputsDefaultApplier) Domain() string { return "outputs" }

func (OutputsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.Feeds.Formats) == 0 {
		cfg.Feeds.Formats = []FeedFormat{FeedRSS}
	}
	for i, f := range cfg.Feeds.Formats {
		if n, err := feedFormatNormalizer.NormalizeWithError(string(f)); err == nil {
			cfg.Feeds.Formats[i] = n
		}
	}
	if cfg.Feeds.Limit == 0 {
		cfg.Feeds.Limit = DefaultFeedLimit
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultSubject
	}
	if cfg.Schedule.Interval == "" {
		cfg.Schedule.Interval = DefaultInterval
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

// defaultAppliers returns the ordered list of domain appliers.
func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		SiteDefaultApplier{},
		BuildDefaultApplier{},
		OutputsDefaultApplier{},
	}
}

// ApplyDefaults fills every unset field with its documented default.
func ApplyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
