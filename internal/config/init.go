package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Example returns the configuration written by `sitebuilder init`.
func Example() *Config {
	return &Config{
		BaseURL:     "https://example.com/",
		Title:       "My Blog",
		Description: "Notes and longer posts",
		Language:    "en",
		Author:      "Jane Doe",
		ContentDir:  DefaultContentDir,
		ThemeDir:    DefaultThemeDir,
		StaticDir:   DefaultStaticDir,
		Output:      OutputConfig{Directory: DefaultOutputDir},
		Pagination:  PaginationConfig{PageSize: DefaultPageSize},
		Build:       BuildConfig{Mode: BuildModeStrict},
		Taxonomies:  append([]string(nil), DefaultTaxonomies...),
		Feeds:       FeedsConfig{Formats: []FeedFormat{FeedRSS, FeedAtom}, Limit: DefaultFeedLimit},
		Logging:     LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Schedule:    ScheduleConfig{Interval: DefaultInterval},
	}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	// #nosec G306 -- configuration file is not secret
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
