package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

var taxonomyKindPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validateSite,
		cv.validateBuild,
		cv.validateTaxonomies,
		cv.validateOutputs,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateSite() error {
	if cv.config.BaseURL == "" {
		return ferrors.ConfigError("base_url is required").Build()
	}
	u, err := url.Parse(cv.config.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ferrors.ConfigError("base_url must be an absolute URL").
			WithContext("base_url", cv.config.BaseURL).
			WithCause(err).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	if cv.config.Pagination.PageSize < 1 {
		return ferrors.ConfigError("pagination.page_size must be positive").
			WithContext("page_size", cv.config.Pagination.PageSize).
			Build()
	}
	if _, err := buildModeNormalizer.NormalizeWithError(string(cv.config.Build.Mode)); err != nil {
		return ferrors.ConfigError("invalid build.mode").WithCause(err).Build()
	}
	return nil
}

func (cv *configurationValidator) validateTaxonomies() error {
	seen := make(map[string]struct{}, len(cv.config.Taxonomies))
	for _, kind := range cv.config.Taxonomies {
		if !taxonomyKindPattern.MatchString(kind) {
			return ferrors.ConfigError(fmt.Sprintf("invalid taxonomy kind %q", kind)).Build()
		}
		if _, dup := seen[kind]; dup {
			return ferrors.ConfigError(fmt.Sprintf("duplicate taxonomy kind %q", kind)).Build()
		}
		seen[kind] = struct{}{}
	}
	for kind := range cv.config.DeclaredTerms {
		if !slices.Contains(cv.config.Taxonomies, kind) {
			return ferrors.ConfigError(fmt.Sprintf("declared_terms references unknown taxonomy %q", kind)).Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateOutputs() error {
	for _, f := range cv.config.Feeds.Formats {
		if _, err := feedFormatNormalizer.NormalizeWithError(string(f)); err != nil {
			return ferrors.ConfigError("invalid feeds.formats entry").WithCause(err).Build()
		}
	}
	if cv.config.Feeds.Limit < 0 {
		return ferrors.ConfigError("feeds.limit must not be negative").Build()
	}
	d, err := time.ParseDuration(cv.config.Schedule.Interval)
	if err != nil || d <= 0 {
		return ferrors.ConfigError("schedule.interval must be a positive duration").
			WithContext("interval", cv.config.Schedule.Interval).
			WithCause(err).
			Build()
	}
	return cv.config.CheckDirectories()
}

// CheckDirectories rejects an output directory that equals, contains or sits
// inside the content, static or theme directory. Publishing replaces the
// whole output tree.
func (c *Config) CheckDirectories() error {
	out, err := filepath.Abs(c.OutputPath())
	if err != nil {
		return ferrors.ConfigError("cannot resolve output.directory").WithCause(err).Build()
	}
	sources := []struct{ key, dir string }{
		{"content_dir", c.ContentPath()},
		{"static_dir", c.StaticPath()},
		{"theme_dir", c.ThemePath()},
	}
	for _, src := range sources {
		if src.dir == "" {
			continue
		}
		abs, err := filepath.Abs(src.dir)
		if err != nil {
			return ferrors.ConfigError("cannot resolve " + src.key).WithCause(err).Build()
		}
		if overlaps(out, abs) {
			return ferrors.ConfigError("output.directory overlaps "+src.key).
				WithContext("output", out).
				WithContext(src.key, abs).
				Build()
		}
	}
	return nil
}

// overlaps reports whether one of a and b is the other or an ancestor of it.
func overlaps(a, b string) bool {
	return within(a, b) || within(b, a)
}

func within(parent, p string) bool {
	rel, err := filepath.Rel(parent, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ScheduleInterval returns the parsed rebuild interval.
func (c *Config) ScheduleInterval() time.Duration {
	d, _ := time.ParseDuration(c.Schedule.Interval)
	return d
}
