package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "sitebuilder.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("base_url: https://blog.example.org\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://blog.example.org/", cfg.BaseURL)
	assert.Equal(t, DefaultTitle, cfg.Title)
	assert.Equal(t, DefaultContentDir, cfg.ContentDir)
	assert.Equal(t, DefaultThemeDir, cfg.ThemeDir)
	assert.Equal(t, DefaultOutputDir, cfg.Output.Directory)
	assert.Equal(t, DefaultPageSize, cfg.Pagination.PageSize)
	assert.Equal(t, BuildModeStrict, cfg.Build.Mode)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Build.Workers)
	assert.Equal(t, []string{"tags", "categories"}, cfg.Taxonomies)
	assert.Equal(t, []FeedFormat{FeedRSS}, cfg.Feeds.Formats)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.False(t, cfg.IncludeDrafts())
}

func TestParse_ExplicitValues(t *testing.T) {
	cfg, err := Parse([]byte(`
base_url: https://blog.example.org/
title: Notes
pagination:
  page_size: 3
build:
  drafts: true
  mode: Lenient
  workers: 2
taxonomies: [Tags, series]
declared_terms:
  tags: [go]
feeds:
  formats: [atom, JSON]
  limit: 5
logging:
  level: DEBUG
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Pagination.PageSize)
	assert.True(t, cfg.IncludeDrafts())
	assert.True(t, cfg.Build.Lenient())
	assert.Equal(t, 2, cfg.Build.Workers)
	assert.Equal(t, []string{"tags", "series"}, cfg.Taxonomies)
	assert.Equal(t, []FeedFormat{FeedAtom, FeedJSON}, cfg.Feeds.Formats)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing base url", "title: x\n"},
		{"relative base url", "base_url: /blog\n"},
		{"negative page size", "base_url: https://a.b\npagination:\n  page_size: -1\n"},
		{"bad mode", "base_url: https://a.b\nbuild:\n  mode: sloppy\n"},
		{"bad taxonomy", "base_url: https://a.b\ntaxonomies: ['Has Space']\n"},
		{"duplicate taxonomy", "base_url: https://a.b\ntaxonomies: [tags, tags]\n"},
		{"declared unknown kind", "base_url: https://a.b\ndeclared_terms:\n  series: [x]\n"},
		{"bad feed", "base_url: https://a.b\nfeeds:\n  formats: [rdf]\n"},
		{"bad interval", "base_url: https://a.b\nschedule:\n  interval: soon\n"},
		{"invalid yaml", "base_url: [\n"},
		{"output is content", "base_url: https://a.b\noutput:\n  directory: content\n"},
		{"output inside content", "base_url: https://a.b\noutput:\n  directory: content/public\n"},
		{"output contains sources", "base_url: https://a.b\noutput:\n  directory: .\n"},
		{"output is static", "base_url: https://a.b\nstatic_dir: public\n"},
		{"theme inside output", "base_url: https://a.b\ntheme_dir: public/theme\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			require.Error(t, err)
			assert.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))
		})
	}
}

func TestLoad_ResolvesPathsAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SITEBUILDER_TEST_BASE=https://env.example.com\n"), 0o600))
	t.Setenv("SITEBUILDER_TEST_TITLE", "From Env")
	p := writeConfig(t, dir, "base_url: ${SITEBUILDER_TEST_BASE}\ntitle: ${SITEBUILDER_TEST_TITLE}\n")
	t.Cleanup(func() { _ = os.Unsetenv("SITEBUILDER_TEST_BASE") })

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/", cfg.BaseURL)
	assert.Equal(t, "From Env", cfg.Title)
	assert.Equal(t, filepath.Join(dir, "content"), cfg.ContentPath())
	assert.Equal(t, filepath.Join(dir, "public"), cfg.OutputPath())
	assert.Equal(t, "/abs/out", cfg.ResolvePath("/abs/out"))
}

func TestCheckDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := &Config{
		BaseDir:    base,
		ContentDir: "content",
		StaticDir:  "static",
		ThemeDir:   "theme",
		Output:     OutputConfig{Directory: "public"},
	}
	require.NoError(t, cfg.CheckDirectories())

	cfg.Output.Directory = "contents"
	require.NoError(t, cfg.CheckDirectories(), "sibling with a shared name prefix")

	cfg.Output.Directory = filepath.Join(base, "content")
	err := cfg.CheckDirectories()
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))
	assert.Contains(t, err.Error(), "content_dir")

	cfg.Output.Directory = "public"
	cfg.ThemeDir = filepath.Join(base, "public", "theme")
	err = cfg.CheckDirectories()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theme_dir")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sitebuilder.yaml")
	require.NoError(t, Init(p, false))
	require.Error(t, Init(p, false), "second init without force must fail")
	require.NoError(t, Init(p, true))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "My Blog", cfg.Title)
	assert.Equal(t, DefaultPageSize, cfg.Pagination.PageSize)
}
