package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pathError struct{ path string }

func (e *pathError) Error() string           { return "bad file " + e.path }
func (e *pathError) Category() ErrorCategory { return CategoryParse }

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "sitebuilder.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "sitebuilder.yaml", file)
	})

	t.Run("Wrapping keeps cause", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := WrapError(cause, CategoryFileSystem, "write page").Build()
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("WithContext does not mutate original", func(t *testing.T) {
		base := ConfigError("x").Build()
		derived := base.WithContext("k", "v")
		_, ok := base.Context().Get("k")
		assert.False(t, ok)
		v, ok := derived.Context().GetString("k")
		assert.True(t, ok)
		assert.Equal(t, "v", v)
	})
}

func TestGetCategory(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", &pathError{path: "posts/a.md"})
	assert.Equal(t, CategoryParse, GetCategory(wrapped))
	assert.True(t, HasCategory(wrapped, CategoryParse))
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	assert.Equal(t, CategoryConfig, GetCategory(fmt.Errorf("ctx: %w", ConfigError("bad").Build())))
	assert.False(t, HasCategory(nil, CategoryInternal))
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"parse", &pathError{path: "a.md"}, 3},
		{"config", ConfigError("bad config").Build(), 7},
		{"filesystem", FileSystemError("rename").Build(), 11},
		{"unclassified", stderrors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil))).WithOutput(&buf)

	code := adapter.Report(ConfigError("missing base_url").WithCause(stderrors.New("detail")).Build())
	assert.Equal(t, 7, code)
	assert.Equal(t, "Error: missing base_url\n", buf.String())

	buf.Reset()
	verbose := NewCLIErrorAdapter(true, slog.New(slog.NewTextHandler(io.Discard, nil))).WithOutput(&buf)
	verbose.Report(ConfigError("missing base_url").WithCause(stderrors.New("detail")).Build())
	assert.Contains(t, buf.String(), "detail")
}
