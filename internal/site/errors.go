package site

import (
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// WriteError is a filesystem failure while publishing the output. The
// previously published output is left in place.
type WriteError struct {
	// Path is the output-relative file, or the output directory for the swap.
	Path  string
	Cause error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Cause) }

func (e *WriteError) Unwrap() error { return e.Cause }

// Category classifies the error for the CLI adapter.
func (e *WriteError) Category() ferrors.ErrorCategory { return ferrors.CategoryFileSystem }

// RenderFailures aggregates every page that failed in a lenient build.
// Failures are sorted by path.
type RenderFailures struct {
	Failures []*render.RenderError
}

func (e *RenderFailures) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d page(s) failed to render:", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("\n  ")
		b.WriteString(f.Error())
	}
	return b.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *RenderFailures) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f
	}
	return out
}

// Paths returns the path of every failed page.
func (e *RenderFailures) Paths() []string {
	out := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Path
	}
	return out
}

// Category classifies the error for the CLI adapter.
func (e *RenderFailures) Category() ferrors.ErrorCategory { return ferrors.CategoryRender }
