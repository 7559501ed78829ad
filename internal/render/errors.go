package render

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

var (
	// ErrUnknownDirective means a body directive has no template or built-in.
	ErrUnknownDirective = errors.New("unknown directive")
	// ErrUnterminatedDirective means a {{< was never closed by >}}.
	ErrUnterminatedDirective = errors.New("unterminated directive")
	// ErrUnmatchedClose means a closing directive has no opening one.
	ErrUnmatchedClose = errors.New("closing directive without opening directive")
)

// RenderError is a failure to render one document or listing page.
type RenderError struct {
	// Path is the document source path, or the output path for generated pages.
	Path string
	// Directive is the body directive that failed, if any.
	Directive string
	// Template is the layout key that failed, if any.
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	switch {
	case e.Directive != "":
		return fmt.Sprintf("render %s: directive %q: %v", e.Path, e.Directive, e.Err)
	case e.Template != "":
		return fmt.Sprintf("render %s: template %s: %v", e.Path, e.Template, e.Err)
	default:
		return fmt.Sprintf("render %s: %v", e.Path, e.Err)
	}
}

func (e *RenderError) Unwrap() error { return e.Err }

// Category classifies the error for the CLI adapter.
func (e *RenderError) Category() ferrors.ErrorCategory { return ferrors.CategoryRender }
