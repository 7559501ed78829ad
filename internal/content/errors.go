package content

import (
	"fmt"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// ParseError reports a malformed content file. Line is 1-based; zero means
// the problem is not tied to a single line.
type ParseError struct {
	Path  string
	Line  int
	Cause error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %v", e.Path, e.Line, e.Cause)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Category classifies the error for the CLI adapter.
func (e *ParseError) Category() ferrors.ErrorCategory { return ferrors.CategoryParse }
