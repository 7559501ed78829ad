// Package frontmatter separates a delimited metadata block from a document
// body and decodes it into line-annotated fields.
//
// Two block styles are recognised at the very start of a file:
//
//	---            +++
//	yaml: here     toml = "here"
//	---            +++
//
// The opening delimiter must be the first line and the same delimiter must
// close the block on a line of its own. Everything after the closing line is
// the body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
)

// Format identifies the front matter syntax.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// ErrMissingClosingDelimiter indicates the document started with a
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// SyntaxError reports a problem inside the front matter block. Line is the
// 1-based line in the source file.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *SyntaxError) Unwrap() error { return e.Err }

// Block is the raw front matter split from a document.
type Block struct {
	Format Format
	Raw    []byte
	// StartLine is the file line holding the first byte of Raw.
	StartLine int
	// BodyLine is the file line the body starts on.
	BodyLine int
}

// Split separates front matter from the body.
//
// If the document does not start with a delimiter, the returned block has
// FormatNone and body is the full input (minus a byte order mark).
func Split(content []byte) (Block, []byte, error) {
	content = bytes.TrimPrefix(content, bom)

	first, rest, hasNewline := cutLine(content)
	var format Format
	switch string(first) {
	case "---":
		format = FormatYAML
	case "+++":
		format = FormatTOML
	default:
		return Block{BodyLine: 1}, content, nil
	}
	if !hasNewline {
		return Block{}, nil, &SyntaxError{Line: 1, Err: ErrMissingClosingDelimiter}
	}

	start := len(content) - len(rest)
	offset := start
	line := 2
	for {
		current, next, more := cutLine(content[offset:])
		if string(current) == string(first) {
			bodyStart := len(content) - len(next)
			if !more {
				bodyStart = len(content)
			}
			return Block{
				Format:    format,
				Raw:       content[start:offset],
				StartLine: 2,
				BodyLine:  line + 1,
			}, content[bodyStart:], nil
		}
		if !more {
			return Block{}, nil, &SyntaxError{Line: 1, Err: ErrMissingClosingDelimiter}
		}
		offset = len(content) - len(next)
		line++
	}
}

// cutLine returns the first line (without its terminator and any trailing
// \r or spaces), the remainder after the terminator, and whether a newline
// was found.
func cutLine(b []byte) (line, rest []byte, found bool) {
	idx := bytes.IndexByte(b, '\n')
	if idx < 0 {
		return bytes.TrimRight(b, "\r \t"), nil, false
	}
	return bytes.TrimRight(b[:idx], "\r \t"), b[idx+1:], true
}
