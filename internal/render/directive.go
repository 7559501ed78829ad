package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

var (
	openDelim  = []byte("{{<")
	closeDelim = []byte(">}}")
)

// directive is one body directive call. Positional arguments are stored
// under "0", "1", ... in params.
type directive struct {
	name   string
	params map[string]string
	order  []string
	inner  []byte
	paired bool
}

// segment is either literal text or a directive call.
type segment struct {
	text []byte
	call *directive
}

type directiveToken struct {
	start, end int
	closing    bool
	call       *directive
	// pair is the index of the matching closing token.
	pair     int
	consumed bool
}

type directiveError struct {
	name string
	err  error
}

func (e *directiveError) Error() string { return fmt.Sprintf("directive %q: %v", e.name, e.err) }
func (e *directiveError) Unwrap() error { return e.err }

// splitDirectives breaks body into text and directive segments. A closing
// directive pairs with the nearest unclosed opening directive of the same
// name, and everything between them becomes the call's inner content.
func splitDirectives(body []byte) ([]segment, error) {
	tokens, err := tokenizeDirectives(body)
	if err != nil {
		return nil, err
	}

	var stack []int
	for i := range tokens {
		tok := &tokens[i]
		if !tok.closing {
			stack = append(stack, i)
			continue
		}
		match := -1
		for s := len(stack) - 1; s >= 0; s-- {
			if tokens[stack[s]].call.name == tok.call.name {
				match = s
				break
			}
		}
		if match < 0 {
			return nil, &directiveError{name: tok.call.name, err: ErrUnmatchedClose}
		}
		open := &tokens[stack[match]]
		open.call.paired = true
		open.call.inner = body[open.end:tok.start]
		open.pair = i
		stack = stack[:match]
	}

	var segs []segment
	cursor := 0
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.start > cursor {
			segs = append(segs, segment{text: body[cursor:tok.start]})
		}
		segs = append(segs, segment{call: tok.call})
		cursor = tok.end
		if tok.call.paired {
			cursor = tokens[tok.pair].end
			i = tok.pair
		}
	}
	if cursor < len(body) {
		segs = append(segs, segment{text: body[cursor:]})
	}
	return segs, nil
}

func tokenizeDirectives(body []byte) ([]directiveToken, error) {
	var tokens []directiveToken
	offset := 0
	for {
		idx := bytes.Index(body[offset:], openDelim)
		if idx < 0 {
			return tokens, nil
		}
		start := offset + idx
		endIdx := bytes.Index(body[start+len(openDelim):], closeDelim)
		if endIdx < 0 {
			return nil, &directiveError{name: directiveName(body[start+len(openDelim):]), err: ErrUnterminatedDirective}
		}
		inside := strings.TrimSpace(string(body[start+len(openDelim) : start+len(openDelim)+endIdx]))
		end := start + len(openDelim) + endIdx + len(closeDelim)

		tok := directiveToken{start: start, end: end}
		if rest, ok := strings.CutPrefix(inside, "/"); ok {
			tok.closing = true
			tok.call = &directive{name: strings.TrimSpace(rest)}
		} else {
			call, err := parseDirective(inside)
			if err != nil {
				return nil, err
			}
			tok.call = call
		}
		tokens = append(tokens, tok)
		offset = end
	}
}

func directiveName(b []byte) string {
	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimPrefix(fields[0], "/")
}

// parseDirective parses `name key="value" positional ...`.
func parseDirective(s string) (*directive, error) {
	args, err := splitArgs(s)
	if err != nil {
		return nil, &directiveError{name: directiveName([]byte(s)), err: err}
	}
	if len(args) == 0 || args[0] == "" {
		return nil, &directiveError{err: fmt.Errorf("%w: missing name", ErrUnknownDirective)}
	}
	d := &directive{name: args[0], params: make(map[string]string)}
	position := 0
	for _, arg := range args[1:] {
		key, value, isNamed := cutNamedArg(arg)
		if !isNamed {
			key = strconv.Itoa(position)
			position++
		}
		if _, dup := d.params[key]; !dup {
			d.order = append(d.order, key)
		}
		d.params[key] = value
	}
	return d, nil
}

// splitArgs splits on whitespace outside double or single quotes and
// removes the quotes.
func splitArgs(s string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		inToken bool
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}

// cutNamedArg splits key=value. The quotes were removed by splitArgs, so a
// value containing "=" is only treated as named when the key is an identifier.
func cutNamedArg(arg string) (key, value string, ok bool) {
	k, v, found := strings.Cut(arg, "=")
	if !found || k == "" {
		return "", arg, false
	}
	for _, r := range k {
		if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return "", arg, false
		}
	}
	return k, v, true
}
