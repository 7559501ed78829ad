package frontmatter

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Field is one top-level front matter key with the file line it was declared on.
type Field struct {
	Key   string
	Value any
	Line  int
}

// Matter is a decoded front matter block. Fields keep declaration order.
type Matter struct {
	Format Format
	Fields []Field
}

// Get returns the field named key.
func (m *Matter) Get(key string) (Field, bool) {
	if m == nil {
		return Field{}, false
	}
	for _, f := range m.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Map returns the fields as a plain map.
func (m *Matter) Map() map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m.Fields))
	for _, f := range m.Fields {
		out[f.Key] = f.Value
	}
	return out
}

// Decode decodes a raw block. Duplicate top-level keys are rejected.
func Decode(block Block) (*Matter, error) {
	switch block.Format {
	case FormatNone:
		return &Matter{}, nil
	case FormatYAML:
		return decodeYAML(block)
	case FormatTOML:
		return decodeTOML(block)
	default:
		return nil, fmt.Errorf("unsupported front matter format %q", block.Format)
	}
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

func decodeYAML(block Block) (*Matter, error) {
	m := &Matter{Format: FormatYAML}
	if len(bytes.TrimSpace(block.Raw)) == 0 {
		return m, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(block.Raw, &doc); err != nil {
		return nil, &SyntaxError{Line: block.StartLine + yamlErrorLine(err) - 1, Err: err}
	}
	if len(doc.Content) == 0 {
		return m, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &SyntaxError{Line: block.StartLine + root.Line - 1, Err: errors.New("front matter must be a mapping")}
	}

	seen := make(map[string]int, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		line := block.StartLine + keyNode.Line - 1
		if first, dup := seen[keyNode.Value]; dup {
			return nil, &SyntaxError{Line: line, Err: fmt.Errorf("duplicate key %q (first defined on line %d)", keyNode.Value, first)}
		}
		seen[keyNode.Value] = line

		var v any
		if err := valNode.Decode(&v); err != nil {
			return nil, &SyntaxError{Line: line, Err: err}
		}
		m.Fields = append(m.Fields, Field{Key: keyNode.Value, Value: v, Line: line})
	}
	return m, nil
}

// yamlErrorLine extracts the 1-based line from a yaml.v3 error message.
func yamlErrorLine(err error) int {
	var te *yaml.TypeError
	msg := err.Error()
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	if match := yamlLinePattern.FindStringSubmatch(msg); match != nil {
		var n int
		if _, scanErr := fmt.Sscanf(match[1], "%d", &n); scanErr == nil && n > 0 {
			return n
		}
	}
	return 1
}

var tomlKeyPattern = regexp.MustCompile(`^\s*("?)([A-Za-z0-9_.-]+)("?)\s*=`)

func decodeTOML(block Block) (*Matter, error) {
	m := &Matter{Format: FormatTOML}

	var raw map[string]any
	md, err := toml.Decode(string(block.Raw), &raw)
	if err != nil {
		line := 1
		var pe toml.ParseError
		if errors.As(err, &pe) && pe.Position.Line > 0 {
			line = pe.Position.Line
		}
		return nil, &SyntaxError{Line: block.StartLine + line - 1, Err: err}
	}

	lines := tomlKeyLines(block.Raw)
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		name := key[0]
		line, ok := lines[name]
		if !ok {
			line = 1
		}
		m.Fields = append(m.Fields, Field{Key: name, Value: raw[name], Line: block.StartLine + line - 1})
	}
	return m, nil
}

// tomlKeyLines records the first line each top-level key appears on.
// Positions are used for error reporting only.
func tomlKeyLines(raw []byte) map[string]int {
	out := make(map[string]int)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	line := 0
	inTable := false
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(text), "[") {
			inTable = true
			continue
		}
		if inTable {
			continue
		}
		if match := tomlKeyPattern.FindStringSubmatch(text); match != nil {
			if _, ok := out[match[2]]; !ok {
				out[match[2]] = line
			}
		}
	}
	return out
}
