package content

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// DateLayouts are the accepted front matter date formats, tried in order.
var DateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var errInvalidDate = errors.New("invalid date")

// fieldError carries the front matter line of a schema violation.
type fieldError struct {
	line int
	err  error
}

func (e *fieldError) Error() string { return e.err.Error() }
func (e *fieldError) Unwrap() error { return e.err }

// ParseDate parses s with DateLayouts and returns it in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q (accepted: RFC3339, YYYY-MM-DDTHH:MM:SS, YYYY-MM-DD HH:MM:SS, YYYY-MM-DD)", errInvalidDate, s)
}

// decodeSchema maps decoded fields onto FrontMatter. Terms for custom
// taxonomy kinds are read from the field of the same name.
func decodeSchema(m *frontmatter.Matter, kinds []string) (FrontMatter, map[string][]string, error) {
	var fm FrontMatter
	lines := make(map[string]int, len(m.Fields))

	for _, f := range m.Fields {
		lines[f.Key] = f.Line
		var err error
		switch f.Key {
		case "title":
			fm.Title, err = asString(f.Value)
		case "date":
			fm.Date, err = asDate(f.Value)
		case "lastmod":
			fm.Lastmod, err = asDate(f.Value)
		case "draft":
			fm.Draft, err = asBool(f.Value)
		case "tags":
			fm.Tags, err = asStrings(f.Value)
		case "categories":
			fm.Categories, err = asStrings(f.Value)
		case "slug":
			fm.Slug, err = asString(f.Value)
		case "url":
			fm.URL, err = asString(f.Value)
		case "aliases":
			fm.Aliases, err = asStrings(f.Value)
		case "type":
			fm.Type, err = asString(f.Value)
		case "layout":
			fm.Layout, err = asString(f.Value)
		case "summary", "description":
			if fm.Summary == "" {
				fm.Summary, err = asString(f.Value)
			}
		case "weight":
			fm.Weight, err = asInt(f.Value)
		case "raw_html":
			fm.RawHTML, err = asBool(f.Value)
		default:
			if fm.Params == nil {
				fm.Params = make(map[string]any)
			}
			fm.Params[f.Key] = f.Value
		}
		if err != nil {
			return FrontMatter{}, nil, &fieldError{line: f.Line, err: fmt.Errorf("%s: %w", f.Key, err)}
		}
	}

	taxonomies := make(map[string][]string, len(kinds))
	for _, kind := range kinds {
		var terms []string
		switch kind {
		case "tags":
			terms = fm.Tags
		case "categories":
			terms = fm.Categories
		default:
			raw, ok := fm.Params[kind]
			if !ok {
				continue
			}
			var err error
			if terms, err = asStrings(raw); err != nil {
				return FrontMatter{}, nil, &fieldError{line: lines[kind], err: fmt.Errorf("%s: %w", kind, err)}
			}
		}
		if cleaned := cleanTerms(terms); len(cleaned) > 0 {
			taxonomies[kind] = cleaned
		}
	}
	return fm, taxonomies, nil
}

// cleanTerms drops blanks and duplicates while keeping the author's order.
func cleanTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		key := Slugify(t)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func asString(v any) (string, error) {
	switch vv := v.(type) {
	case nil:
		return "", nil
	case string:
		return vv, nil
	case int, int64, float64, bool:
		return fmt.Sprint(vv), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
}

func asBool(v any) (bool, error) {
	switch vv := v.(type) {
	case nil:
		return false, nil
	case bool:
		return vv, nil
	default:
		return false, fmt.Errorf("expected true or false, got %v", v)
	}
}

func asInt(v any) (int, error) {
	switch vv := v.(type) {
	case nil:
		return 0, nil
	case int:
		return vv, nil
	case int64:
		return int(vv), nil
	case float64:
		if vv != math.Trunc(vv) {
			return 0, fmt.Errorf("expected an integer, got %v", vv)
		}
		return int(vv), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func asStrings(v any) ([]string, error) {
	switch vv := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(vv) == "" {
			return nil, nil
		}
		return []string{vv}, nil
	case []string:
		return vv, nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, err := asString(item)
			if err != nil {
				return nil, fmt.Errorf("list item: %w", err)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}

func asDate(v any) (time.Time, error) {
	switch vv := v.(type) {
	case nil:
		return time.Time{}, nil
	case string:
		if strings.TrimSpace(vv) == "" {
			return time.Time{}, nil
		}
		return ParseDate(vv)
	case time.Time:
		// TOML local dates carry a synthetic zone; keep their wall clock.
		if strings.Contains(vv.Location().String(), "local") {
			return time.Date(vv.Year(), vv.Month(), vv.Day(), vv.Hour(), vv.Minute(), vv.Second(), vv.Nanosecond(), time.UTC), nil
		}
		return vv.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported value %v", errInvalidDate, v)
	}
}
