package templates

import (
	"html/template"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// DefaultFuncs returns the functions available to every layout. None of them
// read the clock, so output depends only on the data passed in.
func DefaultFuncs() template.FuncMap {
	return template.FuncMap{
		"dateFormat": func(layout string, t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		"iso8601": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format(time.RFC3339)
		},
		// #nosec G203 -- layouts opt in explicitly
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
		"urlize":   content.Slugify,
		"humanize": content.Humanize,
		"lower":    strings.ToLower,
		"upper":    strings.ToUpper,
		"join":     strings.Join,
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
		"default": func(def, v any) any {
			if v == nil {
				return def
			}
			if s, ok := v.(string); ok && s == "" {
				return def
			}
			return v
		},
	}
}
