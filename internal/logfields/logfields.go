package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyState      = "state"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeySection    = "section"
	KeyTemplate   = "template"
	KeyDirective  = "directive"
	KeyTaxonomy   = "taxonomy"
	KeyTerm       = "term"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func Directive(name string) slog.Attr { return slog.String(KeyDirective, name) }
func Taxonomy(kind string) slog.Attr  { return slog.String(KeyTaxonomy, kind) }
func Term(t string) slog.Attr         { return slog.String(KeyTerm, t) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
