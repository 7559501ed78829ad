// Package templates loads the layered layout set and resolves the template
// for a page through an explicit candidate chain.
//
// Layouts live under a theme's layouts/ directory and are laid out as
// <scope>/<kind>.html, where scope is a section, a content type or
// _default. Files under partials/ are available to every layout by name
// (for example {{ template "partials/head.html" . }}) and files under
// shortcodes/ back the body directives of the same name. Theme files
// shadow the embedded built-in layouts path by path.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Kind is the render kind a template serves.
type Kind string

const (
	KindSingle   Kind = "single"
	KindList     Kind = "list"
	KindTaxonomy Kind = "taxonomy"
	KindTerm     Kind = "term"
	KindHome     Kind = "home"
)

// DefaultScope is the global fallback scope.
const DefaultScope = "_default"

const (
	partialsDir   = "partials"
	shortcodesDir = "shortcodes"
	layoutExt     = ".html"
)

const (
	SourceTheme   = "theme"
	SourceBuiltin = "builtin"
)

//go:embed all:layouts
var builtinFS embed.FS

// Options controls loading.
type Options struct {
	// DisableBuiltins drops the embedded layouts so only the theme is used.
	DisableBuiltins bool
	// Funcs are added to the default function map.
	Funcs template.FuncMap
}

// Template is one parsed layout. It is safe for concurrent execution.
type Template struct {
	Key    string
	Source string
	tmpl   *template.Template
}

// Execute renders the template.
func (t *Template) Execute(w io.Writer, data any) error {
	return t.tmpl.Execute(w, data)
}

// Set is the loaded layout set. It is read-only after Load.
type Set struct {
	templates  map[string]*Template
	shortcodes map[string]*Template
}

type layer struct {
	name string
	fsys fs.FS
}

// Builtin returns the embedded default layouts, rooted at the layouts
// directory.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtinFS, "layouts")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load parses the theme's layouts over the built-in ones. themeDir may be
// empty or missing, in which case only built-ins are used.
func Load(themeDir string, opts Options) (*Set, error) {
	var layers []layer
	if themeDir != "" {
		layoutsDir := filepath.Join(themeDir, "layouts")
		if info, err := os.Stat(layoutsDir); err == nil && info.IsDir() {
			layers = append(layers, layer{name: SourceTheme, fsys: os.DirFS(layoutsDir)})
		}
	}
	if !opts.DisableBuiltins {
		sub, err := fs.Sub(builtinFS, "layouts")
		if err != nil {
			return nil, ferrors.InternalError("embedded layouts missing").WithCause(err).Build()
		}
		layers = append(layers, layer{name: SourceBuiltin, fsys: sub})
	}

	files, err := collect(layers)
	if err != nil {
		return nil, err
	}
	return parse(files, opts.Funcs)
}

type layoutFile struct {
	path   string
	source string
	body   string
}

// collect reads every layout file; the first layer providing a path wins.
func collect(layers []layer) ([]layoutFile, error) {
	seen := make(map[string]struct{})
	var out []layoutFile
	for _, l := range layers {
		err := fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || path.Ext(p) != layoutExt {
				return nil
			}
			if _, dup := seen[p]; dup {
				return nil
			}
			data, readErr := fs.ReadFile(l.fsys, p)
			if readErr != nil {
				return readErr
			}
			seen[p] = struct{}{}
			out = append(out, layoutFile{path: p, source: l.name, body: string(data)})
			return nil
		})
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read layouts").
				WithContext("layer", l.name).
				Build()
		}
	}
	slices.SortFunc(out, func(a, b layoutFile) int { return strings.Compare(a.path, b.path) })
	return out, nil
}

func parse(files []layoutFile, extra template.FuncMap) (*Set, error) {
	funcs := DefaultFuncs()
	for name, fn := range extra {
		funcs[name] = fn
	}

	base := template.New("").Funcs(funcs)
	var pages, shortcodes []layoutFile
	for _, f := range files {
		switch dir := path.Dir(f.path); {
		case dir == partialsDir:
			if _, err := base.New(f.path).Parse(f.body); err != nil {
				return nil, parseError(f, err)
			}
		case dir == shortcodesDir:
			shortcodes = append(shortcodes, f)
		case dir != "." && !strings.Contains(dir, "/"):
			pages = append(pages, f)
		default:
			slog.Debug("Ignoring layout outside <scope>/<kind>.html", logfields.Template(f.path))
		}
	}

	set := &Set{
		templates:  make(map[string]*Template, len(pages)),
		shortcodes: make(map[string]*Template, len(shortcodes)),
	}
	for _, f := range pages {
		key := strings.TrimSuffix(f.path, layoutExt)
		t, err := cloneAndParse(base, key, f)
		if err != nil {
			return nil, err
		}
		set.templates[key] = &Template{Key: key, Source: f.source, tmpl: t}
	}
	for _, f := range shortcodes {
		name := strings.TrimSuffix(path.Base(f.path), layoutExt)
		t, err := cloneAndParse(base, f.path, f)
		if err != nil {
			return nil, err
		}
		set.shortcodes[name] = &Template{Key: name, Source: f.source, tmpl: t}
	}

	slog.Debug("Loaded layouts", slog.Int("layouts", len(set.templates)), slog.Int("shortcodes", len(set.shortcodes)))
	return set, nil
}

func cloneAndParse(base *template.Template, name string, f layoutFile) (*template.Template, error) {
	clone, err := base.Clone()
	if err != nil {
		return nil, parseError(f, err)
	}
	t, err := clone.New(name).Parse(f.body)
	if err != nil {
		return nil, parseError(f, err)
	}
	return t, nil
}

func parseError(f layoutFile, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryResolution, "failed to parse layout "+f.path).
		WithContext("template", f.path).
		WithContext("source", f.source).
		Build()
}

// Keys returns every layout key in sorted order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.templates))
	for k := range s.templates {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Get returns the layout stored under key ("<scope>/<kind>").
func (s *Set) Get(key string) (*Template, bool) {
	t, ok := s.templates[key]
	return t, ok
}

// Shortcode returns the directive template called name.
func (s *Set) Shortcode(name string) (*Template, bool) {
	t, ok := s.shortcodes[name]
	return t, ok
}

// Lookup describes the page a template is needed for.
type Lookup struct {
	Kind    Kind
	Section string
	// Type is the content type, or the taxonomy kind for taxonomy and term pages.
	Type string
	// Layout is the front matter layout override.
	Layout string
}

// Candidates returns the ordered keys tried for l:
//
//  1. <section>/<layout> when a layout is set
//  2. <section>/<kind>
//  3. <type>/<kind>
//  4. _default/<kind>
//
// An empty section is the _default scope. Duplicates are dropped.
func Candidates(l Lookup) []string {
	scope := l.Section
	if scope == "" {
		scope = DefaultScope
	}
	var keys []string
	add := func(s, name string) {
		if s == "" || name == "" {
			return
		}
		k := s + "/" + name
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	add(scope, l.Layout)
	add(scope, string(l.Kind))
	add(l.Type, string(l.Kind))
	add(DefaultScope, string(l.Kind))
	return keys
}

// Resolve returns the first existing candidate for l.
func (s *Set) Resolve(l Lookup) (*Template, error) {
	candidates := Candidates(l)
	for _, key := range candidates {
		if t, ok := s.templates[key]; ok {
			return t, nil
		}
	}
	return nil, &ResolutionError{Kind: l.Kind, Section: l.Section, Candidates: candidates}
}

// ResolutionError means no candidate template exists.
type ResolutionError struct {
	Kind       Kind
	Section    string
	Candidates []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no %s template for section %q (tried %s)", e.Kind, e.Section, strings.Join(e.Candidates, ", "))
}

// Category classifies the error for the CLI adapter.
func (e *ResolutionError) Category() ferrors.ErrorCategory { return ferrors.CategoryResolution }

// IsResolutionError reports whether err is or wraps a ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
