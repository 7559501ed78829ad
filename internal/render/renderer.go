package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"path"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

// ShortcodeSource provides directive templates.
type ShortcodeSource interface {
	Shortcode(name string) (*templates.Template, bool)
}

// RefResolver finds the document a ref or relref directive points at.
type RefResolver interface {
	Resolve(from *content.Document, target string) (*content.Document, bool)
}

// Options configures a Renderer.
type Options struct {
	Site *SiteMeta
	// Shortcodes may be nil, leaving only the built-in directives.
	Shortcodes ShortcodeSource
	Refs       RefResolver
	// AllowRawHTML passes raw HTML through for every document.
	AllowRawHTML bool
}

// Renderer converts documents to page views. It holds no mutable state and
// is safe for concurrent use.
type Renderer struct {
	opts Options
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	if opts.Site == nil {
		opts.Site = &SiteMeta{}
	}
	return &Renderer{opts: opts}
}

// Site returns the site metadata passed to layouts.
func (r *Renderer) Site() *SiteMeta { return r.opts.Site }

// Document renders the body of doc and returns its page view.
func (r *Renderer) Document(doc *content.Document) (*PageView, error) {
	body, err := r.Body(doc, doc.Body)
	if err != nil {
		return nil, err
	}

	summary := strings.TrimSpace(doc.FrontMatter.Summary)
	if summary == "" {
		summary = Summary(body)
	}

	return &PageView{
		Path:         doc.Path,
		Title:        doc.Title(),
		Section:      doc.Section,
		Type:         doc.Type(),
		Slug:         doc.Slug,
		RelPermalink: doc.RelPermalink,
		Permalink:    doc.Permalink,
		Date:         doc.Date(),
		Lastmod:      doc.Lastmod(),
		Draft:        doc.Draft(),
		Weight:       doc.FrontMatter.Weight,
		Summary:      summary,
		// #nosec G203 -- body HTML comes from the Markdown renderer's escaping policy
		Content:     template.HTML(body),
		Params:      doc.FrontMatter.Params,
		Terms:       doc.Terms,
		Aliases:     doc.FrontMatter.Aliases,
		Fingerprint: doc.Fingerprint,
	}, nil
}

// Body expands directives in src and converts it to HTML using doc's raw
// HTML policy. Errors are *RenderError.
func (r *Renderer) Body(doc *content.Document, src []byte) ([]byte, error) {
	out, err := r.body(doc, src)
	if err != nil {
		var re *RenderError
		if errors.As(err, &re) {
			return nil, err
		}
		var de *directiveError
		if errors.As(err, &de) {
			return nil, &RenderError{Path: doc.Path, Directive: de.name, Err: de.err}
		}
		return nil, &RenderError{Path: doc.Path, Err: err}
	}
	return out, nil
}

func (r *Renderer) allowRaw(doc *content.Document) bool {
	return r.opts.AllowRawHTML || doc.FrontMatter.RawHTML
}

func placeholder(i int) string { return fmt.Sprintf("SBDIRECTIVE%04dX", i) }

func (r *Renderer) body(doc *content.Document, src []byte) ([]byte, error) {
	segs, err := splitDirectives(Normalize(src))
	if err != nil {
		return nil, err
	}

	var md bytes.Buffer
	var outputs []string
	for _, seg := range segs {
		if seg.call == nil {
			md.Write(seg.text)
			continue
		}
		out, err := r.expand(doc, seg.call)
		if err != nil {
			return nil, err
		}
		md.WriteString(placeholder(len(outputs)))
		outputs = append(outputs, out)
	}

	rendered, err := Markdown(md.Bytes(), r.allowRaw(doc))
	if err != nil {
		return nil, err
	}
	for i, out := range outputs {
		token := placeholder(i)
		rendered = bytes.ReplaceAll(rendered, []byte("<p>"+token+"</p>"), []byte(out))
		rendered = bytes.ReplaceAll(rendered, []byte(token), []byte(out))
	}
	return rendered, nil
}

// ShortcodeContext is the data a directive template receives.
type ShortcodeContext struct {
	Name   string
	Params map[string]string
	Inner  template.HTML
	Page   *content.Document
	Site   *SiteMeta
}

// Get returns a named or positional ("0", "1", ...) parameter.
func (c *ShortcodeContext) Get(key string) string { return c.Params[key] }

// IsPaired reports whether the directive had a closing tag.
func (c *ShortcodeContext) IsPaired() bool { return c.Inner != "" }

func (r *Renderer) expand(doc *content.Document, call *directive) (string, error) {
	var inner template.HTML
	if call.paired {
		innerHTML, err := r.body(doc, call.inner)
		if err != nil {
			return "", err
		}
		// #nosec G203 -- inner HTML went through the same escaping policy
		inner = template.HTML(bytes.TrimSpace(innerHTML))
	}

	if r.opts.Shortcodes != nil {
		if tmpl, ok := r.opts.Shortcodes.Shortcode(call.name); ok {
			var buf bytes.Buffer
			ctx := &ShortcodeContext{Name: call.name, Params: call.params, Inner: inner, Page: doc, Site: r.opts.Site}
			if err := tmpl.Execute(&buf, ctx); err != nil {
				return "", &RenderError{Path: doc.Path, Directive: call.name, Template: tmpl.Key, Err: err}
			}
			return buf.String(), nil
		}
	}

	switch call.name {
	case "ref", "relref":
		return r.ref(doc, call)
	case "figure":
		return figure(call.params), nil
	}
	slog.Debug("Unknown directive", logfields.Path(doc.Path), logfields.Directive(call.name))
	return "", &directiveError{name: call.name, err: ErrUnknownDirective}
}

func (r *Renderer) ref(doc *content.Document, call *directive) (string, error) {
	target := call.params["0"]
	if target == "" {
		target = call.params["path"]
	}
	if target == "" {
		return "", &directiveError{name: call.name, err: errors.New("missing target")}
	}
	target, fragment, _ := strings.Cut(target, "#")
	if r.opts.Refs == nil {
		return "", &directiveError{name: call.name, err: fmt.Errorf("cannot resolve %q", target)}
	}
	found, ok := r.opts.Refs.Resolve(doc, target)
	if !ok {
		return "", &directiveError{name: call.name, err: fmt.Errorf("no document matches %q", target)}
	}
	link := found.Permalink
	if call.name == "relref" {
		link = found.RelPermalink
	}
	if fragment != "" {
		link += "#" + fragment
	}
	return html.EscapeString(link), nil
}

func figure(params map[string]string) string {
	var b strings.Builder
	b.WriteString("<figure>\n  <img src=\"")
	b.WriteString(html.EscapeString(params["src"]))
	b.WriteString("\"")
	if alt := params["alt"]; alt != "" {
		b.WriteString(" alt=\"" + html.EscapeString(alt) + "\"")
	}
	b.WriteString(">")
	if caption := params["caption"]; caption != "" {
		b.WriteString("\n  <figcaption>" + html.EscapeString(caption) + "</figcaption>")
	}
	b.WriteString("\n</figure>\n")
	return b.String()
}

// RefIndex resolves ref targets by source path, with or without the
// Markdown extension, relative to the referring document or by bundle
// directory.
type RefIndex struct {
	byKey map[string]*content.Document
}

// NewRefIndex indexes docs.
func NewRefIndex(docs []*content.Document) *RefIndex {
	idx := &RefIndex{byKey: make(map[string]*content.Document, len(docs)*2)}
	for _, d := range docs {
		idx.byKey[d.Path] = d
		trimmed := strings.TrimSuffix(d.Path, path.Ext(d.Path))
		if _, taken := idx.byKey[trimmed]; !taken {
			idx.byKey[trimmed] = d
		}
		if path.Base(trimmed) == "index" {
			idx.byKey[path.Dir(trimmed)] = d
		}
	}
	return idx
}

// Resolve implements RefResolver.
func (idx *RefIndex) Resolve(from *content.Document, target string) (*content.Document, bool) {
	target = strings.Trim(target, "/")
	keys := []string{target}
	if from != nil {
		keys = append(keys, path.Join(path.Dir(from.Path), target))
	}
	for _, k := range keys {
		if d, ok := idx.byKey[k]; ok {
			return d, true
		}
	}
	return nil, false
}
