package render

import (
	"bytes"
	"html/template"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

// SiteMeta is the site-wide data every layout sees as .Site.
type SiteMeta struct {
	Title       string
	BaseURL     string
	Description string
	Language    string
	Author      string
	Params      map[string]any
	Sections    []Link
	Taxonomies  []Link
	Feeds       []FeedLink
}

// Link is a named site-relative link.
type Link struct {
	Name         string
	RelPermalink string
}

// FeedLink advertises a generated feed.
type FeedLink struct {
	Format    string
	MediaType string
	Permalink string
}

// PageView is a rendered document as layouts see it.
type PageView struct {
	Path         string
	Title        string
	Section      string
	Type         string
	Slug         string
	RelPermalink string
	Permalink    string
	Date         time.Time
	Lastmod      time.Time
	Draft        bool
	Weight       int
	Summary      string
	Content      template.HTML
	Params       map[string]any
	Terms        []content.TermRef
	Aliases      []string
	Fingerprint  string
}

// TermView is one entry of a taxonomy overview page.
type TermView struct {
	Name         string
	Term         string
	RelPermalink string
	Count        int
}

// Paginator describes the position of a listing page.
type Paginator struct {
	PageNumber int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Prev       string
	Next       string
}

// PageData is the root object passed to a layout.
type PageData struct {
	Site         *SiteMeta
	Kind         templates.Kind
	Title        string
	Description  string
	Section      string
	RelPermalink string
	Permalink    string
	// Page is set for single pages.
	Page *PageView
	// Content is the page body, or the _index.md body for listings.
	Content template.HTML
	// Pages and Paginator are set for listing pages.
	Pages     []*PageView
	Paginator *Paginator
	// Terms and Taxonomy are set for taxonomy overview pages.
	Terms    []TermView
	Taxonomy string
}

// Page executes tmpl for a single document.
func Page(view *PageView, tmpl *templates.Template, site *SiteMeta) ([]byte, error) {
	data := &PageData{
		Site:         site,
		Kind:         templates.KindSingle,
		Title:        view.Title,
		Description:  view.Summary,
		Section:      view.Section,
		RelPermalink: view.RelPermalink,
		Permalink:    view.Permalink,
		Page:         view,
		Content:      view.Content,
	}
	return Execute(tmpl, view.Path, data)
}

// Execute runs tmpl with data. path names the page in errors.
func Execute(tmpl *templates.Template, path string, data *PageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, &RenderError{Path: path, Template: tmpl.Key, Err: err}
	}
	return buf.Bytes(), nil
}
