// Package content walks a content tree and turns each Markdown file into a
// Document with a strict front matter schema and derived output location.
package content

import (
	"path"
	"strings"
	"time"
)

// SectionIndexName is the file that supplies a section's listing title and body.
const SectionIndexName = "_index.md"

// FrontMatter is the strict document metadata schema. Keys that are not part
// of the schema end up in Params.
type FrontMatter struct {
	Title      string
	Date       time.Time
	Lastmod    time.Time
	Draft      bool
	Tags       []string
	Categories []string
	Slug       string
	URL        string
	Aliases    []string
	Type       string
	Layout     string
	Summary    string
	Weight     int
	RawHTML    bool
	Params     map[string]any
}

// TermRef links a document back to a taxonomy term page.
type TermRef struct {
	Kind         string
	Term         string
	Name         string
	RelPermalink string
}

// Document is one content file.
type Document struct {
	// Path is the source path relative to the content root, slash separated.
	Path string
	// SourcePath is the absolute file path.
	SourcePath string
	// Section is the top-level content directory, "" for root files.
	Section string
	// SectionIndex marks an _index.md file.
	SectionIndex bool

	FrontMatter FrontMatter
	Body        []byte
	// BodyLine is the file line the body starts on.
	BodyLine int

	Slug string
	// OutputPath is relative to the output root, slash separated.
	OutputPath   string
	RelPermalink string
	Permalink    string
	Fingerprint  string

	// Taxonomies holds raw term names per configured kind.
	Taxonomies map[string][]string
	// Resources are page bundle files, relative to the content root.
	Resources []string

	// Terms is filled in by the taxonomy indexer.
	Terms []TermRef
}

// Title returns the front matter title or a name derived from the slug.
func (d *Document) Title() string {
	if d.FrontMatter.Title != "" {
		return d.FrontMatter.Title
	}
	return Humanize(d.Slug)
}

// Date is the publish date.
func (d *Document) Date() time.Time { return d.FrontMatter.Date }

// Lastmod falls back to the publish date.
func (d *Document) Lastmod() time.Time {
	if !d.FrontMatter.Lastmod.IsZero() {
		return d.FrontMatter.Lastmod
	}
	return d.FrontMatter.Date
}

// Type returns the front matter type, defaulting to the section.
func (d *Document) Type() string {
	if d.FrontMatter.Type != "" {
		return d.FrontMatter.Type
	}
	return d.Section
}

// Draft reports the draft flag.
func (d *Document) Draft() bool { return d.FrontMatter.Draft }

// Future reports whether the publish date is after now.
func (d *Document) Future(now time.Time) bool {
	return !d.FrontMatter.Date.IsZero() && d.FrontMatter.Date.After(now)
}

// OutputDir is the directory holding the document's index.html.
func (d *Document) OutputDir() string {
	return path.Dir(d.OutputPath)
}

// Less orders documents by date descending, then source path ascending.
func Less(a, b *Document) bool {
	if !a.FrontMatter.Date.Equal(b.FrontMatter.Date) {
		return a.FrontMatter.Date.After(b.FrontMatter.Date)
	}
	return a.Path < b.Path
}

// Compare is Less in the form slices.SortFunc expects.
func Compare(a, b *Document) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}

// JoinURL joins a base URL ending in "/" with a site-relative path.
func JoinURL(baseURL, rel string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(rel, "/")
}
