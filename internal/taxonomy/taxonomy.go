// Package taxonomy groups published documents into ordered, paginated
// indexes: one per taxonomy term, one per section, the home listing and one
// per publishing year.
package taxonomy

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// IndexKind distinguishes the listing an Index backs.
type IndexKind string

const (
	KindTerm    IndexKind = "term"
	KindSection IndexKind = "section"
	KindHome    IndexKind = "home"
	KindArchive IndexKind = "archive"
)

// ArchiveSection is the URL prefix of year archives.
const ArchiveSection = "archives"

// Options controls index construction.
type Options struct {
	// Kinds are the taxonomy kinds to index, e.g. tags and categories.
	Kinds    []string
	PageSize int
	// Declared terms always get an index, even with no documents.
	Declared map[string][]string
}

// Index is an ordered, paginated list of documents. It is not modified
// after Build returns.
type Index struct {
	Kind IndexKind
	// Taxonomy is the taxonomy kind for term indexes.
	Taxonomy string
	// Key is the term slug, section name or year.
	Key  string
	Name string
	// Documents are sorted by date descending, then source path.
	Documents    []*content.Document
	Pages        []Page
	RelPermalink string
}

// Items returns the documents on page p.
func (ix *Index) Items(p Page) []*content.Document {
	return ix.Documents[p.Start:p.End]
}

// Len is the number of documents in the index.
func (ix *Index) Len() int { return len(ix.Documents) }

// Set holds every index built for one site.
type Set struct {
	kinds []string
	// Terms maps a taxonomy kind to its term indexes, sorted by slug.
	Terms    map[string][]*Index
	Sections map[string]*Index
	Home     *Index
	// Archives are sorted newest year first.
	Archives []*Index
}

// Kinds returns the configured taxonomy kinds in configuration order.
func (s *Set) Kinds() []string { return slices.Clone(s.kinds) }

// Term looks up a term index by kind and slug.
func (s *Set) Term(kind, slug string) (*Index, bool) {
	for _, ix := range s.Terms[kind] {
		if ix.Key == slug {
			return ix, true
		}
	}
	return nil, false
}

// SectionNames returns sections in sorted order.
func (s *Set) SectionNames() []string {
	names := make([]string, 0, len(s.Sections))
	for name := range s.Sections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// All returns every index in a stable order.
func (s *Set) All() []*Index {
	var out []*Index
	if s.Home != nil {
		out = append(out, s.Home)
	}
	for _, name := range s.SectionNames() {
		out = append(out, s.Sections[name])
	}
	for _, kind := range s.kinds {
		out = append(out, s.Terms[kind]...)
	}
	return append(out, s.Archives...)
}

// TaxonomyRelPermalink is the URL of the overview page of a kind.
func TaxonomyRelPermalink(kind string) string { return "/" + kind + "/" }

// Build creates all indexes from the published documents. Section index
// files (_index.md) are not listed. Term backlinks are appended to each
// document's Terms.
func Build(docs []*content.Document, opts Options) (*Set, error) {
	if opts.PageSize < 1 {
		return nil, fmt.Errorf("pagination page size must be positive, got %d", opts.PageSize)
	}

	regular := make([]*content.Document, 0, len(docs))
	for _, d := range docs {
		if !d.SectionIndex {
			d.Terms = nil
			regular = append(regular, d)
		}
	}
	slices.SortStableFunc(regular, content.Compare)

	b := &builder{opts: opts}
	set := &Set{
		kinds:    slices.Clone(opts.Kinds),
		Terms:    make(map[string][]*Index, len(opts.Kinds)),
		Sections: make(map[string]*Index),
	}

	for _, kind := range opts.Kinds {
		terms, err := b.termIndexes(kind, regular)
		if err != nil {
			return nil, err
		}
		set.Terms[kind] = terms
	}

	bySection := make(map[string][]*content.Document)
	for _, d := range regular {
		if d.Section != "" {
			bySection[d.Section] = append(bySection[d.Section], d)
		}
	}
	for name, list := range bySection {
		ix, err := b.index(KindSection, "", name, content.Humanize(name), "/"+name+"/", list)
		if err != nil {
			return nil, err
		}
		set.Sections[name] = ix
	}

	home, err := b.index(KindHome, "", "", "", "/", regular)
	if err != nil {
		return nil, err
	}
	set.Home = home

	archives, err := b.archives(regular)
	if err != nil {
		return nil, err
	}
	set.Archives = archives

	slog.Debug("Built indexes",
		logfields.Count(len(regular)),
		slog.Int("sections", len(set.Sections)),
		slog.Int("archives", len(set.Archives)))
	return set, nil
}

type builder struct {
	opts Options
}

func (b *builder) index(kind IndexKind, taxonomy, key, name, rel string, docs []*content.Document) (*Index, error) {
	pages, err := Paginate(len(docs), b.opts.PageSize)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		pages[i].RelPermalink = pageURL(rel, pages[i].Number)
	}
	return &Index{
		Kind:         kind,
		Taxonomy:     taxonomy,
		Key:          key,
		Name:         name,
		Documents:    docs,
		Pages:        pages,
		RelPermalink: rel,
	}, nil
}

// termIndexes builds one index per distinct term of kind. docs must already
// be in listing order so every index inherits it.
func (b *builder) termIndexes(kind string, docs []*content.Document) ([]*Index, error) {
	names := make(map[string]string)
	members := make(map[string][]*content.Document)

	for _, name := range b.opts.Declared[kind] {
		slug := content.Slugify(name)
		if slug == "" {
			continue
		}
		if _, ok := names[slug]; !ok {
			names[slug] = name
		}
	}

	// Display names come from the first document by source path so they do
	// not depend on dates.
	byPath := slices.Clone(docs)
	slices.SortFunc(byPath, func(x, y *content.Document) int {
		switch {
		case x.Path < y.Path:
			return -1
		case x.Path > y.Path:
			return 1
		}
		return 0
	})
	for _, d := range byPath {
		for _, name := range d.Taxonomies[kind] {
			slug := content.Slugify(name)
			if _, ok := names[slug]; !ok {
				names[slug] = name
			}
		}
	}

	for _, d := range docs {
		for _, name := range d.Taxonomies[kind] {
			slug := content.Slugify(name)
			members[slug] = append(members[slug], d)
		}
	}

	slugs := make([]string, 0, len(names))
	for slug := range names {
		slugs = append(slugs, slug)
	}
	slices.Sort(slugs)

	out := make([]*Index, 0, len(slugs))
	for _, slug := range slugs {
		rel := TaxonomyRelPermalink(kind) + slug + "/"
		ix, err := b.index(KindTerm, kind, slug, names[slug], rel, members[slug])
		if err != nil {
			return nil, err
		}
		for _, d := range ix.Documents {
			d.Terms = append(d.Terms, content.TermRef{Kind: kind, Term: slug, Name: ix.Name, RelPermalink: rel})
		}
		out = append(out, ix)
	}
	return out, nil
}

func (b *builder) archives(docs []*content.Document) ([]*Index, error) {
	byYear := make(map[int][]*content.Document)
	for _, d := range docs {
		if d.Date().IsZero() {
			continue
		}
		y := d.Date().Year()
		byYear[y] = append(byYear[y], d)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	slices.Sort(years)
	slices.Reverse(years)

	out := make([]*Index, 0, len(years))
	for _, y := range years {
		key := strconv.Itoa(y)
		ix, err := b.index(KindArchive, "", key, key, "/"+ArchiveSection+"/"+key+"/", byYear[y])
		if err != nil {
			return nil, err
		}
		out = append(out, ix)
	}
	return out, nil
}
