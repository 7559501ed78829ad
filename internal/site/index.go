package site

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/feeds"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/taxonomy"
)

// index builds the taxonomy, section, home and archive indexes.
func (s *Site) index(context.Context) error {
	set, err := taxonomy.Build(s.Documents, taxonomy.Options{
		Kinds:    s.Config.Taxonomies,
		PageSize: s.Config.Pagination.PageSize,
		Declared: s.Config.DeclaredTerms,
	})
	if err != nil {
		return err
	}
	s.Indexes = set
	s.counts.Indexes = len(set.All())
	if err := s.checkOutputPaths(); err != nil {
		return err
	}
	s.Meta = s.siteMeta()

	for _, kind := range set.Kinds() {
		slog.Debug("Indexed taxonomy", logfields.Taxonomy(kind), logfields.Count(len(set.Terms[kind])))
	}
	return nil
}

func (s *Site) siteMeta() *render.SiteMeta {
	cfg := s.Config
	meta := &render.SiteMeta{
		Title:       cfg.Title,
		BaseURL:     cfg.BaseURL,
		Description: cfg.Description,
		Language:    cfg.Language,
		Author:      cfg.Author,
		Params:      cfg.Params,
	}
	if meta.BaseURL == "" {
		meta.BaseURL = "/"
	}
	for _, name := range s.Indexes.SectionNames() {
		meta.Sections = append(meta.Sections, render.Link{
			Name:         s.sectionTitle(name),
			RelPermalink: s.Indexes.Sections[name].RelPermalink,
		})
	}
	for _, kind := range s.Indexes.Kinds() {
		meta.Taxonomies = append(meta.Taxonomies, render.Link{
			Name:         content.Humanize(kind),
			RelPermalink: taxonomy.TaxonomyRelPermalink(kind),
		})
	}
	for _, f := range cfg.Feeds.Formats {
		meta.Feeds = append(meta.Feeds, render.FeedLink{
			Format:    string(f),
			MediaType: feeds.MediaType(f),
			Permalink: content.JoinURL(cfg.BaseURL, feeds.OutputPath(f)),
		})
	}
	return meta
}

// sectionTitle is the _index.md title of a section, or its humanized name.
func (s *Site) sectionTitle(name string) string {
	if d, ok := s.SectionIndexes[name]; ok && d.FrontMatter.Title != "" {
		return d.FrontMatter.Title
	}
	return content.Humanize(name)
}

// checkOutputPaths rejects documents and sections whose output would land on
// a generated listing page, including pagination pages.
func (s *Site) checkOutputPaths() error {
	ix := s.Indexes
	listings := make(map[string]string)
	claimIndex := func(index *taxonomy.Index) {
		for _, p := range index.Pages {
			if _, taken := listings[p.OutputPath()]; !taken {
				listings[p.OutputPath()] = "listing " + p.RelPermalink
			}
		}
	}
	if ix.Home != nil {
		claimIndex(ix.Home)
	}
	for _, kind := range ix.Kinds() {
		overview := taxonomy.Page{RelPermalink: taxonomy.TaxonomyRelPermalink(kind)}
		listings[overview.OutputPath()] = "listing " + overview.RelPermalink
		for _, term := range ix.Terms[kind] {
			claimIndex(term)
		}
	}
	for _, archive := range ix.Archives {
		claimIndex(archive)
	}

	checkDocuments := func() error {
		for _, d := range s.Documents {
			if owner, taken := listings[d.OutputPath]; taken {
				return &content.ParseError{
					Path:  d.Path,
					Cause: fmt.Errorf("output path %s collides with %s", d.OutputPath, owner),
				}
			}
		}
		return nil
	}
	if err := checkDocuments(); err != nil {
		return err
	}

	for _, name := range ix.SectionNames() {
		for _, p := range ix.Sections[name].Pages {
			if owner, taken := listings[p.OutputPath()]; taken {
				return &content.ParseError{
					Path:  s.sectionSource(name),
					Cause: fmt.Errorf("section %s listing %s collides with %s", name, p.OutputPath(), owner),
				}
			}
			listings[p.OutputPath()] = "listing " + p.RelPermalink
		}
	}
	return checkDocuments()
}

// sectionSource names a file that puts a section on the site.
func (s *Site) sectionSource(name string) string {
	if d, ok := s.SectionIndexes[name]; ok {
		return d.Path
	}
	if section := s.Indexes.Sections[name]; section != nil && len(section.Documents) > 0 {
		return section.Documents[0].Path
	}
	return name
}
