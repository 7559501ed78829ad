package site

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/taxonomy"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

// pageJob renders one document. Section index documents have no template;
// only their body is rendered, for the listing that shows it.
type pageJob struct {
	doc  *content.Document
	tmpl *templates.Template
}

// listingJob renders every page of one index, or the overview of a
// taxonomy kind when index is nil.
type listingJob struct {
	kind     templates.Kind
	tmpl     *templates.Template
	index    *taxonomy.Index
	taxonomy string
	// intro is the _index.md supplying title and body, if any.
	intro *content.Document
}

// resolve loads the template set and picks a template for every page.
func (s *Site) resolve(context.Context) error {
	set, err := templates.Load(s.Config.ThemePath(), templates.Options{
		DisableBuiltins: s.Config.Theme.DisableBuiltinLayouts,
	})
	if err != nil {
		return err
	}
	s.Templates = set

	for _, d := range s.Documents {
		tmpl, err := set.Resolve(templates.Lookup{
			Kind:    templates.KindSingle,
			Section: d.Section,
			Type:    d.Type(),
			Layout:  d.FrontMatter.Layout,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", d.Path, err)
		}
		s.pages = append(s.pages, pageJob{doc: d, tmpl: tmpl})
	}
	for _, name := range sortedKeys(s.SectionIndexes) {
		s.pages = append(s.pages, pageJob{doc: s.SectionIndexes[name]})
	}

	if err := s.resolveListings(set); err != nil {
		return err
	}

	refDocs := make([]*content.Document, 0, len(s.Documents)+len(s.SectionIndexes))
	refDocs = append(refDocs, s.Documents...)
	for _, name := range sortedKeys(s.SectionIndexes) {
		refDocs = append(refDocs, s.SectionIndexes[name])
	}
	s.renderer = render.New(render.Options{
		Site:         s.Meta,
		Shortcodes:   set,
		Refs:         render.NewRefIndex(refDocs),
		AllowRawHTML: s.Config.Markup.RawHTML,
	})

	slog.Debug("Resolved templates",
		logfields.Count(len(s.pages)),
		slog.Int("listings", len(s.listings)),
		slog.Int("layouts", len(set.Keys())))
	return nil
}

func (s *Site) resolveListings(set *templates.Set) error {
	add := func(job listingJob, lookup templates.Lookup, label string) error {
		if job.intro != nil {
			lookup.Layout = job.intro.FrontMatter.Layout
			if job.intro.FrontMatter.Type != "" {
				lookup.Type = job.intro.FrontMatter.Type
			}
		}
		tmpl, err := set.Resolve(lookup)
		if err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		job.tmpl = tmpl
		s.listings = append(s.listings, job)
		return nil
	}

	ix := s.Indexes
	if err := add(
		listingJob{kind: templates.KindHome, index: ix.Home, intro: s.SectionIndexes[""]},
		templates.Lookup{Kind: templates.KindHome},
		"home page",
	); err != nil {
		return err
	}
	for _, name := range ix.SectionNames() {
		if err := add(
			listingJob{kind: templates.KindList, index: ix.Sections[name], intro: s.SectionIndexes[name]},
			templates.Lookup{Kind: templates.KindList, Section: name, Type: name},
			"section "+name,
		); err != nil {
			return err
		}
	}
	for _, kind := range ix.Kinds() {
		lookup := templates.Lookup{Kind: templates.KindTaxonomy, Section: kind, Type: kind}
		if err := add(listingJob{kind: templates.KindTaxonomy, taxonomy: kind}, lookup, "taxonomy "+kind); err != nil {
			return err
		}
		for _, term := range ix.Terms[kind] {
			lookup := templates.Lookup{Kind: templates.KindTerm, Section: kind, Type: kind}
			if err := add(listingJob{kind: templates.KindTerm, index: term, taxonomy: kind}, lookup, kind+" "+term.Key); err != nil {
				return err
			}
		}
	}
	for _, archive := range ix.Archives {
		lookup := templates.Lookup{Kind: templates.KindList, Section: taxonomy.ArchiveSection, Type: taxonomy.ArchiveSection}
		if err := add(listingJob{kind: templates.KindList, index: archive}, lookup, "archive "+archive.Key); err != nil {
			return err
		}
	}
	return nil
}
