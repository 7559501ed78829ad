package site

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/feeds"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/taxonomy"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

// render produces every output file in memory: document pages, listing
// pages, alias redirects, feeds and the sitemap.
func (s *Site) render(ctx context.Context) error {
	if err := s.pool(ctx, len(s.pages), func(i int) error {
		return s.renderPage(s.pages[i])
	}); err != nil {
		return err
	}

	units := s.listingUnits()
	if err := s.pool(ctx, len(units), func(i int) error {
		return s.renderListing(units[i])
	}); err != nil {
		return err
	}
	s.counts.Pages = s.outputs.len()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.renderAliases(); err != nil {
		return err
	}
	if err := s.renderFeeds(); err != nil {
		return err
	}
	if err := s.renderSitemap(); err != nil {
		return err
	}

	if failures := s.renderFailures(); failures != nil {
		return failures
	}
	slog.Info("Rendered site",
		slog.Int("pages", s.counts.Pages),
		slog.Int("aliases", s.counts.Aliases),
		slog.Int("feeds", s.counts.Feeds))
	return nil
}

// pool runs fn for 0..n-1 on at most build.workers goroutines. In strict
// mode the first error cancels the remaining work. In lenient mode render
// errors are collected and the pool keeps going.
func (s *Site) pool(ctx context.Context, n int, fn func(i int) error) error {
	lenient := s.Config.Build.Lenient()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.Config.Build.Workers))
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := fn(i)
			var re *render.RenderError
			if err == nil || !errors.As(err, &re) {
				return err
			}
			s.recorder.IncRenderFailure()
			if lenient {
				s.recordFailure(re)
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

func (s *Site) recordFailure(re *render.RenderError) {
	slog.Warn("Page failed to render", logfields.Path(re.Path), logfields.Error(re.Err))
	s.failuresMu.Lock()
	s.failures = append(s.failures, re)
	s.failuresMu.Unlock()
}

func (s *Site) renderFailures() *RenderFailures {
	s.failuresMu.Lock()
	defer s.failuresMu.Unlock()
	if len(s.failures) == 0 {
		return nil
	}
	sorted := slices.Clone(s.failures)
	slices.SortStableFunc(sorted, func(a, b *render.RenderError) int { return strings.Compare(a.Path, b.Path) })
	return &RenderFailures{Failures: sorted}
}

func (s *Site) setView(docPath string, v *render.PageView) {
	s.viewsMu.Lock()
	s.views[docPath] = v
	s.viewsMu.Unlock()
}

// view returns the rendered view of a document, or nil if it failed.
func (s *Site) view(docPath string) *render.PageView {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	return s.views[docPath]
}

func (s *Site) viewsFor(docs []*content.Document) []*render.PageView {
	out := make([]*render.PageView, 0, len(docs))
	for _, d := range docs {
		if v := s.view(d.Path); v != nil {
			out = append(out, v)
		}
	}
	return out
}

func (s *Site) renderPage(job pageJob) error {
	view, err := s.renderer.Document(job.doc)
	if err != nil {
		return err
	}
	s.setView(job.doc.Path, view)
	if job.tmpl == nil {
		return nil
	}
	out, err := render.Page(view, job.tmpl, s.renderer.Site())
	if err != nil {
		return err
	}
	return s.outputs.add(job.doc.OutputPath, job.doc.Path, out)
}

// listingUnit is one page of a listing.
type listingUnit struct {
	job  *listingJob
	page taxonomy.Page
}

func (s *Site) listingUnits() []listingUnit {
	var units []listingUnit
	for i := range s.listings {
		job := &s.listings[i]
		if job.index == nil {
			rel := taxonomy.TaxonomyRelPermalink(job.taxonomy)
			units = append(units, listingUnit{job: job, page: taxonomy.Page{Number: 1, RelPermalink: rel}})
			continue
		}
		for _, p := range job.index.Pages {
			units = append(units, listingUnit{job: job, page: p})
		}
	}
	return units
}

func (s *Site) renderListing(u listingUnit) error {
	job := u.job
	data := &render.PageData{
		Site:         s.renderer.Site(),
		Kind:         job.kind,
		RelPermalink: u.page.RelPermalink,
		Permalink:    content.JoinURL(s.Config.BaseURL, u.page.RelPermalink),
		Taxonomy:     job.taxonomy,
		Paginator:    paginator(job.index, u.page),
	}

	switch job.kind {
	case templates.KindTaxonomy:
		data.Title = content.Humanize(job.taxonomy)
		data.Section = job.taxonomy
		for _, term := range s.Indexes.Terms[job.taxonomy] {
			data.Terms = append(data.Terms, render.TermView{
				Name:         term.Name,
				Term:         term.Key,
				RelPermalink: term.RelPermalink,
				Count:        term.Len(),
			})
		}
	default:
		ix := job.index
		data.Pages = s.viewsFor(ix.Items(u.page))
		switch ix.Kind {
		case taxonomy.KindHome:
			data.Description = s.Config.Description
		case taxonomy.KindSection:
			data.Title = s.sectionTitle(ix.Key)
			data.Section = ix.Key
		case taxonomy.KindTerm:
			data.Title = ix.Name
			data.Section = ix.Taxonomy
		case taxonomy.KindArchive:
			data.Title = ix.Name
			data.Section = taxonomy.ArchiveSection
		}
		if job.intro != nil {
			if job.intro.FrontMatter.Title != "" {
				data.Title = job.intro.FrontMatter.Title
			}
			if v := s.view(job.intro.Path); v != nil {
				data.Content = v.Content
				if v.Summary != "" {
					data.Description = v.Summary
				}
			}
		}
	}

	rel := u.page.OutputPath()
	out, err := render.Execute(job.tmpl, rel, data)
	if err != nil {
		return err
	}
	return s.outputs.add(rel, "listing "+u.page.RelPermalink, out)
}

func paginator(ix *taxonomy.Index, p taxonomy.Page) *render.Paginator {
	pg := &render.Paginator{PageNumber: p.Number, TotalPages: 1}
	if ix == nil {
		return pg
	}
	pg.TotalPages = len(ix.Pages)
	if p.Number > 1 {
		pg.HasPrev = true
		pg.Prev = ix.Pages[p.Number-2].RelPermalink
	}
	if p.Number < len(ix.Pages) {
		pg.HasNext = true
		pg.Next = ix.Pages[p.Number].RelPermalink
	}
	return pg
}

var aliasTemplate = template.Must(template.New("alias").Parse(`<!DOCTYPE html>
<html lang="{{ .Language }}">
<head>
  <title>{{ .Permalink }}</title>
  <link rel="canonical" href="{{ .Permalink }}">
  <meta name="robots" content="noindex">
  <meta charset="utf-8">
  <meta http-equiv="refresh" content="0; url={{ .Permalink }}">
</head>
</html>
`))

// aliasOutputPath maps an alias URL to the file holding its redirect.
func aliasOutputPath(alias string) (string, bool) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return "", false
	}
	u := path.Clean("/" + alias)
	if u == "/" {
		return "", false
	}
	if strings.HasSuffix(u, ".html") {
		return u[1:], true
	}
	return u[1:] + "/index.html", true
}

// renderAliases writes a redirect page for every front matter alias.
// Aliases never replace real pages.
func (s *Site) renderAliases() error {
	for _, d := range s.Documents {
		if s.view(d.Path) == nil {
			continue
		}
		for _, alias := range d.FrontMatter.Aliases {
			rel, ok := aliasOutputPath(alias)
			if !ok {
				slog.Warn("Ignoring alias", logfields.Path(d.Path), slog.String("alias", alias))
				continue
			}
			var buf bytes.Buffer
			err := aliasTemplate.Execute(&buf, struct{ Permalink, Language string }{d.Permalink, s.Config.Language})
			if err != nil {
				return &render.RenderError{Path: d.Path, Template: "alias", Err: err}
			}
			if s.outputs.addIfAbsent(rel, "alias of "+d.Path, buf.Bytes()) {
				s.counts.Aliases++
			}
		}
	}
	return nil
}

func (s *Site) renderFeeds() error {
	cfg := s.Config
	if len(cfg.Feeds.Formats) == 0 {
		return nil
	}
	items := make([]feeds.Item, 0, len(s.Documents))
	for _, d := range s.Documents {
		view := s.view(d.Path)
		if view == nil {
			continue
		}
		author, _ := d.FrontMatter.Params["author"].(string)
		items = append(items, feeds.Item{
			Title:     view.Title,
			Permalink: d.Permalink,
			Summary:   view.Summary,
			Content:   []byte(view.Content),
			Date:      d.Date(),
			Lastmod:   d.Lastmod(),
			Author:    author,
		})
	}
	files, err := feeds.Generate(feeds.Meta{
		Title:       cfg.Title,
		Description: cfg.Description,
		Author:      cfg.Author,
		Permalink:   content.JoinURL(cfg.BaseURL, "/"),
	}, items, cfg.Feeds.Formats, cfg.Feeds.Limit)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := s.outputs.add(f.Path, "feed "+string(f.Format), f.Data); err != nil {
			return err
		}
		s.counts.Feeds++
	}
	return nil
}

func (s *Site) renderSitemap() error {
	if s.Config.Sitemap.Disabled {
		return nil
	}
	base := s.Config.BaseURL
	var entries []feeds.SitemapEntry
	for _, d := range s.Documents {
		if s.view(d.Path) != nil {
			entries = append(entries, feeds.SitemapEntry{Permalink: d.Permalink, Lastmod: d.Lastmod()})
		}
	}
	for _, job := range s.listings {
		if job.index == nil {
			entries = append(entries, feeds.SitemapEntry{
				Permalink: content.JoinURL(base, taxonomy.TaxonomyRelPermalink(job.taxonomy)),
			})
			continue
		}
		entries = append(entries, feeds.SitemapEntry{
			Permalink: content.JoinURL(base, job.index.RelPermalink),
			Lastmod:   newestLastmod(job.index.Documents),
		})
	}
	data, err := feeds.Sitemap(entries)
	if err != nil {
		return err
	}
	return s.outputs.add(feeds.SitemapPath, "sitemap", data)
}

func newestLastmod(docs []*content.Document) time.Time {
	var newest time.Time
	for _, d := range docs {
		if lm := d.Lastmod(); lm.After(newest) {
			newest = lm
		}
	}
	return newest
}
