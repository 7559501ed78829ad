package site

import (
	"context"
	"log/slog"
	"slices"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/gitinfo"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// load reads the content tree and keeps the published documents.
func (s *Site) load(ctx context.Context) error {
	lastMod := s.lastMod
	if lastMod == nil && s.Config.Build.GitInfo {
		repo, err := gitinfo.Open(s.Config.ContentPath())
		if err != nil {
			slog.Warn("Git history unavailable; lastmod falls back to the publish date", logfields.Error(err))
		} else {
			lastMod = repo
		}
	}

	tree, err := content.LoadTree(ctx, s.Config.ContentPath(), content.Options{
		BaseURL: s.Config.BaseURL,
		Kinds:   s.Config.Taxonomies,
		Workers: s.Config.Build.Workers,
		LastMod: lastMod,
	})
	if err != nil {
		return err
	}
	s.Files = tree.Files

	for _, d := range tree.Documents {
		if !s.published(d) {
			continue
		}
		if d.SectionIndex {
			s.SectionIndexes[d.Section] = d
			continue
		}
		s.Documents = append(s.Documents, d)
	}
	slices.SortStableFunc(s.Documents, content.Compare)
	s.counts.Documents = len(s.Documents)

	slog.Info("Loaded content",
		logfields.Path(s.Config.ContentPath()),
		logfields.Count(len(s.Documents)),
		slog.Int("drafts_skipped", s.counts.DraftsSkipped),
		slog.Int("future_skipped", s.counts.FutureSkipped))
	return nil
}

// published applies the draft and future-date policy. Preview builds
// (build.drafts) include both drafts and future documents.
func (s *Site) published(d *content.Document) bool {
	preview := s.Config.IncludeDrafts()
	if d.Draft() && !preview {
		s.counts.DraftsSkipped++
		slog.Debug("Skipping draft", logfields.Path(d.Path))
		return false
	}
	if d.Future(s.Now) && !preview && !s.Config.Build.Future {
		s.counts.FutureSkipped++
		slog.Debug("Skipping future document", logfields.Path(d.Path), slog.Time("date", d.Date()))
		return false
	}
	return true
}
