// Package feeds generates the syndication feeds and the sitemap of a built site.
package feeds

import (
	"fmt"
	"time"

	gfeeds "github.com/gorilla/feeds"
	bm "github.com/microcosm-cc/bluemonday"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Meta describes the channel a feed belongs to.
type Meta struct {
	Title       string
	Description string
	Author      string
	// Permalink is the absolute URL of the site home.
	Permalink string
}

// Item is one feed entry. Content is rendered HTML.
type Item struct {
	Title     string
	Permalink string
	Summary   string
	Content   []byte
	Date      time.Time
	Lastmod   time.Time
	Author    string
}

// File is a generated feed document.
type File struct {
	Format    config.FeedFormat
	Path      string
	MediaType string
	Data      []byte
}

// sanitizer strips scripts and event handlers from entry content so feed
// readers never see markup the site itself would have escaped.
var sanitizer = bm.UGCPolicy()

// OutputPath returns the output-relative path of a feed format.
func OutputPath(format config.FeedFormat) string {
	switch format {
	case config.FeedAtom:
		return "atom.xml"
	case config.FeedJSON:
		return "feed.json"
	default:
		return "index.xml"
	}
}

// MediaType returns the media type advertised for a feed format.
func MediaType(format config.FeedFormat) string {
	switch format {
	case config.FeedAtom:
		return "application/atom+xml"
	case config.FeedJSON:
		return "application/feed+json"
	default:
		return "application/rss+xml"
	}
}

// Generate renders items in every requested format. Items are expected in
// listing order (newest first); limit > 0 keeps only the first limit items.
// Channel timestamps come from the newest item so identical input yields
// identical output.
func Generate(meta Meta, items []Item, formats []config.FeedFormat, limit int) ([]File, error) {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	feed := newFeed(meta, items)

	files := make([]File, 0, len(formats))
	seen := make(map[config.FeedFormat]bool, len(formats))
	for _, format := range formats {
		if seen[format] {
			continue
		}
		seen[format] = true

		var (
			out string
			err error
		)
		switch format {
		case config.FeedRSS:
			out, err = feed.ToRss()
		case config.FeedAtom:
			out, err = feed.ToAtom()
		case config.FeedJSON:
			out, err = feed.ToJSON()
		default:
			return nil, ferrors.ValidationError(fmt.Sprintf("unsupported feed format %q", format)).
				WithContext("format", string(format)).
				Build()
		}
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryRender, "failed to encode feed").
				WithContext("format", string(format)).
				Build()
		}
		files = append(files, File{
			Format:    format,
			Path:      OutputPath(format),
			MediaType: MediaType(format),
			Data:      []byte(out),
		})
	}
	return files, nil
}

func newFeed(meta Meta, items []Item) *gfeeds.Feed {
	feed := &gfeeds.Feed{
		Title:       meta.Title,
		Link:        &gfeeds.Link{Href: meta.Permalink},
		Description: meta.Description,
		Id:          meta.Permalink,
	}
	if meta.Author != "" {
		feed.Author = &gfeeds.Author{Name: meta.Author}
	}

	for _, it := range items {
		updated := it.Lastmod
		if updated.IsZero() {
			updated = it.Date
		}
		entry := &gfeeds.Item{
			Title:       it.Title,
			Link:        &gfeeds.Link{Href: it.Permalink},
			Id:          it.Permalink,
			Description: it.Summary,
			Content:     string(sanitizer.SanitizeBytes(it.Content)),
			Created:     it.Date,
			Updated:     updated,
		}
		author := it.Author
		if author == "" {
			author = meta.Author
		}
		if author != "" {
			entry.Author = &gfeeds.Author{Name: author}
		}
		feed.Items = append(feed.Items, entry)

		if updated.After(feed.Updated) {
			feed.Updated = updated
		}
		if it.Date.After(feed.Created) {
			feed.Created = it.Date
		}
	}
	return feed
}
