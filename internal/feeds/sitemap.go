package feeds

import (
	"bytes"
	"encoding/xml"
	"sort"
	"time"
)

// SitemapPath is the output-relative path of the sitemap.
const SitemapPath = "sitemap.xml"

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapEntry is one URL of the sitemap.
type SitemapEntry struct {
	Permalink string
	Lastmod   time.Time
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	Lastmod string `xml:"lastmod,omitempty"`
}

// Sitemap encodes entries sorted by URL. Duplicate URLs keep the first entry.
func Sitemap(entries []SitemapEntry) ([]byte, error) {
	sorted := make([]SitemapEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Permalink < sorted[j].Permalink })

	set := urlset{Xmlns: sitemapNamespace}
	for i, e := range sorted {
		if i > 0 && e.Permalink == sorted[i-1].Permalink {
			continue
		}
		u := sitemapURL{Loc: e.Permalink}
		if !e.Lastmod.IsZero() {
			u.Lastmod = e.Lastmod.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, u)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
