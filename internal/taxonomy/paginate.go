package taxonomy

import (
	"fmt"
	"strconv"
	"strings"
)

// Page is one pagination group. Items are [Start, End) of the owning index.
type Page struct {
	Number int
	Start  int
	End    int
	// RelPermalink is the site-relative URL of the page.
	RelPermalink string
}

// Len is the number of items on the page.
func (p Page) Len() int { return p.End - p.Start }

// OutputPath is the file the page renders to, relative to the output root.
func (p Page) OutputPath() string {
	return outputPath(p.RelPermalink)
}

// Paginate splits n items into pages of size. Page N holds items
// [(N-1)*size, N*size). Zero items still yield one empty page.
func Paginate(n, size int) ([]Page, error) {
	if size < 1 {
		return nil, fmt.Errorf("page size must be positive, got %d", size)
	}
	if n <= 0 {
		return []Page{{Number: 1}}, nil
	}
	count := (n + size - 1) / size
	pages := make([]Page, count)
	for i := range pages {
		start := i * size
		pages[i] = Page{Number: i + 1, Start: start, End: min(start+size, n)}
	}
	return pages, nil
}

// pageURL returns base for page 1 and base/page/N/ after that.
func pageURL(base string, number int) string {
	if number <= 1 {
		return base
	}
	return base + "page/" + strconv.Itoa(number) + "/"
}

func outputPath(rel string) string {
	rel = strings.TrimLeft(rel, "/")
	if rel == "" {
		return "index.html"
	}
	return rel + "index.html"
}
